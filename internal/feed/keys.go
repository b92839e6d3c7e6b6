package feed

import (
	"strconv"
	"strings"
	"time"

	"buylog/internal/query"
)

// Key prefixes for each cached resource collection.
var (
	PostsKey       = query.Key{"posts"}
	CommentsKey    = query.Key{"comments"}
	CurrentUserKey = query.Key{"currentUser"}
	UserProfileKey = query.Key{"userProfile"}
	TrendingKey    = query.Key{"trending"}
	StatsKey       = query.Key{"stats"}
	PlatformsKey   = query.Key{"platforms"}
)

// Stale times per resource.
const (
	PostsStaleTime       = 5 * time.Minute
	SearchStaleTime      = 2 * time.Minute
	CurrentUserStaleTime = 10 * time.Minute
	TrendingStaleTime    = 2 * time.Minute
	StatsStaleTime       = 5 * time.Minute
	PlatformsStaleTime   = 30 * time.Minute
	CommentsStaleTime    = 5 * time.Minute

	TrendingRefreshInterval = 2 * time.Minute
	StatsRefreshInterval    = 5 * time.Minute
)

// MinSearchKeyword is the shortest trimmed keyword sent to the search endpoint.
const MinSearchKeyword = 2

func PostsPageKey(page, limit int) query.Key {
	return query.Key{"posts", strconv.Itoa(page), strconv.Itoa(limit)}
}

// SearchKey keeps search results under the posts prefix so post patches and
// invalidations reach them.
func SearchKey(p SearchParams) query.Key {
	return query.Key{"posts", "search", strings.TrimSpace(p.Keyword), strconv.Itoa(p.Page), strconv.Itoa(p.Size)}
}

func ProfileKey(username string) query.Key {
	return query.Key{"userProfile", username}
}

func PostCommentsKey(postID string) query.Key {
	return query.Key{"comments", postID}
}

func CommentsPageKey(postID string, page, limit int) query.Key {
	return query.Key{"comments", postID, strconv.Itoa(page), strconv.Itoa(limit)}
}
