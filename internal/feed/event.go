package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType discriminates push envelopes.
type EventType string

const (
	EventNewPost         EventType = "NEW_POST"
	EventPostLiked       EventType = "POST_LIKED"
	EventPostReposted    EventType = "POST_REPOSTED"
	EventUserFollowed    EventType = "USER_FOLLOWED"
	EventTrendingUpdated EventType = "TRENDING_UPDATED"
	EventStatsUpdated    EventType = "STATS_UPDATED"

	// EventWildcard subscribes to every event regardless of type.
	EventWildcard EventType = "*"
)

// Known reports whether t is one of the push types the backend emits.
func (t EventType) Known() bool {
	switch t {
	case EventNewPost, EventPostLiked, EventPostReposted,
		EventUserFollowed, EventTrendingUpdated, EventStatsUpdated:
		return true
	}
	return false
}

// Event is the push envelope: {type, payload, timestamp}.
type Event struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// Time parses the envelope timestamp. It returns the zero time when absent or unparseable.
func (e Event) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

type NewPostPayload struct {
	Post Post `json:"post"`
}

type PostLikedPayload struct {
	PostID     string `json:"postId"`
	UserID     string `json:"userId"`
	LikesCount int64  `json:"likesCount"`
}

type PostRepostedPayload struct {
	PostID       string `json:"postId"`
	UserID       string `json:"userId"`
	RepostsCount int64  `json:"repostsCount"`
}

type UserFollowedPayload struct {
	FollowerID     string `json:"followerId"`
	FollowedID     string `json:"followedId"`
	FollowersCount int64  `json:"followersCount"`
}

type TrendingUpdatedPayload struct {
	TrendingItems []TrendingItem `json:"trendingItems"`
}

type StatsUpdatedPayload struct {
	Stats *Stats `json:"stats"`
}

// DecodePayload unmarshals the event payload into T.
func DecodePayload[T any](e Event) (T, error) {
	var v T
	if len(e.Payload) == 0 {
		return v, fmt.Errorf("decoding %s payload: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return v, fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return v, nil
}
