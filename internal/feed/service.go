package feed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"buylog/internal/query"
)

const (
	defaultReadRetries    = 2
	defaultReadRetryDelay = time.Second
	defaultSearchSize     = 10
)

// Service is the read and mutation surface views use. Every read goes through
// the shared cache; every write funnels through a declared mutation that
// patches or invalidates the entries it affects.
type Service struct {
	backend Backend
	cache   *query.Cache
	creds   CredentialStore
	media   MediaTarget
	logger  Logger
	clock   Clock

	retries    int
	retryDelay time.Duration

	unsubscribeCreds func()
}

// NewService wires a Service. media may be nil when uploads are not configured.
// The caller must call Close when done.
func NewService(backend Backend, cache *query.Cache, creds CredentialStore, media MediaTarget, logger Logger, clock Clock) *Service {
	s := &Service{
		backend:    backend,
		cache:      cache,
		creds:      creds,
		media:      media,
		logger:     logger,
		clock:      clock,
		retries:    defaultReadRetries,
		retryDelay: defaultReadRetryDelay,
	}
	s.unsubscribeCreds = creds.Subscribe(s.onCredentialChange)
	return s
}

// SetRetry changes how many times failed reads are retried and the initial delay.
func (s *Service) SetRetry(retries int, delay time.Duration) {
	s.retries = retries
	s.retryDelay = delay
}

// Cache exposes the shared cache so views can subscribe to changes.
func (s *Service) Cache() *query.Cache { return s.cache }

// Close detaches the service from the credential store.
func (s *Service) Close() {
	s.unsubscribeCreds()
}

func (s *Service) onCredentialChange(token string) {
	if token == "" {
		s.logger.Info("credential cleared, dropping current user")
		s.cache.Remove(CurrentUserKey)
		return
	}
	s.cache.Invalidate(CurrentUserKey)
}

func (s *Service) readOpts(stale time.Duration) query.Options {
	return query.Options{
		StaleTime:   stale,
		Retry:       s.retries,
		RetryDelay:  s.retryDelay,
		ShouldRetry: IsRetryable,
	}
}

// Reads

func (s *Service) Posts(ctx context.Context, page, limit int) (*PostPage, error) {
	return query.Get(ctx, s.cache, PostsPageKey(page, limit), func(ctx context.Context) (*PostPage, error) {
		return s.backend.GetPosts(ctx, page, limit)
	}, s.readOpts(PostsStaleTime))
}

// SearchPosts is disabled for keywords shorter than MinSearchKeyword. An
// empty keyword lists every post.
func (s *Service) SearchPosts(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	p.Keyword = strings.TrimSpace(p.Keyword)
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSearchSize
	}
	opts := s.readOpts(SearchStaleTime)
	opts.Disabled = p.Keyword != "" && utf8.RuneCountInString(p.Keyword) < MinSearchKeyword
	return query.Get(ctx, s.cache, SearchKey(p), func(ctx context.Context) (*SearchResponse, error) {
		return s.backend.SearchPosts(ctx, p)
	}, opts)
}

// CurrentUser is enabled only while a credential is present, and is never retried.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	opts := s.readOpts(CurrentUserStaleTime)
	opts.Disabled = !s.creds.Authenticated()
	opts.Retry = 0
	return query.Get(ctx, s.cache, CurrentUserKey, s.backend.GetCurrentUser, opts)
}

func (s *Service) UserProfile(ctx context.Context, username string) (*User, error) {
	opts := s.readOpts(0)
	opts.Disabled = username == ""
	return query.Get(ctx, s.cache, ProfileKey(username), func(ctx context.Context) (*User, error) {
		return s.backend.GetUserProfile(ctx, username)
	}, opts)
}

func (s *Service) Trending(ctx context.Context) ([]TrendingItem, error) {
	return query.Get(ctx, s.cache, TrendingKey, s.backend.GetTrending, s.readOpts(TrendingStaleTime))
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return query.Get(ctx, s.cache, StatsKey, s.backend.GetStats, s.readOpts(StatsStaleTime))
}

func (s *Service) Platforms(ctx context.Context) ([]Platform, error) {
	return query.Get(ctx, s.cache, PlatformsKey, s.backend.GetPlatforms, s.readOpts(PlatformsStaleTime))
}

func (s *Service) Comments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	opts := s.readOpts(CommentsStaleTime)
	opts.Disabled = postID == ""
	return query.Get(ctx, s.cache, CommentsPageKey(postID, page, limit), func(ctx context.Context) (*CommentPage, error) {
		return s.backend.GetPostComments(ctx, postID, page, limit)
	}, opts)
}

// Mutations

// CreatePost validates the form before sending it. The new post's position in
// the feed is unknown, so every posts entry is invalidated.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*Post, error) {
	req, err := in.Validate()
	if err != nil {
		return nil, err
	}
	return query.Mutate(ctx, s.cache, query.Mutation[*Post]{
		Action: func(ctx context.Context) (*Post, error) {
			return s.backend.CreatePost(ctx, req)
		},
		OnSuccess: func(c *query.Cache, _ *Post) {
			c.Invalidate(PostsKey)
		},
	})
}

// LikePost toggles a like and writes the server's count and flag into every
// cached copy of the post.
func (s *Service) LikePost(ctx context.Context, postID string) (*LikeResult, error) {
	return query.Mutate(ctx, s.cache, query.Mutation[*LikeResult]{
		Action: func(ctx context.Context) (*LikeResult, error) {
			return s.backend.LikePost(ctx, postID)
		},
		OnSuccess: func(_ *query.Cache, r *LikeResult) {
			s.applyPostPatch(LikePatch(postID, *r))
		},
		Dependents: []query.Key{PostsKey},
	})
}

// RepostPost toggles a repost and writes the server's count and flag into
// every cached copy of the post.
func (s *Service) RepostPost(ctx context.Context, postID string) (*RepostResult, error) {
	return query.Mutate(ctx, s.cache, query.Mutation[*RepostResult]{
		Action: func(ctx context.Context) (*RepostResult, error) {
			return s.backend.RepostPost(ctx, postID)
		},
		OnSuccess: func(_ *query.Cache, r *RepostResult) {
			s.applyPostPatch(RepostPatch(postID, *r))
		},
		Dependents: []query.Key{PostsKey},
	})
}

func (s *Service) CreateComment(ctx context.Context, postID, text string) (*Comment, error) {
	text, err := ValidateComment(text)
	if err != nil {
		return nil, err
	}
	return query.Mutate(ctx, s.cache, query.Mutation[*Comment]{
		Action: func(ctx context.Context) (*Comment, error) {
			return s.backend.CreateComment(ctx, postID, text)
		},
		OnSuccess: func(c *query.Cache, _ *Comment) {
			c.Invalidate(PostCommentsKey(postID))
			c.Invalidate(PostsKey)
		},
	})
}

func (s *Service) LikeComment(ctx context.Context, commentID string) (*LikeResult, error) {
	return query.Mutate(ctx, s.cache, query.Mutation[*LikeResult]{
		Action: func(ctx context.Context) (*LikeResult, error) {
			return s.backend.LikeComment(ctx, commentID)
		},
		OnSuccess: func(c *query.Cache, r *LikeResult) {
			patch := CommentLikePatch(commentID, *r)
			c.Update(CommentsKey, func(_ query.Key, v any) (any, bool) {
				return patch.Apply(v)
			})
		},
		Dependents: []query.Key{CommentsKey},
	})
}

func (s *Service) FollowUser(ctx context.Context, userID string) (*FollowResult, error) {
	return query.Mutate(ctx, s.cache, query.Mutation[*FollowResult]{
		Action: func(ctx context.Context) (*FollowResult, error) {
			return s.backend.FollowUser(ctx, userID)
		},
		OnSuccess: func(c *query.Cache, _ *FollowResult) {
			c.Invalidate(UserProfileKey)
			c.Invalidate(CurrentUserKey)
		},
	})
}

// Login stores the returned credential, which enables auth-gated reads.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	r, err := s.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return r, s.storeSession(r)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	r, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return r, s.storeSession(r)
}

func (s *Service) storeSession(r *AuthResult) error {
	if r.Token == "" {
		return fmt.Errorf("storing credential: server returned an empty token")
	}
	if err := s.creds.Set(r.Token); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	s.cache.Invalidate(CurrentUserKey)
	s.logger.Info("logged in", "user", r.User.Username)
	return nil
}

// Logout clears the credential and every cached resource.
func (s *Service) Logout() error {
	if err := s.creds.Clear(); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	s.cache.Clear()
	return nil
}

// applyPostPatch writes p into every posts entry, search results included.
func (s *Service) applyPostPatch(p PostPatch) int {
	return s.cache.Update(PostsKey, func(_ query.Key, v any) (any, bool) {
		return p.Apply(v)
	})
}
