package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"buylog/internal/feed"
)

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

func (c *Client) GetPosts(ctx context.Context, page, limit int) (*feed.PostPage, error) {
	var out feed.PostPage
	if err := c.do(ctx, http.MethodGet, c.endpoint("/posts", pageQuery(page, limit)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePost(ctx context.Context, req feed.CreatePostRequest) (*feed.Post, error) {
	var out feed.Post
	if err := c.do(ctx, http.MethodPost, c.endpoint("/posts", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LikePost(ctx context.Context, postID string) (*feed.LikeResult, error) {
	var out feed.LikeResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/posts/"+url.PathEscape(postID)+"/like", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RepostPost(ctx context.Context, postID string) (*feed.RepostResult, error) {
	var out feed.RepostResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/posts/"+url.PathEscape(postID)+"/repost", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPostComments(ctx context.Context, postID string, page, limit int) (*feed.CommentPage, error) {
	var out feed.CommentPage
	u := c.endpoint("/posts/"+url.PathEscape(postID)+"/comments", pageQuery(page, limit))
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, text string) (*feed.Comment, error) {
	var out feed.Comment
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, c.endpoint("/posts/"+url.PathEscape(postID)+"/comments", nil), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LikeComment(ctx context.Context, commentID string) (*feed.LikeResult, error) {
	var out feed.LikeResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/comments/"+url.PathEscape(commentID)+"/like", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCurrentUser(ctx context.Context) (*feed.User, error) {
	var out feed.User
	if err := c.do(ctx, http.MethodGet, c.endpoint("/auth/me", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserProfile(ctx context.Context, username string) (*feed.User, error) {
	var out feed.User
	if err := c.do(ctx, http.MethodGet, c.endpoint("/users/"+url.PathEscape(username), nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FollowUser(ctx context.Context, userID string) (*feed.FollowResult, error) {
	var out feed.FollowResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/users/"+url.PathEscape(userID)+"/follow", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTrending(ctx context.Context) ([]feed.TrendingItem, error) {
	out := []feed.TrendingItem{}
	if err := c.do(ctx, http.MethodGet, c.endpoint("/trending", nil), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStats(ctx context.Context) (*feed.Stats, error) {
	var out feed.Stats
	if err := c.do(ctx, http.MethodGet, c.endpoint("/stats", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPlatforms(ctx context.Context) ([]feed.Platform, error) {
	out := []feed.Platform{}
	if err := c.do(ctx, http.MethodGet, c.endpoint("/platforms", nil), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPosts sends the keyword only when it is at least feed.MinSearchKeyword
// characters after trimming; shorter keywords list every post.
func (c *Client) SearchPosts(ctx context.Context, p feed.SearchParams) (*feed.SearchResponse, error) {
	q := url.Values{
		"page": {strconv.Itoa(p.Page)},
		"size": {strconv.Itoa(p.Size)},
	}
	if kw := strings.TrimSpace(p.Keyword); len([]rune(kw)) >= feed.MinSearchKeyword {
		q.Set("keyword", kw)
	}
	var out feed.SearchResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("/posts/search", q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestUpload asks for a direct upload target. The media service lives at
// the backend origin rather than under the API base path.
func (c *Client) RequestUpload(ctx context.Context, req feed.UploadRequest) (*feed.UploadTarget, error) {
	var out feed.UploadTarget
	if err := c.do(ctx, http.MethodPost, c.originEndpoint("/api/v1/media/sas"), req, &out); err != nil {
		return nil, err
	}
	if out.UploadURL == "" || out.MediaID == "" {
		return nil, ErrMalformedResponse
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req feed.LoginRequest) (*feed.AuthResult, error) {
	var out feed.AuthResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/auth/login", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req feed.RegisterRequest) (*feed.AuthResult, error) {
	var out feed.AuthResult
	if err := c.do(ctx, http.MethodPost, c.endpoint("/auth/register", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
