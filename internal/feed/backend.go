package feed

import (
	"context"
	"io"
)

// Backend is the REST surface the service reads from and mutates through.
type Backend interface {
	GetPosts(ctx context.Context, page, limit int) (*PostPage, error)
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	LikePost(ctx context.Context, postID string) (*LikeResult, error)
	RepostPost(ctx context.Context, postID string) (*RepostResult, error)
	GetPostComments(ctx context.Context, postID string, page, limit int) (*CommentPage, error)
	CreateComment(ctx context.Context, postID, text string) (*Comment, error)
	LikeComment(ctx context.Context, commentID string) (*LikeResult, error)
	GetCurrentUser(ctx context.Context) (*User, error)
	GetUserProfile(ctx context.Context, username string) (*User, error)
	FollowUser(ctx context.Context, userID string) (*FollowResult, error)
	GetTrending(ctx context.Context) ([]TrendingItem, error)
	GetStats(ctx context.Context) (*Stats, error)
	GetPlatforms(ctx context.Context) ([]Platform, error)
	SearchPosts(ctx context.Context, params SearchParams) (*SearchResponse, error)
	RequestUpload(ctx context.Context, req UploadRequest) (*UploadTarget, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
}

// CredentialStore holds the single bearer credential and broadcasts changes.
// Subscribers receive the new token, or "" when it was cleared.
type CredentialStore interface {
	Token() string
	Authenticated() bool
	Set(token string) error
	Clear() error
	Subscribe(fn func(token string)) (unsubscribe func())
}

// EventSource delivers push events by exact type. EventWildcard receives all of them.
type EventSource interface {
	Subscribe(eventType EventType, fn func(Event)) (unsubscribe func())
}

// MediaTarget receives the bytes of an upload once the backend has handed out a target.
// progress is called with a percentage in [0, 100] and may be nil.
type MediaTarget interface {
	Put(ctx context.Context, target UploadTarget, body io.Reader, size int64, contentType string, progress func(percent int)) error
}

// NotificationStore persists the notification feed, newest first.
type NotificationStore interface {
	InsertNotification(n Notification) error
	ListNotifications(limit int) ([]Notification, error)
	MarkNotificationRead(id string) (bool, error)
	DeleteNotifications() error
	CountUnreadNotifications() (int, error)
}
