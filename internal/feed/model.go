package feed

import "time"

// User is a member profile as returned by the backend.
type User struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	Avatar         string  `json:"avatar"`
	Bio            string  `json:"bio,omitempty"`
	Location       string  `json:"location,omitempty"`
	Website        string  `json:"website,omitempty"`
	JoinedAt       string  `json:"joinedAt"`
	IsVerified     bool    `json:"isVerified"`
	FollowersCount int64   `json:"followersCount"`
	FollowingCount int64   `json:"followingCount"`
	PostsCount     int64   `json:"postsCount"`
	TotalSpent     float64 `json:"totalSpent"`
	AvgRating      float64 `json:"avgRating"`
	IsOnline       bool    `json:"isOnline"`
}

// Platform is a store or marketplace a purchase was made on.
type Platform struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// MediaType distinguishes image and video attachments.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Post is a shared purchase.
type Post struct {
	ID         string    `json:"id"`
	User       User      `json:"user"`
	Content    string    `json:"content"`
	Platform   Platform  `json:"platform"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Media      string    `json:"media,omitempty"`
	MediaType  MediaType `json:"mediaType,omitempty"`
	Location   string    `json:"location,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Likes      int64     `json:"likes"`
	Comments   int64     `json:"comments"`
	Reposts    int64     `json:"reposts"`
	IsLiked    bool      `json:"isLiked"`
	IsReposted bool      `json:"isReposted"`
}

// Comment belongs to a single post's comment collection.
type Comment struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int64     `json:"likes"`
	IsLiked   bool      `json:"isLiked"`
}

// TrendingItem is one row of the server-computed trending list.
type TrendingItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	Category       string `json:"category"`
	PurchasesToday int64  `json:"purchasesToday"`
	Rank           int    `json:"rank"`
	IsHot          bool   `json:"isHot"`
	IsRising       bool   `json:"isRising"`
}

// Stats is the server-computed site aggregate.
type Stats struct {
	TotalPosts      int64   `json:"totalPosts"`
	TotalMoneySpent float64 `json:"totalMoneySpent"`
	ActiveUsers     int64   `json:"activeUsers"`
}

type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

type CommentPage struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// SearchParams selects a page of keyword search results.
type SearchParams struct {
	Keyword string
	Page    int
	Size    int
}

type SearchResponse struct {
	Posts   []Post `json:"posts"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	HasNext bool   `json:"hasNext"`
	Keyword string `json:"keyword,omitempty"`
	Error   string `json:"error,omitempty"`
}

type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

type RepostResult struct {
	Reposted     bool  `json:"reposted"`
	RepostsCount int64 `json:"repostsCount"`
}

type FollowResult struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followersCount"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Visibility controls who can see a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityFriends Visibility = "FRIENDS"
)

// CreatePostRequest is the wire body for creating a post. Build it with
// CreatePostInput.Validate rather than by hand.
type CreatePostRequest struct {
	Text         string     `json:"text"`
	PlatformID   *string    `json:"platformId"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	PurchaseDate string     `json:"purchaseDate,omitempty"`
	ProductURL   string     `json:"productUrl,omitempty"`
	MediaIDs     []string   `json:"mediaIds,omitempty"`
	Visibility   Visibility `json:"visibility"`
	Location     string     `json:"location,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UploadRequest asks the backend for a direct upload target.
type UploadRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Size     int64  `json:"size"`
}

// UploadTarget is where the media bytes go, and how the post will refer to them.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	MediaID   string `json:"mediaId"`

	// FileName is the local name of the file being uploaded. It is not part
	// of the backend response.
	FileName string `json:"-"`
}

// Notification is one push event recorded for the notification feed.
type Notification struct {
	ID        string
	Type      string
	Payload   []byte
	Timestamp time.Time
	Read      bool
}
