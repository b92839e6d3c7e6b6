package feed

// PostPatch overwrites server-authoritative fields of one post wherever it is
// cached. Nil fields are left alone. Mutation responses and push events both
// go through it.
type PostPatch struct {
	PostID     string
	Likes      *int64
	IsLiked    *bool
	Reposts    *int64
	IsReposted *bool
}

// LikePatch builds the patch for a like toggle response.
func LikePatch(postID string, r LikeResult) PostPatch {
	return PostPatch{PostID: postID, Likes: &r.LikesCount, IsLiked: &r.Liked}
}

// RepostPatch builds the patch for a repost toggle response.
func RepostPatch(postID string, r RepostResult) PostPatch {
	return PostPatch{PostID: postID, Reposts: &r.RepostsCount, IsReposted: &r.Reposted}
}

// Patch builds the patch for a POST_LIKED push.
func (p PostLikedPayload) Patch() PostPatch {
	liked := true
	return PostPatch{PostID: p.PostID, Likes: &p.LikesCount, IsLiked: &liked}
}

// Patch builds the patch for a POST_REPOSTED push.
func (p PostRepostedPayload) Patch() PostPatch {
	reposted := true
	return PostPatch{PostID: p.PostID, Reposts: &p.RepostsCount, IsReposted: &reposted}
}

func (p PostPatch) apply(post Post) (Post, bool) {
	if post.ID != p.PostID {
		return post, false
	}
	before := post
	if p.Likes != nil {
		post.Likes = *p.Likes
	}
	if p.IsLiked != nil {
		post.IsLiked = *p.IsLiked
	}
	if p.Reposts != nil {
		post.Reposts = *p.Reposts
	}
	if p.IsReposted != nil {
		post.IsReposted = *p.IsReposted
	}
	changed := post.Likes != before.Likes || post.IsLiked != before.IsLiked ||
		post.Reposts != before.Reposts || post.IsReposted != before.IsReposted
	return post, changed
}

// Posts returns a copy of posts with the patch applied, or the original slice
// and false when no post changed.
func (p PostPatch) Posts(posts []Post) ([]Post, bool) {
	var out []Post
	for i, post := range posts {
		next, changed := p.apply(post)
		if !changed {
			continue
		}
		if out == nil {
			out = append([]Post(nil), posts...)
		}
		out[i] = next
	}
	if out == nil {
		return posts, false
	}
	return out, true
}

// Apply patches any cached value that holds posts. Values are never modified
// in place; a changed value is returned as a new copy.
func (p PostPatch) Apply(v any) (any, bool) {
	switch v := v.(type) {
	case *PostPage:
		posts, ok := p.Posts(v.Posts)
		if !ok {
			return v, false
		}
		next := *v
		next.Posts = posts
		return &next, true
	case *SearchResponse:
		posts, ok := p.Posts(v.Posts)
		if !ok {
			return v, false
		}
		next := *v
		next.Posts = posts
		return &next, true
	case *Post:
		post, ok := p.apply(*v)
		if !ok {
			return v, false
		}
		return &post, true
	default:
		return v, false
	}
}

// CommentPatch overwrites server-authoritative fields of one comment.
type CommentPatch struct {
	CommentID string
	Likes     *int64
	IsLiked   *bool
}

// CommentLikePatch builds the patch for a comment like toggle response.
func CommentLikePatch(commentID string, r LikeResult) CommentPatch {
	return CommentPatch{CommentID: commentID, Likes: &r.LikesCount, IsLiked: &r.Liked}
}

// Apply patches a cached comment page.
func (p CommentPatch) Apply(v any) (any, bool) {
	page, ok := v.(*CommentPage)
	if !ok {
		return v, false
	}
	var comments []Comment
	for i, c := range page.Comments {
		if c.ID != p.CommentID {
			continue
		}
		next := c
		if p.Likes != nil {
			next.Likes = *p.Likes
		}
		if p.IsLiked != nil {
			next.IsLiked = *p.IsLiked
		}
		if next.Likes == c.Likes && next.IsLiked == c.IsLiked {
			continue
		}
		if comments == nil {
			comments = append([]Comment(nil), page.Comments...)
		}
		comments[i] = next
	}
	if comments == nil {
		return v, false
	}
	out := *page
	out.Comments = comments
	return &out, true
}
