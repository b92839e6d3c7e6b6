package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"buylog/internal/feed"
)

// FakePassword is the only password FakeBackend accepts at login.
const FakePassword = "secret"

// FakeBackend is an in-memory REST backend served over httptest. The API is
// mounted under /api, the upload target service under /api/v1/media/sas and
// upload targets under /blob/{id}.
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	auth      []string
	failures  map[string]int
	posts     []feed.Post
	comments  map[string][]feed.Comment
	users     map[string]*feed.User
	following map[string]bool
	sessions  map[string]string
	trending  []feed.TrendingItem
	stats     feed.Stats
	platforms []feed.Platform
	blobs     map[string][]byte
	nextID    int
}

// NewFakeBackend starts a FakeBackend seeded with one user, "alice", and one
// post. The server is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		calls:     make(map[string]int),
		failures:  make(map[string]int),
		comments:  make(map[string][]feed.Comment),
		users:     make(map[string]*feed.User),
		following: make(map[string]bool),
		sessions:  make(map[string]string),
		blobs:     make(map[string][]byte),
	}

	alice := &feed.User{ID: "u1", Name: "Alice", Username: "alice", JoinedAt: "2023-06-01"}
	b.users[alice.Username] = alice
	b.platforms = []feed.Platform{{ID: "amazon", Name: "Amazon"}, {ID: "etsy", Name: "Etsy"}}
	b.posts = []feed.Post{{
		ID:        "p1",
		User:      *alice,
		Content:   "New headphones",
		Platform:  b.platforms[0],
		Price:     199.99,
		Currency:  "USD",
		Timestamp: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Likes:     3,
	}}
	b.trending = []feed.TrendingItem{{ID: "t1", Name: "Headphones", Rank: 1, IsHot: true}}
	b.stats = feed.Stats{TotalPosts: 1, TotalMoneySpent: 199.99, ActiveUsers: 1}

	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base URL, suitable for api.Options.BaseURL.
func (b *FakeBackend) URL() string { return b.Server.URL + "/api" }

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		b.handle(r, http.MethodGet, "/posts", b.getPosts)
		b.handle(r, http.MethodPost, "/posts", b.requireAuth(b.createPost))
		b.handle(r, http.MethodGet, "/posts/search", b.searchPosts)
		b.handle(r, http.MethodPost, "/posts/{id}/like", b.requireAuth(b.likePost))
		b.handle(r, http.MethodPost, "/posts/{id}/repost", b.requireAuth(b.repostPost))
		b.handle(r, http.MethodGet, "/posts/{id}/comments", b.getComments)
		b.handle(r, http.MethodPost, "/posts/{id}/comments", b.requireAuth(b.createComment))
		b.handle(r, http.MethodPost, "/comments/{id}/like", b.requireAuth(b.likeComment))
		b.handle(r, http.MethodGet, "/auth/me", b.requireAuth(b.me))
		b.handle(r, http.MethodPost, "/auth/login", b.login)
		b.handle(r, http.MethodPost, "/auth/register", b.register)
		b.handle(r, http.MethodGet, "/users/{username}", b.getUser)
		b.handle(r, http.MethodPost, "/users/{id}/follow", b.requireAuth(b.follow))
		b.handle(r, http.MethodGet, "/trending", b.getTrending)
		b.handle(r, http.MethodGet, "/stats", b.getStats)
		b.handle(r, http.MethodGet, "/platforms", b.getPlatforms)
		b.handle(r, http.MethodPost, "/v1/media/sas", b.requireAuth(b.requestUpload))
	})
	b.handle(r, http.MethodPut, "/blob/{id}", b.putBlob)
	return r
}

// handle registers h and records every call to it under "METHOD pattern",
// where pattern is relative to the router it is mounted on.
func (b *FakeBackend) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	route := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		b.auth = append(b.auth, req.Header.Get("Authorization"))
		status := b.failures[route]
		b.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		h(w, req)
	}))
}

// Fail makes every later call to route answer with status. Zero restores it.
func (b *FakeBackend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// Calls returns how many times route was requested.
func (b *FakeBackend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastAuthorization returns the Authorization header of the latest request.
func (b *FakeBackend) LastAuthorization() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

// Blob returns the bytes uploaded for mediaID.
func (b *FakeBackend) Blob(mediaID string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[mediaID]
	return data, ok
}

// Post returns the server's copy of a post.
func (b *FakeBackend) Post(id string) (feed.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.findPost(id); p != nil {
		return *p, true
	}
	return feed.Post{}, false
}

// SetStats replaces the server-side aggregate.
func (b *FakeBackend) SetStats(s feed.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = s
}

// Login returns a valid token for username without going through the API.
func (b *FakeBackend) Login(t testing.TB, username string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[username]
	if !ok {
		t.Fatalf("fake backend has no user %q", username)
	}
	token, err := b.issueToken(u)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func (b *FakeBackend) issueToken(u *feed.User) (string, error) {
	token, err := signJWT(u.ID, u.Username, time.Now().Add(time.Hour))
	if err != nil {
		return "", err
	}
	b.sessions[token] = u.Username
	return token, nil
}

func (b *FakeBackend) newID(prefix string) string {
	b.nextID++
	return prefix + strconv.Itoa(b.nextID)
}

func (b *FakeBackend) findPost(id string) *feed.Post {
	for i := range b.posts {
		if b.posts[i].ID == id {
			return &b.posts[i]
		}
	}
	return nil
}

// requireAuth answers 401 unless the bearer token was issued by this backend.
func (b *FakeBackend) requireAuth(h func(http.ResponseWriter, *http.Request, *feed.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		username, ok := b.sessions[token]
		var u *feed.User
		if ok {
			u = b.users[username]
		}
		b.mu.Unlock()
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		h(w, r, u)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}

// paginate returns the 1-based page of size limit.
func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return append([]T(nil), items[start:end]...)
}

func (b *FakeBackend) getPosts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, feed.PostPage{
		Posts: paginate(b.posts, intParam(r, "page", 1), intParam(r, "limit", 10)),
		Total: len(b.posts),
	})
}

func (b *FakeBackend) createPost(w http.ResponseWriter, r *http.Request, u *feed.User) {
	var req feed.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := feed.Post{
		ID:        b.newID("p"),
		User:      *u,
		Content:   req.Text,
		Price:     req.Price,
		Currency:  req.Currency,
		Location:  req.Location,
		Tags:      req.Tags,
		Timestamp: time.Now().UTC(),
	}
	if req.PlatformID != nil {
		for _, pl := range b.platforms {
			if pl.ID == *req.PlatformID {
				p.Platform = pl
			}
		}
	}
	if len(req.MediaIDs) > 0 {
		p.Media = b.Server.URL + "/blob/" + req.MediaIDs[0]
		p.MediaType = feed.MediaImage
	}
	b.posts = append([]feed.Post{p}, b.posts...)
	b.stats.TotalPosts++
	b.stats.TotalMoneySpent += req.Price
	writeJSON(w, http.StatusCreated, p)
}

// searchPosts matches the keyword case-insensitively against post content.
// Pages are 0-based.
func (b *FakeBackend) searchPosts(w http.ResponseWriter, r *http.Request) {
	kw := r.URL.Query().Get("keyword")
	page := intParam(r, "page", 0)
	size := intParam(r, "size", 10)

	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []feed.Post
	for _, p := range b.posts {
		if kw == "" || strings.Contains(strings.ToLower(p.Content), strings.ToLower(kw)) {
			matched = append(matched, p)
		}
	}
	posts := paginate(matched, page+1, size)
	writeJSON(w, http.StatusOK, feed.SearchResponse{
		Posts:   posts,
		Total:   len(matched),
		Page:    page,
		Size:    size,
		HasNext: (page+1)*size < len(matched),
		Keyword: kw,
	})
}

func (b *FakeBackend) likePost(w http.ResponseWriter, r *http.Request, _ *feed.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	p.IsLiked = !p.IsLiked
	if p.IsLiked {
		p.Likes++
	} else {
		p.Likes--
	}
	writeJSON(w, http.StatusOK, feed.LikeResult{Liked: p.IsLiked, LikesCount: p.Likes})
}

func (b *FakeBackend) repostPost(w http.ResponseWriter, r *http.Request, _ *feed.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.findPost(chi.URLParam(r, "id"))
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	p.IsReposted = !p.IsReposted
	if p.IsReposted {
		p.Reposts++
	} else {
		p.Reposts--
	}
	writeJSON(w, http.StatusOK, feed.RepostResult{Reposted: p.IsReposted, RepostsCount: p.Reposts})
}

func (b *FakeBackend) getComments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.comments[chi.URLParam(r, "id")]
	writeJSON(w, http.StatusOK, feed.CommentPage{
		Comments: paginate(all, intParam(r, "page", 1), intParam(r, "limit", 10)),
		Total:    len(all),
	})
}

func (b *FakeBackend) createComment(w http.ResponseWriter, r *http.Request, u *feed.User) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	postID := chi.URLParam(r, "id")
	p := b.findPost(postID)
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	c := feed.Comment{ID: b.newID("c"), User: *u, Content: body.Text, Timestamp: time.Now().UTC()}
	b.comments[postID] = append(b.comments[postID], c)
	p.Comments++
	writeJSON(w, http.StatusCreated, c)
}

func (b *FakeBackend) likeComment(w http.ResponseWriter, r *http.Request, _ *feed.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for postID, cs := range b.comments {
		for i := range cs {
			if cs[i].ID != id {
				continue
			}
			c := &b.comments[postID][i]
			c.IsLiked = !c.IsLiked
			if c.IsLiked {
				c.Likes++
			} else {
				c.Likes--
			}
			writeJSON(w, http.StatusOK, feed.LikeResult{Liked: c.IsLiked, LikesCount: c.Likes})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "comment not found"})
}

func (b *FakeBackend) me(w http.ResponseWriter, _ *http.Request, u *feed.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req feed.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	username, _, _ := strings.Cut(req.Email, "@")
	u, ok := b.users[username]
	if !ok || req.Password != FakePassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email or password"})
		return
	}
	token, err := b.issueToken(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, feed.AuthResult{Token: token, User: *u})
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var req feed.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.users[req.Username]; taken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
		return
	}
	u := &feed.User{ID: b.newID("u"), Name: req.Name, Username: req.Username, JoinedAt: time.Now().UTC().Format(time.DateOnly)}
	b.users[u.Username] = u
	b.stats.ActiveUsers++
	token, err := b.issueToken(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, feed.AuthResult{Token: token, User: *u})
}

func (b *FakeBackend) getUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[chi.URLParam(r, "username")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) follow(w http.ResponseWriter, r *http.Request, me *feed.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	var target *feed.User
	for _, u := range b.users {
		if u.ID == id {
			target = u
		}
	}
	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	edge := me.ID + "->" + target.ID
	b.following[edge] = !b.following[edge]
	if b.following[edge] {
		target.FollowersCount++
		me.FollowingCount++
	} else {
		target.FollowersCount--
		me.FollowingCount--
	}
	writeJSON(w, http.StatusOK, feed.FollowResult{Following: b.following[edge], FollowersCount: target.FollowersCount})
}

func (b *FakeBackend) getTrending(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := append([]feed.TrendingItem(nil), b.trending...)
	sort.Slice(items, func(i, j int) bool { return items[i].Rank < items[j].Rank })
	writeJSON(w, http.StatusOK, items)
}

func (b *FakeBackend) getStats(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.stats)
}

func (b *FakeBackend) getPlatforms(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.platforms)
}

func (b *FakeBackend) requestUpload(w http.ResponseWriter, r *http.Request, _ *feed.User) {
	var req feed.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newID("m")
	blobURL := fmt.Sprintf("%s/blob/%s", b.Server.URL, id)
	writeJSON(w, http.StatusOK, feed.UploadTarget{
		UploadURL: blobURL + "?sig=fake",
		FileURL:   blobURL,
		MediaID:   id,
	})
}

func (b *FakeBackend) putBlob(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.blobs[chi.URLParam(r, "id")] = data
	b.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}
