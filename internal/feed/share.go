package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const shareTextLimit = 100

// ShareData is what a post looks like when shared outside the app.
type ShareData struct {
	URL   string
	Title string
	Text  string
}

// Share builds share data for post, linking to it under origin.
func Share(post Post, origin string) ShareData {
	text := post.Content
	if utf8.RuneCountInString(text) > shareTextLimit {
		text = string([]rune(text)[:shareTextLimit]) + "..."
	}
	return ShareData{
		URL:   strings.TrimRight(origin, "/") + "/post/" + url.PathEscape(post.ID),
		Title: fmt.Sprintf("Check out this %s purchase by %s", post.Platform.Name, post.User.Name),
		Text:  text,
	}
}

// Intents returns share links for the social networks the web client offers.
func (s ShareData) Intents() map[string]string {
	u := url.QueryEscape(s.URL)
	return map[string]string{
		"twitter":  "https://twitter.com/intent/tweet?text=" + url.QueryEscape(s.Text) + "&url=" + u,
		"facebook": "https://www.facebook.com/sharer/sharer.php?u=" + u,
		"linkedin": "https://www.linkedin.com/sharing/share-offsite/?url=" + u,
	}
}

// RelativeTime renders the age of t as "5m", "3h" or "2d".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}
