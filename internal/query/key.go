package query

import "strings"

// Key identifies a cache entry as ordered segments, resource kind first:
// {"posts", "0", "10"} or {"comments", postID, "0", "20"}.
type Key []string

func (k Key) String() string { return strings.Join(k, ":") }

// HasPrefix reports whether every segment of prefix matches the head of k.
// The empty key is a prefix of every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// id is the map key for an entry. Segments may contain ':' so a separator
// that cannot appear in text is used.
func (k Key) id() string { return strings.Join(k, "\x00") }

func (k Key) clone() Key { return append(Key(nil), k...) }
