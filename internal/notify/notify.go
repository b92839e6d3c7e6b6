// Package notify records push events as a local notification feed.
package notify

import (
	"fmt"
	"sort"
	"sync"

	"buylog/internal/feed"
)

// Feed turns every push event into a stored notification.
type Feed struct {
	store  feed.NotificationStore
	ids    feed.IDGenerator
	clock  feed.Clock
	logger feed.Logger
}

func NewFeed(store feed.NotificationStore, ids feed.IDGenerator, clock feed.Clock, logger feed.Logger) *Feed {
	return &Feed{store: store, ids: ids, clock: clock, logger: logger}
}

// Attach subscribes the feed to every event src delivers.
func (f *Feed) Attach(src feed.EventSource) (stop func()) {
	return src.Subscribe(feed.EventWildcard, f.Record)
}

// Record stores ev as an unread notification. Events without a usable
// timestamp are stamped with the current time.
func (f *Feed) Record(ev feed.Event) {
	ts := ev.Time()
	if ts.IsZero() {
		ts = f.clock.Now()
	}
	n := feed.Notification{
		ID:        f.ids.New(),
		Type:      string(ev.Type),
		Payload:   append([]byte(nil), ev.Payload...),
		Timestamp: ts,
	}
	if err := f.store.InsertNotification(n); err != nil {
		f.logger.Error("recording notification", "type", n.Type, "error", err)
		return
	}
	f.logger.Debug("recorded notification", "id", n.ID, "type", n.Type)
}

// List returns up to limit notifications, newest first. limit <= 0 means all.
func (f *Feed) List(limit int) ([]feed.Notification, error) {
	ns, err := f.store.ListNotifications(limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return ns, nil
}

// MarkAsRead marks one notification read. Unknown IDs are not an error.
func (f *Feed) MarkAsRead(id string) error {
	found, err := f.store.MarkNotificationRead(id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if !found {
		f.logger.Debug("mark read: no such notification", "id", id)
	}
	return nil
}

func (f *Feed) ClearAll() error {
	if err := f.store.DeleteNotifications(); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}

func (f *Feed) UnreadCount() (int, error) {
	n, err := f.store.CountUnreadNotifications()
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MemoryStore is an in-process NotificationStore.
type MemoryStore struct {
	mu    sync.Mutex
	items []feed.Notification
}

var _ feed.NotificationStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) InsertNotification(n feed.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ID == n.ID {
			return fmt.Errorf("notification %s already exists", n.ID)
		}
	}
	m.items = append(m.items, n)
	return nil
}

func (m *MemoryStore) ListNotifications(limit int) ([]feed.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]feed.Notification, len(m.items))
	// Newest first; among equal timestamps, latest inserted first.
	for i, n := range m.items {
		out[len(out)-1-i] = n
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) DeleteNotifications() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

func (m *MemoryStore) CountUnreadNotifications() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, item := range m.items {
		if !item.Read {
			n++
		}
	}
	return n, nil
}
