package query

import (
	"context"
	"time"
)

// Mutation describes a server write and how the cache follows it.
type Mutation[T any] struct {
	// Action performs the write against the server.
	Action func(ctx context.Context) (T, error)

	// Optimistic, if set, patches the cache before Action runs. Entries under
	// Dependents are snapshotted first and restored if Action fails.
	Optimistic func(c *Cache)

	// OnSuccess applies the server's authoritative result to the cache.
	OnSuccess func(c *Cache, result T)

	// Dependents are the key prefixes this mutation affects. They are marked
	// stale when Action fails.
	Dependents []Key
}

type snapshot struct {
	entry     *entry
	value     any
	hasValue  bool
	fetchedAt time.Time
	writes    uint64
}

// Mutate runs m. On failure any optimistic patch is rolled back for entries
// nobody else has written since, every dependent is invalidated, and the
// error is returned unchanged.
func Mutate[T any](ctx context.Context, c *Cache, m Mutation[T]) (T, error) {
	var snaps []snapshot
	if m.Optimistic != nil {
		snaps = c.snapshot(m.Dependents)
		m.Optimistic(c)
		c.markWrites(snaps)
	}

	result, err := m.Action(ctx)
	if err != nil {
		c.rollback(snaps)
		for _, k := range m.Dependents {
			c.Invalidate(k)
		}
		var zero T
		return zero, err
	}

	if m.OnSuccess != nil {
		m.OnSuccess(c, result)
	}
	return result, nil
}

func (c *Cache) snapshot(prefixes []Key) []snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snaps []snapshot
	for _, e := range c.entries {
		for _, p := range prefixes {
			if e.key.HasPrefix(p) {
				snaps = append(snaps, snapshot{
					entry:     e,
					value:     e.value,
					hasValue:  e.hasValue,
					fetchedAt: e.fetchedAt,
				})
				break
			}
		}
	}
	return snaps
}

// markWrites records each entry's write count as of the end of the optimistic patch.
func (c *Cache) markWrites(snaps []snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range snaps {
		snaps[i].writes = snaps[i].entry.writes
	}
}

func (c *Cache) rollback(snaps []snapshot) {
	c.mu.Lock()
	var events []Event
	for _, s := range snaps {
		e := s.entry
		if c.entries[e.id] != e || e.writes != s.writes {
			continue
		}
		e.value = s.value
		e.hasValue = s.hasValue
		e.fetchedAt = s.fetchedAt
		e.writes++
		events = append(events, Event{Key: e.key, Kind: Updated})
	}
	c.mu.Unlock()

	c.emit(events)
}
