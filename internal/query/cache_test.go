package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"buylog/internal/feed"
	"buylog/internal/query"
	"buylog/internal/testutil"
)

func newTestCache(t *testing.T) (*query.Cache, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	return query.New(clock, feed.NewNopLogger()), clock
}

func countingFetch(calls *atomic.Int64, value any) query.Fetcher {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestCache_Read_WithinStaleTime(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(t)
	key := query.Key{"posts", "0", "10"}
	opts := query.Options{StaleTime: 5 * time.Minute}

	var calls atomic.Int64
	fetch := countingFetch(&calls, "page-0")

	for i := 0; i < 2; i++ {
		got, err := c.Read(context.Background(), key, fetch, opts)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got != "page-0" {
			t.Errorf("Read() = %v, want %v", got, "page-0")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}

	clock.Advance(5*time.Minute - time.Second)
	if _, err := c.Read(context.Background(), key, fetch, opts); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls before horizon = %d, want 1", calls.Load())
	}

	clock.Advance(2 * time.Second)
	if _, err := c.Read(context.Background(), key, fetch, opts); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("fetch calls after horizon = %d, want 2", calls.Load())
	}
}

func TestCache_Read_Disabled(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"currentUser"}

	var calls atomic.Int64
	_, err := c.Read(context.Background(), key, countingFetch(&calls, "me"), query.Options{Disabled: true})
	if !errors.Is(err, query.ErrDisabled) {
		t.Fatalf("Read() error = %v, want ErrDisabled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("fetch calls = %d, want 0", calls.Load())
	}
	if _, ok := c.Peek(key); ok {
		t.Error("Peek() found an entry for a disabled query")
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Keys() = %v, want none", c.Keys())
	}
}

func TestCache_Read_ConcurrentReadersShareFetch(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"trending"}

	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "items", nil
	}

	const readers = 5
	var wg sync.WaitGroup
	results := make(chan any, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Read(context.Background(), key, fetch, query.Options{StaleTime: time.Minute})
			if err != nil {
				t.Errorf("Read() error = %v", err)
			}
			results <- v
		}()
	}

	testutil.Eventually(t, func() bool { return calls.Load() == 1 }, "first fetch to start")
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		if v != "items" {
			t.Errorf("Read() = %v, want %v", v, "items")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestCache_Read_CancelOneWaiterKeepsFetch(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"stats"}

	started := make(chan struct{})
	release := make(chan struct{})
	var fetchCancelled atomic.Bool
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-release:
			return "stats", nil
		case <-ctx.Done():
			fetchCancelled.Store(true)
			return nil, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Read(ctxA, key, fetch, query.Options{StaleTime: time.Minute})
		errA <- err
	}()
	<-started

	gotB := make(chan any, 1)
	go func() {
		v, err := c.Read(context.Background(), key, fetch, query.Options{StaleTime: time.Minute})
		if err != nil {
			t.Errorf("second Read() error = %v", err)
		}
		gotB <- v
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Read() error = %v, want context.Canceled", err)
	}

	close(release)
	if v := <-gotB; v != "stats" {
		t.Errorf("second Read() = %v, want %v", v, "stats")
	}
	if fetchCancelled.Load() {
		t.Error("fetch was cancelled while another reader depended on it")
	}
	if v, ok := c.Peek(key); !ok || v != "stats" {
		t.Errorf("Peek() = %v, %v; want stats, true", v, ok)
	}
}

func TestCache_Read_CancelLastWaiterDiscardsResult(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"comments", "p1", "0", "20"}

	started := make(chan struct{})
	finished := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		defer close(finished)
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Read(ctx, key, fetch, query.Options{StaleTime: time.Minute})
		errCh <- err
	}()
	<-started
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Read() error = %v, want context.Canceled", err)
	}
	<-finished
	time.Sleep(10 * time.Millisecond)

	if v, ok := c.Peek(key); ok {
		t.Errorf("Peek() = %v after the only reader left, want no value", v)
	}
}

func TestCache_Invalidate_DiscardsInFlightResult(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"posts", "0", "10"}
	opts := query.Options{StaleTime: time.Minute}

	started := make(chan struct{})
	release := make(chan struct{})
	oldFetch := func(context.Context) (any, error) {
		close(started)
		<-release
		return "old", nil
	}

	oldResult := make(chan any, 1)
	go func() {
		v, _ := c.Read(context.Background(), key, oldFetch, opts)
		oldResult <- v
	}()
	<-started

	c.Invalidate(query.Key{"posts"})

	got, err := c.Read(context.Background(), key, func(context.Context) (any, error) {
		return "new", nil
	}, opts)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != "new" {
		t.Errorf("Read() after invalidate = %v, want new", got)
	}

	close(release)
	if v := <-oldResult; v != "old" {
		t.Errorf("superseded reader got %v, want its own result old", v)
	}
	if v, _ := c.Peek(key); v != "new" {
		t.Errorf("Peek() = %v, want new", v)
	}
}

func TestCache_Invalidate_ForcesRefetchUnderPrefixOnly(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	opts := query.Options{StaleTime: time.Hour}

	var posts, stats atomic.Int64
	postsKey := query.Key{"posts", "0", "10"}
	searchKey := query.Key{"posts", "search", "shoes", "0", "10"}
	statsKey := query.Key{"stats"}

	read := func(key query.Key, calls *atomic.Int64) {
		t.Helper()
		if _, err := c.Read(context.Background(), key, countingFetch(calls, key.String()), opts); err != nil {
			t.Fatalf("Read(%s) error = %v", key, err)
		}
	}
	read(postsKey, &posts)
	read(searchKey, &posts)
	read(statsKey, &stats)

	c.Invalidate(query.Key{"posts"})
	if !c.IsStale(postsKey) || !c.IsStale(searchKey) {
		t.Error("posts entries not stale after invalidation")
	}
	if c.IsStale(statsKey) {
		t.Error("stats entry stale after invalidating posts")
	}

	read(postsKey, &posts)
	read(searchKey, &posts)
	read(statsKey, &stats)

	if posts.Load() != 4 {
		t.Errorf("posts fetch calls = %d, want 4", posts.Load())
	}
	if stats.Load() != 1 {
		t.Errorf("stats fetch calls = %d, want 1", stats.Load())
	}
}

func TestCache_Set_SupersedesInFlightFetch(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"trending"}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Read(context.Background(), key, func(context.Context) (any, error) {
			close(started)
			<-release
			return "polled", nil
		}, query.Options{StaleTime: time.Minute})
	}()
	<-started

	c.Set(key, "pushed")
	close(release)
	<-done

	if v, _ := c.Peek(key); v != "pushed" {
		t.Errorf("Peek() = %v, want pushed", v)
	}
}

func TestCache_Read_ErrorKeepsPreviousValue(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := query.Key{"platforms"}
	c.Set(key, "cached")
	c.Invalidate(key)

	boom := errors.New("boom")
	_, err := c.Read(context.Background(), key, func(context.Context) (any, error) {
		return nil, boom
	}, query.Options{StaleTime: time.Minute})
	if !errors.Is(err, boom) {
		t.Fatalf("Read() error = %v, want %v", err, boom)
	}
	if v, _ := c.Peek(key); v != "cached" {
		t.Errorf("Peek() = %v, want cached", v)
	}
	if !c.IsStale(key) {
		t.Error("IsStale() = false after failed refetch, want true")
	}
}

func TestCache_Read_Retry(t *testing.T) {
	t.Parallel()
	transient := errors.New("transient")
	terminal := errors.New("terminal")

	tests := []struct {
		name      string
		failWith  error
		failures  int
		retry     int
		wantCalls int64
		wantErr   error
	}{
		{name: "recovers after transient failures", failWith: transient, failures: 2, retry: 3, wantCalls: 3},
		{name: "gives up after retry budget", failWith: transient, failures: 5, retry: 2, wantCalls: 3, wantErr: transient},
		{name: "terminal error not retried", failWith: terminal, failures: 5, retry: 3, wantCalls: 1, wantErr: terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestCache(t)

			var calls atomic.Int64
			fetch := func(context.Context) (any, error) {
				if int(calls.Add(1)) <= tt.failures {
					return nil, tt.failWith
				}
				return "ok", nil
			}
			opts := query.Options{
				StaleTime:   time.Minute,
				Retry:       tt.retry,
				ShouldRetry: func(err error) bool { return !errors.Is(err, terminal) },
			}

			_, err := c.Read(context.Background(), query.Key{"stats"}, fetch, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("fetch calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestCache_Subscribe(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)

	var mu sync.Mutex
	var got []query.Event
	unsubscribe := c.Subscribe(query.Key{"posts"}, func(ev query.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
	})

	c.Set(query.Key{"posts", "0", "10"}, "a")
	c.Set(query.Key{"stats"}, "s")
	c.Invalidate(query.Key{"posts"})
	unsubscribe()
	c.Set(query.Key{"posts", "0", "10"}, "b")

	mu.Lock()
	defer mu.Unlock()
	want := []query.EventKind{query.Updated, query.Invalidated}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(got), len(want), got)
	}
	for i, kind := range want {
		if got[i].Kind != kind {
			t.Errorf("event[%d].Kind = %v, want %v", i, got[i].Kind, kind)
		}
		if got[i].Key.String() != "posts:0:10" {
			t.Errorf("event[%d].Key = %v, want posts:0:10", i, got[i].Key)
		}
	}
}

func TestCache_RemoveAndClear(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	c.Set(query.Key{"userProfile", "ann"}, "ann")
	c.Set(query.Key{"userProfile", "bob"}, "bob")
	c.Set(query.Key{"stats"}, "s")

	c.Remove(query.Key{"userProfile"})
	if keys := c.Keys(); len(keys) != 1 || keys[0].String() != "stats" {
		t.Errorf("Keys() after Remove = %v, want [stats]", keys)
	}

	c.Clear()
	if keys := c.Keys(); len(keys) != 0 {
		t.Errorf("Keys() after Clear = %v, want none", keys)
	}
}

func TestKey_HasPrefix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key    query.Key
		prefix query.Key
		want   bool
	}{
		{query.Key{"posts", "0", "10"}, query.Key{"posts"}, true},
		{query.Key{"posts", "0", "10"}, nil, true},
		{query.Key{"posts"}, query.Key{"posts", "0"}, false},
		{query.Key{"comments", "p1"}, query.Key{"comments", "p2"}, false},
		{query.Key{"postsX"}, query.Key{"posts"}, false},
	}
	for _, tt := range tests {
		if got := tt.key.HasPrefix(tt.prefix); got != tt.want {
			t.Errorf("%v.HasPrefix(%v) = %v, want %v", tt.key, tt.prefix, got, tt.want)
		}
	}
}
