package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"buylog/internal/config"
	"buylog/internal/feed"
)

var (
	// ErrNotConnected is returned by Send when there is no open connection.
	ErrNotConnected = errors.New("socket not connected")
	// ErrConnectTimeout is recorded when a dial does not complete in time.
	ErrConnectTimeout = errors.New("connect timed out")
)

// State is the connection state of a Socket.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Conn is one open message connection.
type Conn interface {
	// ReadMessage blocks until a message arrives or the connection fails.
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens connections. Dial must return when ctx is done.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// TokenSource supplies the bearer credential sent on dial.
type TokenSource interface {
	Token() string
}

// Options configure a Socket. Zero values take the defaults.
type Options struct {
	URL                  string
	ConnectTimeout       time.Duration
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
}

const (
	DefaultURL                  = "ws://localhost:8081/ws"
	DefaultConnectTimeout       = 5 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = time.Second
	DefaultMaxReconnectDelay    = 30 * time.Second
)

// OptionsFromConfig converts the [socket] config section.
func OptionsFromConfig(cfg config.SocketConfig) Options {
	return Options{
		URL:                  cfg.URL,
		ConnectTimeout:       cfg.ConnectTimeout.Duration,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectDelay:       cfg.ReconnectDelay.Duration,
		MaxReconnectDelay:    cfg.MaxReconnectDelay.Duration,
	}
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.MaxReconnectDelay <= 0 {
		o.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	return o
}

// backoff returns the wait before reconnect attempt n (1-based).
func (o Options) backoff(n int) time.Duration {
	d := o.ReconnectDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= o.MaxReconnectDelay {
			return o.MaxReconnectDelay
		}
	}
	return min(d, o.MaxReconnectDelay)
}

// Socket maintains one push connection, reconnecting with exponential
// backoff, and fans inbound events out to subscribers by type.
type Socket struct {
	opts   Options
	dialer Dialer
	tokens TokenSource
	clock  feed.Clock
	logger feed.Logger

	mu        sync.Mutex
	state     State
	err       error
	conn      Conn
	cancel    context.CancelFunc
	done      chan struct{}
	listeners map[feed.EventType]map[int]func(feed.Event)
	watchers  map[int]func(State)
	nextID    int

	writeMu sync.Mutex
}

var _ feed.EventSource = (*Socket)(nil)

// NewSocket creates a disconnected Socket. tokens may be nil.
func NewSocket(opts Options, dialer Dialer, tokens TokenSource, clock feed.Clock, logger feed.Logger) *Socket {
	return &Socket{
		opts:      opts.withDefaults(),
		dialer:    dialer,
		tokens:    tokens,
		clock:     clock,
		logger:    logger,
		listeners: make(map[feed.EventType]map[int]func(feed.Event)),
		watchers:  make(map[int]func(State)),
	}
}

// Start begins connecting in the background. It does nothing if the connect
// loop is already running, so it never opens a second connection. After the
// loop gives up, calling Start again is the way to reconnect.
func (s *Socket) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.done)
}

// Stop closes the connection, cancels any pending reconnect and waits for the
// connect loop to exit. It must not be called from a listener.
func (s *Socket) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether the connect loop is running.
func (s *Socket) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error behind the last transition to Disconnected, if any.
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Socket) Connected() bool {
	return s.State() == Connected
}

// OnStateChange registers fn to be called after every state transition.
func (s *Socket) OnStateChange(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Subscribe registers fn for events of eventType, or every event for
// feed.EventWildcard.
func (s *Socket) Subscribe(eventType feed.EventType, fn func(feed.Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.listeners[eventType] == nil {
		s.listeners[eventType] = make(map[int]func(feed.Event))
	}
	s.listeners[eventType][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners[eventType], id)
		s.mu.Unlock()
	}
}

// Send writes v as a JSON message.
func (s *Socket) Send(v any) error {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()
	if state != Connected || conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

func (s *Socket) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.cancel()
		s.cancel, s.done = nil, nil
		s.mu.Unlock()
		close(done)
	}()

	attempt := 0
	for {
		conn, err := s.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			attempt = 0
			s.readLoop(ctx, conn)
			if ctx.Err() != nil {
				return
			}
		}

		attempt++
		if attempt > s.opts.MaxReconnectAttempts {
			s.logger.Warn("push reconnect attempts exhausted", "attempts", s.opts.MaxReconnectAttempts)
			return
		}
		delay := s.opts.backoff(attempt)
		s.logger.Info("push reconnect scheduled", "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(delay):
		}
	}
}

type dialResult struct {
	conn Conn
	err  error
}

func (s *Socket) connect(ctx context.Context) (Conn, error) {
	s.setState(Connecting, nil)

	header := http.Header{}
	if s.tokens != nil {
		if token := s.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan dialResult, 1)
	go func() {
		conn, err := s.dialer.Dial(dialCtx, s.opts.URL, header)
		results <- dialResult{conn, err}
	}()

	var err error
	select {
	case r := <-results:
		if r.err == nil {
			s.mu.Lock()
			s.conn = r.conn
			s.mu.Unlock()
			s.setState(Connected, nil)
			return r.conn, nil
		}
		err = r.err
	case <-s.clock.After(s.opts.ConnectTimeout):
		err = ErrConnectTimeout
		go discard(results)
	case <-ctx.Done():
		err = ctx.Err()
		go discard(results)
	}

	if ctx.Err() != nil {
		s.setState(Disconnected, nil)
		return nil, err
	}
	s.logger.Warn("push connect failed", "url", s.opts.URL, "error", err)
	s.setState(Disconnected, err)
	return nil, err
}

// discard closes a connection whose dial finished after we stopped waiting.
func discard(results <-chan dialResult) {
	if r := <-results; r.conn != nil {
		r.conn.Close()
	}
}

func (s *Socket) readLoop(ctx context.Context, conn Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()

			if ctx.Err() != nil {
				s.setState(Disconnected, nil)
				return
			}
			s.logger.Warn("push connection lost", "error", err)
			s.setState(Disconnected, err)
			return
		}
		s.dispatch(data)
	}
}

func (s *Socket) dispatch(data []byte) {
	var ev feed.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn("dropping malformed push message", "error", err)
		return
	}
	if !ev.Type.Known() {
		s.logger.Warn("dropping unknown push event", "type", string(ev.Type))
		return
	}

	s.mu.Lock()
	fns := make([]func(feed.Event), 0, len(s.listeners[ev.Type])+len(s.listeners[feed.EventWildcard]))
	for _, fn := range s.listeners[ev.Type] {
		fns = append(fns, fn)
	}
	for _, fn := range s.listeners[feed.EventWildcard] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("push event", "type", string(ev.Type), "listeners", len(fns))
	for _, fn := range fns {
		s.deliver(fn, ev)
	}
}

func (s *Socket) deliver(fn func(feed.Event), ev feed.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("push listener panicked", "type", string(ev.Type), "panic", fmt.Sprint(r))
		}
	}()
	fn(ev)
}

func (s *Socket) setState(state State, err error) {
	s.mu.Lock()
	changed := s.state != state
	s.state, s.err = state, err
	var fns []func(State)
	if changed {
		fns = make([]func(State), 0, len(s.watchers))
		for _, fn := range s.watchers {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.logger.Info("push state changed", "state", state.String())
	for _, fn := range fns {
		fn(state)
	}
}
