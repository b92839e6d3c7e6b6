package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"buylog/internal/api"
	"buylog/internal/config"
	"buylog/internal/credential"
	"buylog/internal/database"
	"buylog/internal/encryption"
	"buylog/internal/feed"
	"buylog/internal/media"
	"buylog/internal/notify"
	"buylog/internal/query"
	"buylog/internal/realtime"
)

// BuyApp is the application layer between the CLI and feed.Service.
// It constructs all dependencies from config, exposes the operations that
// need local resources (files, the push connection), and closes everything
// on Close.
type BuyApp struct {
	cfg           *config.Config
	session       *Session
	clock         feed.Clock
	logger        feed.Logger
	db            *database.SQLiteDatabase
	creds         *credential.Store
	client        *api.Client
	service       *feed.Service
	socket        *realtime.Socket
	notifications *notify.Feed
	stopReconcile func()
	stopNotify    func()
	logFile       *os.File
}

const defaultWatchInterval = 2 * time.Second

// Deps overrides pieces of the wiring, for tests. Nil fields use the
// configured implementation.
type Deps struct {
	Clock  feed.Clock
	IDs    feed.IDGenerator
	Dialer realtime.Dialer
	Media  feed.MediaTarget
}

// NewBuyApp creates a fully wired BuyApp from the given config.
// command identifies the CLI command being run (e.g. "feed", "watch").
// The caller must call Close when done.
func NewBuyApp(ctx context.Context, cfg *config.Config, command string, deps Deps) (*BuyApp, error) {
	clock := deps.Clock
	if clock == nil {
		clock = feed.RealClock{}
	}
	ids := deps.IDs
	if ids == nil {
		ids = feed.UUIDGenerator{}
	}

	session := NewSession(command, ids, clock)
	sl, logFile, err := newLogger(cfg.LogDir, session.ID, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}
	a := &BuyApp{cfg: cfg, session: session, clock: clock, logger: logger, logFile: logFile}

	if err := a.wire(ctx, ids, deps); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("session started", "command", command)
	return a, nil
}

func (a *BuyApp) wire(ctx context.Context, ids feed.IDGenerator, deps Deps) error {
	cfg := a.cfg

	db, err := database.NewDatabaseFromConfig(cfg.Storage, a.clock)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.db = db

	storage, err := credential.NewStorageFromConfig(cfg.Storage, db)
	if err != nil {
		return fmt.Errorf("creating credential storage: %w", err)
	}
	sealer, err := encryption.NewSealerFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating sealer: %w", err)
	}
	creds, err := credential.NewStore(storage, sealer, a.clock, a.logger)
	if err != nil {
		return fmt.Errorf("loading credential: %w", err)
	}
	a.creds = creds

	client, err := api.New(api.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout.Duration,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	}, creds, ids, a.logger)
	if err != nil {
		return fmt.Errorf("creating api client: %w", err)
	}
	a.client = client

	target := deps.Media
	if target == nil {
		if target, err = media.NewTargetFromConfig(ctx, cfg.Media); err != nil {
			return fmt.Errorf("creating media target: %w", err)
		}
	}

	cache := query.New(a.clock, a.logger)
	a.service = feed.NewService(client, cache, creds, target, a.logger, a.clock)

	dialer := deps.Dialer
	if dialer == nil {
		dialer = realtime.WebsocketDialer{}
	}
	a.socket = realtime.NewSocket(realtime.OptionsFromConfig(cfg.Socket), dialer, creds, a.clock, a.logger)
	a.stopReconcile = a.service.Reconcile(a.socket)

	a.notifications = notify.NewFeed(db, ids, a.clock, a.logger)
	a.stopNotify = a.notifications.Attach(a.socket)
	return nil
}

// Service returns the cached read/mutation surface.
func (a *BuyApp) Service() *feed.Service { return a.service }

// Notifications returns the locally recorded notification feed.
func (a *BuyApp) Notifications() *notify.Feed { return a.notifications }

// Socket returns the push connection. It is not started until Watch.
func (a *BuyApp) Socket() *realtime.Socket { return a.socket }

// Whoami returns the claims of the stored credential. ok is false when
// logged out. Opaque credentials return empty claims with ok true.
func (a *BuyApp) Whoami() (claims credential.Claims, ok bool) {
	token := a.creds.Token()
	if token == "" {
		return credential.Claims{}, false
	}
	claims, _ = credential.ParseClaims(token)
	return claims, true
}

// Authenticated reports whether an unexpired credential is stored.
func (a *BuyApp) Authenticated() bool { return a.creds.Authenticated() }

// UploadFiles validates and uploads files from disk. Content types are taken
// from the file extension.
func (a *BuyApp) UploadFiles(ctx context.Context, paths []string, progress func(name string, percent int)) ([]feed.UploadResult, error) {
	files := make([]feed.MediaFile, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		files = append(files, feed.MediaFile{
			Name:        filepath.Base(abs),
			ContentType: feed.ContentTypeFor(abs),
			Size:        info.Size(),
			Open:        func() (io.ReadCloser, error) { return os.Open(abs) },
		})
	}
	return a.service.UploadMedia(ctx, files, progress)
}

// Watch connects the push socket, keeps trending and stats fresh, follows
// credential changes made by other processes, and blocks until ctx ends.
// A new credential reconnects the socket so it authenticates as the new user.
func (a *BuyApp) Watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var restart sync.Mutex
	unsubscribe := a.creds.Subscribe(func(string) {
		restart.Lock()
		defer restart.Unlock()
		if ctx.Err() != nil {
			return
		}
		a.logger.Info("credential changed, reconnecting push socket")
		a.socket.Stop()
		a.socket.Start(ctx)
	})
	defer unsubscribe()

	interval := a.cfg.Storage.WatchInterval.Duration
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	a.socket.Start(ctx)
	defer a.socket.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.service.AutoRefresh(ctx)
	}()
	go func() {
		defer wg.Done()
		a.creds.Watch(ctx, interval)
	}()

	<-ctx.Done()
	wg.Wait()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// Close releases every resource the app opened. It is safe to call twice.
func (a *BuyApp) Close() error {
	var firstErr error

	if a.stopNotify != nil {
		a.stopNotify()
		a.stopNotify = nil
	}
	if a.stopReconcile != nil {
		a.stopReconcile()
		a.stopReconcile = nil
	}
	if a.socket != nil {
		a.socket.Stop()
	}
	if a.service != nil {
		a.service.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
		a.db = nil
	}
	if a.logFile != nil {
		a.logger.Debug("session finished", "command", a.session.Command, "elapsed", a.session.Elapsed(a.clock))
		a.logFile.Close()
		a.logFile = nil
	}

	return firstErr
}
