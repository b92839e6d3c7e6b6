package credential

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"buylog/internal/feed"
)

// StorageKey is the fixed key the credential is kept under.
const StorageKey = "auth_token"

// Sealer protects the stored credential at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// Store holds the bearer credential in a Storage and tells subscribers when
// it changes, whether the change came from this process or, via Watch, from
// another one sharing the same storage.
type Store struct {
	storage Storage
	sealer  Sealer
	clock   feed.Clock
	logger  feed.Logger

	mu     sync.RWMutex
	token  string
	raw    string
	subs   map[int]func(string)
	nextID int
}

var _ feed.CredentialStore = (*Store)(nil)

// NewStore loads any credential already in storage. sealer may be nil to
// store the credential as plain text. A stored value that cannot be unsealed
// is discarded.
func NewStore(storage Storage, sealer Sealer, clock feed.Clock, logger feed.Logger) (*Store, error) {
	s := &Store{
		storage: storage,
		sealer:  sealer,
		clock:   clock,
		logger:  logger,
		subs:    make(map[int]func(string)),
	}

	raw, ok, err := storage.GetItem(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if ok {
		token, err := s.decode(raw)
		if err != nil {
			logger.Warn("discarding unreadable stored credential", "error", err)
			if err := storage.RemoveItem(StorageKey); err != nil {
				return nil, fmt.Errorf("removing unreadable credential: %w", err)
			}
			raw = ""
		}
		s.token, s.raw = token, raw
	}
	return s, nil
}

func (s *Store) encode(token string) (string, error) {
	if s.sealer == nil {
		return token, nil
	}
	sealed, err := s.sealer.Seal([]byte(token))
	if err != nil {
		return "", fmt.Errorf("sealing credential: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) decode(raw string) (string, error) {
	if s.sealer == nil {
		return raw, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decoding sealed credential: %w", err)
	}
	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("unsealing credential: %w", err)
	}
	return string(plain), nil
}

// Token returns the current credential, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a credential is present and, if it is a JWT
// with an expiry, not yet expired.
func (s *Store) Authenticated() bool {
	token := s.Token()
	return token != "" && !Expired(token, s.clock.Now())
}

// Set persists token and notifies subscribers. Setting "" clears.
func (s *Store) Set(token string) error {
	if token == "" {
		return s.Clear()
	}
	raw, err := s.encode(token)
	if err != nil {
		return err
	}
	if err := s.storage.SetItem(StorageKey, raw); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	s.update(token, raw)
	return nil
}

// Clear removes the credential and notifies subscribers if one was present.
func (s *Store) Clear() error {
	if err := s.storage.RemoveItem(StorageKey); err != nil {
		return fmt.Errorf("removing credential: %w", err)
	}
	s.update("", "")
	return nil
}

func (s *Store) update(token, raw string) {
	s.mu.Lock()
	changed := s.token != token
	s.token, s.raw = token, raw
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(token)
	}
}

// Subscribe registers fn to receive the new credential after every change.
func (s *Store) Subscribe(fn func(token string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Sync rereads storage and broadcasts any change another process made.
func (s *Store) Sync() error {
	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		return fmt.Errorf("reading credential: %w", err)
	}
	if !ok {
		raw = ""
	}

	s.mu.RLock()
	same := raw == s.raw
	s.mu.RUnlock()
	if same {
		return nil
	}

	token := ""
	if raw != "" {
		if token, err = s.decode(raw); err != nil {
			return err
		}
	}
	s.logger.Info("credential changed outside this process", "present", token != "")
	s.update(token, raw)
	return nil
}

// Watch calls Sync every interval until ctx ends.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(interval):
			if err := s.Sync(); err != nil {
				s.logger.Warn("syncing credential", "error", err)
			}
		}
	}
}
