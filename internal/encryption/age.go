package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"

	"buylog/internal/config"
	"buylog/internal/credential"
)

// AgeSealer implements credential.Sealer using filippo.io/age with an X25519
// identity kept in a file readable only by its owner. The identity is
// generated on first use.
type AgeSealer struct {
	identityPath string

	mu       sync.Mutex
	identity *age.X25519Identity
}

var _ credential.Sealer = (*AgeSealer)(nil)

// NewAgeSealer creates a new AgeSealer from configuration.
func NewAgeSealer(cfg config.EncryptionConfig) *AgeSealer {
	return &AgeSealer{identityPath: cfg.IdentityPath}
}

// IsConfigured returns true if the identity file exists.
func (s *AgeSealer) IsConfigured() bool {
	_, err := os.Stat(s.identityPath)
	return err == nil
}

// Seal encrypts plaintext to the identity's recipient.
func (s *AgeSealer) Seal(plaintext []byte) ([]byte, error) {
	identity, err := s.loadOrCreate()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts data produced by Seal.
func (s *AgeSealer) Open(ciphertext []byte) ([]byte, error) {
	identity, err := s.loadOrCreate()
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("creating decrypted reader: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypting data: %w", err)
	}
	return plaintext, nil
}

func (s *AgeSealer) loadOrCreate() (*age.X25519Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity != nil {
		return s.identity, nil
	}
	if s.identityPath == "" {
		return nil, fmt.Errorf("identity_path required for age encryption")
	}

	identity, err := readIdentity(s.identityPath)
	if errors.Is(err, os.ErrNotExist) {
		identity, err = createIdentity(s.identityPath)
		if errors.Is(err, os.ErrExist) {
			// Another process created it first.
			identity, err = readIdentity(s.identityPath)
		}
	}
	if err != nil {
		return nil, err
	}
	s.identity = identity
	return identity, nil
}

func readIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	x, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("identity in %s is not an X25519 identity", path)
	}
	return x, nil
}

func createIdentity(path string) (*age.X25519Identity, error) {
	x, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating identity file: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, x.String()+"\n"); err != nil {
		return nil, fmt.Errorf("writing identity: %w", err)
	}
	return x, nil
}
