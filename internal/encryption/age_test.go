package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"buylog/internal/config"
)

func newTestAgeSealer(t *testing.T) *AgeSealer {
	t.Helper()
	dir := t.TempDir()
	return NewAgeSealer(config.EncryptionConfig{
		Type:         "age",
		IdentityPath: filepath.Join(dir, "keys", "credential.key"),
	})
}

func TestAgeSealer_IsConfigured_BeforeUse(t *testing.T) {
	t.Parallel()
	s := newTestAgeSealer(t)
	if s.IsConfigured() {
		t.Error("IsConfigured() = true before first Seal, want false")
	}
}

func TestAgeSealer_CreatesIdentityOnFirstSeal(t *testing.T) {
	t.Parallel()
	s := newTestAgeSealer(t)

	if _, err := s.Seal([]byte("token")); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if !s.IsConfigured() {
		t.Fatal("IsConfigured() = false after Seal, want true")
	}

	info, err := os.Stat(s.identityPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("identity file mode = %o, want 600", perm)
	}
}

func TestAgeSealer_SealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "jwt", input: []byte("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1MSJ9.sig")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestAgeSealer(t)
			sealed, err := s.Seal(tt.input)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(sealed, tt.input) {
				t.Error("sealed output contains the plaintext")
			}

			got, err := s.Open(sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("round-trip failed: got %q, want %q", got, tt.input)
			}
		})
	}
}

func TestAgeSealer_ReusesIdentityAcrossInstances(t *testing.T) {
	t.Parallel()

	cfg := config.EncryptionConfig{IdentityPath: filepath.Join(t.TempDir(), "credential.key")}
	sealed, err := NewAgeSealer(cfg).Seal([]byte("persisted"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	got, err := NewAgeSealer(cfg).Open(sealed)
	if err != nil {
		t.Fatalf("Open() with new instance error = %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Open() = %q, want %q", got, "persisted")
	}
}

func TestAgeSealer_OpenWithOtherIdentityFails(t *testing.T) {
	t.Parallel()

	sealed, err := newTestAgeSealer(t).Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := newTestAgeSealer(t).Open(sealed); err == nil {
		t.Error("Open() with a different identity should return error")
	}
}

func TestAgeSealer_CorruptIdentityFile(t *testing.T) {
	t.Parallel()

	s := newTestAgeSealer(t)
	if err := os.MkdirAll(filepath.Dir(s.identityPath), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.identityPath, []byte("not a key\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Seal([]byte("x")); err == nil {
		t.Error("Seal() with corrupt identity file should return error")
	}
}
