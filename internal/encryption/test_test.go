package encryption

import (
	"bytes"
	"testing"

	"buylog/internal/config"
)

func TestTestSealer(t *testing.T) {
	s := NewTestSealer()

	sealed, err := s.Seal([]byte("abc"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(sealed, []byte("abc")) {
		t.Error("sealed output is identical to plaintext")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Open() = %q, want %q", got, "abc")
	}

	if _, err := s.Open([]byte("abc")); err == nil {
		t.Error("Open() of unsealed data should return error")
	}
}

func TestNewSealerFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantNil bool
		wantErr bool
	}{
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, wantNil: true},
		{name: "default", cfg: config.EncryptionConfig{}, wantNil: true},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", IdentityPath: "/tmp/k"}},
		{name: "age without path", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSealerFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSealerFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewSealerFromConfig() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}
