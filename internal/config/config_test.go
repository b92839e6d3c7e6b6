package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:  "/home/user/.local/share/buylog",
		LogDir:   "/home/user/.local/share/buylog/log",
		LogLevel: "debug",
		API: APIConfig{
			BaseURL:           "https://buylog.example.com/api",
			Timeout:           Duration{15 * time.Second},
			RequestsPerSecond: 2.5,
			Burst:             3,
		},
		Socket: SocketConfig{
			URL:                  "wss://buylog.example.com/ws",
			ConnectTimeout:       Duration{5 * time.Second},
			MaxReconnectAttempts: 7,
			ReconnectDelay:       Duration{time.Second},
			MaxReconnectDelay:    Duration{time.Minute},
		},
		Storage:    StorageConfig{Type: "file", DataDir: "/tmp/buylog", WatchInterval: Duration{500 * time.Millisecond}},
		Encryption: EncryptionConfig{Type: "age", IdentityPath: "/keys/credential.key"},
		Media: MediaConfig{
			Type:          "s3",
			UploadTimeout: Duration{45 * time.Second},
			S3Bucket:      "media",
			S3Prefix:      "uploads",
			S3Region:      "us-east-1",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), `timeout = "15s"`) {
		t.Errorf("durations should be written as text, got:\n%s", buf.String())
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.API.BaseURL != original.API.BaseURL {
		t.Errorf("API.BaseURL = %q, want %q", got.API.BaseURL, original.API.BaseURL)
	}
	if got.API.Timeout.Duration != 15*time.Second {
		t.Errorf("API.Timeout = %v, want 15s", got.API.Timeout.Duration)
	}
	if got.API.RequestsPerSecond != 2.5 {
		t.Errorf("API.RequestsPerSecond = %v, want 2.5", got.API.RequestsPerSecond)
	}
	if got.Socket.MaxReconnectAttempts != 7 {
		t.Errorf("Socket.MaxReconnectAttempts = %d, want 7", got.Socket.MaxReconnectAttempts)
	}
	if got.Socket.MaxReconnectDelay.Duration != time.Minute {
		t.Errorf("Socket.MaxReconnectDelay = %v, want 1m", got.Socket.MaxReconnectDelay.Duration)
	}
	if got.Storage.Type != "file" {
		t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "file")
	}
	if got.Storage.WatchInterval.Duration != 500*time.Millisecond {
		t.Errorf("Storage.WatchInterval = %v, want 500ms", got.Storage.WatchInterval.Duration)
	}
	if got.Encryption.IdentityPath != "/keys/credential.key" {
		t.Errorf("Encryption.IdentityPath = %q", got.Encryption.IdentityPath)
	}
	if got.Media.S3Bucket != "media" || got.Media.S3Prefix != "uploads" {
		t.Errorf("Media = %+v", got.Media)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("2m30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration != 150*time.Second {
		t.Errorf("Duration = %v, want 2m30s", d.Duration)
	}

	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("UnmarshalText(\"soon\") expected error")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/buylog")

	if cfg.BaseDir != "/data/buylog" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/buylog")
	}
	if cfg.LogDir != "/data/buylog/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/buylog/log")
	}
	if cfg.API.BaseURL != "http://localhost:8081/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Socket.MaxReconnectAttempts != 5 {
		t.Errorf("Socket.MaxReconnectAttempts = %d, want 5", cfg.Socket.MaxReconnectAttempts)
	}
	if cfg.Socket.MaxReconnectDelay.Duration != 30*time.Second {
		t.Errorf("Socket.MaxReconnectDelay = %v, want 30s", cfg.Socket.MaxReconnectDelay.Duration)
	}
	if cfg.Storage.DataDir != "/data/buylog/db" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/data/buylog/db")
	}
	if cfg.Encryption.IdentityPath != "/data/buylog/keys/credential.key" {
		t.Errorf("Encryption.IdentityPath = %q", cfg.Encryption.IdentityPath)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "buylog.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "buylog.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "buylog.toml")
		cfg := NewConfig(dir)
		cfg.Storage = StorageConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Storage.Type != "memory" {
			t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "memory")
		}
		if got.API.Timeout.Duration != 30*time.Second {
			t.Errorf("API.Timeout = %v, want 30s", got.API.Timeout.Duration)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/buylog.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})

	t.Run("returns error for bad duration", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "buylog.toml")
		if err := os.WriteFile(path, []byte("[api]\ntimeout = \"later\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for bad duration")
		}
	})
}
