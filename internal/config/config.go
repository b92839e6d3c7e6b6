package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for buylog.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	API        APIConfig        `toml:"api"`
	Socket     SocketConfig     `toml:"socket"`
	Storage    StorageConfig    `toml:"storage"`
	Encryption EncryptionConfig `toml:"encryption"`
	Media      MediaConfig      `toml:"media"`
}

// APIConfig holds REST client settings.
type APIConfig struct {
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"` // 0 disables client-side limiting
	Burst             int      `toml:"burst"`
}

// SocketConfig holds push connection settings.
type SocketConfig struct {
	URL                  string   `toml:"url"`
	ConnectTimeout       Duration `toml:"connect_timeout"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`
	ReconnectDelay       Duration `toml:"reconnect_delay"`
	MaxReconnectDelay    Duration `toml:"max_reconnect_delay"`
}

// StorageConfig selects where the credential and notifications are kept.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type          string   `toml:"type"`               // "sqlite", "file" or "memory"
	DataDir       string   `toml:"data_dir,omitempty"` // used for type=sqlite and type=file
	WatchInterval Duration `toml:"watch_interval"`     // how often to look for credential changes by other processes
}

// EncryptionConfig selects how the stored credential is sealed.
type EncryptionConfig struct {
	Type         string `toml:"type"` // "none" (default), "age" or "test"
	IdentityPath string `toml:"identity_path,omitempty"`
}

// MediaConfig selects where uploaded media bytes are sent.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type MediaConfig struct {
	Type          string   `toml:"type"` // "http" (default), "s3", "file" or "memory"
	UploadTimeout Duration `toml:"upload_timeout"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`

	// Static keys; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// File-specific fields (only used when Type == "file")
	Dir string `toml:"dir,omitempty"`
}

// Duration is a time.Duration written as text ("5s", "2m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// NewConfig creates a Config rooted at baseDir with the development defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		API: APIConfig{
			BaseURL:           "http://localhost:8081/api",
			Timeout:           Duration{30 * time.Second},
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Socket: SocketConfig{
			URL:                  "ws://localhost:8081/ws",
			ConnectTimeout:       Duration{5 * time.Second},
			MaxReconnectAttempts: 5,
			ReconnectDelay:       Duration{time.Second},
			MaxReconnectDelay:    Duration{30 * time.Second},
		},
		Storage: StorageConfig{
			Type:          "sqlite",
			DataDir:       filepath.Join(baseDir, "db"),
			WatchInterval: Duration{2 * time.Second},
		},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: filepath.Join(baseDir, "keys", "credential.key"),
		},
		Media: MediaConfig{
			Type:          "http",
			UploadTimeout: Duration{30 * time.Second},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
