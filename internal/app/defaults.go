package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the locations used when no config file says otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	APIURL     string // empty unless BUYLOG_API_URL is set
	SocketURL  string // empty unless BUYLOG_SOCKET_URL is set
}

// GetDefaults returns application defaults, checking environment variables first.
// Environment variables:
//   - BUYLOG_CONFIG_PATH: config file location (default: ~/.config/buylog.toml)
//   - BUYLOG_HOME: base directory for buylog data (default: ~/.local/share/buylog)
//   - BUYLOG_API_URL, BUYLOG_SOCKET_URL: backend endpoints written by `config init`
func GetDefaults() (Defaults, error) {
	home := ""
	needHome := os.Getenv("BUYLOG_CONFIG_PATH") == "" || os.Getenv("BUYLOG_HOME") == ""
	if needHome {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return Defaults{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
	}

	d := Defaults{
		ConfigPath: envOr("BUYLOG_CONFIG_PATH", filepath.Join(home, ".config", "buylog.toml")),
		BaseDir:    envOr("BUYLOG_HOME", filepath.Join(home, ".local", "share", "buylog")),
		APIURL:     os.Getenv("BUYLOG_API_URL"),
		SocketURL:  os.Getenv("BUYLOG_SOCKET_URL"),
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
