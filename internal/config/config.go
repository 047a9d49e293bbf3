package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the songdeck settings after defaults and path expansion.
type Config struct {
	CatalogURL     string
	CatalogFile    string
	RequestTimeout time.Duration
	DataDir        string
	LogLevel       string
	LogFile        string
	History        HistoryConfig
	Offline        OfflineConfig
	Server         ServerConfig
}

// HistoryConfig selects where the random history is persisted.
type HistoryConfig struct {
	Backend string
	Key     string
}

// OfflineConfig controls the on-disk catalog cache.
type OfflineConfig struct {
	Enabled  bool
	Version  string
	BaseURL  string
	Precache []string
}

// ServerConfig configures `songdeck serve`.
type ServerConfig struct {
	Addr string
}

const (
	defaultConfigPath     = "~/.config/songdeck/config.toml"
	defaultDataDir        = "~/.local/share/songdeck"
	defaultLogLevel       = "info"
	defaultTimeoutSeconds = 10
	defaultHistoryBackend = "file"
	defaultHistoryKey     = "randomSongsHistory"
	defaultOfflineVersion = "v1"
	defaultServerAddr     = "127.0.0.1:8080"
)

var historyBackends = []string{"file", "sqlite", "memory"}

type rawConfig struct {
	CatalogURL            string `toml:"catalog_url"`
	CatalogFile           string `toml:"catalog_file"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	DataDir               string `toml:"data_dir"`
	LogLevel              string `toml:"log_level"`
	LogFile               string `toml:"log_file"`
	History               struct {
		Backend string `toml:"backend"`
		Key     string `toml:"key"`
	} `toml:"history"`
	Offline struct {
		Enabled  *bool    `toml:"enabled"`
		Version  string   `toml:"version"`
		BaseURL  string   `toml:"base_url"`
		Precache []string `toml:"precache"`
	} `toml:"offline"`
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the config file, falling back to defaults when it
// is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return normalize(raw)
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return normalize(raw)
}

func normalize(raw rawConfig) (Config, error) {
	cfg := Config{
		CatalogURL:     strings.TrimSpace(raw.CatalogURL),
		RequestTimeout: time.Duration(defaultTimeoutSeconds) * time.Second,
		DataDir:        mustExpand(orDefault(raw.DataDir, defaultDataDir)),
		LogLevel:       strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		History: HistoryConfig{
			Backend: strings.ToLower(orDefault(raw.History.Backend, defaultHistoryBackend)),
			Key:     orDefault(raw.History.Key, defaultHistoryKey),
		},
		Offline: OfflineConfig{
			Enabled: raw.Offline.Enabled == nil || *raw.Offline.Enabled,
			Version: orDefault(raw.Offline.Version, defaultOfflineVersion),
			BaseURL: strings.TrimSpace(raw.Offline.BaseURL),
		},
		Server: ServerConfig{Addr: orDefault(raw.Server.Addr, defaultServerAddr)},
	}

	if file := strings.TrimSpace(raw.CatalogFile); file != "" {
		cfg.CatalogFile = mustExpand(file)
	}
	if raw.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second
	}
	if file := strings.TrimSpace(raw.LogFile); file != "" {
		cfg.LogFile = mustExpand(file)
	} else {
		cfg.LogFile = filepath.Join(cfg.DataDir, "songdeck.log")
	}

	valid := false
	for _, b := range historyBackends {
		if cfg.History.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return Config{}, fmt.Errorf("history backend %q: want one of %s", cfg.History.Backend, strings.Join(historyBackends, ", "))
	}

	for _, entry := range raw.Offline.Precache {
		if entry = strings.TrimSpace(entry); entry != "" {
			cfg.Offline.Precache = append(cfg.Offline.Precache, entry)
		}
	}
	if cfg.CatalogURL != "" {
		if cfg.Offline.BaseURL == "" {
			origin, err := originOf(cfg.CatalogURL)
			if err != nil {
				return Config{}, err
			}
			cfg.Offline.BaseURL = origin
		}
		if len(cfg.Offline.Precache) == 0 {
			cfg.Offline.Precache = []string{cfg.CatalogURL}
		}
	}

	return cfg, nil
}

// OfflineActive reports whether the offline cache should front the catalog
// client. It needs a remote catalog to cache.
func (c Config) OfflineActive() bool {
	return c.Offline.Enabled && c.CatalogURL != ""
}

// CacheDir is where offline buckets are stored.
func (c Config) CacheDir() string {
	return filepath.Join(c.DataDir, "offline")
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse catalog_url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("catalog_url %q: want an absolute http(s) url", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
