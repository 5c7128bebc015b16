package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/hitch/internal/busy"
	"github.com/five82/hitch/internal/rides"
)

// Config captures the settings Hitch reads from config.toml.
type Config struct {
	APIURL            string
	LogFile           string
	LogLevel          string
	SessionPath       string
	UseKeyring        bool
	PollInterval      time.Duration
	MinVisible        time.Duration
	MessageClearDelay time.Duration
}

const (
	defaultConfigPath  = "~/.config/hitch/config.toml"
	defaultLogFile     = "~/.local/state/hitch/hitch.log"
	defaultSessionPath = "~/.config/hitch/session.toml"
	defaultLogLevel    = "info"
	defaultPollSeconds = 30
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:            rides.DefaultAPIURL,
		LogFile:           mustExpand(defaultLogFile),
		LogLevel:          defaultLogLevel,
		SessionPath:       mustExpand(defaultSessionPath),
		PollInterval:      defaultPollSeconds * time.Second,
		MinVisible:        busy.DefaultMinVisible,
		MessageClearDelay: busy.DefaultMessageClearDelay,
	}
}

// Load locates and parses config.toml, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
		SessionFile    string `toml:"session_file"`
		UseKeyring     bool   `toml:"use_keyring"`
		PollSeconds    int    `toml:"poll_seconds"`
		MinVisibleMS   int    `toml:"min_visible_ms"`
		MessageClearMS int    `toml:"message_clear_ms"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.SessionFile); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	cfg.UseKeyring = raw.UseKeyring
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.MinVisibleMS > 0 {
		cfg.MinVisible = time.Duration(raw.MinVisibleMS) * time.Millisecond
	}
	if raw.MessageClearMS > 0 {
		cfg.MessageClearDelay = time.Duration(raw.MessageClearMS) * time.Millisecond
	}

	return cfg, nil
}

// BusyOptions maps the indicator timings onto busy.Options.
func (c Config) BusyOptions() busy.Options {
	return busy.Options{
		MinVisible:        c.MinVisible,
		MessageClearDelay: c.MessageClearDelay,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
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
