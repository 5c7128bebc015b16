// Package session persists the API token issued at sign-in.
//
// The token is opaque to Hitch: it is stored as-is in a TOML file readable
// only by the owner and handed back to the API as a bearer credential. The
// HITCH_TOKEN environment variable takes precedence over the file. A Store
// with UseKeyring keeps the token in the OS keyring instead.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"github.com/five82/hitch/internal/config"
)

// EnvToken overrides the stored token when set.
const EnvToken = "HITCH_TOKEN"

const (
	keyringService = "hitch"
	keyringUser    = "session-token"
)

// Session is the persisted sign-in state.
type Session struct {
	Token     string `toml:"token,omitempty"`
	Email     string `toml:"email"`
	ExpiresAt string `toml:"expires_at"`
}

// Valid reports whether a token is present.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Load reads the session file. A missing file yields an empty Session.
func Load(path string) (Session, error) {
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return Session{}, fmt.Errorf("resolve session path: %w", err)
	}

	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return Session{Token: env}, nil
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := toml.Unmarshal(bytes, &s); err != nil {
		return Session{}, fmt.Errorf("parse session: %w", err)
	}
	s.Token = strings.TrimSpace(s.Token)
	return s, nil
}

// Save writes the session with owner-only permissions.
func Save(path string, s Session) error {
	if !s.Valid() {
		return fmt.Errorf("session token is empty")
	}
	return writeFile(path, s)
}

func writeFile(path string, s Session) error {
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	bytes, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func Clear(path string) error {
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Store persists sessions at Path. With UseKeyring the token lives in the OS
// keyring and the file only keeps the email and expiry.
type Store struct {
	Path       string
	UseKeyring bool
}

// Load returns the stored session, reading the token from the keyring when
// the file does not carry one.
func (st Store) Load() (Session, error) {
	s, err := Load(st.Path)
	if err != nil || !st.UseKeyring || s.Valid() {
		return s, err
	}
	token, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return s, nil
		}
		return Session{}, fmt.Errorf("read keyring: %w", err)
	}
	s.Token = strings.TrimSpace(token)
	return s, nil
}

// Save stores s, moving the token into the keyring when enabled.
func (st Store) Save(s Session) error {
	if !st.UseKeyring {
		return Save(st.Path, s)
	}
	if !s.Valid() {
		return fmt.Errorf("session token is empty")
	}
	if err := keyring.Set(keyringService, keyringUser, strings.TrimSpace(s.Token)); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	s.Token = ""
	return writeFile(st.Path, s)
}

// Clear removes the session file and any keyring entry.
func (st Store) Clear() error {
	if err := Clear(st.Path); err != nil {
		return err
	}
	if !st.UseKeyring {
		return nil
	}
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring: %w", err)
	}
	return nil
}
