// Package config handles loading and parsing the Hitch configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/hitch/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing, empty or non-positive, use defaults
//
// # Default Values
//
//   - API URL: http://127.0.0.1:8080/api
//   - Log file: ~/.local/state/hitch/hitch.log (level info)
//   - Session file: ~/.config/hitch/session.toml (token stored in the file)
//   - Poll interval: 30 seconds
//   - Busy indicator: 500ms minimum visible, message cleared 300ms after hiding
//
// # TOML Format
//
//	api_url = "https://rides.example.com/api"
//	log_file = "~/.local/state/hitch/hitch.log"
//	log_level = "debug"
//	session_file = "~/.config/hitch/session.toml"
//	use_keyring = true               # token in the OS keyring, not the file
//	poll_seconds = 30
//	min_visible_ms = 500
//	message_clear_ms = 300
//
// # Error Handling
//
// A missing file is not an error. Unreadable files and invalid TOML are
// returned wrapped ("open config", "read config", "parse config") so the
// caller can report them before the TUI takes over the terminal.
package config
