package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/hitch/internal/busy"
	"github.com/five82/hitch/internal/config"
	"github.com/five82/hitch/internal/logging"
	"github.com/five82/hitch/internal/prefs"
	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/session"
	"github.com/five82/hitch/internal/state"
	"github.com/five82/hitch/internal/ui"
)

// Options configure the Hitch application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/hitch/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// Env holds the collaborators shared by the TUI and the CLI commands.
type Env struct {
	Config   config.Config
	Log      *logrus.Logger
	Sessions session.Store
	Client   *rides.Client
	Accounts rides.Authenticator
	Busy     *busy.Coordinator

	logCloser io.Closer
}

// Bootstrap loads configuration, opens the log file, restores the session
// and builds the API client and busy coordinator.
func Bootstrap(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	log, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	sessions := session.Store{Path: cfg.SessionPath, UseKeyring: cfg.UseKeyring}
	sess, err := sessions.Load()
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}

	client, err := rides.NewClient(cfg.APIURL,
		rides.WithToken(sess.Token),
		rides.WithLogger(log.WithField("component", "rides")),
	)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init rides client: %w", err)
	}

	return &Env{
		Config:    cfg,
		Log:       log,
		Sessions:  sessions,
		Client:    client,
		Accounts:  client,
		Busy:      busy.New(cfg.BusyOptions()),
		logCloser: closer,
	}, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	if e == nil || e.logCloser == nil {
		return nil
	}
	return e.logCloser.Close()
}

// Run boots the Hitch TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if !env.Client.HasToken() {
		return fmt.Errorf("not signed in; run `hitch login` first")
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	poller := NewPoller(store, env.Client, env.Log, env.Config.PollInterval)
	poller.Start(ctx)

	env.Log.WithFields(logrus.Fields{
		"api_url": env.Config.APIURL,
		"poll":    env.Config.PollInterval.String(),
	}).Info("starting tui")

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    env.Client,
		Store:     store,
		Busy:      env.Busy,
		Refresh:   poller.Refresh,
		Log:       env.Log.WithField("component", "ui"),
		LogFile:   env.Config.LogFile,
		PollTick:  time.Second,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}
