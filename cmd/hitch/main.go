package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/hitch/internal/app"
	"github.com/five82/hitch/internal/config"
	"github.com/five82/hitch/internal/logtail"
)

var (
	configPath  string
	prefsPath   string
	pollSeconds int
	logLines    int
)

var rootCmd = &cobra.Command{
	Use:           "hitch",
	Short:         "Terminal dashboard for ride sharing",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), appOptions())
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print recent entries from the Hitch log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		entries, err := logtail.ReadEntries(cfg.LogFile, logLines)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", cfg.LogFile)
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), entry.Format())
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "override config path (optional)")
	rootCmd.Flags().StringVar(&prefsPath, "prefs", "", "override preferences path (optional)")
	rootCmd.Flags().IntVar(&pollSeconds, "poll", 0, "refresh interval in seconds (optional, defaults to 30s)")

	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "number of entries to show (0 for all)")

	rootCmd.AddCommand(loginCmd, logoutCmd, signupCmd, resetPasswordCmd, verifyCmd, whoamiCmd, logsCmd)
}

func appOptions() app.Options {
	opts := app.Options{ConfigPath: configPath, PrefsPath: prefsPath}
	if pollSeconds > 0 {
		opts.PollEvery = pollSeconds
	}
	return opts
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hitch: %v\n", err)
		return 1
	}
	return 0
}
