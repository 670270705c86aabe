package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rivergauge-server/internal/identity"
	"rivergauge-server/pkg/favclient"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type options struct {
	server  string
	token   string
	userID  string
	verbose bool

	logger *slog.Logger
	client *favclient.Client
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// RootCommand creates the explorer command tree.
func RootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "explorer",
		Short:         "Search USGS water stations and manage favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envDefault("RIVERGAUGE_SERVER", favclient.DefaultBaseURL), "rivergauge server base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("RIVERGAUGE_TOKEN"), "bearer token sent to the server")
	flags.StringVar(&opts.userID, "user", envDefault("RIVERGAUGE_USER", "user123"), "user id for favorites (defaults to the --token subject)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelWarn
		if opts.verbose {
			level = slog.LevelDebug
		}
		opts.logger = slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{Level: level}))
		if opts.token != "" && !cmd.Flags().Changed("user") {
			sub, err := identity.UnverifiedSubject(opts.token)
			if err != nil {
				return fmt.Errorf("--token: %w", err)
			}
			opts.userID = sub
		}
		if opts.client == nil {
			opts.client = favclient.New(opts.server, favclient.WithToken(opts.token), favclient.WithLogger(opts.logger))
		}
		return nil
	}

	rootCmd.AddCommand(
		searchCommand(opts),
		detailsCommand(opts),
		historyCommand(opts),
		favoritesCommand(opts),
		eventsCommand(opts),
	)
	return rootCmd
}
