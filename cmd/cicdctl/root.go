package main

import (
	"context"
	"fmt"

	"github.com/cicdguard/backend/internal/config"
	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/logger/console"
	"github.com/cicdguard/backend/pkg/transport"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	brand  = color.New(color.FgHiBlue, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

func rootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "cicdctl",
		Short:        "Inspect the CI/CD security graph from the terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.LoadEnv()
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug || util.GetEnvBool("DEBUG", false),
				Format: util.GetEnvString("LOG_FORMAT", "text"),
				Output: cmd.ErrOrStderr(),
			}))
		},
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		vocabCmd(),
		queryCmd(),
		vulnsCmd(),
		notifyCmd(),
	)

	return cmd
}

// connect loads the configuration and opens the configured graph backend.
func connect(ctx context.Context) (config.Config, transport.Transport, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	t, err := config.NewTransport(ctx, cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("connect to %s: %w", cfg.Backend, err)
	}
	return cfg, t, nil
}
