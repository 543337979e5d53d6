// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	catalystwan "github.com/netascode/go-catalystwan"
	"github.com/netascode/go-catalystwan/endpoints"
	"github.com/netascode/go-catalystwan/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "catalystwan",
		Short: "Cisco Catalyst SD-WAN Manager API client",
		Long: `catalystwan lists the vManage API endpoints known to this client, checks
them against a controller OpenAPI document and runs basic operations.

Connection settings are read from a YAML file (--config or CATALYSTWAN_CONFIG)
and CATALYSTWAN_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides the configuration")

	cmd.AddCommand(
		newEndpointsCmd(),
		newConformCmd(),
		newServerCmd(opts),
		newTenantsCmd(opts),
		newTaskCmd(opts),
	)
	return cmd
}

// newLogger returns a colorized handler on terminals and JSON otherwise
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := &slog.LevelVar{}
	if parsed, err := catalystwan.ParseLogLevel(level); err == nil {
		lvl.Set(parsed.SlogLevel())
	}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// connect loads the configuration and creates a client with the endpoint groups
func connect(cmd *cobra.Command, opts *rootOptions) (*catalystwan.Client, *endpoints.API, error) {
	cfg, err := config.Load(cmd.Context(), opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := catalystwan.NewSlogLogger(newLogger(cmd.ErrOrStderr(), level))

	client, err := cfg.NewClient(logger)
	if err != nil {
		return nil, nil, err
	}
	return client, endpoints.New(client), nil
}
