package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/pepys/internal/observability"
	"github.com/danmuck/pepys/internal/server"
	"github.com/danmuck/pepys/internal/timefs"
)

type serveFlags struct {
	configPath string
	addr       string
	adminAddr  string
	concurrent bool
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timefs service",
		Long: `Serve the timefs service on the protocol port until interrupted.

Values from --config are applied first, then any flags given explicitly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "Protocol listen address")
	cmd.Flags().StringVar(&flags.adminAddr, "admin-addr", "", "Admin HTTP listen address (empty disables)")
	cmd.Flags().BoolVar(&flags.concurrent, "concurrent", false, "Serve connections concurrently")

	return cmd
}

func resolveServeConfig(cmd *cobra.Command, flags serveFlags) (serveConfig, error) {
	cfg := defaultServeConfig()
	if path := strings.TrimSpace(flags.configPath); path != "" {
		loaded, err := loadServeConfig(path)
		if err != nil {
			return serveConfig{}, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.ListenAddr = strings.TrimSpace(flags.addr)
	}
	if cmd.Flags().Changed("admin-addr") {
		cfg.Server.AdminListenAddr = strings.TrimSpace(flags.adminAddr)
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Server.Concurrent = flags.concurrent
	}
	return cfg, nil
}

func runServe(parent context.Context, cfg serveConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.InitLogger("pepys")
	server.Version = version

	fs := timefs.New()
	fs.Layout = cfg.TimeLayout
	fs.Logger = logger
	table, err := fs.Table()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Server, table,
		server.WithLogger(logger),
		server.WithConnInit(fs.InitConn),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
