package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/pepys/internal/client"
	"github.com/danmuck/pepys/internal/logging"
	"github.com/danmuck/pepys/internal/timefs"
)

func timegetCmd() *cobra.Command {
	var (
		addr     string
		uname    string
		timeout  time.Duration
		attempts int
		useTLS   bool
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "timeget",
		Short: "Read /time from a timefs server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cfg := client.DefaultConfig()
			cfg.Attempts = attempts
			if useTLS {
				cfg.TLS = &tls.Config{InsecureSkipVerify: insecure, MinVersion: tls.VersionTLS12}
			}

			c, err := client.Dial(ctx, addr, cfg)
			if err != nil {
				return fmt.Errorf("could not connect to timefs server: %w", err)
			}
			defer c.Close()

			text, err := timefs.Fetch(ctx, c, uname)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "The time is: %s", text)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:564", "timefs server address")
	cmd.Flags().StringVar(&uname, "uname", "testuser", "User name sent in session and attach")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Overall deadline")
	cmd.Flags().IntVar(&attempts, "attempts", 3, "Dial attempts")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "Dial with TLS")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	return cmd
}
