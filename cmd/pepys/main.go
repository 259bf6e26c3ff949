package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pepys",
		Short: "pepys file protocol server and tools",
		Long: `pepys serves a small 9P-style file protocol. Requests travel in
size-prefixed groups and every request in a group is answered in order.

The bundled timefs service serves /time, and timeget reads it back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		timegetCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pepys: %v\n", err)
		os.Exit(1)
	}
}
