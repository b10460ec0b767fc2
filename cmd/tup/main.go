// Command tup is a file-level incremental build system. The database
// under .tup/ records files, commands, and the links between them;
// `tup upd` brings the tree up to date by running only what changed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/config"
	"github.com/untoldecay/tup/internal/debug"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "tup",
	Short: "File-level incremental build system",
	Long: `tup tracks files, commands, and their dependencies in a database and
re-runs only the commands affected by what changed.

Typical session:
  tup init                 # create .tup/ at the project root
  tup mkdir src            # register a directory with build rules
  tup upd                  # update the build tree
  tup monitor              # stamp flags as files change
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag {
			debug.Enable("tup.updater")
			debug.Enable("tup.monitor")
		}
		return config.Initialize()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
