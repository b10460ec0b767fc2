package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the tree and flag files as they change",
	Long: `Watch the project tree with filesystem notifications and stamp MODIFY
or DELETE flags on known file nodes as they change, so `+"`tup upd`"+`
skips the scan. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, root, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		m, err := monitor.New(store, root)
		if err != nil {
			return err
		}
		defer m.Close()

		fmt.Printf("Monitoring %s\n", root)
		return m.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
