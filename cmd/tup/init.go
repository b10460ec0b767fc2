package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/config"
	"github.com/untoldecay/tup/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .tup directory and database here",
	Long: `Create .tup/ in the current directory with an empty build database
and the update lock file. Safe to re-run; an existing database is
left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		tupDir := filepath.Join(cwd, config.TupDir)
		if err := os.MkdirAll(tupDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", tupDir, err)
		}

		// The lock file is opened read-only by updaters; it just
		// has to exist.
		lockPath := filepath.Join(tupDir, lockFile)
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", lockPath, err)
		}
		f.Close()

		store, err := sqlite.New(cmd.Context(), filepath.Join(tupDir, dbFile))
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("Initialized tup database in %s\n", tupDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
