package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/builder"
	"github.com/untoldecay/tup/internal/config"
	"github.com/untoldecay/tup/internal/updater"
)

var updCmd = &cobra.Command{
	Use:     "upd",
	Aliases: []string{"update"},
	Short:   "Bring the build tree up to date",
	Long: `Run the updater: re-create directories whose rules changed, build the
dependency graph of everything flagged, and execute it in order.

Only one updater may run at a time; a second invocation waits on the
update lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		root, err := config.ProjectRoot()
		if err != nil {
			return err
		}

		lockPath := filepath.Join(root, config.TupDir, lockFile)
		if _, err := os.Stat(lockPath); err != nil {
			return fmt.Errorf("cannot open update lock: %w", err)
		}
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring update lock: %w", err)
		}
		if !locked {
			fmt.Println("Waiting for lock...")
			if timeout := config.GetDuration("lock-timeout"); timeout > 0 {
				lockCtx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				if _, err := lock.TryLockContext(lockCtx, 100*time.Millisecond); err != nil {
					return fmt.Errorf("acquiring update lock: %w", err)
				}
			} else if err := lock.Lock(); err != nil {
				return fmt.Errorf("acquiring update lock: %w", err)
			}
		}
		defer func() { _ = lock.Unlock() }()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		createSo, err := store.ConfigGetString(ctx, "create_so", "make.so")
		if err != nil {
			return err
		}
		if !filepath.IsAbs(createSo) {
			createSo = filepath.Join(root, createSo)
		}
		create, err := builder.Load(createSo)
		if err != nil {
			return err
		}

		u := updater.New(store, create)
		u.Dir = root
		return u.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(updCmd)
}
