package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/storage/sqlite"
	"github.com/untoldecay/tup/internal/types"
)

// Manual node and link manipulation, for bootstrapping a project and
// for builder plugins written as shell scripts.

var touchCmd = &cobra.Command{
	Use:   "touch <file>...",
	Short: "Flag files as modified, registering them if new",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, name := range args {
			dbn, err := store.NodeByName(ctx, name)
			switch {
			case errors.Is(err, sqlite.ErrNodeNotFound):
				if _, err := store.CreateNode(ctx, 0, name, types.TypeFile, types.FlagsModify); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := store.SetFlagsByID(ctx, dbn.ID, types.FlagsModify); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <file>...",
	Short: "Flag files as deleted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, name := range args {
			dbn, err := store.NodeByName(ctx, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := store.SetFlagsByID(ctx, dbn.ID, types.FlagsDelete); err != nil {
				return err
			}
		}
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>...",
	Short: "Register directories and flag them for the create phase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, name := range args {
			dbn, err := store.NodeByName(ctx, name)
			switch {
			case errors.Is(err, sqlite.ErrNodeNotFound):
				if _, err := store.CreateNode(ctx, 0, name, types.TypeDir, types.FlagsCreate); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := store.SetFlagsByID(ctx, dbn.ID, types.FlagsCreate); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var linkIsCmdlink bool

var linkCmd = &cobra.Command{
	Use:   "link <from> <to>",
	Short: "Record a dependency link between two nodes by name",
	Long: `Record a file-link from <from> to <to>. With --cmd the link is a
cmd-link: <from> is a command producing <to>.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		from, err := store.NodeByName(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		to, err := store.NodeByName(ctx, args[1])
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}
		if linkIsCmdlink {
			return store.AddCmdlink(ctx, from.ID, to.ID)
		}
		return store.AddLink(ctx, from.ID, to.ID)
	},
}

func init() {
	linkCmd.Flags().BoolVar(&linkIsCmdlink, "cmd", false, "record a cmd-link instead of a file-link")
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(linkCmd)
}
