package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write build database settings",
	Long: `Settings live in the database config table and travel with it.

Keys the updater consults:
  create_so       builder plugin to load (default "make.so")
  show_progress   render the progress bar when non-zero (default 1)
`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		val, err := store.ConfigGetString(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		return store.SetConfig(cmd.Context(), args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all config values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		all, err := store.AllConfig(cmd.Context())
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(all) {
			fmt.Printf("%s = %s\n", key, all[key])
		}
		return nil
	},
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
