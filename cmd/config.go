package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/config"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the effective configuration",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := cfg.Settings()
		pairs := make([][2]string, 0, len(settings))
		for _, k := range config.Keys() {
			pairs = append(pairs, [2]string{k, settings[k]})
		}
		fmt.Println(ui.KeyValueBlock("Configuration", pairs))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir))
		if f := cfg.File(); f != "" {
			fmt.Println(ui.Meta("Config file:      " + f))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting to <config dir>/config.yaml",
	Example: `  neondash config set rpc_url https://ethereum-sepolia-rpc.publicnode.com
  neondash config set price.currency eur
  neondash config set storage.backend badger`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(cfg.Dir, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", args[0], args[1])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
