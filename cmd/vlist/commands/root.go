// Package commands implements the vlist command line.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agiangrant/vlist/config"
)

// Root builds the vlist command tree.
func Root(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "vlist",
		Short:         "Virtualized list viewer and layout benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to vlist.toml or vlist.yaml (default: search upwards from the working directory)")

	root.AddCommand(
		newViewCmd(),
		newBenchCmd(),
		newInitCmd(),
		newVersionCmd(version),
	)
	return root
}

// loadConfig reads the --config file, or the nearest vlist config above the
// working directory. It returns the defaults and an empty path when there is
// none.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return config.Config{}, "", err
		}
		path, err = config.FindFile(cwd)
		if errors.Is(err, config.ErrNotFound) {
			return config.Default(), "", nil
		}
		if err != nil {
			return config.Config{}, "", err
		}
	} else if _, err := os.Stat(path); err != nil {
		return config.Config{}, "", fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, path, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vlist version %s\n", version)
		},
	}
}
