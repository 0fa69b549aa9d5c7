// Package cmd holds the renamezip command tree.
package cmd

import (
	"fmt"

	"renamezip/internal/config"
	"renamezip/internal/log"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

var (
	cfgFile string
	debug   bool
	jsonLog bool
	cfg     *config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "renamezip",
		Short: "Rename files after their folders and package them as a zip",
		Long: `renamezip collects files from one or more folders, groups them by their
top-level folder, renames every file to "<folder>-<n>.<ext>" and writes the
result as a zip archive. A CSV mapping can give folders new display names.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var configErr error
			if cfgFile != "" {
				cfg, configErr = config.LoadConfigFile(cfgFile)
			} else {
				cfg, configErr = config.LoadConfig()
			}
			if configErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warningText(fmt.Sprintf("Warning: %v", configErr)))
				fmt.Fprintln(cmd.ErrOrStderr(), infoText("Using default settings. Run 'renamezip config init' to create a config file."))
				cfg = config.New()
			}

			opts := []log.Option{log.WithOutput(cmd.ErrOrStderr())}
			if jsonLog || cfg.Logging.JSON {
				opts = append(opts, log.WithJSON())
			}
			if cfg.Logging.File != "" {
				opts = append(opts, log.WithFile(cfg.Logging.File))
			}
			log.Configure(opts...)
			log.SetDebug(debug || cfg.Logging.Debug)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/renamezip/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")

	rootCmd.AddCommand(NewPreviewCmd())
	rootCmd.AddCommand(NewPackageCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewTUICmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// Execute runs the command tree
func Execute() error {
	return NewRootCmd().Execute()
}
