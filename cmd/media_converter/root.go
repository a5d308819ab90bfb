package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/version"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var versionFlag bool

	rootCmd := &cobra.Command{
		Use:           "media-converter",
		Short:         "Batch image and audio conversion server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Override config path with config for Docker users
			if configEnv := os.Getenv("REPO_CONFIG"); configEnv != "" {
				configFlag = configEnv
			}
			config.Path = configFlag
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				version.Print(false)
				return nil
			}
			return runServer()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "media-converter.yaml", "The path to the configuration")
	rootCmd.Flags().BoolVar(&versionFlag, "version", false, "Prints the version and exits")

	rootCmd.AddCommand(newConvertCommand())

	return rootCmd
}
