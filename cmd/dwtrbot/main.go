package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dwtrbot",
		Short:        "Chat bot for the audio play catalogue",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Dotenv files to load before reading the environment.")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
