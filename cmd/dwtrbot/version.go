package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

func formatVersion() string {
	v := strings.TrimSpace(version)
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "dwtrbot %s\n", formatVersion())
			if buildTime != "" {
				_, _ = fmt.Fprintf(out, "  Build: %s\n", buildTime)
			}
			_, _ = fmt.Fprintf(out, "  Go: %s\n", runtime.Version())
			return nil
		},
	}
}
