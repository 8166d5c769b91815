package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dictscan/dictscan/sources/file"
)

func init() {
	rootCmd.AddCommand(stdInCmd)
}

var stdInCmd = &cobra.Command{
	Use:   "stdin",
	Short: "scan stdin for dictionary terms",
	Run:   runStdIn,
}

func runStdIn(cmd *cobra.Command, _ []string) {
	cfg := Config(cmd, ".")

	src := &file.File{
		Content: os.Stdin,
		Path:    "stdin",
		Config:  &cfg,
		Source:  "stdin",
		MaxSize: mustGetIntFlag(cmd, "max-target-megabytes") * 1_000_000,
	}

	runScan(cmd, cfg, src, ".")
}
