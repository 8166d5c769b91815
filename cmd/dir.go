package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/sources"
	"github.com/dictscan/dictscan/sources/files"
)

func init() {
	dirCmd.Flags().Bool("follow-symlinks", false, "scan files that are symlinks to other files")
	rootCmd.AddCommand(dirCmd)
}

var dirCmd = &cobra.Command{
	Use:     "dir [flags] [path...]",
	Aliases: []string{"files", "directory"},
	Short:   "scan directories or files for dictionary terms",
	Run:     runDir,
}

func runDir(cmd *cobra.Command, args []string) {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	// the first target decides where the default config and ignore file live
	cfg := Config(cmd, paths[0])

	followSymlinks := mustGetBoolFlag(cmd, "follow-symlinks")
	maxFileSize := mustGetIntFlag(cmd, "max-target-megabytes") * 1_000_000
	concurrency := mustGetIntFlag(cmd, "concurrency")

	var src sources.Multi
	for _, path := range paths {
		logging.Debug().Msgf("adding target %s", path)
		src = append(src, &files.Files{
			Config:         &cfg,
			FollowSymlinks: followSymlinks,
			MaxFileSize:    maxFileSize,
			Path:           path,
			Concurrency:    concurrency,
		})
	}

	runScan(cmd, cfg, src, paths[0])
}
