package sources

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/mholt/archives"
	"golang.org/x/sync/errgroup"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
)

var isWindows = runtime.GOOS == "windows"

// IsArchive does a light check to see if the provided path is an archive or
// compressed file. Archives are not scanned.
func IsArchive(ctx context.Context, path string) bool {
	format, _, err := archives.Identify(ctx, path, nil)
	return err == nil && format != nil
}

// ShouldSkipPath checks a path against all the allowlists to see if it can
// be skipped
func ShouldSkipPath(cfg *config.Config, source string, path string) bool {
	if cfg == nil {
		logging.Trace().Str("path", path).Msg("not skipping path because config is nil")
		return false
	}
	if cfg.PathAllowed(source, path) {
		return true
	}
	// Allowlist paths are written with forward slashes.
	return isWindows && cfg.PathAllowed(source, filepath.ToSlash(path))
}

// Multi yields the fragments of several sources, each on its own goroutine.
// The first error cancels the rest. yield must be safe for concurrent use.
type Multi []dictscan.Source

func (m Multi) Fragments(ctx context.Context, yield dictscan.FragmentsFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range m {
		g.Go(func() error {
			return src.Fragments(ctx, yield)
		})
	}
	return g.Wait()
}
