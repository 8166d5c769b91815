package files

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
	"github.com/fatih/semgroup"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/sources"
	"github.com/dictscan/dictscan/sources/file"
)

type ScanTarget struct {
	Path    string
	Symlink string
}

// Files is a source for yielding fragments from a collection of files
type Files struct {
	Config         *config.Config
	FollowSymlinks bool
	MaxFileSize    int
	Path           string

	// Concurrency bounds the files read at once. Values below 1 mean 1.
	Concurrency int
}

// scanTargets yields scan targets to a callback func
func (s *Files) scanTargets(ctx context.Context, yield func(ScanTarget) error) error {
	// Symlinks are handled below, so fastwalk must not follow them.
	conf := &fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(conf, s.Path, func(path string, d fs.DirEntry, err error) error {
		scanTarget := ScanTarget{Path: path}
		logger := logging.With().Str("path", path).Logger()

		if err != nil {
			if os.IsPermission(err) {
				logger.Warn().Err(errors.New("permission denied")).Msg("skipping directory")
				return fastwalk.SkipDir
			}
			logger.Warn().Err(err).Msg("skipping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if sources.ShouldSkipPath(s.Config, "file", path) {
				logger.Debug().Msg("skipping directory: global allowlist")
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.Type() == fs.ModeSymlink {
			if !s.FollowSymlinks {
				logger.Debug().Msg("skipping symlink: follow symlinks disabled")
				return nil
			}
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				logger.Error().Err(err).Msg("skipping symlink: could not evaluate")
				return nil
			}
			if info, err := os.Stat(realPath); err != nil || info.IsDir() {
				logger.Debug().Str("target", realPath).Msg("skipping symlink: target is directory")
				return nil
			}
			scanTarget = ScanTarget{
				Path:    realPath,
				Symlink: path,
			}
		}

		if sources.ShouldSkipPath(s.Config, "file", path) {
			logger.Debug().Msg("skipping file: global allowlist")
			return nil
		}

		if sources.IsArchive(ctx, scanTarget.Path) {
			logger.Debug().Msg("skipping file: archive")
			return nil
		}

		// Only stat when a size limit is configured.
		if s.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				logger.Error().Err(err).Msg("skipping file: could not get info")
				return nil
			}
			if info.Size() > int64(s.MaxFileSize) {
				logger.Warn().Msgf(
					"skipping file: too large max_size=%dMB, size=%dMB",
					s.MaxFileSize/1_000_000, info.Size()/1_000_000,
				)
				return nil
			}
		}

		return yield(scanTarget)
	})

	// A missing root is logged, not fatal.
	if err != nil && os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", s.Path).Msg("skipping")
		return nil
	}

	return err
}

// Fragments yields fragments from files discovered under the path
func (s *Files) Fragments(ctx context.Context, yield dictscan.FragmentsFunc) error {
	sema := semgroup.NewGroup(ctx, int64(max(s.Concurrency, 1)))

	err := s.scanTargets(ctx, func(scanTarget ScanTarget) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sema.Go(func() error {
			logger := logging.With().Str("path", scanTarget.Path).Logger()
			logger.Trace().Msg("scanning path")

			f, err := os.Open(scanTarget.Path)
			if err != nil {
				logger.Warn().Err(err).Msg("skipping file: could not open")
				return nil
			}
			defer f.Close()

			fileSource := file.File{
				Content: f,
				Path:    scanTarget.Path,
				Symlink: scanTarget.Symlink,
				Config:  s.Config,
				Source:  "file",
				MaxSize: s.MaxFileSize,
			}
			return fileSource.Fragments(ctx, yield)
		})
		return nil
	})

	if werr := sema.Wait(); err == nil {
		err = werr
	}
	return err
}
