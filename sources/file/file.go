// Package file yields the content of a single reader as one fragment.
package file

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/h2non/filetype"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
)

// headerSize is the number of leading bytes filetype needs.
const headerSize = 262

// File is a source reading one file, or stdin.
type File struct {
	Content io.Reader
	Path    string
	Symlink string
	Config  *config.Config

	// Source is "file" or "stdin".
	Source string

	// MaxSize in bytes; 0 means unlimited.
	MaxSize int
}

// Fragments reads the whole content and yields it as a single fragment.
// Binary content recognised by filetype is skipped.
func (s *File) Fragments(ctx context.Context, yield dictscan.FragmentsFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := logging.With().Str("path", s.Path).Logger()

	r := s.Content
	if s.MaxSize > 0 {
		r = io.LimitReader(r, int64(s.MaxSize)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return yield(dictscan.Fragment{}, fmt.Errorf("read %s: %w", s.Path, err))
	}
	if s.MaxSize > 0 && len(data) > s.MaxSize {
		logger.Warn().Int("max_size", s.MaxSize).Msg("skipping file: too large")
		return nil
	}
	if len(data) == 0 {
		logger.Trace().Msg("skipping empty file")
		return nil
	}
	if isBinary(data) {
		logger.Debug().Msg("skipping binary file")
		return nil
	}

	source := s.Source
	if source == "" {
		source = "file"
	}
	resource := &dictscan.Resource{
		Path:   s.Path,
		Kind:   Content,
		Source: source,
	}
	resource.Set(dictscan.MetaPath, s.Path)
	resource.Set(dictscan.MetaSize, strconv.Itoa(len(data)))
	if s.Symlink != "" {
		resource.Set(dictscan.MetaSymlinkFile, s.Symlink)
	}

	return yield(dictscan.Fragment{
		Raw:       string(data),
		Path:      s.Path,
		StartLine: 1,
		Resource:  resource,
	}, nil)
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > headerSize {
		head = head[:headerSize]
	}
	kind, err := filetype.Match(head)
	return err == nil && kind != filetype.Unknown
}
