package dictscan

import (
	"context"
	"io"
)

// FragmentsFunc is the callback a Source yields fragments to. Returning an
// error stops the source.
type FragmentsFunc func(fragment Fragment, err error) error

// Source enumerates resources and yields their content as fragments.
type Source interface {
	Fragments(ctx context.Context, yield FragmentsFunc) error
}

// Reporter writes a set of findings in some report format.
type Reporter interface {
	Write(w io.WriteCloser, findings []Finding) error
}
