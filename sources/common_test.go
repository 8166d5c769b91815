package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
)

type staticSource []string

func (s staticSource) Fragments(ctx context.Context, yield dictscan.FragmentsFunc) error {
	for _, raw := range s {
		if err := yield(dictscan.Fragment{Raw: raw}, nil); err != nil {
			return err
		}
	}
	return nil
}

type failingSource struct{ err error }

func (s failingSource) Fragments(context.Context, dictscan.FragmentsFunc) error {
	return s.err
}

func TestMulti(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	src := Multi{staticSource{"a", "b"}, staticSource{"c"}}
	err := src.Fragments(context.Background(), func(f dictscan.Fragment, err error) error {
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		got = append(got, f.Raw)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMultiError(t *testing.T) {
	boom := errors.New("boom")
	src := Multi{staticSource{"a"}, failingSource{boom}}
	err := src.Fragments(context.Background(), func(dictscan.Fragment, error) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestShouldSkipPath(t *testing.T) {
	assert.False(t, ShouldSkipPath(nil, "file", "vendor/a.go"))

	fc, err := config.Parse([]byte(`
[allowlist]
paths = ['''^vendor/''']
`), "")
	require.NoError(t, err)
	cfg, err := fc.Translate()
	require.NoError(t, err)

	assert.True(t, ShouldSkipPath(&cfg, "file", "vendor/a.go"))
	assert.False(t, ShouldSkipPath(&cfg, "file", "src/a.go"))
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("just some words\n"), 0o644))
	assert.False(t, IsArchive(context.Background(), plain))

	compressed := filepath.Join(dir, "words.zst")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte("just some words\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	assert.True(t, IsArchive(context.Background(), compressed))
}
