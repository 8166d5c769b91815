package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

// loadDictionary reads a newline separated word list. Blank lines and lines
// starting with '#' are skipped. Files ending in .zst are decompressed.
func loadDictionary(path string, dc DictionaryConfig) ([]Pattern, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: dictionary without path", ErrInvalidPattern)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd dictionary %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	patterns, err := readWords(r, dc)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	return patterns, nil
}

func readWords(r io.Reader, dc DictionaryConfig) ([]Pattern, error) {
	description := "dictionary " + dc.Path
	var patterns []Pattern

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		word := strings.TrimSpace(sc.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		if utf8.RuneCountInString(word) < dc.MinLength {
			continue
		}
		id := word
		if dc.IDPrefix != "" {
			id = dc.IDPrefix + ":" + word
		}
		patterns = append(patterns, Pattern{
			ID:          id,
			Value:       word,
			Description: description,
			Tags:        dc.Tags,
		})
	}
	return patterns, sc.Err()
}
