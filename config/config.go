// Package config loads dictionary configurations. A TOML document is decoded
// into a FileConfig and then translated into a validated Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-version"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/dictscan/dictscan/alphabet"
	"github.com/dictscan/dictscan/logging"
)

// DefaultFileName is looked up in the scan target when no config is given.
const DefaultFileName = ".dictscan.toml"

var (
	ErrNoPatterns     = errors.New("no patterns configured")
	ErrVersion        = errors.New("config requires a newer dictscan")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrDuplicateID    = errors.New("duplicate pattern id")
)

// FileConfig is the raw shape of a config file.
type FileConfig struct {
	Title        string             `koanf:"title"`
	MinVersion   string             `koanf:"min-version"`
	Symbols      alphabet.Mode      `koanf:"symbols"`
	FoldCase     bool               `koanf:"fold-case"`
	Patterns     []PatternConfig    `koanf:"patterns"`
	Dictionaries []DictionaryConfig `koanf:"dictionaries"`

	// Allowlist is the single-table form; Allowlists the array form.
	Allowlist  *AllowlistConfig  `koanf:"allowlist"`
	Allowlists []AllowlistConfig `koanf:"allowlists"`

	// dir resolves relative dictionary paths.
	dir            string
	currentVersion string
}

type PatternConfig struct {
	ID          string   `koanf:"id"`
	Value       string   `koanf:"value"`
	Description string   `koanf:"description"`
	Tags        []string `koanf:"tags"`
}

type DictionaryConfig struct {
	Path      string   `koanf:"path"`
	IDPrefix  string   `koanf:"id-prefix"`
	MinLength int      `koanf:"min-length"`
	Tags      []string `koanf:"tags"`
}

type AllowlistConfig struct {
	Description string   `koanf:"description"`
	Condition   string   `koanf:"condition"`
	Paths       []string `koanf:"paths"`
	Regexes     []string `koanf:"regexes"`
	RegexTarget string   `koanf:"regex-target"`
	StopWords   []string `koanf:"stopwords"`
	Resources   []string `koanf:"resources"`
}

// Pattern is one dictionary entry.
type Pattern struct {
	ID          string
	Value       string
	Description string
	Tags        []string
}

// Config is a validated configuration, ready to build a scanner from.
type Config struct {
	Title      string
	Path       string
	Encoder    alphabet.Encoder
	Patterns   []Pattern
	Allowlists []*Allowlist
}

// Parse decodes a TOML document. dir is used to resolve relative dictionary
// paths; pass "" to resolve them against the working directory.
func Parse(data []byte, dir string) (FileConfig, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), toml.Parser()); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}

	fc := FileConfig{dir: dir}
	err := k.UnmarshalWithConf("", &fc, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			TagName:          "koanf",
			Result:           &fc,
		},
	})
	if err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return fc, nil
}

// Load reads and parses the config file at path.
func Load(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// SetCurrentVersion records the running version for the min-version check.
func (fc *FileConfig) SetCurrentVersion(v string) {
	fc.currentVersion = v
}

// Translate validates fc and loads its dictionaries.
func (fc *FileConfig) Translate() (Config, error) {
	if err := fc.checkVersion(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Title:   fc.Title,
		Encoder: alphabet.Encoder{Mode: fc.Symbols, FoldCase: fc.FoldCase},
	}

	for i, pc := range fc.Patterns {
		if pc.Value == "" {
			return Config{}, fmt.Errorf("%w: patterns[%d] (id %q) has an empty value", ErrInvalidPattern, i, pc.ID)
		}
		id := pc.ID
		if id == "" {
			id = pc.Value
		}
		cfg.Patterns = append(cfg.Patterns, Pattern{
			ID:          id,
			Value:       pc.Value,
			Description: pc.Description,
			Tags:        pc.Tags,
		})
	}

	for _, dc := range fc.Dictionaries {
		path := dc.Path
		if path != "" && !filepath.IsAbs(path) && fc.dir != "" {
			path = filepath.Join(fc.dir, path)
		}
		patterns, err := loadDictionary(path, dc)
		if err != nil {
			return Config{}, err
		}
		logging.Debug().Str("path", path).Int("words", len(patterns)).Msg("loaded dictionary")
		cfg.Patterns = append(cfg.Patterns, patterns...)
	}

	if err := checkDuplicateIDs(cfg.Patterns); err != nil {
		return Config{}, err
	}

	allowlists := fc.Allowlists
	if fc.Allowlist != nil {
		allowlists = append([]AllowlistConfig{*fc.Allowlist}, allowlists...)
	}
	for i, ac := range allowlists {
		a, err := ac.translate()
		if err != nil {
			return Config{}, fmt.Errorf("allowlist %d: %w", i, err)
		}
		cfg.Allowlists = append(cfg.Allowlists, a)
	}

	return cfg, nil
}

func (fc *FileConfig) checkVersion() error {
	if fc.MinVersion == "" {
		return nil
	}
	minVersion, err := version.NewVersion(fc.MinVersion)
	if err != nil {
		return fmt.Errorf("invalid min-version %q: %w", fc.MinVersion, err)
	}
	current, err := version.NewVersion(fc.currentVersion)
	if err != nil {
		// Development builds carry no parseable version.
		logging.Debug().Str("version", fc.currentVersion).Msg("skipping min-version check")
		return nil
	}
	if current.LessThan(minVersion) {
		return fmt.Errorf("%w: have %s, need %s", ErrVersion, current, minVersion)
	}
	return nil
}

func checkDuplicateIDs(patterns []Pattern) error {
	seen := make(map[string]string, len(patterns))
	for _, p := range patterns {
		if prev, ok := seen[p.ID]; ok && prev != p.Value {
			return fmt.Errorf("%w: %q used for %q and %q", ErrDuplicateID, p.ID, prev, p.Value)
		}
		seen[p.ID] = p.Value
	}
	return nil
}

// AddPatterns appends inline patterns, each using its value as id.
func (c *Config) AddPatterns(values ...string) error {
	for _, v := range values {
		if v == "" {
			return fmt.Errorf("%w: empty inline pattern", ErrInvalidPattern)
		}
		c.Patterns = append(c.Patterns, Pattern{ID: v, Value: v, Tags: []string{"inline"}})
	}
	return nil
}

// Validate reports whether c can build a scanner.
func (c *Config) Validate() error {
	if len(c.Patterns) == 0 {
		return ErrNoPatterns
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d patterns, symbols=%s", c.Title, len(c.Patterns), c.Encoder.Mode)
	if c.Encoder.FoldCase {
		b.WriteString(", fold-case")
	}
	b.WriteByte(')')
	return b.String()
}
