package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/regexp"
	"github.com/dictscan/dictscan/version"
)

const configDescription = `config file path
order of precedence:
1. --config/-c
2. env var DICTSCAN_CONFIG
3. env var DICTSCAN_CONFIG_TOML with the file content
4. (target path)/.dictscan.toml
If none of the four options are used, only --pattern values are scanned for`

var rootCmd = &cobra.Command{
	Use:     "dictscan",
	Short:   "dictscan finds every occurrence of a dictionary of terms in files or stdin",
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set the timeout for all the commands
		if timeout, err := cmd.Flags().GetInt("timeout"); err != nil {
			return err
		} else if timeout > 0 {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
			cmd.SetContext(ctx)
			cobra.OnFinalize(cancel)
		}
		return nil
	},
}

const (
	BYTE     = 1.0
	KILOBYTE = BYTE * 1000
	MEGABYTE = KILOBYTE * 1000
	GIGABYTE = MEGABYTE * 1000
)

func init() {
	cobra.OnInitialize(initLog)
	rootCmd.PersistentFlags().StringP("config", "c", "", configDescription)
	rootCmd.PersistentFlags().StringArrayP("pattern", "p", nil, "inline pattern to scan for (repeatable)")
	rootCmd.PersistentFlags().Int("exit-code", 1, "exit code when findings have been encountered")
	rootCmd.PersistentFlags().StringP("report-path", "r", "", "report file (use \"-\" for stdout)")
	rootCmd.PersistentFlags().StringP("report-format", "f", "", "output format (json, csv); defaults to the report path extension, then json")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print every finding")
	rootCmd.PersistentFlags().Bool("no-color", false, "turn off color for verbose output")
	rootCmd.PersistentFlags().Int("max-target-megabytes", 0, "files larger than this will be skipped")
	rootCmd.PersistentFlags().Uint("redact", 0, "redact matches from logs and stdout. To redact only parts of a match apply a percent value from 0..100. For example --redact=20 (default 100%)")
	rootCmd.Flag("redact").NoOptDefVal = "100"
	rootCmd.PersistentFlags().StringP("ignore-path", "i", ".", "path to .dictscanignore file or folder containing one")
	rootCmd.PersistentFlags().String("regex-engine", "stdlib", "regex engine for allowlists (stdlib, re2)")
	rootCmd.PersistentFlags().Int("concurrency", 10, "number of files and fragments scanned concurrently")
	rootCmd.PersistentFlags().Int("timeout", 0, "set a timeout for dictscan commands in seconds (default \"0\", no timeout is set)")
}

func initLog() {
	ll, err := rootCmd.Flags().GetString("log-level")
	if err != nil {
		logging.Fatal().Msg(err.Error())
	}
	level, ok := logging.ParseLevel(strings.ToLower(ll))
	if !ok {
		logging.Warn().Msgf("unknown log level: %s", ll)
	}
	logging.Logger = logging.Logger.Level(level)
}

// Config loads the dictionary for a scan of target and adds the --pattern
// values. It exits the process on any error.
func Config(cmd *cobra.Command, target string) config.Config {
	if err := regexp.SetEngine(mustGetStringFlag(cmd, "regex-engine")); err != nil {
		logging.Fatal().Err(err).Msg("invalid --regex-engine")
	}
	logging.Debug().Msgf("using %s regex engine", regexp.Version())

	cfg, err := loadConfig(cmd, target)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}

	patterns, err := cmd.Flags().GetStringArray("pattern")
	if err != nil {
		logging.Fatal().Err(err).Msg("could not get flag: pattern")
	}
	if err := cfg.AddPatterns(patterns...); err != nil {
		logging.Fatal().Err(err).Msg("invalid --pattern")
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoPatterns) {
			logging.Fatal().Msg("no patterns: pass --pattern or a config with [[patterns]] or [[dictionaries]]")
		}
		logging.Fatal().Err(err).Msg("invalid config")
	}
	logging.Debug().Msgf("loaded config %s", cfg.String())
	return cfg
}

func loadConfig(cmd *cobra.Command, target string) (config.Config, error) {
	var (
		fc   config.FileConfig
		path string
		err  error
	)

	switch cfgPath := mustGetStringFlag(cmd, "config"); {
	case cfgPath != "":
		logging.Debug().Msgf("using config %s from `--config`", cfgPath)
		path = cfgPath
		fc, err = config.Load(cfgPath)
	case os.Getenv("DICTSCAN_CONFIG") != "":
		path = os.Getenv("DICTSCAN_CONFIG")
		logging.Debug().Msgf("using config from DICTSCAN_CONFIG env var: %s", path)
		fc, err = config.Load(path)
	case os.Getenv("DICTSCAN_CONFIG_TOML") != "":
		logging.Debug().Msg("using config from DICTSCAN_CONFIG_TOML env var content")
		fc, err = config.Parse([]byte(os.Getenv("DICTSCAN_CONFIG_TOML")), "")
	default:
		candidate := filepath.Join(target, config.DefaultFileName)
		if !fileExists(candidate) {
			logging.Debug().Msgf("no config found in path %s", candidate)
			return config.Config{}, nil
		}
		logging.Debug().Msgf("using existing config %s from `(target)/%s`", candidate, config.DefaultFileName)
		path = candidate
		fc, err = config.Load(candidate)
	}
	if err != nil {
		return config.Config{}, err
	}

	fc.SetCurrentVersion(version.Version)
	cfg, err := fc.Translate()
	if err != nil {
		return config.Config{}, err
	}
	cfg.Path = path
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if strings.Contains(err.Error(), "unknown flag") {
			// exit code 126: Command invoked cannot execute
			os.Exit(126)
		}
		logging.Fatal().Msg(err.Error())
	}
}

func bytesConvert(bytes uint64) string {
	unit := ""
	value := float32(bytes)

	switch {
	case bytes >= GIGABYTE:
		unit = "GB"
		value = value / GIGABYTE
	case bytes >= MEGABYTE:
		unit = "MB"
		value = value / MEGABYTE
	case bytes >= KILOBYTE:
		unit = "KB"
		value = value / KILOBYTE
	case bytes >= BYTE:
		unit = "bytes"
	case bytes == 0:
		return "0"
	}

	stringValue := strings.TrimSuffix(
		fmt.Sprintf("%.2f", value), ".00",
	)

	return fmt.Sprintf("%s %s", stringValue, unit)
}

func fileExists(fileName string) bool {
	info, err := os.Stat(fileName)
	return err == nil && !info.IsDir()
}

func FormatDuration(d time.Duration) string {
	scale := 100 * time.Second
	// look for the max scale that is smaller than d
	for scale > d {
		scale = scale / 10
	}
	return d.Round(scale / 100).String()
}

func mustGetBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}

func mustGetIntFlag(cmd *cobra.Command, name string) int {
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}

func mustGetUintFlag(cmd *cobra.Command, name string) uint {
	value, err := cmd.Flags().GetUint(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}

func mustGetStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		logging.Fatal().Err(err).Msgf("could not get flag: %s", name)
	}
	return value
}
