package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dictscan/dictscan"
	"github.com/dictscan/dictscan/config"
	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/report"
	"github.com/dictscan/dictscan/scan"
)

// runScan wires a source into the scan pipeline, prints findings when
// --verbose is set and finishes with findingSummary.
func runScan(cmd *cobra.Command, cfg config.Config, src dictscan.Source, sourcePath string) {
	scanner, err := scan.NewScanner(&cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build scanner")
	}
	scanner.SetIgnore(scan.LoadIgnoreFiles(mustGetStringFlag(cmd, "ignore-path"), sourcePath))

	p := scan.NewPipeline(cfg, src, scanner)
	p.Redact = mustGetUintFlag(cmd, "redact")
	if c := mustGetIntFlag(cmd, "concurrency"); c > 0 {
		p.FragmentConcurrency = c
	}

	verbose := mustGetBoolFlag(cmd, "verbose")
	noColor := mustGetBoolFlag(cmd, "no-color") || !isatty.IsTerminal(os.Stdout.Fd())

	var findings []dictscan.Finding
	start := time.Now()
	err = p.Run(cmd.Context(), func(finding dictscan.Finding, err error) error {
		if err != nil {
			return err
		}
		if verbose {
			scan.PrintFinding(os.Stdout, finding, noColor)
		}
		findings = append(findings, finding)
		return nil
	})

	findingSummary(cmd, findings, start, err, p.TotalBytes())
}

func findingSummary(cmd *cobra.Command, findings []dictscan.Finding, start time.Time, err error, totalBytes uint64) {
	exitCode := mustGetIntFlag(cmd, "exit-code")

	if err == nil {
		logging.Info().Msgf("scanned ~%d bytes (%s) in %s", totalBytes, bytesConvert(totalBytes), FormatDuration(time.Since(start)))
		if len(findings) != 0 {
			logging.Warn().Msgf("matches found: %d", len(findings))
		} else {
			logging.Info().Msg("no matches found")
		}
	} else {
		logging.Warn().Msgf("partial scan completed in %s", FormatDuration(time.Since(start)))
		if len(findings) != 0 {
			logging.Warn().Msgf("%d matches found in partial scan", len(findings))
		} else {
			logging.Warn().Msg("no matches found in partial scan")
		}
	}

	if reportPath := mustGetStringFlag(cmd, "report-path"); reportPath != "" {
		if werr := writeReport(reportPath, mustGetStringFlag(cmd, "report-format"), findings); werr != nil {
			logging.Fatal().Err(werr).Msg("could not write report")
		}
	}

	if err != nil {
		logging.Error().Err(err).Msg("scan failed")
		os.Exit(1)
	}
	if len(findings) != 0 {
		os.Exit(exitCode)
	}
}

func writeReport(reportPath, format string, findings []dictscan.Finding) (err error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(reportPath), ".")
	}
	if format == "" {
		format = "json"
	}
	reporter, err := report.New(format)
	if err != nil {
		return err
	}

	if reportPath == "-" {
		return reporter.Write(os.Stdout, findings)
	}
	out, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	logging.Debug().Msgf("writing %s report to %s", format, reportPath)
	return reporter.Write(out, findings)
}
