package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dictscan/dictscan/logging"
	"github.com/dictscan/dictscan/scan"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] term...",
	Short: "report whether each term is a registered pattern",
	Args:  cobra.MinimumNArgs(1),
	Run:   runCheck,
}

func runCheck(cmd *cobra.Command, terms []string) {
	cfg := Config(cmd, ".")
	scanner, err := scan.NewScanner(&cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build scanner")
	}

	noColor := mustGetBoolFlag(cmd, "no-color") || !isatty.IsTerminal(os.Stdout.Fd())
	yes := lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32"))
	no := lipgloss.NewStyle().Foreground(lipgloss.Color("#f05c07"))

	missing := 0
	for _, term := range terms {
		found := scanner.Contains(term)
		status := "registered"
		style := yes
		if !found {
			status = "not registered"
			style = no
			missing++
		}
		if noColor {
			fmt.Printf("%-24s %s\n", term, status)
		} else {
			fmt.Printf("%-24s %s\n", term, style.Render(status))
		}
	}

	if missing != 0 {
		logging.Warn().Msgf("%d of %d terms are not registered", missing, len(terms))
		os.Exit(mustGetIntFlag(cmd, "exit-code"))
	}
}
