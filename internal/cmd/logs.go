package cmd

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipework/log2file/logview"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View run logs",
	Long: `View and filter the latest run log of a pipeline.

By default, shows the last 50 lines of the most recent run. Use flags to
filter and format the output.

Examples:
  # Show the last 50 lines of the latest run
  log2file logs -w /tmp/wd -p demo

  # Show everything
  log2file logs -w /tmp/wd -p demo -n 0

  # Filter by log level
  log2file logs -p demo --level warn

  # Show logs from the last hour
  log2file logs -p demo --since 1h

  # Search for specific patterns
  log2file logs -p demo --grep "error|failed"

  # Export as CSV
  log2file logs -p demo --export csv > run.csv`,
	RunE: runLogs,
}

var (
	logsTail   int
	logsLevel  string
	logsSince  string
	logsGrep   string
	logsExport string
	logsFile   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Export format: json, text or csv (default: styled output)")
	logsCmd.Flags().StringVar(&logsFile, "file", "", "Read this log file instead of resolving run-latest.log")
}

var levelStyles = map[string]lipgloss.Style{
	"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

func runLogs(cmd *cobra.Command, args []string) error {
	path, err := resolveLogFile()
	if err != nil {
		return err
	}

	entries, err := logview.ReadFile(path)
	if err != nil {
		return err
	}

	query := logview.Query{Level: logsLevel, Contains: ""}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		query.Since = time.Now().Add(-d)
	}
	if logsGrep != "" {
		re, err := regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
		query.Pattern = re
	}

	entries = logview.Filter(entries, query)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsExport != "" {
		return logview.Export(os.Stdout, entries, logsExport)
	}

	for _, e := range entries {
		style, ok := levelStyles[e.Level]
		if !ok {
			fmt.Println(e.Raw)
			continue
		}
		fmt.Println(style.Render(e.Raw))
	}
	return nil
}

// resolveLogFile picks the log file to read: an explicit --file, or the
// latest run log of the configured pipeline.
func resolveLogFile() (string, error) {
	if logsFile != "" {
		return logsFile, nil
	}

	pipeline := viper.GetString("pipeline")
	if pipeline == "" {
		return "", fmt.Errorf("either --pipeline or --file is required")
	}
	return logview.LatestRunLog(viper.GetString("workdir"), pipeline)
}
