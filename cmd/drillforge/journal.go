package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamim/drillforge/internal/journal"
	"github.com/lamim/drillforge/internal/writer"
)

var (
	outputDir    string
	exportFormat string
	exportPath   string
)

func newJournalCmd() *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded sets",
		Long:  "Inspect and export the journals of earlier practice sets",
	}
	journalCmd.PersistentFlags().StringVar(&outputDir, "output-dir", writer.DefaultOutputDir, "Directory holding the session directories")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all session directories",
		RunE:  listJournals,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <session-dir>",
		Short: "Inspect a recorded set",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectJournal,
	}

	exportCmd := &cobra.Command{
		Use:   "export <session-dir>",
		Short: "Export a recorded set as xlsx or json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJournal,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "Export format: xlsx or json")
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "Output file (default: inside the session directory; '-' for stdout with json)")

	journalCmd.AddCommand(listCmd, inspectCmd, exportCmd)
	return journalCmd
}

func listJournals(cmd *cobra.Command, args []string) error {
	sessions, err := journal.ListSessions(outputDir, slog.Default())
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No output directory found. Run a practice set first.")
			return nil
		}
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No session directories found.")
		return nil
	}

	fmt.Println("Available sessions:")
	fmt.Println()
	fmt.Printf("%-35s %-9s %-10s %-10s %s\n", "SESSION", "JOURNAL", "PHASE", "PROGRESS", "ACCURACY")
	fmt.Println(strings.Repeat("-", 80))
	for _, s := range sessions {
		status := "No"
		if s.HasJournal {
			status = "Yes"
		}
		fmt.Printf("%-35s %-9s %-10s %-10s %.1f%%\n", s.Name, status, s.Phase, fmt.Sprintf("%.1f%%", s.Progress), s.Accuracy)
	}
	return nil
}

func inspectJournal(cmd *cobra.Command, args []string) error {
	sessionPath, err := writer.SessionPath(outputDir, args[0])
	if err != nil {
		return fmt.Errorf("invalid session directory: %w", err)
	}
	if _, err := os.Stat(sessionPath); os.IsNotExist(err) {
		return fmt.Errorf("session directory not found: %s", args[0])
	}

	j, err := journal.Load(sessionPath, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}

	fmt.Printf("Journal for: %s\n", args[0])
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Session ID:          %s\n", j.SessionID)
	fmt.Printf("Created At:          %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Last Saved At:       %s\n", j.LastSavedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Profile:             %s\n", j.Profile)
	fmt.Printf("Current Phase:       %s\n", j.CurrentPhase)
	fmt.Printf("Config Hash:         %s\n", j.ConfigHash)
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Delivered:         %d / %d (%.1f%%)\n", len(j.FlashcardIDs), j.SetLength, journal.ProgressPercentage(j))
	fmt.Printf("  Remaining:         %d\n", journal.Remaining(j))
	fmt.Println()

	fmt.Println("Statistics:")
	fmt.Printf("  Answered:          %d\n", j.Stats.Answered)
	fmt.Printf("  Correct:           %d\n", j.Stats.Correct)
	fmt.Printf("  Don't know:        %d\n", j.Stats.Skipped)
	fmt.Printf("  Accuracy:          %.1f%%\n", j.Stats.Accuracy())
	fmt.Printf("  Total Duration:    %s\n", j.Stats.TotalDuration)
	if j.Stats.Answered > 0 {
		fmt.Printf("  Average Response:  %s\n", j.Stats.AverageResponse)
	}
	return nil
}

func exportJournal(cmd *cobra.Command, args []string) error {
	sessionPath, err := writer.SessionPath(outputDir, args[0])
	if err != nil {
		return fmt.Errorf("invalid session directory: %w", err)
	}

	j, err := journal.Load(sessionPath, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}

	switch exportFormat {
	case "xlsx":
		path := exportPath
		if path == "" {
			path = filepath.Join(sessionPath, writer.SummaryFilename)
		}
		if err := writer.ExportSummaryXLSX(path, j); err != nil {
			return fmt.Errorf("failed to export summary: %w", err)
		}
		fmt.Printf("Exported %s\n", path)
	case "json":
		data, err := json.MarshalIndent(j, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal journal: %w", err)
		}
		if exportPath == "" || exportPath == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(exportPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("Exported %s\n", exportPath)
	default:
		return fmt.Errorf("unknown export format %q (want xlsx or json)", exportFormat)
	}
	return nil
}
