package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/lamim/drillforge/internal/api"
	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/internal/userstats"
)

var (
	statsCategories []string
	statsContexts   []string
	statsTypes      []string
	statsLanguage   string
	statsPerItem    bool
	statsPost       bool
)

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the user's practice statistics",
		Long: `Ask the backend for practice statistics. One group covers the whole filter;
with --per-category every category also gets its own group.`,
		RunE: showStats,
	}

	statsCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	statsCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	statsCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	statsCmd.Flags().StringSliceVar(&statsCategories, "category", nil, "Category ids (default: practice.categories)")
	statsCmd.Flags().StringSliceVar(&statsContexts, "context", nil, "Context ids (default: practice.contexts)")
	statsCmd.Flags().StringSliceVar(&statsTypes, "type", nil, "Flashcard types (default: practice.types)")
	statsCmd.Flags().StringVar(&statsLanguage, "language", "", "Language (default: practice.language)")
	statsCmd.Flags().BoolVar(&statsPerItem, "per-category", false, "Add a group per category")
	statsCmd.Flags().BoolVar(&statsPost, "post", false, "Send the groups in a POST body instead of the query")

	return statsCmd
}

func showStats(cmd *cobra.Command, args []string) error {
	loadEnv()

	cfg, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := api.NewClient(cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	categories, err := parseIDs(statsCategories, cfg.Practice.Categories)
	if err != nil {
		return fmt.Errorf("invalid --category: %w", err)
	}
	contexts, err := parseIDs(statsContexts, cfg.Practice.Contexts)
	if err != nil {
		return fmt.Errorf("invalid --context: %w", err)
	}
	types := statsTypes
	if len(types) == 0 {
		types = cfg.Practice.Types
	}
	language := statsLanguage
	if language == "" {
		language = cfg.Practice.Language
	}

	uc := userstats.New(client, logger)
	uc.AddGroupParams("all", categories, contexts, types, language)
	if statsPerItem {
		for _, id := range categories {
			uc.AddGroupParams(fmt.Sprintf("category_%d", id), []int64{id}, contexts, types, language)
		}
	}

	fetch := uc.Stats
	if statsPost {
		fetch = uc.StatsPost
	}
	stats, err := fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load user stats: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tFLASHCARDS\tPRACTICED\tMASTERED\tANSWERS\tACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 6)+"\t"+strings.Repeat("-", 10)+"\t"+strings.Repeat("-", 9)+"\t"+strings.Repeat("-", 8)+"\t"+strings.Repeat("-", 7)+"\t"+strings.Repeat("-", 8))
	for _, id := range uc.GroupIDs() {
		s, ok := stats[id]
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\n", id)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f%%\n", id,
			s.NumberOfFlashcards, s.NumberOfPracticedFlashcards, s.NumberOfMasteredFlashcards,
			s.NumberOfAnswers, s.Accuracy()*100)
	}
	return w.Flush()
}

// parseIDs converts flag values to ids, falling back to def when none were given
func parseIDs(values []string, def []int64) ([]int64, error) {
	if len(values) == 0 {
		return def, nil
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := cast.ToInt64E(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
