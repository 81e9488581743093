package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

// SessionInfo describes one session directory in the output folder
type SessionInfo struct {
	Name       string
	HasJournal bool
	Phase      models.JournalPhase
	Progress   float64
	Accuracy   float64
}

// ValidateJournal verifies the journal was recorded with the current config
func ValidateJournal(j *models.Journal, cfg *config.Config) error {
	expectedHash := ComputeConfigHash(cfg)
	if j.ConfigHash != expectedHash {
		return fmt.Errorf("journal config mismatch: journal was recorded with a different server/profile/filter (hash: %s vs %s)", j.ConfigHash, expectedHash)
	}
	return nil
}

// Remaining returns how many flashcards of the set were not delivered
func Remaining(j *models.Journal) int {
	return max(j.SetLength-len(j.FlashcardIDs), 0)
}

// ProgressPercentage returns the share of the set that was delivered
func ProgressPercentage(j *models.Journal) float64 {
	if j.SetLength == 0 {
		return 0.0
	}
	return float64(len(j.FlashcardIDs)) / float64(j.SetLength) * 100.0
}

// ListSessions returns the session directories under outputDir, oldest first
func ListSessions(outputDir string, logger *slog.Logger) ([]SessionInfo, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "session_") {
			continue
		}

		info := SessionInfo{Name: entry.Name(), Phase: "N/A"}
		sessionPath := filepath.Join(outputDir, entry.Name())
		if _, err := os.Stat(filepath.Join(sessionPath, Filename)); err == nil {
			info.HasJournal = true
			if j, err := Load(sessionPath, logger); err == nil {
				info.Phase = j.CurrentPhase
				info.Progress = ProgressPercentage(j)
				info.Accuracy = j.Stats.Accuracy()
			} else {
				logger.Warn("Unreadable journal", "session", entry.Name(), "error", err)
			}
		}
		sessions = append(sessions, info)
	}

	sort.Slice(sessions, func(i, k int) bool { return sessions[i].Name < sessions[k].Name })
	return sessions, nil
}
