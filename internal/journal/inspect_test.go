package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lamim/drillforge/pkg/models"
)

func TestValidateJournal(t *testing.T) {
	cfg := testConfig(true, 1)
	j := &models.Journal{ConfigHash: ComputeConfigHash(cfg)}

	if err := ValidateJournal(j, cfg); err != nil {
		t.Errorf("ValidateJournal failed: %v", err)
	}

	different := testConfig(true, 1)
	different.Practice.Categories = []int64{4}
	if err := ValidateJournal(j, different); err == nil {
		t.Error("ValidateJournal should fail with mismatched config")
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name         string
		setLength    int
		delivered    int
		wantPercent  float64
		wantRemained int
	}{
		{name: "empty set", setLength: 0, delivered: 0, wantPercent: 0, wantRemained: 0},
		{name: "half", setLength: 10, delivered: 5, wantPercent: 50, wantRemained: 5},
		{name: "complete", setLength: 4, delivered: 4, wantPercent: 100, wantRemained: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &models.Journal{SetLength: tt.setLength, FlashcardIDs: make([]int64, tt.delivered)}
			if got := ProgressPercentage(j); got != tt.wantPercent {
				t.Errorf("ProgressPercentage() = %.1f, want %.1f", got, tt.wantPercent)
			}
			if got := Remaining(j); got != tt.wantRemained {
				t.Errorf("Remaining() = %d, want %d", got, tt.wantRemained)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	outputDir := t.TempDir()

	withJournal := filepath.Join(outputDir, "session_2026-01-02T10-00-00")
	if err := os.MkdirAll(withJournal, 0755); err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(withJournal, testConfig(true, 1), 4, testLogger())
	mgr.RecordFlashcard(&models.Flashcard{ID: 1})
	mgr.RecordFlashcard(&models.Flashcard{ID: 2})
	if err := mgr.MarkComplete(models.SessionStats{Answered: 2, Correct: 1}); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(outputDir, "session_2026-01-01T10-00-00"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(outputDir, "unrelated"), 0755); err != nil {
		t.Fatal(err)
	}

	sessions, err := ListSessions(outputDir, testLogger())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}

	if sessions[0].HasJournal || sessions[0].Phase != "N/A" {
		t.Errorf("Expected first session without journal, got %+v", sessions[0])
	}
	s := sessions[1]
	if !s.HasJournal || s.Phase != models.PhaseComplete {
		t.Errorf("Expected complete journal, got %+v", s)
	}
	if s.Progress != 50 || s.Accuracy != 50 {
		t.Errorf("Expected 50%% progress and accuracy, got %.1f / %.1f", s.Progress, s.Accuracy)
	}
}

func TestListSessions_MissingDir(t *testing.T) {
	_, err := ListSessions(filepath.Join(t.TempDir(), "nope"), testLogger())
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
