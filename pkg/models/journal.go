package models

import "time"

// JournalPhase represents where a recorded practice set stands
type JournalPhase string

const (
	PhaseRunning  JournalPhase = "running"
	PhaseComplete JournalPhase = "complete"
	PhaseAborted  JournalPhase = "aborted"
)

// Journal is the saved state of one practice set
type Journal struct {
	// Session identification
	SessionID   string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastSavedAt time.Time `json:"last_saved_at"`

	Profile      string         `json:"profile"`
	CurrentPhase JournalPhase   `json:"current_phase"`
	SetLength    int            `json:"set_length"`
	Filter       PracticeFilter `json:"filter"`

	// Delivered flashcard ids in delivery order
	FlashcardIDs []int64 `json:"flashcard_ids"`
	// Answers as recorded, time_gap filled once flushed
	Answers []Answer `json:"answers"`

	Stats SessionStats `json:"stats"`

	// Configuration snapshot (for validation)
	ConfigHash string `json:"config_hash"`
}

// SessionStats tracks statistics for a practice set
type SessionStats struct {
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Delivered       int           `json:"delivered"`
	Answered        int           `json:"answered"`
	Correct         int           `json:"correct"`
	Skipped         int           `json:"skipped"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageResponse time.Duration `json:"average_response"`
}

// Accuracy returns the share of correct answers in percent
func (s SessionStats) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered) * 100.0
}
