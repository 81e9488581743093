package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lamim/drillforge/pkg/models"
)

// AnswerRecord is one line of answers.jsonl
type AnswerRecord struct {
	Number     int               `json:"number"`
	Profile    string            `json:"profile"`
	Flashcard  *models.Flashcard `json:"flashcard"`
	Answer     *models.Answer    `json:"answer"`
	Correct    bool              `json:"correct"`
	AnsweredAt time.Time         `json:"answered_at"`
}

// AnswerWriter appends answer records to the session's JSONL log
type AnswerWriter struct {
	file   *os.File
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewAnswerWriter creates the answer log of the session
func NewAnswerWriter(sessionMgr *SessionManager, logger *slog.Logger) (*AnswerWriter, error) {
	path := sessionMgr.GetAnswersPath()

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer log: %w", err)
	}

	logger.Debug("Created answer log", "path", path)

	return &AnswerWriter{
		file:   file,
		logger: logger,
	}, nil
}

// WriteRecord writes a single record as one JSON line
func (aw *AnswerWriter) WriteRecord(record AnswerRecord) error {
	aw.mu.Lock()
	defer aw.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal answer record: %w", err)
	}

	if _, err := aw.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write answer record: %w", err)
	}
	aw.count++

	return nil
}

// Count returns how many records were written
func (aw *AnswerWriter) Count() int {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.count
}

// Close syncs and closes the answer log
func (aw *AnswerWriter) Close() error {
	if err := aw.file.Sync(); err != nil {
		aw.logger.Warn("Failed to sync answer log", "error", err)
	}

	if err := aw.file.Close(); err != nil {
		return fmt.Errorf("failed to close answer log: %w", err)
	}

	aw.logger.Debug("Closed answer log", "records", aw.Count())
	return nil
}
