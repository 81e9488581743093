package journal

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

const Filename = "journal.json"

// Manager records one practice set with async write support
type Manager struct {
	sessionDir    string
	journal       *models.Journal
	mu            sync.RWMutex
	logger        *slog.Logger
	interval      int // Save every N answers
	answerCounter int // Counter since last save
	enabled       bool

	// Async write support. Snapshots carry a sequence number so that a
	// queued older snapshot never overwrites a newer one on disk.
	seq         uint64 // last snapshot taken, guarded by mu
	written     uint64 // last snapshot on disk, guarded by writeMu
	writeChan   chan snapshot
	writeWg     sync.WaitGroup
	stopWriter  chan struct{}
	closeOnce   sync.Once
	writerError error
	errorMu     sync.Mutex
	writeMu     sync.Mutex // Protects concurrent disk writes
}

// NewManager creates a journal for a set of setLength flashcards
func NewManager(sessionDir string, cfg *config.Config, setLength int, logger *slog.Logger) *Manager {
	now := time.Now()
	m := &Manager{
		sessionDir: sessionDir,
		journal: &models.Journal{
			SessionID:    uuid.New().String(),
			CreatedAt:    now,
			Profile:      cfg.Practice.Profile,
			CurrentPhase: models.PhaseRunning,
			SetLength:    setLength,
			Filter:       models.DefaultPracticeFilter().Merge(cfg.Practice.Filter()),
			FlashcardIDs: []int64{},
			Answers:      []models.Answer{},
			Stats:        models.SessionStats{StartTime: now},
			ConfigHash:   ComputeConfigHash(cfg),
		},
		logger:     logger,
		interval:   cfg.Output.JournalInterval,
		enabled:    cfg.Output.EnableJournal,
		writeChan:  make(chan snapshot, 10), // Buffer up to 10 pending writes
		stopWriter: make(chan struct{}),
	}
	if m.interval < 1 {
		m.interval = 1
	}

	if m.enabled {
		m.startAsyncWriter()
	}

	return m
}

// startAsyncWriter starts the background writer goroutine
func (m *Manager) startAsyncWriter() {
	m.writeWg.Add(1)
	go func() {
		defer m.writeWg.Done()
		for {
			select {
			case snap := <-m.writeChan:
				if err := m.writeJournalToDisk(snap); err != nil {
					m.errorMu.Lock()
					m.writerError = err
					m.errorMu.Unlock()
					m.logger.Error("Failed to write journal", "error", err)
				}
			case <-m.stopWriter:
				// Drain remaining writes before stopping
				for len(m.writeChan) > 0 {
					snap := <-m.writeChan
					if err := m.writeJournalToDisk(snap); err != nil {
						m.logger.Error("Failed to write journal during shutdown", "error", err)
					}
				}
				return
			}
		}
	}()
}

type snapshot struct {
	seq     uint64
	journal *models.Journal
}

// takeSnapshotLocked copies the journal for writing. Caller holds mu.
func (m *Manager) takeSnapshotLocked() snapshot {
	m.journal.LastSavedAt = time.Now()
	m.seq++
	return snapshot{seq: m.seq, journal: m.copyJournal()}
}

// writeJournalToDisk performs the actual disk write. Snapshots older than
// the one already on disk are skipped.
func (m *Manager) writeJournalToDisk(snap snapshot) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if snap.seq <= m.written {
		m.logger.Debug("Skipping stale journal snapshot", "seq", snap.seq, "written", m.written)
		return nil
	}
	j := snap.journal

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	// Atomic write: write to temp file, then rename
	journalPath := filepath.Join(m.sessionDir, Filename)
	tempPath := journalPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp journal: %w", err)
	}

	if err := os.Rename(tempPath, journalPath); err != nil {
		return fmt.Errorf("failed to rename journal: %w", err)
	}

	m.written = snap.seq
	m.logger.Debug("Journal saved", "path", journalPath, "phase", j.CurrentPhase, "answers", len(j.Answers))
	return nil
}

// Save queues the journal for async write
func (m *Manager) Save() error {
	if !m.enabled {
		return nil
	}

	m.mu.Lock()
	snap := m.takeSnapshotLocked()
	m.mu.Unlock()

	select {
	case m.writeChan <- snap:
		return nil
	default:
		m.logger.Warn("Journal write buffer full, writing synchronously")
		return m.writeJournalToDisk(snap)
	}
}

// SaveSync performs a synchronous journal write
func (m *Manager) SaveSync() error {
	if !m.enabled {
		return nil
	}

	m.mu.Lock()
	snap := m.takeSnapshotLocked()
	m.mu.Unlock()

	return m.writeJournalToDisk(snap)
}

func (m *Manager) copyJournal() *models.Journal {
	j := *m.journal
	j.Filter = m.journal.Filter.Clone()
	j.FlashcardIDs = append([]int64{}, m.journal.FlashcardIDs...)
	j.Answers = append([]models.Answer{}, m.journal.Answers...)
	return &j
}

// RecordFlashcard notes a delivered flashcard
func (m *Manager) RecordFlashcard(fc *models.Flashcard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal.FlashcardIDs = append(m.journal.FlashcardIDs, fc.ID)
	m.journal.Stats.Delivered = len(m.journal.FlashcardIDs)
}

// RecordAnswer notes an answer and, when enabled, saves every interval answers
func (m *Manager) RecordAnswer(answer *models.Answer, stats models.SessionStats) error {
	m.mu.Lock()
	m.journal.Answers = append(m.journal.Answers, *answer)
	m.journal.Stats = stats
	m.journal.Stats.Delivered = len(m.journal.FlashcardIDs)
	m.answerCounter++
	shouldSave := m.enabled && m.answerCounter >= m.interval
	if shouldSave {
		m.answerCounter = 0
	}
	m.mu.Unlock()

	if shouldSave {
		return m.Save()
	}
	return nil
}

// MarkComplete marks the set as finished
func (m *Manager) MarkComplete(stats models.SessionStats) error {
	return m.finish(models.PhaseComplete, stats)
}

// MarkAborted marks the set as interrupted
func (m *Manager) MarkAborted(stats models.SessionStats) error {
	return m.finish(models.PhaseAborted, stats)
}

func (m *Manager) finish(phase models.JournalPhase, stats models.SessionStats) error {
	m.mu.Lock()
	m.journal.CurrentPhase = phase
	m.journal.Stats = stats
	m.journal.Stats.Delivered = len(m.journal.FlashcardIDs)
	m.mu.Unlock()

	return m.SaveSync()
}

// Journal returns a copy of the current journal
func (m *Manager) Journal() *models.Journal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyJournal()
}

// Close stops the async writer and waits for pending writes
func (m *Manager) Close() error {
	if !m.enabled {
		return nil
	}

	m.closeOnce.Do(func() {
		close(m.stopWriter)
	})
	m.writeWg.Wait()

	m.errorMu.Lock()
	defer m.errorMu.Unlock()
	return m.writerError
}

// Load reads a journal from a session directory
func Load(sessionDir string, logger *slog.Logger) (*models.Journal, error) {
	journalPath := filepath.Join(sessionDir, Filename)

	data, err := os.ReadFile(journalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var j models.Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal: %w", err)
	}

	logger.Debug("Journal loaded",
		"session_id", j.SessionID,
		"phase", j.CurrentPhase,
		"answers", len(j.Answers))

	return &j, nil
}

// ComputeConfigHash hashes the config fields that define a practice set
func ComputeConfigHash(cfg *config.Config) string {
	filter := cfg.Practice.Filter()
	data := fmt.Sprintf("%s:%s:%v:%v:%v:%s",
		cfg.Server.BaseURL,
		cfg.Practice.Profile,
		filter.Contexts,
		filter.Categories,
		filter.Types,
		filter.Language)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8]) // First 8 bytes
}
