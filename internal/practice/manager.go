// Package practice serves a bounded set of flashcards to a single consumer.
//
// The Manager prefetches flashcards from the backend in batches sized by the
// session profile, hands them out one at a time through RequestFlashcard, and
// buffers answers until they are flushed. At most one flashcard request may be
// pending at a time. Backend calls run on a Runner; their results are applied
// under the manager's lock and dropped when they belong to a previous session.
package practice

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/lamim/drillforge/pkg/models"
)

//go:generate mockgen -source=manager.go -destination=mock/manager_mock.go -package=mock

// ConfigApp is the configuration namespace holding practice profiles
const ConfigApp = "proso_flashcards"

// Session defaults, used when the profile does not set a key
const (
	DefaultSetLength    = 10
	DefaultQueueSizeMax = 1
	DefaultQueueSizeMin = 1
)

// Backend is the subset of the REST client the manager needs
type Backend interface {
	Practice(ctx context.Context, filter models.PracticeFilter, answers []*models.Answer) ([]*models.Flashcard, error)
	SaveAnswers(ctx context.Context, answers []*models.Answer) error
	Context(ctx context.Context, id int64) (*models.Context, error)
}

// ConfigReader resolves profile settings by dotted key path
type ConfigReader interface {
	GetInt(app, key string, def int) int
	GetBool(app, key string, def bool) bool
}

// Recorder receives manager events. *metrics.Collector implements it.
type Recorder interface {
	RecordFetch(op string, d time.Duration, err error)
	RecordQueueDepth(n int)
	RecordFlashcardServed()
	RecordAnswersSubmitted(n int, err error)
}

// SessionConfig is the configuration of one practice set
type SessionConfig struct {
	Profile               string
	SetLength             int
	QueueSizeMax          int
	QueueSizeMin          int
	SaveAnswerImmediately bool
	CacheContext          bool
	Filter                models.PracticeFilter
}

// queuedAnswer keeps the enqueue time beside the answer; it never goes on the wire
type queuedAnswer struct {
	answer *models.Answer
	at     time.Time
}

// contextEntry is a cached context; a nil ctx marks a fetch in flight
type contextEntry struct {
	ctx *models.Context
}

// Manager owns the prefetch queue, the pending flashcard request, the answer
// buffer and the set summary. It is safe for concurrent use.
type Manager struct {
	backend  Backend
	reader   ConfigReader
	logger   *slog.Logger
	runner   Runner
	now      func() time.Time
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	cfg       SessionConfig
	queue     []*models.Flashcard
	pending   *Promise
	currentFC *models.Flashcard
	answers   []queuedAnswer
	current   int
	gen       uint64
	fetching  bool
	refetch   bool
	summary   models.Summary
	contexts  map[int64]*contextEntry
}

// New creates a manager. Call InitSession before requesting flashcards.
func New(backend Backend, reader ConfigReader, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		backend:  backend,
		reader:   reader,
		logger:   logger,
		runner:   &GoroutineRunner{},
		now:      time.Now,
		recorder: nopRecorder{},
		ctx:      ctx,
		cancel:   cancel,
		cfg:      defaultSessionConfig(""),
		contexts: make(map[int64]*contextEntry),
	}
}

// SetRunner replaces the runner used for backend calls
func (m *Manager) SetRunner(r Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runner = r
}

// SetClock replaces the clock used for answer time gaps
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetRecorder attaches a metrics recorder
func (m *Manager) SetRecorder(r Recorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r == nil {
		r = nopRecorder{}
	}
	m.recorder = r
}

func defaultSessionConfig(profile string) SessionConfig {
	return SessionConfig{
		Profile:      profile,
		SetLength:    DefaultSetLength,
		QueueSizeMax: DefaultQueueSizeMax,
		QueueSizeMin: DefaultQueueSizeMin,
		Filter:       models.DefaultPracticeFilter(),
	}
}

// InitSession starts a fresh set for the named profile. Pending answers are
// flushed, the queue is cleared and a pending request is rejected with
// ErrSessionReset. Responses to requests of the previous set are ignored.
// Nothing is fetched until a flashcard is requested or preloaded.
func (m *Manager) InitSession(profile string) {
	prefix := "practice." + profile + "."
	cfg := SessionConfig{
		Profile:               profile,
		SetLength:             m.reader.GetInt(ConfigApp, prefix+"set_length", DefaultSetLength),
		QueueSizeMax:          m.reader.GetInt(ConfigApp, prefix+"fc_queue_size_max", DefaultQueueSizeMax),
		QueueSizeMin:          m.reader.GetInt(ConfigApp, prefix+"fc_queue_size_min", DefaultQueueSizeMin),
		SaveAnswerImmediately: m.reader.GetBool(ConfigApp, prefix+"save_answer_immediately", false),
		CacheContext:          m.reader.GetBool(ConfigApp, prefix+"cache_context", false),
		Filter:                models.DefaultPracticeFilter(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	m.current = 0
	m.flushAnswersLocked()
	m.queue = nil
	if m.pending != nil {
		m.pending.reject(ErrSessionReset)
		m.pending = nil
	}
	m.currentFC = nil
	m.summary = models.Summary{}
	m.gen++
	m.fetching = false
	m.refetch = false
	m.recorder.RecordQueueDepth(0)

	m.logger.Debug("Practice session initialized",
		"profile", profile,
		"set_length", cfg.SetLength,
		"queue_size_max", cfg.QueueSizeMax,
		"queue_size_min", cfg.QueueSizeMin,
		"save_answer_immediately", cfg.SaveAnswerImmediately,
		"cache_context", cfg.CacheContext)
}

// SetFilter replaces the filter with the defaults overridden by overrides
func (m *Manager) SetFilter(overrides models.PracticeFilter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Filter = models.DefaultPracticeFilter().Merge(overrides)
}

// CurrentCount returns how many flashcards were delivered in this set
func (m *Manager) CurrentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SessionConfig returns a copy of the current set configuration
func (m *Manager) SessionConfig() SessionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.cfg
	cfg.Filter = m.cfg.Filter.Clone()
	return cfg
}

// RequestFlashcard returns a promise of the next flashcard. If a request is
// already pending the returned promise is rejected with ErrAlreadyPromised
// and nothing else changes. The promise is rejected with ErrSetCompleted once
// the set is done, and with ErrNoFlashcards when the backend returns an empty
// batch while nothing is queued.
func (m *Manager) RequestFlashcard() *Promise {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		return rejectedPromise(ErrAlreadyPromised)
	}
	p := newPromise()
	m.pending = p
	m.resolvePromiseLocked()
	return p
}

// GetFlashcard requests the next flashcard and waits for it. When ctx ends
// first the request is withdrawn so that a later call can proceed.
func (m *Manager) GetFlashcard(ctx context.Context) (*models.Flashcard, error) {
	p := m.RequestFlashcard()
	fc, err := p.Wait(ctx)
	if err == nil {
		return fc, nil
	}

	m.mu.Lock()
	if m.pending == p {
		m.pending = nil
		p.reject(err)
	}
	m.mu.Unlock()
	return p.Result()
}

// SaveAnswer records an answer and flushes the buffer when the profile saves
// immediately, force is set or the set is complete. A nil answer only flushes.
// The answer's TimeGap is filled when it is flushed.
func (m *Manager) SaveAnswer(answer *models.Answer, force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveAnswerLocked(answer, force)
}

// FlushAnswerQueue submits every buffered answer
func (m *Manager) FlushAnswerQueue() {
	m.SaveAnswer(nil, true)
}

// SaveAnswerToCurrentFC records an answer to the last delivered flashcard.
// answeredID is nil for "don't know".
func (m *Manager) SaveAnswerToCurrentFC(answeredID *int64, responseTime int64, meta any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fc := m.currentFC
	if fc == nil {
		m.logger.Error("There is no current flashcard")
		return ErrNoCurrentFlashcard
	}

	answer := &models.Answer{
		FlashcardID:         fc.ID,
		FlashcardAnsweredID: answeredID,
		ResponseTime:        responseTime,
		Direction:           fc.Direction,
		Meta:                meta,
	}
	if fc.Options != nil {
		answer.OptionIDs = make([]int64, 0, len(fc.Options))
		for _, o := range fc.Options {
			if o.ID != fc.ID {
				answer.OptionIDs = append(answer.OptionIDs, o.ID)
			}
		}
	}

	m.saveAnswerLocked(answer, false)
	return nil
}

// PreloadFlashcards fills the queue without requesting a flashcard
func (m *Manager) PreloadFlashcards() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFlashcardsLocked()
}

// ClearQueue drops every queued flashcard
func (m *Manager) ClearQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.recorder.RecordQueueDepth(0)
}

// Queue returns the flashcards waiting for delivery
func (m *Manager) Queue() []*models.Flashcard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Flashcard(nil), m.queue...)
}

// AnswerQueue returns the answers waiting to be flushed
func (m *Manager) AnswerQueue() []*models.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Answer, len(m.answers))
	for i, q := range m.answers {
		out[i] = q.answer
	}
	return out
}

// Summary returns what was delivered and answered so far in this set.
// The slices are copies; the flashcards and answers are shared.
func (m *Manager) Summary() models.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.summary
	s.Flashcards = append([]*models.Flashcard(nil), m.summary.Flashcards...)
	s.Answers = append([]*models.Answer(nil), m.summary.Answers...)
	return s
}

// LastAnswer returns a copy of the most recent answer of this set, or nil
func (m *Manager) LastAnswer() *models.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.summary.Answers) == 0 {
		return nil
	}
	a := *m.summary.Answers[len(m.summary.Answers)-1]
	return &a
}

// Wait blocks until in-flight backend calls have returned, if the runner
// supports it.
func (m *Manager) Wait() {
	m.mu.Lock()
	r := m.runner
	m.mu.Unlock()
	if w, ok := r.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// Close cancels in-flight backend calls and waits for them
func (m *Manager) Close() {
	m.cancel()
	m.Wait()
}

func (m *Manager) saveAnswerLocked(answer *models.Answer, force bool) {
	if answer != nil {
		m.answers = append(m.answers, queuedAnswer{answer: answer, at: m.now()})
		m.summary.Answers = append(m.summary.Answers, answer)
		m.summary.Count++
		if answer.IsCorrect() {
			m.summary.Correct++
		}
	}

	if m.cfg.SaveAnswerImmediately || force || m.current >= m.cfg.SetLength {
		m.flushAnswersLocked()
	}
}

// flushAnswersLocked submits the buffer and clears it before the result is
// known. A failed submission is logged and not retried.
func (m *Manager) flushAnswersLocked() {
	batch := m.takeAnswersLocked()
	if len(batch) == 0 {
		return
	}

	ctx, backend, recorder, logger := m.ctx, m.backend, m.recorder, m.logger
	m.runner.Go(func() {
		start := time.Now()
		err := backend.SaveAnswers(ctx, batch)
		recorder.RecordFetch("answer", time.Since(start), err)
		recorder.RecordAnswersSubmitted(len(batch), err)
		if err != nil {
			logger.Error("Problem while uploading answers", "count", len(batch), "error", err)
			return
		}
		logger.Debug("Answers uploaded", "count", len(batch))
	})
}

// takeAnswersLocked stamps time_gap on every buffered answer and empties the buffer
func (m *Manager) takeAnswersLocked() []*models.Answer {
	if len(m.answers) == 0 {
		return nil
	}
	now := m.now()
	batch := make([]*models.Answer, len(m.answers))
	for i, q := range m.answers {
		gap := int64(math.Round(now.Sub(q.at).Seconds()))
		q.answer.TimeGap = &gap
		batch[i] = q.answer
	}
	m.answers = nil
	return batch
}

// loadFlashcardsLocked requests the next batch when the queue is below its
// low-water mark. One batch request is in flight per session; a trigger
// arriving meanwhile is replayed when it completes.
func (m *Manager) loadFlashcardsLocked() {
	if len(m.queue) >= m.cfg.QueueSizeMin {
		return
	}
	if m.fetching {
		m.refetch = true
		return
	}

	limit := m.cfg.QueueSizeMax - len(m.queue)
	if m.pending != nil {
		limit++
	}
	limit = min(limit, m.cfg.SetLength-m.current-len(m.queue))
	if limit <= 0 {
		return
	}

	filter := m.cfg.Filter.Clone()
	filter.Limit = limit
	filter.Avoid = make([]int64, 0, len(m.queue)+1)
	if m.currentFC != nil {
		filter.Avoid = append(filter.Avoid, m.currentFC.ID)
	}
	for _, fc := range m.queue {
		filter.Avoid = append(filter.Avoid, fc.ID)
	}
	filter.WithoutContexts = m.cfg.CacheContext

	answers := m.takeAnswersLocked()
	gen := m.gen
	m.fetching = true

	ctx, backend := m.ctx, m.backend
	m.logger.Debug("Loading flashcards", "limit", limit, "avoid", filter.Avoid, "answers", len(answers))
	m.runner.Go(func() {
		start := time.Now()
		fcs, err := backend.Practice(ctx, filter, answers)
		m.onFlashcards(gen, len(answers), time.Since(start), fcs, err)
	})
}

func (m *Manager) onFlashcards(gen uint64, answered int, d time.Duration, fcs []*models.Flashcard, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recorder.RecordFetch("practice", d, err)
	if answered > 0 {
		m.recorder.RecordAnswersSubmitted(answered, err)
	}

	if gen != m.gen {
		m.logger.Debug("Dropping flashcards of a previous session", "count", len(fcs), "error", err)
		return
	}
	m.fetching = false
	refetch := m.refetch
	m.refetch = false

	if err != nil {
		m.logger.Error("Something went wrong while loading flashcards from backend", "error", err)
		if m.pending != nil {
			m.pending.reject(&FetchError{Op: "load flashcards", Err: err})
			m.pending = nil
		}
		return
	}

	m.queue = append(m.queue, fcs...)
	m.recorder.RecordQueueDepth(len(m.queue))
	m.loadContextsLocked()

	if len(m.queue) == 0 {
		m.logger.Error("No flashcards to practice")
		if m.pending != nil {
			m.pending.reject(ErrNoFlashcards)
			m.pending = nil
		}
		return
	}
	m.resolvePromiseLocked()

	if refetch && !m.fetching {
		m.loadFlashcardsLocked()
	}
}

// loadContextsLocked attaches cached contexts to queued flashcards and
// fetches the missing ones
func (m *Manager) loadContextsLocked() {
	if !m.cfg.CacheContext {
		return
	}
	for _, fc := range m.queue {
		entry, ok := m.contexts[fc.ContextID]
		if ok {
			if entry.ctx != nil {
				fc.Context = entry.ctx
			}
			continue
		}

		id := fc.ContextID
		m.contexts[id] = &contextEntry{}
		ctx, backend := m.ctx, m.backend
		m.runner.Go(func() {
			start := time.Now()
			c, err := backend.Context(ctx, id)
			m.onContext(id, time.Since(start), c, err)
		})
	}
}

func (m *Manager) onContext(id int64, d time.Duration, c *models.Context, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recorder.RecordFetch("context", d, err)
	if err != nil {
		delete(m.contexts, id)
		m.logger.Error("Error while loading context from backend", "context_id", id, "error", err)
		return
	}

	m.contexts[id] = &contextEntry{ctx: c}
	for _, fc := range m.queue {
		if fc.ContextID == id {
			fc.Context = c
		}
	}
	m.resolvePromiseLocked()
}

// resolvePromiseLocked hands the head of the queue to the pending request
// and refills the queue
func (m *Manager) resolvePromiseLocked() {
	if m.pending == nil {
		return
	}
	if m.current >= m.cfg.SetLength {
		m.pending.reject(ErrSetCompleted)
		m.pending = nil
		return
	}

	if len(m.queue) > 0 {
		head := m.queue[0]
		if m.cfg.CacheContext {
			entry, ok := m.contexts[head.ContextID]
			if !ok || entry.ctx == nil {
				return
			}
			head.Context = entry.ctx
		}

		m.queue = m.queue[1:]
		m.currentFC = head
		m.current++
		m.summary.Flashcards = append(m.summary.Flashcards, head)
		m.pending.resolve(head)
		m.pending = nil
		m.recorder.RecordFlashcardServed()
		m.recorder.RecordQueueDepth(len(m.queue))
	}

	m.loadFlashcardsLocked()
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(string, time.Duration, error) {}
func (nopRecorder) RecordQueueDepth(int)                     {}
func (nopRecorder) RecordFlashcardServed()                   {}
func (nopRecorder) RecordAnswersSubmitted(int, error)        {}
