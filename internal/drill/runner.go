// Package drill runs one practice set end to end: it pulls flashcards from the
// practice manager, asks a Responder, submits the answers and records the set.
package drill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/internal/journal"
	"github.com/lamim/drillforge/internal/practice"
	"github.com/lamim/drillforge/internal/util"
	"github.com/lamim/drillforge/internal/writer"
	"github.com/lamim/drillforge/pkg/models"
)

// Practice is the part of *practice.Manager a drill uses
type Practice interface {
	InitSession(profile string)
	SetFilter(overrides models.PracticeFilter)
	SessionConfig() practice.SessionConfig
	PreloadFlashcards()
	GetFlashcard(ctx context.Context) (*models.Flashcard, error)
	SaveAnswerToCurrentFC(answeredID *int64, responseTime int64, meta any) error
	FlushAnswerQueue()
	Summary() models.Summary
	LastAnswer() *models.Answer
}

// SetRecorder receives finished sets. *metrics.Collector implements it.
type SetRecorder interface {
	RecordSetCompleted(profile string, summary models.Summary)
}

// PromptData is the data the prompt template is rendered with
type PromptData struct {
	Number    int
	SetLength int
	ID        int64
	ContextID int64
	Direction string
	Options   []models.Option
	Flashcard *models.Flashcard
}

// Result is the outcome of one set
type Result struct {
	Summary models.Summary
	Stats   models.SessionStats
	Phase   models.JournalPhase
	Journal *models.Journal
}

// Runner drives practice sets
type Runner struct {
	cfg       *config.Config
	practice  Practice
	responder Responder
	logger    *slog.Logger

	journalDir string
	answers    *writer.AnswerWriter
	recorder   SetRecorder
	progress   io.Writer
	now        func() time.Time
}

// New creates a runner. The progress bar is disabled until SetProgressOutput.
func New(cfg *config.Config, p Practice, responder Responder, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		practice:  p,
		responder: responder,
		logger:    logger,
		progress:  io.Discard,
		now:       time.Now,
	}
}

// SetJournalDir writes the journal to dir when output.enable_journal is set
func (r *Runner) SetJournalDir(dir string) { r.journalDir = dir }

// SetAnswerWriter logs every answer to w
func (r *Runner) SetAnswerWriter(w *writer.AnswerWriter) { r.answers = w }

// SetRecorder reports finished sets to rec
func (r *Runner) SetRecorder(rec SetRecorder) { r.recorder = rec }

// SetProgressOutput draws the progress bar on w
func (r *Runner) SetProgressOutput(w io.Writer) { r.progress = w }

// Run practices one set of the configured profile. A cancelled ctx ends the
// set as aborted; the journal and the answers given so far are kept.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	profile := r.cfg.Practice.Profile
	r.practice.InitSession(profile)
	r.practice.SetFilter(r.cfg.Practice.Filter())
	r.practice.PreloadFlashcards()
	setLength := r.practice.SessionConfig().SetLength

	jcfg := *r.cfg
	if r.journalDir == "" {
		jcfg.Output.EnableJournal = false
	}
	jm := journal.NewManager(r.journalDir, &jcfg, setLength, r.logger)
	defer func() {
		if err := jm.Close(); err != nil {
			r.logger.Error("Failed to close journal", "error", err)
		}
	}()

	r.logger.Info("Practice set started", "profile", profile, "set_length", setLength)

	bar := progressbar.NewOptions(setLength,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("Practicing"),
		progressbar.OptionShowCount(),
	)

	stats := models.SessionStats{StartTime: r.now()}
	var totalResponse time.Duration
	number := 0

	finish := func(phase models.JournalPhase) *Result {
		r.practice.FlushAnswerQueue()
		stats.EndTime = r.now()
		stats.TotalDuration = stats.EndTime.Sub(stats.StartTime)
		if stats.Answered > 0 {
			stats.AverageResponse = totalResponse / time.Duration(stats.Answered)
		}
		stats.Delivered = number

		var err error
		if phase == models.PhaseComplete {
			err = jm.MarkComplete(stats)
		} else {
			err = jm.MarkAborted(stats)
		}
		if err != nil {
			r.logger.Error("Failed to save journal", "error", err)
		}
		_ = bar.Finish()

		summary := r.practice.Summary()
		if phase == models.PhaseComplete && r.recorder != nil {
			r.recorder.RecordSetCompleted(profile, summary)
		}
		return &Result{Summary: summary, Stats: stats, Phase: phase, Journal: jm.Journal()}
	}

	for {
		fc, err := r.practice.GetFlashcard(ctx)
		switch {
		case errors.Is(err, practice.ErrSetCompleted):
			return r.completed(finish(models.PhaseComplete)), nil
		case errors.Is(err, practice.ErrNoFlashcards) && number > 0:
			r.logger.Warn("Backend ran out of flashcards", "delivered", number, "set_length", setLength)
			return r.completed(finish(models.PhaseComplete)), nil
		case err != nil:
			res := finish(models.PhaseAborted)
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("failed to get flashcard %d: %w", number+1, err)
		}

		number++
		jm.RecordFlashcard(fc)

		text, err := util.RenderTemplate(r.cfg.Drill.PromptTemplate, PromptData{
			Number:    number,
			SetLength: setLength,
			ID:        fc.ID,
			ContextID: fc.ContextID,
			Direction: fc.Direction,
			Options:   fc.Options,
			Flashcard: fc,
		})
		if err != nil {
			return finish(models.PhaseAborted), fmt.Errorf("failed to render prompt: %w", err)
		}

		resp, err := r.responder.Respond(ctx, Prompt{Number: number, SetLength: setLength, Flashcard: fc, Text: text})
		if err != nil {
			res := finish(models.PhaseAborted)
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("failed to answer flashcard %d: %w", fc.ID, err)
		}

		if err := r.practice.SaveAnswerToCurrentFC(resp.AnsweredID, resp.ResponseTime.Milliseconds(), resp.Meta); err != nil {
			return finish(models.PhaseAborted), fmt.Errorf("failed to save answer: %w", err)
		}

		answer := r.practice.LastAnswer()
		stats.Answered++
		totalResponse += resp.ResponseTime
		switch {
		case resp.AnsweredID == nil:
			stats.Skipped++
		case answer != nil && answer.IsCorrect():
			stats.Correct++
		}

		r.logger.Debug("Flashcard answered",
			"number", number,
			"flashcard_id", fc.ID,
			"answered_id", resp.AnsweredID,
			"response_time", resp.ResponseTime)

		if answer != nil {
			if r.answers != nil {
				record := writer.AnswerRecord{
					Number:     number,
					Profile:    profile,
					Flashcard:  fc,
					Answer:     answer,
					Correct:    answer.IsCorrect(),
					AnsweredAt: r.now(),
				}
				if err := r.answers.WriteRecord(record); err != nil {
					r.logger.Error("Failed to write answer record", "error", err)
				}
			}
			if err := jm.RecordAnswer(answer, stats); err != nil {
				r.logger.Error("Failed to save journal", "error", err)
			}
		}
		_ = bar.Add(1)
	}
}

func (r *Runner) completed(res *Result) *Result {
	r.logger.Info("Practice set complete",
		"delivered", res.Stats.Delivered,
		"answered", res.Stats.Answered,
		"correct", res.Stats.Correct,
		"skipped", res.Stats.Skipped,
		"accuracy", fmt.Sprintf("%.1f%%", res.Stats.Accuracy()),
		"duration", res.Stats.TotalDuration)
	return res
}
