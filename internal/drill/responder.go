package drill

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

// ErrInputClosed is returned when the interactive input ends
var ErrInputClosed = errors.New("input closed")

// Prompt is what a Responder sees of a flashcard
type Prompt struct {
	Number    int
	SetLength int
	Flashcard *models.Flashcard
	Text      string
}

// Response is a Responder's answer. A nil AnsweredID means "don't know".
type Response struct {
	AnsweredID   *int64
	ResponseTime time.Duration
	Meta         any
}

// Responder answers flashcards
type Responder interface {
	Respond(ctx context.Context, p Prompt) (Response, error)
}

// AutoResponder answers at random: correctly with probability accuracy,
// "don't know" with probability skipRate, wrongly otherwise
type AutoResponder struct {
	mu       sync.Mutex
	rng      *rand.Rand
	accuracy float64
	skipRate float64
}

// NewAutoResponder creates a seeded responder
func NewAutoResponder(accuracy, skipRate float64, seed int64) *AutoResponder {
	return &AutoResponder{
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		accuracy: accuracy,
		skipRate: skipRate,
	}
}

func (a *AutoResponder) Respond(_ context.Context, p Prompt) (Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp := Response{
		ResponseTime: time.Duration(500+a.rng.IntN(2500)) * time.Millisecond,
		Meta:         map[string]any{"responder": "auto"},
	}

	roll := a.rng.Float64()
	fc := p.Flashcard
	switch {
	case roll < a.accuracy:
		id := fc.ID
		resp.AnsweredID = &id
	case roll < a.accuracy+a.skipRate:
		// don't know
	default:
		id := a.wrongOption(fc)
		resp.AnsweredID = &id
	}
	return resp, nil
}

// wrongOption picks an offered option other than the flashcard itself
func (a *AutoResponder) wrongOption(fc *models.Flashcard) int64 {
	var wrong []int64
	for _, o := range fc.Options {
		if o.ID != fc.ID {
			wrong = append(wrong, o.ID)
		}
	}
	if len(wrong) == 0 {
		return fc.ID + 1
	}
	return wrong[a.rng.IntN(len(wrong))]
}

// InteractiveResponder asks on out and reads answers line by line from in.
// With options the answer is the option index; without options "y" means
// known. An empty line or "?" means "don't know".
type InteractiveResponder struct {
	out   io.Writer
	now   func() time.Time
	lines chan string
	once  sync.Once
	in    io.Reader
}

// NewInteractiveResponder creates a responder reading from in
func NewInteractiveResponder(in io.Reader, out io.Writer) *InteractiveResponder {
	return &InteractiveResponder{in: in, out: out, now: time.Now}
}

func (r *InteractiveResponder) start() {
	r.once.Do(func() {
		r.lines = make(chan string)
		go func() {
			defer close(r.lines)
			scanner := bufio.NewScanner(r.in)
			for scanner.Scan() {
				r.lines <- scanner.Text()
			}
		}()
	})
}

func (r *InteractiveResponder) Respond(ctx context.Context, p Prompt) (Response, error) {
	r.start()
	fc := p.Flashcard

	for {
		fmt.Fprint(r.out, p.Text)
		if len(fc.Options) > 0 {
			fmt.Fprintf(r.out, "answer [0-%d, ? = don't know]: ", len(fc.Options)-1)
		} else {
			fmt.Fprint(r.out, "do you know it? [y/n]: ")
		}

		start := r.now()
		var line string
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case l, ok := <-r.lines:
			if !ok {
				return Response{}, ErrInputClosed
			}
			line = strings.TrimSpace(l)
		}
		elapsed := r.now().Sub(start)

		answered, err := parseAnswer(fc, line)
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			continue
		}
		return Response{
			AnsweredID:   answered,
			ResponseTime: elapsed,
			Meta:         map[string]any{"responder": "interactive"},
		}, nil
	}
}

func parseAnswer(fc *models.Flashcard, line string) (*int64, error) {
	if line == "" || line == "?" {
		return nil, nil
	}

	if len(fc.Options) == 0 {
		switch strings.ToLower(line) {
		case "y", "yes":
			id := fc.ID
			return &id, nil
		case "n", "no":
			return nil, nil
		}
		return nil, fmt.Errorf("answer y or n")
	}

	idx, err := strconv.Atoi(line)
	if err != nil || idx < 0 || idx >= len(fc.Options) {
		return nil, fmt.Errorf("answer a number between 0 and %d", len(fc.Options)-1)
	}
	id := fc.Options[idx].ID
	return &id, nil
}

// NewResponder returns the responder for drill.mode. Interactive responders
// read from in and write prompts to out.
func NewResponder(cfg config.DrillConfig, in io.Reader, out io.Writer) (Responder, error) {
	switch cfg.Mode {
	case "", "auto":
		return NewAutoResponder(cfg.Accuracy, cfg.SkipRate, cfg.Seed), nil
	case "interactive":
		return NewInteractiveResponder(in, out), nil
	default:
		return nil, fmt.Errorf("unknown drill mode %q", cfg.Mode)
	}
}
