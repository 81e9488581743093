package drill

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

func optionCard() *models.Flashcard {
	return &models.Flashcard{ID: 7, Options: []models.Option{{ID: 3}, {ID: 7}, {ID: 9}}}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		fc      *models.Flashcard
		line    string
		want    *int64
		wantErr bool
	}{
		{name: "empty is don't know", fc: optionCard(), line: "", want: nil},
		{name: "question mark is don't know", fc: optionCard(), line: "?", want: nil},
		{name: "option index", fc: optionCard(), line: "1", want: int64p(7)},
		{name: "wrong option", fc: optionCard(), line: "2", want: int64p(9)},
		{name: "index out of range", fc: optionCard(), line: "3", wantErr: true},
		{name: "not a number", fc: optionCard(), line: "abc", wantErr: true},
		{name: "known", fc: &models.Flashcard{ID: 4}, line: "Y", want: int64p(4)},
		{name: "unknown", fc: &models.Flashcard{ID: 4}, line: "no", want: nil},
		{name: "neither y nor n", fc: &models.Flashcard{ID: 4}, line: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswer(tt.fc, tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func int64p(v int64) *int64 { return &v }

func TestAutoResponder_Deterministic(t *testing.T) {
	a := NewAutoResponder(0.5, 0.2, 42)
	b := NewAutoResponder(0.5, 0.2, 42)

	for i := 0; i < 20; i++ {
		p := Prompt{Number: i + 1, SetLength: 20, Flashcard: optionCard()}
		ra, err := a.Respond(context.Background(), p)
		require.NoError(t, err)
		rb, err := b.Respond(context.Background(), p)
		require.NoError(t, err)

		assert.Equal(t, ra.AnsweredID, rb.AnsweredID)
		assert.Equal(t, ra.ResponseTime, rb.ResponseTime)
		assert.GreaterOrEqual(t, ra.ResponseTime, 500*time.Millisecond)
		assert.Less(t, ra.ResponseTime, 3000*time.Millisecond)
	}
}

func TestAutoResponder_Extremes(t *testing.T) {
	fc := optionCard()
	p := Prompt{Flashcard: fc}

	correct := NewAutoResponder(1, 0, 1)
	wrong := NewAutoResponder(0, 0, 1)
	skip := NewAutoResponder(0, 1, 1)
	for i := 0; i < 10; i++ {
		r, _ := correct.Respond(context.Background(), p)
		require.NotNil(t, r.AnsweredID)
		assert.Equal(t, fc.ID, *r.AnsweredID)

		r, _ = wrong.Respond(context.Background(), p)
		require.NotNil(t, r.AnsweredID)
		assert.Contains(t, []int64{3, 9}, *r.AnsweredID)

		r, _ = skip.Respond(context.Background(), p)
		assert.Nil(t, r.AnsweredID)
	}

	// Without options a wrong answer names some other flashcard
	r, _ := wrong.Respond(context.Background(), Prompt{Flashcard: &models.Flashcard{ID: 5}})
	require.NotNil(t, r.AnsweredID)
	assert.NotEqual(t, int64(5), *r.AnsweredID)
}

func TestInteractiveResponder_RepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	r := NewInteractiveResponder(strings.NewReader("7\n2\n"), &out)

	resp, err := r.Respond(context.Background(), Prompt{Flashcard: optionCard(), Text: "card\n"})
	require.NoError(t, err)
	require.NotNil(t, resp.AnsweredID)
	assert.Equal(t, int64(9), *resp.AnsweredID)
	assert.Equal(t, 2, strings.Count(out.String(), "card\n"))
	assert.Contains(t, out.String(), "answer a number between 0 and 2")
}

func TestInteractiveResponder_InputClosed(t *testing.T) {
	r := NewInteractiveResponder(strings.NewReader(""), io.Discard)
	_, err := r.Respond(context.Background(), Prompt{Flashcard: optionCard()})
	require.ErrorIs(t, err, ErrInputClosed)
}

func TestInteractiveResponder_Cancel(t *testing.T) {
	in, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewInteractiveResponder(in, io.Discard)
	_, err := r.Respond(ctx, Prompt{Flashcard: optionCard()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewResponder(t *testing.T) {
	auto, err := NewResponder(config.DrillConfig{Mode: "auto", Accuracy: 1}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &AutoResponder{}, auto)

	interactive, err := NewResponder(config.DrillConfig{Mode: "interactive"}, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &InteractiveResponder{}, interactive)

	_, err = NewResponder(config.DrillConfig{Mode: "robot"}, nil, nil)
	require.Error(t, err)
}
