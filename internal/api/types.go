package api

import (
	"encoding/json"

	"github.com/lamim/drillforge/pkg/models"
)

// PracticeResponse is the body of /flashcards/practice/
type PracticeResponse struct {
	Data    PracticeData `json:"data"`
	Version string       `json:"version,omitempty"`
}

// PracticeData carries the next batch of flashcards
type PracticeData struct {
	Flashcards []*models.Flashcard `json:"flashcards" validate:"required,dive,required"`
}

// AnswersRequest is the body of answer submissions
type AnswersRequest struct {
	Answers []*models.Answer `json:"answers"`
}

// ContextResponse is the body of /flashcards/context/{id}
type ContextResponse struct {
	Data *models.Context `json:"data" validate:"required"`
}

// ConfigResponse is the body of /common/config/, keyed by application name
type ConfigResponse struct {
	Data map[string]any `json:"data" validate:"required"`
}

// UserStatsResponse maps a filter group id to its statistics
type UserStatsResponse struct {
	Data map[string]json.RawMessage `json:"data" validate:"required"`
}

// ErrorResponse represents an error body returned by the backend
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// envelope picks debug_log out of any response object
type envelope struct {
	DebugLog []json.RawMessage `json:"debug_log"`
}
