package practice

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPromised is returned when a flashcard is requested while
	// another request is still pending.
	ErrAlreadyPromised = errors.New("already one flashcard promised")
	// ErrSetCompleted is returned once every flashcard of the set was delivered.
	ErrSetCompleted = errors.New("set was completed")
	// ErrSessionReset is returned to a pending request discarded by InitSession.
	ErrSessionReset = errors.New("session was re-initialized")
	// ErrNoCurrentFlashcard is returned when an answer is built before any
	// flashcard was delivered in the session.
	ErrNoCurrentFlashcard = errors.New("there is no current flashcard")
	// ErrNoFlashcards is returned to a pending request when the backend
	// answered a batch request with no flashcards.
	ErrNoFlashcards = errors.New("no flashcards to practice")
)

// FetchError wraps a failed backend call
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
