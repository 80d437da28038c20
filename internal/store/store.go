// Package store provides the local session storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/ai-tutor/internal/model"
)

// Well-known keys of the value table.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
)

// SearchParams holds parameters for searching saved transcripts.
type SearchParams struct {
	Course string
	Query  string
	Limit  int
}

// Record is one persisted transcript message.
type Record struct {
	ID        string       `json:"id" yaml:"id"`
	Course    string       `json:"course" yaml:"course"`
	Seq       int          `json:"seq" yaml:"seq"`
	Sender    model.Sender `json:"sender" yaml:"sender"`
	Text      string       `json:"text" yaml:"text"`
	Expanded  bool         `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	CreatedAt string       `json:"created_at" yaml:"created_at"`
}

// Store defines the local storage interface.
type Store interface {
	// GetValue returns a stored value and whether it exists.
	GetValue(ctx context.Context, key string) (string, bool, error)

	// SetValue stores or replaces a value.
	SetValue(ctx context.Context, key, value string) error

	// DeleteValue removes a value. Missing keys are not an error.
	DeleteValue(ctx context.Context, key string) error

	// SaveState replaces the saved chat session. Messages keep their IDs;
	// messages without one are assigned a new ID.
	SaveState(ctx context.Context, st model.SessionState) error

	// LoadState returns the saved chat session, empty if none was saved.
	LoadState(ctx context.Context) (*model.SessionState, error)

	// Transcript returns the saved messages of one course in order.
	Transcript(ctx context.Context, course string) ([]Record, error)

	// Close closes the store.
	Close() error
}
