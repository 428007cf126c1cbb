package feedback

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrEmptyContent     = errors.New("empty content")
	ErrNoValidDocuments = errors.New("no valid documents")
	ErrMissingField     = errors.New("missing template field")
)

// Rejection records why a single item was dropped by a stage.
type Rejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Batch is the outcome of running a stage over a list of items.
// Rejected items never abort the stage.
type Batch[T any] struct {
	Accepted []T
	Rejected []Rejection
}

// Accept appends an item that passed the stage.
func (b *Batch[T]) Accept(item T) {
	b.Accepted = append(b.Accepted, item)
}

// Reject records a dropped item and its reason.
func (b *Batch[T]) Reject(id string, err error) {
	b.Rejected = append(b.Rejected, Rejection{ID: id, Reason: err.Error()})
}

// Summary returns a one-line count of accepted and rejected items.
func (b *Batch[T]) Summary() string {
	return fmt.Sprintf("%d accepted, %d rejected", len(b.Accepted), len(b.Rejected))
}
