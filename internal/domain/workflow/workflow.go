// Package workflow records the lifecycle of an order submission.
package workflow

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the state of a workflow record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var (
	// ErrIllegalTransition is returned when a record cannot move to the
	// requested status.
	ErrIllegalTransition = errors.New("illegal workflow transition")
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("workflow record not found")
)

// CanTransition reports whether a record in from may move to to. Only
// pending records transition; success and error are terminal.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusSuccess || to == StatusError)
}

// Record is the durable trace of one submission attempt.
type Record struct {
	ID        uuid.UUID
	UserID    int64
	SessionID string

	OrderNumber string
	Tag         string
	Restaurant  string
	Total       decimal.Decimal
	SaleChannel string
	Channel     string

	// Document is the JSON snapshot of the submitted order.
	Document []byte
	// Response is the raw intake response; nil until a success is recorded.
	Response []byte

	Status       Status
	ErrorMessage string
	Sent         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists workflow records.
type Store interface {
	Insert(ctx context.Context, rec *Record) error
	// Update writes status, response, error message, sent flag and
	// UpdatedAt of an existing record.
	Update(ctx context.Context, rec *Record) error
}
