package pipeline

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrEmptyCart is returned when the owner has no cart entries.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidRequest is returned when required request fields are missing.
	ErrInvalidRequest = errors.New("invalid order request")
)

// SubmissionError indicates the intake system did not accept the order.
type SubmissionError struct {
	OrderNumber string
	// Status is the HTTP status of the intake answer, zero on transport
	// failures.
	Status  int
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit order %s: %s", e.OrderNumber, e.Message)
}
