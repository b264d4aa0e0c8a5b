package workflow

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/order"
)

// Outcome is the reconciled result of a submission.
type Outcome struct {
	Status   Status
	Response []byte
	Error    string
}

// Recorder drives workflow records through their state machine.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store: store,
		now:   time.Now,
	}
}

// RecordPending stores a new pending record for doc before it is submitted.
func (r *Recorder) RecordPending(ctx context.Context, owner cart.Owner, doc order.Document) (*Record, error) {
	snapshot, err := doc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "encode document")
	}

	now := r.now()
	rec := &Record{
		ID:          uuid.New(),
		UserID:      owner.UserID,
		SessionID:   owner.SessionID,
		OrderNumber: doc.OrderNumber,
		Tag:         doc.Tag,
		Restaurant:  doc.Restaurant,
		Total:       doc.Total,
		SaleChannel: doc.SaleChannel,
		Channel:     doc.Channel,
		Document:    snapshot,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "insert workflow")
	}
	return rec, nil
}

// RecordOutcome moves rec to the outcome status. Success stores the response
// and marks the record as sent; error stores the message and clears the
// response. rec is only modified when the write succeeds.
func (r *Recorder) RecordOutcome(ctx context.Context, rec *Record, out Outcome) error {
	if !CanTransition(rec.Status, out.Status) {
		return errors.Wrapf(ErrIllegalTransition, "%s to %s", rec.Status, out.Status)
	}

	next := *rec
	next.Status = out.Status
	next.UpdatedAt = r.now()
	switch out.Status {
	case StatusSuccess:
		next.Response = out.Response
		next.ErrorMessage = ""
		next.Sent = true
	case StatusError:
		next.Response = nil
		next.ErrorMessage = out.Error
		next.Sent = false
	}

	if err := r.store.Update(ctx, &next); err != nil {
		return errors.Wrap(err, "update workflow")
	}
	*rec = next
	return nil
}

// RecordError stores a record that failed before or during submission. The
// record is inserted as pending and then moved to error; when the second
// write fails the pending record is returned and the failure is logged.
func (r *Recorder) RecordError(ctx context.Context, owner cart.Owner, doc order.Document, msg string) (*Record, error) {
	rec, err := r.RecordPending(ctx, owner, doc)
	if err != nil {
		return nil, err
	}
	if err := r.RecordOutcome(ctx, rec, Outcome{Status: StatusError, Error: msg}); err != nil {
		zctx.From(ctx).Error("Failed to mark workflow as error",
			zap.Stringer("workflow_id", rec.ID),
			zap.String("orden", rec.OrderNumber),
			zap.Error(err),
		)
	}
	return rec, nil
}
