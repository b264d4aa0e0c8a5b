package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-intake/internal/domain/workflow"
)

const (
	insertWorkflowSQL = `INSERT INTO "orderWorkflow" (
			id, "userId", "sessionId", orden, tag, restaurante, total_orden,
			forma_venta, channel, order_json, core_response, status,
			error_message, sent_to_core, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	updateWorkflowSQL = `UPDATE "orderWorkflow"
		SET status = $2, core_response = $3, error_message = $4, sent_to_core = $5, updated_at = $6
		WHERE id = $1`
)

var _ workflow.Store = (*WorkflowRepository)(nil)

// WorkflowRepository implements workflow.Store backed by PostgreSQL.
type WorkflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository returns a WorkflowRepository that uses the given pool.
func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepository {
	return &WorkflowRepository{pool: pool}
}

// Insert persists a new workflow record.
func (r *WorkflowRepository) Insert(ctx context.Context, rec *workflow.Record) error {
	_, err := r.pool.Exec(ctx, insertWorkflowSQL,
		rec.ID,
		nullIfZero(rec.UserID),
		nullIfEmpty(rec.SessionID),
		rec.OrderNumber,
		rec.Tag,
		rec.Restaurant,
		rec.Total.StringFixed(2),
		rec.SaleChannel,
		rec.Channel,
		rec.Document,
		jsonOrNull(rec.Response),
		string(rec.Status),
		nullIfEmpty(rec.ErrorMessage),
		rec.Sent,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting workflow %s: %w", rec.ID, err)
	}
	return nil
}

// Update writes the reconciliation fields of rec.
func (r *WorkflowRepository) Update(ctx context.Context, rec *workflow.Record) error {
	tag, err := r.pool.Exec(ctx, updateWorkflowSQL,
		rec.ID,
		string(rec.Status),
		jsonOrNull(rec.Response),
		nullIfEmpty(rec.ErrorMessage),
		rec.Sent,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating workflow %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating workflow %s: %w", rec.ID, workflow.ErrNotFound)
	}
	return nil
}

// jsonOrNull maps an empty body to NULL. Bodies that are not valid JSON are
// stored as a JSON string so the raw answer is kept.
func jsonOrNull(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	if !jx.Valid(b) {
		var e jx.Encoder
		e.Str(string(b))
		return e.Bytes()
	}
	return b
}
