// Package handler exposes the order pipeline over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/pipeline"
)

// OrderCreator creates and submits an order from a cart.
type OrderCreator interface {
	CreateFromCart(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

var _ OrderCreator = (*pipeline.Service)(nil)

const maxBodySize = 64 << 10

// Handler serves the order endpoints.
type Handler struct {
	orders OrderCreator
}

// NewHandler constructs a Handler.
func NewHandler(orders OrderCreator) *Handler {
	return &Handler{orders: orders}
}

// Register adds the handler routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/orders", h.CreateOrder)
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, MessageNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, MessageNoBody)
		return
	}

	req, err := DecodeOrderRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.orders.CreateFromCart(ctx, req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			lg.Error("Order creation failed", zap.Error(err))
			writeError(w, status, MessageInternal)
			return
		}
		lg.Warn("Order not created", zap.Int("status", status), zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	EncodeOrderResponse(e, res)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	var subErr *pipeline.SubmissionError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrEmptyCart), errors.Is(err, order.ErrNoLines):
		return http.StatusUnprocessableEntity
	case errors.As(err, &subErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	EncodeError(e, msg)
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
