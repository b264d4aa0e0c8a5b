package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/pipeline"
)

type mockCreator struct {
	res *pipeline.Result
	err error
	req pipeline.Request
}

func (m *mockCreator) CreateFromCart(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	m.req = req
	return m.res, m.err
}

type errorBody struct {
	Error string `json:"error"`
}

func do(t *testing.T, h *Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	req := httptest.NewRequest(method, "/api/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
	"userId": 31,
	"restaurante": "12",
	"cliente_telefono": "5555",
	"cliente_nombre": "Ana",
	"cliente_direccion": "Zona 10",
	"forma_venta": "APP",
	"cluster": "4",
	"extra": {"ignored": [1, 2]}
}`

func TestHandler_CreateOrder(t *testing.T) {
	m := &mockCreator{res: &pipeline.Result{
		Document: order.Document{
			OrderNumber: "1501",
			Total:       decimal.RequireFromString("30"),
			Lines:       []order.Line{{Number: 1, PLU: "900", Quantity: 1, Amount: decimal.RequireFromString("30"), Kind: order.KindNormal}},
		},
		Response:   []byte(`{"success":true,"data":{"exito":"Orden Recibida en Servidor"}}`),
		WorkflowID: "wf-1",
	}}
	rec := do(t, NewHandler(m), http.MethodPost, validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Message string `json:"message"`
		Data    struct {
			Order        map[string]any `json:"order"`
			CoreResponse map[string]any `json:"coreResponse"`
			WorkflowID   string         `json:"workflowId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, MessageCreated, got.Message)
	assert.Equal(t, "1501", got.Data.Order["orden"])
	assert.Equal(t, "30.00", got.Data.Order["total_orden"])
	assert.Equal(t, true, got.Data.CoreResponse["success"])
	assert.Equal(t, "wf-1", got.Data.WorkflowID)

	assert.Equal(t, int64(31), m.req.UserID)
	assert.Equal(t, "APP", m.req.SaleChannel)
	assert.Equal(t, "4", m.req.Cluster)
}

func TestHandler_CreateOrderErrors(t *testing.T) {
	for _, tt := range []struct {
		name       string
		method     string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"Method", http.MethodGet, "", nil, http.StatusMethodNotAllowed, MessageNotAllowed},
		{"NoBody", http.MethodPost, "", nil, http.StatusBadRequest, MessageNoBody},
		{"NotObject", http.MethodPost, `[1]`, nil, http.StatusBadRequest, "invalid order request"},
		{"BadUserID", http.MethodPost, `{"userId":"abc"}`, nil, http.StatusBadRequest, "userId must be an integer"},
		{"BadChannel", http.MethodPost, `{"userId":1,"channel":"FAX"}`, nil, http.StatusBadRequest, "channel must be APP or WEB"},
		{"Invalid", http.MethodPost, validBody, errors.Wrap(pipeline.ErrInvalidRequest, "cliente_nombre required"), http.StatusBadRequest, "cliente_nombre required"},
		{"EmptyCart", http.MethodPost, validBody, pipeline.ErrEmptyCart, http.StatusUnprocessableEntity, "cart is empty"},
		{"NoLines", http.MethodPost, validBody, errors.Wrap(order.ErrNoLines, "assemble"), http.StatusUnprocessableEntity, "no valid order lines"},
		{"Rejected", http.MethodPost, validBody, &pipeline.SubmissionError{OrderNumber: "9", Message: "closed"}, http.StatusBadGateway, "submit order 9: closed"},
		{"Internal", http.MethodPost, validBody, errors.New("pool exhausted"), http.StatusInternalServerError, MessageInternal},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, NewHandler(&mockCreator{err: tt.err}), tt.method, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var got errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got.Error, tt.wantError)
		})
	}
}

func TestDecodeOrderRequest(t *testing.T) {
	req, err := DecodeOrderRequest([]byte(`{
		"userId": "42",
		"sessionId": null,
		"restaurante": 12,
		"nit": "1234-5",
		"nit_nombre": "Empresa",
		"observaciones": "sin cebolla",
		"Direccion_Coordenadas": "14.6,-90.5",
		"channel": "WEB"
	}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), req.UserID)
	assert.Empty(t, req.SessionID)
	assert.Equal(t, "12", req.Restaurant)
	assert.Equal(t, "1234-5", req.InvoiceNIT)
	assert.Equal(t, "Empresa", req.InvoiceName)
	assert.Equal(t, "sin cebolla", req.Observations)
	assert.Equal(t, "14.6,-90.5", req.Coordinates)
	assert.Equal(t, "WEB", req.Channel)

	_, err = DecodeOrderRequest([]byte(`{"cliente_nombre": {"x": 1}}`))
	require.ErrorIs(t, err, pipeline.ErrInvalidRequest)
}
