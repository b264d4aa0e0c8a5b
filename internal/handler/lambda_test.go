package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/pipeline"
)

func TestHandleAPIGateway_Success(t *testing.T) {
	m := &mockCreator{res: &pipeline.Result{
		Document: order.Document{OrderNumber: "77", Tag: "aB3xY9", Total: decimal.RequireFromString("12.5")},
		Response: []byte(`{"success":true}`),
	}}

	for _, tt := range []struct {
		name string
		ev   events.APIGatewayProxyRequest
	}{
		{"Plain", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: validBody}},
		{"NoMethod", events.APIGatewayProxyRequest{Body: validBody}},
		{"Base64", events.APIGatewayProxyRequest{
			HTTPMethod:      http.MethodPost,
			Body:            base64.StdEncoding.EncodeToString([]byte(validBody)),
			IsBase64Encoded: true,
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewHandler(m).HandleAPIGateway(context.Background(), tt.ev)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])

			var got struct {
				Message string `json:"message"`
				Data    struct {
					Order map[string]any `json:"order"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
			assert.Equal(t, MessageCreated, got.Message)
			assert.Equal(t, "77", got.Data.Order["orden"])
			assert.Equal(t, int64(31), m.req.UserID)
		})
	}
}

func TestHandleAPIGateway_Errors(t *testing.T) {
	for _, tt := range []struct {
		name       string
		ev         events.APIGatewayProxyRequest
		err        error
		wantStatus int
		wantError  string
	}{
		{"Method", events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Body: validBody}, nil, http.StatusMethodNotAllowed, MessageNotAllowed},
		{"NoBody", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost}, nil, http.StatusBadRequest, MessageNoBody},
		{"BadBase64", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: "!!!", IsBase64Encoded: true}, nil, http.StatusBadRequest, "invalid base64 body"},
		{"TooLarge", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: strings.Repeat(" ", maxBodySize+1)}, nil, http.StatusBadRequest, "too large"},
		{"Decode", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `{"userId":"x"}`}, nil, http.StatusBadRequest, "userId must be an integer"},
		{"EmptyCart", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: validBody}, pipeline.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
		{"Rejected", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: validBody}, &pipeline.SubmissionError{OrderNumber: "5", Message: "closed"}, http.StatusBadRequest, "submit order 5: closed"},
		{"Internal", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: validBody}, errors.New("pool exhausted"), http.StatusBadRequest, "pool exhausted"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewHandler(&mockCreator{err: tt.err}).HandleAPIGateway(context.Background(), tt.ev)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			var got errorBody
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
			assert.Contains(t, got.Error, tt.wantError)
		})
	}
}
