package handler

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// HandleAPIGateway is the Lambda entry for API Gateway proxy events. Unlike
// the HTTP server it answers every pipeline failure with 400 and the error
// message. Events without an HTTP method are accepted.
func (h *Handler) HandleAPIGateway(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	lg := zctx.From(ctx).With(zap.String("aws_request_id", ev.RequestContext.RequestID))

	if ev.HTTPMethod != "" && ev.HTTPMethod != http.MethodPost {
		return lambdaError(http.StatusMethodNotAllowed, MessageNotAllowed), nil
	}
	if ev.Body == "" {
		return lambdaError(http.StatusBadRequest, MessageNoBody), nil
	}

	body := []byte(ev.Body)
	if ev.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return lambdaError(http.StatusBadRequest, "invalid base64 body"), nil
		}
		body = decoded
	}
	if len(body) > maxBodySize {
		return lambdaError(http.StatusBadRequest, "request body too large"), nil
	}

	req, err := DecodeOrderRequest(body)
	if err != nil {
		return lambdaError(http.StatusBadRequest, err.Error()), nil
	}

	res, err := h.orders.CreateFromCart(ctx, req)
	if err != nil {
		lg.Warn("Order not created", zap.Error(err))
		return lambdaError(http.StatusBadRequest, err.Error()), nil
	}

	lg.Info("Order submitted",
		zap.String("order_number", res.Document.OrderNumber),
		zap.String("tag", res.Document.Tag),
		zap.String("total", res.Document.Total.StringFixed(2)),
	)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	EncodeOrderResponse(e, res)
	return lambdaResponse(http.StatusOK, e.Bytes()), nil
}

func lambdaError(status int, msg string) events.APIGatewayProxyResponse {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	EncodeError(e, msg)
	return lambdaResponse(status, e.Bytes())
}

func lambdaResponse(status int, body []byte) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
