// Command order-lambda serves order creation behind API Gateway.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	appkg "github.com/xenking/order-intake/internal/app"
	"github.com/xenking/order-intake/internal/handler"
)

// globalTelemetry exposes the otel global providers; the Lambda runtime
// configures exporters through its layer.
type globalTelemetry struct{}

func (globalTelemetry) TracerProvider() trace.TracerProvider { return otel.GetTracerProvider() }
func (globalTelemetry) MeterProvider() metric.MeterProvider  { return otel.GetMeterProvider() }

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := zctx.Base(context.Background(), lg)

	cfg, err := appkg.LoadConfig()
	if err != nil {
		lg.Error("Load config", zap.Error(err))
		os.Exit(1)
	}
	deps, err := appkg.Build(ctx, cfg, globalTelemetry{})
	if err != nil {
		lg.Error("Initialize", zap.Error(err))
		os.Exit(1)
	}
	defer deps.Close()

	h := handler.NewHandler(deps.Service)
	lambda.Start(func(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return h.HandleAPIGateway(zctx.Base(ctx, lg), ev)
	})
}
