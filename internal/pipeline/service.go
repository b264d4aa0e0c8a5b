// Package pipeline turns a stored cart into a submitted, recorded order.
package pipeline

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/domain/workflow"
	"github.com/xenking/order-intake/internal/intake"
)

// LineAssembler turns cart entries into order lines.
type LineAssembler interface {
	Assemble(ctx context.Context, owner cart.Owner, entries []cart.Entry, cluster string) ([]order.Line, error)
}

// OrderStore persists the order root record and returns its durable number.
type OrderStore interface {
	CreateOrder(ctx context.Context, root order.Root) (int64, error)
}

// Recorder tracks the submission lifecycle.
type Recorder interface {
	RecordPending(ctx context.Context, owner cart.Owner, doc order.Document) (*workflow.Record, error)
	RecordOutcome(ctx context.Context, rec *workflow.Record, out workflow.Outcome) error
	RecordError(ctx context.Context, owner cart.Owner, doc order.Document, msg string) (*workflow.Record, error)
}

// Submitter delivers documents to the intake system.
type Submitter interface {
	Submit(ctx context.Context, docs ...order.Document) intake.Result
}

var (
	_ LineAssembler = (*order.Assembler)(nil)
	_ Recorder      = (*workflow.Recorder)(nil)
	_ Submitter     = (*intake.Client)(nil)
)

// Options configures optional Service dependencies.
type Options struct {
	// Location is used for the order date and time. Defaults to UTC.
	Location       *time.Location
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Result is a submitted order.
type Result struct {
	Document   order.Document
	Response   []byte
	WorkflowID string
}

// Service orchestrates order creation from a cart.
type Service struct {
	carts     cart.Repository
	assembler LineAssembler
	orders    OrderStore
	workflows Recorder
	intake    Submitter

	loc     *time.Location
	now     func() time.Time
	newTag  func() string
	tracer  trace.Tracer
	created metric.Int64Counter
}

// NewService creates a Service.
func NewService(
	carts cart.Repository,
	assembler LineAssembler,
	orders OrderStore,
	workflows Recorder,
	submitter Submitter,
	opts Options,
) (*Service, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = noop.NewMeterProvider()
	}

	created, err := opts.MeterProvider.Meter("order-intake/pipeline").Int64Counter("intake.orders",
		metric.WithDescription("Orders processed by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}

	return &Service{
		carts:     carts,
		assembler: assembler,
		orders:    orders,
		workflows: workflows,
		intake:    submitter,
		loc:       opts.Location,
		now:       time.Now,
		newTag:    order.NewTag,
		tracer:    opts.TracerProvider.Tracer("order-intake/pipeline"),
		created:   created,
	}, nil
}

// CreateFromCart builds an order from the owner's cart, records it as
// pending, submits it and records the outcome.
func (s *Service) CreateFromCart(ctx context.Context, req Request) (_ *Result, rerr error) {
	owner := req.Owner()
	ctx, span := s.tracer.Start(ctx, "pipeline.CreateFromCart",
		trace.WithAttributes(attribute.String("owner", owner.String())),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("status", outcome(rerr))))
		span.End()
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	lg := zctx.From(ctx).With(zap.Stringer("owner", owner))

	entries, err := s.carts.FetchCart(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cart")
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	lines, err := s.assembler.Assemble(ctx, owner, entries, req.Cluster)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	total := order.Total(lines)

	now := s.now().In(s.loc)
	number, err := s.orders.CreateOrder(ctx, s.root(req, lines, total))
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	doc := order.Document{
		SaleChannel:     req.saleChannel(),
		OrderNumber:     strconv.FormatInt(number, 10),
		Tag:             s.newTag(),
		Date:            order.FormatDate(now),
		Time:            order.FormatTime(now),
		Restaurant:      req.Restaurant,
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		InvoiceNIT:      req.invoiceNIT(),
		InvoiceName:     req.invoiceName(),
		Total:           total,
		Observations:    req.Observations,
		Lines:           lines,
		Channel:         req.channel(),
		Coordinates:     req.coordinates(),
	}
	span.SetAttributes(attribute.String("order.number", doc.OrderNumber))
	lg = lg.With(zap.String("orden", doc.OrderNumber), zap.String("tag", doc.Tag))
	lg.Info("Order built",
		zap.String("total", total.StringFixed(2)),
		zap.Int("lines", len(lines)),
	)

	rec, err := s.workflows.RecordPending(ctx, owner, doc)
	if err != nil {
		return nil, errors.Wrap(err, "record pending")
	}

	res := s.intake.Submit(ctx, doc)
	if !res.OK {
		subErr := &SubmissionError{
			OrderNumber: doc.OrderNumber,
			Status:      res.Status,
			Message:     res.Error,
		}
		if err := s.workflows.RecordOutcome(ctx, rec, workflow.Outcome{
			Status: workflow.StatusError,
			Error:  res.Error,
		}); err != nil {
			s.recordError(ctx, owner, doc, subErr.Error(), err)
		}
		lg.Error("Order not accepted", zap.Error(subErr))
		return nil, subErr
	}

	if err := s.workflows.RecordOutcome(ctx, rec, workflow.Outcome{
		Status:   workflow.StatusSuccess,
		Response: res.Payload,
	}); err != nil {
		err = errors.Wrap(err, "record success")
		s.recordError(ctx, owner, doc, err.Error(), err)
		return nil, err
	}

	lg.Info("Order submitted", zap.Stringer("workflow_id", rec.ID))
	return &Result{
		Document:   doc,
		Response:   res.Payload,
		WorkflowID: rec.ID.String(),
	}, nil
}

// recordError stores a terminal error record after reconciliation of the
// pending record failed. Failures are logged only.
func (s *Service) recordError(ctx context.Context, owner cart.Owner, doc order.Document, msg string, cause error) {
	lg := zctx.From(ctx).With(zap.String("orden", doc.OrderNumber))
	lg.Warn("Workflow reconciliation failed", zap.Error(cause))
	if _, err := s.workflows.RecordError(ctx, owner, doc, msg); err != nil {
		lg.Error("Failed to record workflow error", zap.Error(err))
	}
}

func (s *Service) root(req Request, lines []order.Line, total decimal.Decimal) order.Root {
	root := order.Root{
		UserID:          req.UserID,
		ContactName:     req.CustomerName,
		ContactPhone:    req.CustomerPhone,
		InvoiceName:     req.invoiceName(),
		InvoiceNIT:      req.invoiceNIT(),
		DeliveryAddress: req.CustomerAddress,
		Coordinates:     req.coordinates(),
		Total:           total,
		Lines:           lines,
		Observations:    req.Observations,
		Channel:         req.rootChannel(),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(req.Restaurant), 10, 64); err == nil {
		root.RestaurantID = &id
	}
	return root
}

// outcome labels err for the orders counter.
func outcome(err error) string {
	var subErr *SubmissionError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &subErr):
		return "rejected"
	case errors.Is(err, ErrEmptyCart), errors.Is(err, order.ErrNoLines):
		return "empty"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	default:
		return "error"
	}
}
