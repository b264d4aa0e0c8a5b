// Package intake submits order documents to the external order-intake system.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/order"
)

const (
	// Acknowledgement is the literal the intake system answers with when an
	// order was accepted.
	Acknowledgement = "Orden Recibida en Servidor"

	// DefaultTimeout bounds one submission.
	DefaultTimeout = 30 * time.Second

	defaultChannel = "APP"
	submitPath     = "comanda"
	maxBodySize    = 1 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL of the intake API; the submission path is appended to it.
	BaseURL string
	// Key is the shared secret sent in the Key header.
	Key     string
	Timeout time.Duration
	// Transport overrides the base round tripper. It is always wrapped for
	// tracing.
	Transport http.RoundTripper
}

// Result is the reconciled submission result.
type Result struct {
	OK bool
	// Payload is the raw response body, if any.
	Payload []byte
	Status  int
	Error   string
}

// Client posts order documents to the intake system.
type Client struct {
	url    string
	key    string
	client *http.Client
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	url := opts.BaseURL
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return &Client{
		url: url + submitPath,
		key: opts.Key,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
}

// Submit sends docs as one JSON array. It never returns an error: transport
// failures, non-2xx answers and bodies without the acknowledgement all yield
// Result.OK == false with the best available message.
func (c *Client) Submit(ctx context.Context, docs ...order.Document) Result {
	lg := zctx.From(ctx)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	order.EncodeDocuments(e, docs)

	channel := frameChannel(docs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(e.Bytes()))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Key", c.key)
	req.Header.Set("FV", channel)
	req.Header.Set("Content-Type", "application/json")

	lg.Info("Submitting order",
		zap.String("url", c.url),
		zap.String("channel", channel),
		zap.Int("documents", len(docs)),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		lg.Error("Intake request failed", zap.Error(err))
		return Result{Error: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{Status: resp.StatusCode, Error: errors.Wrap(err, "read response").Error()}
	}

	res := Result{Payload: body, Status: resp.StatusCode}
	reply, decodeErr := parseReply(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Error = reply.message()
		if res.Error == "" {
			res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		lg.Error("Intake rejected order",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return res
	}

	switch {
	case decodeErr != nil:
		res.Error = "invalid intake response: " + decodeErr.Error()
	case reply.accepted():
		res.OK = true
	case reply.message() != "":
		res.Error = reply.message()
	case reply.Ack != "":
		res.Error = "intake response not successful: " + reply.Ack
	default:
		res.Error = "intake response invalid or incomplete"
	}
	if !res.OK {
		lg.Warn("Intake did not acknowledge order",
			zap.String("error", res.Error),
			zap.ByteString("response", body),
		)
	}
	return res
}

// frameChannel returns the FV header value for docs.
func frameChannel(docs []order.Document) string {
	if len(docs) == 0 {
		return defaultChannel
	}
	ch := docs[0].Channel
	if ch == "" {
		ch = docs[0].SaleChannel
	}
	if ch == "" {
		ch = defaultChannel
	}
	return strings.ToUpper(ch)
}
