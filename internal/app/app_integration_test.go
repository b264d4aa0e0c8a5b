//go:build integration

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/order-intake/pkg/health"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "intake",
				"POSTGRES_PASSWORD": "intake",
				"POSTGRES_DB":       "intake",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://intake:intake@%s:%s/intake?sslmode=disable", host, port.Port())
}

type intakeStub struct {
	mu     sync.Mutex
	bodies [][]byte
	key    string
}

func (s *intakeStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.key = r.Header.Get("Key")
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"data":{"exito":"Orden Recibida en Servidor"}}`))
}

func TestOrderFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &intakeStub{}
	intakeSrv := httptest.NewServer(stub)
	defer intakeSrv.Close()

	cfg := &Config{
		DatabaseURL: startPostgres(t),
		TimeZone:    "America/Guatemala",
		Intake:      IntakeConfig{BaseURL: intakeSrv.URL, Key: "secret", Timeout: 5 * time.Second},
		RateLimit:   RateLimitConfig{RPS: 100, Burst: 100},
	}
	require.NoError(t, cfg.Validate())

	deps, err := Build(ctx, cfg, noopTelemetry{})
	require.NoError(t, err)
	defer deps.Close()

	for _, q := range []string{
		`INSERT INTO product ("productId", name, "coreName", type, plu, price) VALUES (101, 'Hamburguesa', 'HAMB', 'INDIVIDUAL', 1001, 25.00)`,
		`INSERT INTO carts ("userId", source, product) VALUES (31, 'APP', '{"oldId": 101, "qty": 2}')`,
		`INSERT INTO carts ("userId", source, product) VALUES (31, 'APP', '{"oldId": 999, "qty": 1}')`,
	} {
		_, err := deps.Pool.Exec(ctx, q)
		require.NoError(t, err)
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", time.Second, health.PingCheck(deps.Pool))
	healthSvc.SetReady(true)

	srv := httptest.NewServer(NewHTTPHandler(ctx, cfg, deps.Service, healthSvc, noopTelemetry{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(`{
		"userId": 31,
		"restaurante": "12",
		"cliente_telefono": "5555",
		"cliente_nombre": "Ana",
		"cliente_direccion": "Zona 10",
		"forma_venta": "APP"
	}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Data struct {
			Order struct {
				Orden      string `json:"orden"`
				TotalOrden string `json:"total_orden"`
				Lines      []struct {
					PLU    string `json:"plu"`
					Amount string `json:"monto"`
				} `json:"detalle"`
			} `json:"order"`
			WorkflowID string `json:"workflowId"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "50.00", got.Data.Order.TotalOrden)
	assert.NotEmpty(t, got.Data.Order.Orden)
	require.Len(t, got.Data.Order.Lines, 1, "unknown product is skipped")
	assert.Equal(t, "1001", got.Data.Order.Lines[0].PLU)
	assert.Equal(t, "50.00", got.Data.Order.Lines[0].Amount)
	require.NotEmpty(t, got.Data.WorkflowID)

	stub.mu.Lock()
	assert.Len(t, stub.bodies, 1)
	assert.Equal(t, "secret", stub.key)
	stub.mu.Unlock()

	var (
		status string
		sent   bool
	)
	require.NoError(t, deps.Pool.QueryRow(ctx,
		`SELECT status, sent_to_core FROM "orderWorkflow" WHERE id = $1`, got.Data.WorkflowID,
	).Scan(&status, &sent))
	assert.Equal(t, "success", status)
	assert.True(t, sent)

	var totalMatches bool
	require.NoError(t, deps.Pool.QueryRow(ctx,
		`SELECT "totalAmount" = 50 FROM "order" WHERE id = $1::int`, got.Data.Order.Orden,
	).Scan(&totalMatches))
	assert.True(t, totalMatches)
}

func TestOrderFlow_EmptyCart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &Config{
		DatabaseURL: startPostgres(t),
		Intake:      IntakeConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		RateLimit:   RateLimitConfig{RPS: 100, Burst: 100},
	}
	deps, err := Build(ctx, cfg, noopTelemetry{})
	require.NoError(t, err)
	defer deps.Close()

	srv := httptest.NewServer(NewHTTPHandler(ctx, cfg, deps.Service, health.New(), noopTelemetry{}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(
		`{"sessionId":"nobody","restaurante":"1","cliente_telefono":"1","cliente_nombre":"x","cliente_direccion":"y"}`,
	))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var n int
	require.NoError(t, deps.Pool.QueryRow(ctx, `SELECT count(*) FROM "orderWorkflow"`).Scan(&n))
	assert.Zero(t, n)
}
