// Command seed-db loads catalog, sub-item, discount and cart fixtures for
// local runs. Every fixture is a JSON array, optionally gzip-compressed
// (*.json.gz).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-intake/internal/storage/postgres"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
	batchSize     = 500
)

type productJSON struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	CoreName  string          `json:"coreName"`
	Type      string          `json:"type"`
	PLU       *int64          `json:"plu"`
	Price     decimal.Decimal `json:"price"`
}

type itemJSON struct {
	ID              string          `json:"id"`
	PLU             *int64          `json:"plu"`
	Price           decimal.Decimal `json:"price"`
	CoreGroup       string          `json:"core_group"`
	CoreDescription string          `json:"core_description"`
	Name            string          `json:"name"`
}

type discountJSON struct {
	Code    int64           `json:"discount_code"`
	Cluster string          `json:"cluster"`
	PLU     int64           `json:"plu"`
	Price   decimal.Decimal `json:"discount_price"`
}

type cartJSON struct {
	UserID    *int64          `json:"userId"`
	SessionID *string         `json:"sessionId"`
	Source    *string         `json:"source"`
	Product   json.RawMessage `json:"product"`
}

type fixtures struct {
	products  []productJSON
	items     []itemJSON
	discounts []discountJSON
	carts     []cartJSON
}

func main() {
	var (
		databaseURL string
		dataDir     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dataDir, "data-dir", "db/seed", "directory containing products, items, discounts and carts fixtures")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, dataDir); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, dataDir string) error {
	fx, err := loadFixtures(ctx, dataDir)
	if err != nil {
		return errors.Wrap(err, "load fixtures")
	}
	warnSharedPLUs(fx)

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, fx.products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedItems(ctx, pool, fx.items); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedDiscounts(ctx, pool, fx.discounts); err != nil {
		return errors.Wrap(err, "seed discounts")
	}
	if err := seedCarts(ctx, pool, fx.carts); err != nil {
		return errors.Wrap(err, "seed carts")
	}

	return nil
}

// loadFixtures decodes all fixture files concurrently. Missing files are
// skipped.
func loadFixtures(ctx context.Context, dir string) (*fixtures, error) {
	var fx fixtures

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readFixture(ctx, dir, "products", &fx.products) })
	g.Go(func() error { return readFixture(ctx, dir, "items", &fx.items) })
	g.Go(func() error { return readFixture(ctx, dir, "discounts", &fx.discounts) })
	g.Go(func() error { return readFixture(ctx, dir, "carts", &fx.carts) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("fixtures loaded",
		slog.Int("products", len(fx.products)),
		slog.Int("items", len(fx.items)),
		slog.Int("discounts", len(fx.discounts)),
		slog.Int("carts", len(fx.carts)),
	)
	return &fx, nil
}

// findFixture returns <dir>/<name>.json.gz or <dir>/<name>.json, or "".
func findFixture(dir, name string) string {
	for _, ext := range []string{".json.gz", ".json"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readFixture(ctx context.Context, dir, name string, dst any) error {
	path := findFixture(dir, name)
	if path == "" {
		slog.Info("fixture not found, skipping", slog.String("name", name))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// warnSharedPLUs reports item PLUs that probably also belong to a catalog
// product. A bloom filter hit may be a false positive.
func warnSharedPLUs(fx *fixtures) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	for _, p := range fx.products {
		if p.PLU != nil {
			filter.AddString(strconv.FormatInt(*p.PLU, 10))
		}
	}
	for _, it := range fx.items {
		if it.PLU == nil {
			continue
		}
		if filter.TestString(strconv.FormatInt(*it.PLU, 10)) {
			slog.Warn("item PLU likely shared with a product",
				slog.String("item", it.ID),
				slog.Int64("plu", *it.PLU),
			)
		}
	}
}

const upsertProduct = `
INSERT INTO product ("productId", name, "coreName", type, plu, price)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT ("productId") DO UPDATE
SET name = EXCLUDED.name, "coreName" = EXCLUDED."coreName", type = EXCLUDED.type,
    plu = EXCLUDED.plu, price = EXCLUDED.price`

const upsertItem = `
INSERT INTO items (id, plu, price, core_group, core_description, name)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET plu = EXCLUDED.plu, price = EXCLUDED.price, core_group = EXCLUDED.core_group,
    core_description = EXCLUDED.core_description, name = EXCLUDED.name`

const upsertDiscount = `
INSERT INTO discount_prices (discount_code, cluster, plu, discount_price)
VALUES ($1, $2, $3, $4)
ON CONFLICT (discount_code, cluster, plu) DO UPDATE
SET discount_price = EXCLUDED.discount_price`

const insertCart = `
INSERT INTO carts ("userId", "sessionId", source, product)
VALUES ($1, $2, $3, $4)`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	return sendBatches(ctx, pool, "products", len(products), func(b *pgx.Batch, i int) {
		p := products[i]
		b.Queue(upsertProduct, p.ProductID, p.Name, p.CoreName, p.Type, p.PLU, p.Price)
	})
}

func seedItems(ctx context.Context, pool *pgxpool.Pool, items []itemJSON) error {
	return sendBatches(ctx, pool, "items", len(items), func(b *pgx.Batch, i int) {
		it := items[i]
		b.Queue(upsertItem, it.ID, it.PLU, it.Price, it.CoreGroup, it.CoreDescription, it.Name)
	})
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, discounts []discountJSON) error {
	return sendBatches(ctx, pool, "discounts", len(discounts), func(b *pgx.Batch, i int) {
		d := discounts[i]
		b.Queue(upsertDiscount, d.Code, d.Cluster, d.PLU, d.Price)
	})
}

func seedCarts(ctx context.Context, pool *pgxpool.Pool, carts []cartJSON) error {
	return sendBatches(ctx, pool, "carts", len(carts), func(b *pgx.Batch, i int) {
		c := carts[i]
		var product []byte
		if len(c.Product) > 0 {
			product = c.Product
		}
		b.Queue(insertCart, c.UserID, c.SessionID, c.Source, product)
	})
}

// sendBatches queues n statements through fill and sends them in batches.
func sendBatches(ctx context.Context, pool *pgxpool.Pool, name string, n int, fill func(b *pgx.Batch, i int)) error {
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)

		b := &pgx.Batch{}
		for i := start; i < end; i++ {
			fill(b, i)
		}
		if err := pool.SendBatch(ctx, b).Close(); err != nil {
			return errors.Wrapf(err, "send %s batch at %d", name, start)
		}

		slog.Info("write progress", slog.String("table", name), slog.Int("written", end), slog.Int("total", n))
	}
	return nil
}
