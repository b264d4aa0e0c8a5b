package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/pipeline"
)

const createOrderSQL = `INSERT INTO "order" (
		"contactName", "contactPhone", "invoiceName", "invoiceNit", "deliveryAddress",
		point, "restaurantId", "totalAmount", "userId", "detailData",
		"createdAt", observations, channel
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), $11, $12)
	RETURNING id`

var _ pipeline.OrderStore = (*OrderRepository)(nil)

// OrderRepository stores order root records.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder inserts root and returns its serial id, which is the order
// number used on the wire. The detail lines are stored in their wire shape.
func (r *OrderRepository) CreateOrder(ctx context.Context, root order.Root) (int64, error) {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range root.Lines {
		l.Encode(&e)
	}
	e.ArrEnd()

	var id int64
	err := r.pool.QueryRow(ctx, createOrderSQL,
		root.ContactName,
		root.ContactPhone,
		root.InvoiceName,
		root.InvoiceNIT,
		root.DeliveryAddress,
		geoPoint(root.Coordinates),
		root.RestaurantID,
		root.Total,
		nullIfZero(root.UserID),
		e.Bytes(),
		root.Observations,
		root.Channel,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating order: %w", err)
	}
	return id, nil
}

// geoPoint converts "lat,lng" into a GeoJSON point. It returns nil for
// unparseable coordinates.
func geoPoint(coords string) []byte {
	latStr, lngStr, ok := strings.Cut(coords, ",")
	if !ok {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return nil
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str("Point")
	e.FieldStart("coordinates")
	e.ArrStart()
	e.Float64(lng)
	e.Float64(lat)
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}
