package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-intake/internal/domain/catalog"
)

const (
	productByCodeSQL = `SELECT "productId", plu, name, "coreName", price, type
		FROM product WHERE "productId" = $1`

	subItemsByIDsSQL = `SELECT id, plu, price, core_description, core_group
		FROM items WHERE id = ANY($1)`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ProductByCode returns the product with the given catalog identifier.
func (r *CatalogRepository) ProductByCode(ctx context.Context, code int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, productByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", code, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", code, err)
	}
	return &p, nil
}

// SubItemsByIDs returns the sub-items matching ids. Ids that are not valid
// UUIDs cannot exist and are ignored. Returned ids are spelled as requested.
func (r *CatalogRepository) SubItemsByIDs(ctx context.Context, ids []string) ([]catalog.SubItem, error) {
	requested := make(map[uuid.UUID]string, len(ids))
	keys := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if _, ok := requested[u]; !ok {
			keys = append(keys, u)
		}
		requested[u] = id
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, subItemsByIDsSQL, keys)
	if err != nil {
		return nil, fmt.Errorf("getting sub-items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.SubItem, error) {
		var (
			it          catalog.SubItem
			id          uuid.UUID
			price       decimal.NullDecimal
			description *string
			group       *string
		)
		err := row.Scan(&id, &it.PLU, &price, &description, &group)
		it.ID = requested[id]
		it.Price = price.Decimal
		it.CoreDescription = deref(description)
		it.CoreGroup = deref(group)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting sub-items: %w", err)
	}
	return items, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p        catalog.Product
		name     *string
		coreName *string
		price    decimal.NullDecimal
		kind     *string
	)
	err := row.Scan(&p.Code, &p.PLU, &name, &coreName, &price, &kind)
	p.Name = deref(name)
	p.CoreName = deref(coreName)
	p.Price = price.Decimal
	p.Kind = catalog.ParseKind(deref(kind))
	return p, err
}
