package pipeline

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/order-intake/internal/domain/cart"
	"github.com/xenking/order-intake/internal/domain/order"
)

// Request is an order creation request for one cart owner.
type Request struct {
	UserID    int64
	SessionID string

	Restaurant      string
	CustomerPhone   string
	CustomerName    string
	CustomerAddress string
	InvoiceNIT      string
	InvoiceName     string
	Observations    string
	Coordinates     string
	SaleChannel     string
	Channel         string
	// Cluster selects the discount cluster; empty uses the delivery quote.
	Cluster string
}

// Owner returns the cart owner addressed by the request.
func (r Request) Owner() cart.Owner {
	return cart.Owner{UserID: r.UserID, SessionID: r.SessionID}
}

// Validate checks required fields.
func (r Request) Validate() error {
	if r.Owner().IsZero() {
		return errors.Wrap(ErrInvalidRequest, "userId or sessionId required")
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"restaurante", r.Restaurant},
		{"cliente_telefono", r.CustomerPhone},
		{"cliente_nombre", r.CustomerName},
		{"cliente_direccion", r.CustomerAddress},
	} {
		if strings.TrimSpace(f.value) == "" {
			return errors.Wrapf(ErrInvalidRequest, "%s required", f.name)
		}
	}
	return nil
}

func (r Request) saleChannel() string {
	return orDefault(r.SaleChannel, order.DefaultChannel)
}

func (r Request) channel() string {
	return orDefault(r.Channel, order.DefaultChannel)
}

// rootChannel is the channel stored on the order root row.
func (r Request) rootChannel() string {
	return orDefault(r.Channel, r.saleChannel())
}

func (r Request) invoiceNIT() string {
	return orDefault(r.InvoiceNIT, order.DefaultInvoiceNIT)
}

func (r Request) invoiceName() string {
	return orDefault(r.InvoiceName, order.DefaultInvoiceName)
}

func (r Request) coordinates() string {
	return orDefault(r.Coordinates, order.DefaultCoordinates)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
