package discount

import (
	"context"

	"github.com/go-faster/errors"
)

// Resolver obtains candidate quotes and selects one by cluster priority.
type Resolver struct {
	pricer Pricer
}

// NewResolver creates a Resolver backed by pricer.
func NewResolver(pricer Pricer) *Resolver {
	return &Resolver{pricer: pricer}
}

// Resolve queries the pricer once for slots and applies Select. It returns
// nil without querying when every slot is absent, and nil when no candidate
// matches; callers then fall back to catalog prices. Query errors are
// returned to the caller.
func (r *Resolver) Resolve(ctx context.Context, slots Slots, cluster string) (*Quote, error) {
	if slots.Empty() {
		return nil, nil
	}
	quotes, err := r.pricer.QuoteDiscount(ctx, slots)
	if err != nil {
		return nil, errors.Wrap(err, "quote discount")
	}
	return Select(quotes, cluster), nil
}

// Select picks the quote labelled "CLUSTER"+cluster when a cluster is given,
// then the one labelled "DELIVERY". First match wins.
func Select(quotes []Quote, cluster string) *Quote {
	if cluster != "" {
		if q := find(quotes, ClusterPrefix+cluster); q != nil {
			return q
		}
	}
	return find(quotes, ClusterDelivery)
}

func find(quotes []Quote, label string) *Quote {
	for i := range quotes {
		if quotes[i].Cluster == label {
			q := quotes[i]
			return &q
		}
	}
	return nil
}
