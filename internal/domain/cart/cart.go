// Package cart models stored shopping cart rows and the product payloads they
// carry.
package cart

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultSource is the provenance tag used when a cart row carries none.
const DefaultSource = "menu"

// Owner identifies whose cart is read: a registered user or an anonymous
// session. UserID takes precedence when both are set.
type Owner struct {
	UserID    int64
	SessionID string
}

// IsZero reports whether neither identity is set.
func (o Owner) IsZero() bool {
	return o.UserID == 0 && o.SessionID == ""
}

func (o Owner) String() string {
	if o.UserID != 0 {
		return "user:" + strconv.FormatInt(o.UserID, 10)
	}
	return "session:" + o.SessionID
}

// Entry is one stored cart row. Product holds the raw JSON payload, which is
// either a single product reference or an array of them.
type Entry struct {
	ID      string
	Owner   Owner
	Source  string
	Product []byte
}

// SourceOrDefault returns the provenance tag of the entry.
func (e Entry) SourceOrDefault() string {
	if e.Source == "" {
		return DefaultSource
	}
	return e.Source
}

// Products decodes the entry payload into product references. A single object
// yields one reference; an array yields one per element in order. Null array
// elements are returned as zero references so callers can skip them.
func (e Entry) Products() ([]ProductRef, error) {
	refs, err := decodePayload(e.Product)
	if err != nil {
		return nil, &PayloadError{EntryID: e.ID, Err: err}
	}
	return refs, nil
}

// ProductRef is a product reference inside a cart payload.
type ProductRef struct {
	OldID    string
	Quantity string
	Name     string
	Sections []Section
	// Items is a flat selection list sent by some cart flows instead of
	// sections.
	Items []Selection
}

// Code returns the numeric catalog identifier. Fractional identifiers are
// truncated. ok is false when the identifier is missing or not numeric.
func (p ProductRef) Code() (code int64, ok bool) {
	s := strings.TrimSpace(p.OldID)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return v, true
	}
	// Numeric identifiers occasionally arrive as "12.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// Qty returns the requested quantity, defaulting to 1.
func (p ProductRef) Qty() int {
	return parseQty(p.Quantity)
}

// HasSections reports whether any section selections are present.
func (p ProductRef) HasSections() bool {
	return len(p.Sections) > 0
}

// BlendSections returns the sections used to build blend components: the
// explicit sections when present, else the flat item list as one implicit
// section.
func (p ProductRef) BlendSections() []Section {
	if len(p.Sections) > 0 {
		return p.Sections
	}
	if len(p.Items) > 0 {
		return []Section{{ID: "default", Items: p.Items}}
	}
	return nil
}

// Section is one group of selected sub-items.
type Section struct {
	ID    string
	Items []Selection
}

// Selection is a sub-item chosen inside a section.
type Selection struct {
	ID       string
	Quantity string
	// Role is the optional type tag (SDW, FRI, BEB, OTR, POS) used to map the
	// selection to a discount slot.
	Role string
}

// Qty returns the selected quantity, defaulting to 1.
func (s Selection) Qty() int {
	return parseQty(s.Quantity)
}

// NormalizedRole returns the upper-cased role tag.
func (s Selection) NormalizedRole() string {
	return strings.ToUpper(strings.TrimSpace(s.Role))
}

// SelectionIDs collects every selected sub-item id across sections in order.
func SelectionIDs(sections []Section) []string {
	var ids []string
	for _, sec := range sections {
		for _, it := range sec.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// maxQty bounds quantities read from fractional or exponent notation.
const maxQty = math.MaxInt32

func parseQty(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.Abs(f) > maxQty {
			return 1
		}
		return int(f)
	}
	return v
}

// PayloadError indicates a cart row whose product payload could not be
// decoded.
type PayloadError struct {
	EntryID string
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("cart entry %s: malformed product payload: %v", e.EntryID, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Repository reads stored carts.
type Repository interface {
	// FetchCart returns the owner's cart rows in stored order. An empty
	// result is valid.
	FetchCart(ctx context.Context, owner Owner) ([]Entry, error)
}
