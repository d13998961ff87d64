package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Polarity tells whether an accounting head records income or expense.
type Polarity string

const (
	PolarityCredit Polarity = "CREDIT"
	PolarityDebit  Polarity = "DEBIT"
)

// Valid reports whether the polarity is one of the two known values.
func (p Polarity) Valid() bool {
	return p == PolarityCredit || p == PolarityDebit
}

// AccountingHead is a chart-of-accounts entry vouchers post against.
type AccountingHead struct {
	Code           string   `json:"value"`
	Label          string   `json:"label"`
	Polarity       Polarity `json:"polarity"`
	NeedsFranchise bool     `json:"needsFranchise"`
	Active         bool     `json:"active"`
}

// Entry is a generic master-list option (country, product, franchise, segment).
type Entry struct {
	Code   string `json:"value"`
	Label  string `json:"label"`
	Prefix string `json:"prefix,omitempty"`
	Active bool   `json:"active"`
}

// SupplyPoint is a point-of-supply jurisdiction.
type SupplyPoint struct {
	Code               string `json:"value"`
	Label              string `json:"label"`
	IsHomeJurisdiction bool   `json:"isHomeJurisdiction"`
	IsForeign          bool   `json:"isForeign"`
	Active             bool   `json:"active"`
}

// WithholdingRate is one row of the withholding-rate table.
type WithholdingRate struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// Rules carries entry-window validation limits.
type Rules struct {
	MaxBackdateDays int             `json:"maxBackdateDays"`
	MinAmount       decimal.Decimal `json:"minAmount"`
	MaxAmount       decimal.Decimal `json:"maxAmount"`
}

// Snapshot is an immutable configuration catalog consumed per computation.
// It is loaded once and safe for concurrent reads.
type Snapshot struct {
	Version          string
	HomeJurisdiction string
	Heads            []AccountingHead
	Countries        []Entry
	Products         []Entry
	Franchises       []Entry
	Segments         []Entry
	SupplyPoints     []SupplyPoint
	TaxRates         []decimal.Decimal
	DefaultTaxRate   decimal.Decimal
	WithholdingRates map[string]WithholdingRate
	Rules            Rules

	headsByCode   map[string]AccountingHead
	pointsByCode  map[string]SupplyPoint
	segmentsByKey map[string]Entry
	entriesByCode map[string]map[string]Entry
}

func (s *Snapshot) index() {
	s.headsByCode = make(map[string]AccountingHead, len(s.Heads))
	for _, h := range s.Heads {
		s.headsByCode[h.Code] = h
	}
	s.pointsByCode = make(map[string]SupplyPoint, len(s.SupplyPoints))
	for _, p := range s.SupplyPoints {
		s.pointsByCode[p.Code] = p
	}
	s.segmentsByKey = make(map[string]Entry, len(s.Segments)*2)
	for _, seg := range s.Segments {
		if !seg.Active {
			continue
		}
		s.segmentsByKey[strings.ToUpper(seg.Code)] = seg
		s.segmentsByKey[strings.ToUpper(seg.Label)] = seg
	}
	s.entriesByCode = map[string]map[string]Entry{
		"countries":  indexEntries(s.Countries),
		"products":   indexEntries(s.Products),
		"franchises": indexEntries(s.Franchises),
	}
}

func indexEntries(list []Entry) map[string]Entry {
	m := make(map[string]Entry, len(list))
	for _, e := range list {
		m[e.Code] = e
	}
	return m
}

// Head resolves an accounting head by code.
func (s *Snapshot) Head(code string) (AccountingHead, bool) {
	h, ok := s.headsByCode[code]
	return h, ok && h.Active
}

// HeadsFor lists active heads of the given polarity.
func (s *Snapshot) HeadsFor(p Polarity) []AccountingHead {
	out := make([]AccountingHead, 0, len(s.Heads))
	for _, h := range s.Heads {
		if h.Active && h.Polarity == p {
			out = append(out, h)
		}
	}
	return out
}

// Point resolves a point of supply by code.
func (s *Snapshot) Point(code string) (SupplyPoint, bool) {
	p, ok := s.pointsByCode[code]
	return p, ok && p.Active
}

// Segment resolves a business segment by code or label, case-insensitively.
func (s *Snapshot) Segment(value string) (Entry, bool) {
	seg, ok := s.segmentsByKey[strings.ToUpper(strings.TrimSpace(value))]
	return seg, ok
}

// Country resolves a country by code.
func (s *Snapshot) Country(code string) (Entry, bool) {
	e, ok := s.entriesByCode["countries"][code]
	return e, ok && e.Active
}

// Product resolves a product by code.
func (s *Snapshot) Product(code string) (Entry, bool) {
	e, ok := s.entriesByCode["products"][code]
	return e, ok && e.Active
}

// Franchise resolves a franchise by code.
func (s *Snapshot) Franchise(code string) (Entry, bool) {
	e, ok := s.entriesByCode["franchises"][code]
	return e, ok && e.Active
}

// AllowsRate reports whether the rate belongs to the configured rate set.
func (s *Snapshot) AllowsRate(rate decimal.Decimal) bool {
	for _, r := range s.TaxRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// Withholding resolves a withholding category by code.
func (s *Snapshot) Withholding(category string) (WithholdingRate, bool) {
	w, ok := s.WithholdingRates[category]
	return w, ok
}

// Authorizer gates catalog mutation. The policy behind it (time windows,
// passwords) is owned by an external collaborator; the core only ever reads
// snapshots.
type Authorizer interface {
	CanEdit(entity string) bool
}
