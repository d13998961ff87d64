package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// ErrInvalidDocument indicates the catalog document failed structural checks.
var ErrInvalidDocument = errors.New("catalog: invalid document")

type headDoc struct {
	Code           string   `json:"value"`
	Label          string   `json:"label"`
	Polarity       Polarity `json:"polarity"`
	NeedsFranchise bool     `json:"needsFranchise"`
	Active         *bool    `json:"active"`
}

type entryDoc struct {
	Code   string `json:"value"`
	Label  string `json:"label"`
	Prefix string `json:"prefix"`
	Active *bool  `json:"active"`
}

type pointDoc struct {
	Code               string `json:"value"`
	Label              string `json:"label"`
	IsHomeJurisdiction bool   `json:"isHomeJurisdiction"`
	IsForeign          bool   `json:"isForeign"`
	Active             *bool  `json:"active"`
}

type document struct {
	Version          string                     `json:"version"`
	HomeJurisdiction string                     `json:"homeJurisdiction"`
	Heads            []headDoc                  `json:"accountingHeads"`
	Countries        []entryDoc                 `json:"countries"`
	Products         []entryDoc                 `json:"products"`
	Franchises       []entryDoc                 `json:"franchises"`
	Segments         []entryDoc                 `json:"businessSegments"`
	SupplyPoints     []pointDoc                 `json:"pointsOfSupply"`
	TaxRates         []decimal.Decimal          `json:"taxRates"`
	DefaultTaxRate   decimal.Decimal            `json:"defaultTaxRate"`
	WithholdingRates map[string]WithholdingRate `json:"withholdingRates"`
	Rules            Rules                      `json:"validation"`
}

func activeOrDefault(flag *bool) bool {
	return flag == nil || *flag
}

// Load reads and parses a catalog document from disk.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Snapshot from a raw catalog document.
func Parse(raw []byte) (*Snapshot, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	snap := &Snapshot{
		Version:          doc.Version,
		HomeJurisdiction: doc.HomeJurisdiction,
		TaxRates:         doc.TaxRates,
		DefaultTaxRate:   doc.DefaultTaxRate,
		WithholdingRates: doc.WithholdingRates,
		Rules:            doc.Rules,
	}
	if snap.WithholdingRates == nil {
		snap.WithholdingRates = map[string]WithholdingRate{}
	}

	seen := map[string]struct{}{}
	for _, h := range doc.Heads {
		if h.Code == "" {
			return nil, fmt.Errorf("%w: accounting head with empty code", ErrInvalidDocument)
		}
		if !h.Polarity.Valid() {
			return nil, fmt.Errorf("%w: head %s has polarity %q", ErrInvalidDocument, h.Code, h.Polarity)
		}
		if _, dup := seen[h.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate head code %s", ErrInvalidDocument, h.Code)
		}
		seen[h.Code] = struct{}{}
		snap.Heads = append(snap.Heads, AccountingHead{
			Code:           h.Code,
			Label:          h.Label,
			Polarity:       h.Polarity,
			NeedsFranchise: h.NeedsFranchise,
			Active:         activeOrDefault(h.Active),
		})
	}

	snap.Countries = convertEntries(doc.Countries)
	snap.Products = convertEntries(doc.Products)
	snap.Franchises = convertEntries(doc.Franchises)
	snap.Segments = convertEntries(doc.Segments)

	homes := 0
	for _, p := range doc.SupplyPoints {
		if p.Code == "" {
			return nil, fmt.Errorf("%w: point of supply with empty code", ErrInvalidDocument)
		}
		sp := SupplyPoint{
			Code:               p.Code,
			Label:              p.Label,
			IsHomeJurisdiction: p.IsHomeJurisdiction,
			IsForeign:          p.IsForeign,
			Active:             activeOrDefault(p.Active),
		}
		if sp.IsHomeJurisdiction && sp.IsForeign {
			return nil, fmt.Errorf("%w: point %s is both home and foreign", ErrInvalidDocument, sp.Code)
		}
		if sp.Active && sp.IsHomeJurisdiction {
			homes++
		}
		snap.SupplyPoints = append(snap.SupplyPoints, sp)
	}
	if homes > 1 {
		return nil, fmt.Errorf("%w: more than one home jurisdiction", ErrInvalidDocument)
	}
	if len(snap.TaxRates) == 0 {
		return nil, fmt.Errorf("%w: empty tax-rate set", ErrInvalidDocument)
	}
	if !snap.DefaultTaxRate.IsZero() {
		found := false
		for _, r := range snap.TaxRates {
			if r.Equal(snap.DefaultTaxRate) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: default rate %s not in rate set", ErrInvalidDocument, snap.DefaultTaxRate)
		}
	}

	snap.index()
	return snap, nil
}

func convertEntries(docs []entryDoc) []Entry {
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, Entry{
			Code:   d.Code,
			Label:  d.Label,
			Prefix: d.Prefix,
			Active: activeOrDefault(d.Active),
		})
	}
	return out
}
