package voucher

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

var (
	// ErrInvalidRate means the requested rate is not in the catalog's allowed set.
	ErrInvalidRate = errors.New("voucher: tax rate not permitted by catalog")
	// ErrInvalidJurisdiction means the point of supply code is unknown.
	ErrInvalidJurisdiction = errors.New("voucher: unknown point of supply")
	// ErrUnknownWithholdingCategory means no withholding rate exists for the category.
	ErrUnknownWithholdingCategory = errors.New("voucher: unknown withholding category")
	// ErrNonPositiveAmount means the entered amount is zero or negative.
	ErrNonPositiveAmount = errors.New("voucher: amount must be positive")
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// TaxResult carries the outcome of a tax split.
type TaxResult struct {
	Base          decimal.Decimal
	Gross         decimal.Decimal
	Breakup       TaxBreakup
	ReverseCharge bool
}

// Calculator splits amounts into base, tax components and gross, driven by
// the jurisdiction rules of a catalog snapshot.
type Calculator struct {
	snap *catalog.Snapshot
}

// NewCalculator returns a calculator bound to the snapshot.
func NewCalculator(snap *catalog.Snapshot) *Calculator {
	return &Calculator{snap: snap}
}

// Compute splits amount at the given rate for the supply point.
//
// In ModeBase the amount is tax-exclusive and tax is added on top. In
// ModeTotal the amount is tax-inclusive and the base is extracted. A supply
// point in the home jurisdiction splits tax evenly between the central and
// state components; any other domestic point carries the full amount as the
// inter-state component. A foreign point marks the result as reverse-charge
// liable (in ModeBase) and keeps the even split, since the liability is
// self-assessed domestically.
func (c *Calculator) Compute(amount decimal.Decimal, mode AmountMode, pointCode string, rate decimal.Decimal) (TaxResult, error) {
	if !amount.IsPositive() {
		return TaxResult{}, ErrNonPositiveAmount
	}
	point, ok := c.snap.Point(pointCode)
	if !ok {
		return TaxResult{}, fmt.Errorf("%w: %q", ErrInvalidJurisdiction, pointCode)
	}
	if rate.IsZero() {
		// Tax not applicable: base and gross coincide.
		return TaxResult{Base: amount, Gross: amount}, nil
	}
	if !c.snap.AllowsRate(rate) {
		return TaxResult{}, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
	}

	split := point.IsHomeJurisdiction || point.IsForeign
	res := TaxResult{ReverseCharge: point.IsForeign && mode == ModeBase}

	switch mode {
	case ModeBase:
		res.Base = amount.Round(2)
		if split {
			half := amount.Mul(rate).Div(hundred.Mul(decimal.NewFromInt(2))).Round(2)
			res.Breakup.CentralTax = half
			res.Breakup.StateTax = half
		} else {
			res.Breakup.InterStateTax = amount.Mul(rate).Div(hundred).Round(2)
		}
		res.Gross = res.Base.Add(res.Breakup.Total())
	case ModeTotal:
		res.Gross = amount.Round(2)
		rawBase := amount.Div(one.Add(rate.Div(hundred)))
		tax := amount.Sub(rawBase.Round(2))
		if split {
			half := tax.Div(decimal.NewFromInt(2)).Round(2)
			res.Breakup.CentralTax = half
			res.Breakup.StateTax = half
		} else {
			res.Breakup.InterStateTax = tax.Round(2)
		}
		// Recompute the base so base + tax reproduces the entered total exactly.
		res.Base = res.Gross.Sub(res.Breakup.Total())
	default:
		return TaxResult{}, fmt.Errorf("voucher: unknown amount mode %q", mode)
	}
	return res, nil
}

// Withholding returns the amount to withhold on base for the named category.
// An empty category means no withholding applies.
func (c *Calculator) Withholding(base decimal.Decimal, category string) (decimal.Decimal, error) {
	if category == "" {
		return decimal.Zero, nil
	}
	w, ok := c.snap.Withholding(category)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownWithholdingCategory, category)
	}
	return base.Mul(w.Rate).Div(hundred).Round(2), nil
}
