package voucher

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingField means a narration source field was empty.
var ErrMissingField = errors.New("voucher: narration source field missing")

const narrationDateLayout = "02-Jan-2006"

// NarrationInput holds the source fields of the debit narration template.
type NarrationInput struct {
	ExpenseDetails string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Vendor         string
	Product        string
	Segment        string
	Country        string
}

// BuildNarration renders the fixed debit narration. Every source field must
// be present.
func BuildNarration(in NarrationInput) (string, error) {
	for _, f := range []struct {
		name, value string
	}{
		{"expense details", in.ExpenseDetails},
		{"vendor", in.Vendor},
		{"product", in.Product},
		{"business segment", in.Segment},
		{"country", in.Country},
	} {
		if f.value == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return "", fmt.Errorf("%w: period", ErrMissingField)
	}
	return fmt.Sprintf("%s for the period %s to %s purchased from %s for product %s under Business Segment %s, %s",
		in.ExpenseDetails,
		in.PeriodStart.Format(narrationDateLayout),
		in.PeriodEnd.Format(narrationDateLayout),
		in.Vendor,
		in.Product,
		in.Segment,
		in.Country,
	), nil
}
