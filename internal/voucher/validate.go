package voucher

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

// ErrNotComputed means validation was requested before computation.
var ErrNotComputed = errors.New("voucher: validate requires a computed voucher")

// Reason is a machine-readable validation failure code.
type Reason string

const (
	ReasonUnbalanced        Reason = "UNBALANCED_ENTRIES"
	ReasonUnknownHead       Reason = "UNKNOWN_ACCOUNTING_HEAD"
	ReasonPolarityMismatch  Reason = "HEAD_POLARITY_MISMATCH"
	ReasonFranchiseRequired Reason = "FRANCHISE_REQUIRED"
	ReasonUnknownSegment    Reason = "UNKNOWN_BUSINESS_SEGMENT"
	ReasonMissingNarration  Reason = "MISSING_NARRATION"
	ReasonInvalidPeriod     Reason = "INVALID_PERIOD"
	ReasonBackdateExceeded  Reason = "BACKDATE_WINDOW_EXCEEDED"
	ReasonAmountOutOfRange  Reason = "AMOUNT_OUT_OF_RANGE"
)

// Validator runs catalog-driven checks over computed vouchers and settles
// each one into VALID or INVALID.
type Validator struct {
	snap *catalog.Snapshot
	now  func() time.Time
}

// NewValidator returns a validator bound to the snapshot.
func NewValidator(snap *catalog.Snapshot) *Validator {
	return &Validator{snap: snap, now: time.Now}
}

// Validate settles the voucher's status. Checks run in a fixed order, so the
// reason list is deterministic. A journal voucher is judged on its entry
// balance alone; unbalanced journals short-circuit the remaining checks.
func (vd *Validator) Validate(v *Voucher) error {
	if v.Status != StatusComputed {
		return ErrNotComputed
	}
	v.Reasons = v.Reasons[:0]

	if v.Kind == KindJournal {
		if !v.Balanced() {
			v.Reasons = append(v.Reasons, ReasonUnbalanced)
		}
		vd.checkPeriod(v)
		vd.settle(v)
		return nil
	}

	head, ok := vd.snap.Head(v.HeadCode)
	switch {
	case !ok:
		v.Reasons = append(v.Reasons, ReasonUnknownHead)
	case head.Polarity != v.Polarity:
		v.Reasons = append(v.Reasons, ReasonPolarityMismatch)
	case head.NeedsFranchise && v.Franchise == "":
		v.Reasons = append(v.Reasons, ReasonFranchiseRequired)
	}

	if _, ok := vd.snap.Segment(v.Segment); !ok {
		v.Reasons = append(v.Reasons, ReasonUnknownSegment)
	}
	if v.Polarity == catalog.PolarityDebit && v.Narration == "" {
		v.Reasons = append(v.Reasons, ReasonMissingNarration)
	}
	if !v.Balanced() {
		v.Reasons = append(v.Reasons, ReasonUnbalanced)
	}
	vd.checkPeriod(v)
	vd.checkRules(v)
	vd.settle(v)
	return nil
}

// The reporting period must satisfy start <= end <= voucher date.
func (vd *Validator) checkPeriod(v *Voucher) {
	if v.PeriodStart.IsZero() || v.PeriodEnd.IsZero() {
		return
	}
	if v.PeriodEnd.Before(v.PeriodStart) {
		v.Reasons = append(v.Reasons, ReasonInvalidPeriod)
		return
	}
	if !v.Date.IsZero() && v.PeriodEnd.After(v.Date) {
		v.Reasons = append(v.Reasons, ReasonInvalidPeriod)
	}
}

func (vd *Validator) checkRules(v *Voucher) {
	rules := vd.snap.Rules
	if rules.MaxBackdateDays > 0 && !v.Date.IsZero() {
		limit := v.Date.AddDate(0, 0, rules.MaxBackdateDays)
		if limit.Before(vd.now()) {
			v.Reasons = append(v.Reasons, ReasonBackdateExceeded)
		}
	}
	if rules.MinAmount.IsPositive() && v.Gross.LessThan(rules.MinAmount) {
		v.Reasons = append(v.Reasons, ReasonAmountOutOfRange)
	}
	if rules.MaxAmount.IsPositive() && v.Gross.GreaterThan(rules.MaxAmount) {
		v.Reasons = append(v.Reasons, ReasonAmountOutOfRange)
	}
}

func (vd *Validator) settle(v *Voucher) {
	if len(v.Reasons) == 0 {
		v.Status = StatusValid
		return
	}
	v.Status = StatusInvalid
}

// BatchDifference returns the gross total of the batch's CREDIT vouchers
// minus the gross total of its DEBIT vouchers. A non-zero value is
// informational for the reviewer; it never blocks individual vouchers.
func BatchDifference(vouchers []*Voucher) decimal.Decimal {
	diff := decimal.Zero
	for _, v := range vouchers {
		if v.Polarity == catalog.PolarityCredit {
			diff = diff.Add(v.Gross)
		} else {
			diff = diff.Sub(v.Gross)
		}
	}
	return diff
}
