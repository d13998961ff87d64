package voucher

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

// Kind selects the voucher family a row classifies into.
type Kind string

const (
	KindSales    Kind = "SALES"
	KindPurchase Kind = "PURCHASE"
	KindPayroll  Kind = "PAYROLL"
	KindJournal  Kind = "JOURNAL"
)

// AmountMode tells how the entered amount relates to tax.
type AmountMode string

const (
	// ModeBase means the entered amount excludes tax; tax is added on top.
	ModeBase AmountMode = "BASE"
	// ModeTotal means the entered amount is tax-inclusive; base is extracted.
	ModeTotal AmountMode = "TOTAL"
)

// Status enumerates the voucher lifecycle.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusComputed Status = "COMPUTED"
	StatusValid    Status = "VALID"
	StatusInvalid  Status = "INVALID"
)

// Side marks a ledger line as debit or credit.
type Side string

const (
	SideDebit  Side = "Dr"
	SideCredit Side = "Cr"
)

// LedgerLine is one leg of the double entry.
type LedgerLine struct {
	Ledger string          `json:"ledger"`
	Side   Side            `json:"side"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxBreakup splits computed tax across the jurisdiction components.
// Exactly one of {central+state} or {interState} is non-zero.
type TaxBreakup struct {
	CentralTax    decimal.Decimal `json:"centralTax"`
	StateTax      decimal.Decimal `json:"stateTax"`
	InterStateTax decimal.Decimal `json:"interStateTax"`
}

// Total returns the combined tax amount.
func (t TaxBreakup) Total() decimal.Decimal {
	return t.CentralTax.Add(t.StateTax).Add(t.InterStateTax)
}

// Tolerance is the journal-balance rounding tolerance: one minor currency unit.
var Tolerance = decimal.New(1, -2)

// Voucher is a single accounting transaction candidate.
type Voucher struct {
	ID       uuid.UUID
	Code     string
	Kind     Kind
	Polarity catalog.Polarity
	HeadCode string

	Date        time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time

	Party       string
	Reference   string
	Country     string
	Product     string
	Franchise   string
	Segment     string
	SupplyPoint string

	Mode    AmountMode
	Entered decimal.Decimal
	Base    decimal.Decimal
	Gross   decimal.Decimal
	Tax     TaxBreakup

	WithholdingCategory string
	Withholding         decimal.Decimal

	ReverseCharge  bool
	ExpenseDetails string
	Narration      string

	Status  Status
	Reasons []Reason
	Lines   []LedgerLine
}

// New returns a draft voucher with a fresh identifier.
func New(kind Kind, polarity catalog.Polarity) *Voucher {
	return &Voucher{
		ID:       uuid.New(),
		Kind:     kind,
		Polarity: polarity,
		Status:   StatusDraft,
	}
}

// DebitTotal sums the debit legs.
func (v *Voucher) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Lines {
		if l.Side == SideDebit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// CreditTotal sums the credit legs.
func (v *Voucher) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range v.Lines {
		if l.Side == SideCredit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// Balanced reports whether debits equal credits within Tolerance.
func (v *Voucher) Balanced() bool {
	return v.DebitTotal().Sub(v.CreditTotal()).Abs().LessThanOrEqual(Tolerance)
}

// GenerateCode renders the voucher code from polarity, product prefix,
// voucher date and a per-batch sequence number.
func GenerateCode(p catalog.Polarity, productPrefix string, date time.Time, seq int) string {
	kind := "CR"
	if p == catalog.PolarityDebit {
		kind = "DB"
	}
	if productPrefix == "" {
		productPrefix = "MSC"
	}
	return fmt.Sprintf("%s-%s-%d%02d-%04d", kind, productPrefix, date.Year(), int(date.Month()), seq)
}
