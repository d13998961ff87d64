package voucher

import (
	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

// Ledger names for the self-assessed reverse-charge output legs.
const (
	RCMCentralLedger = "Output CGST (RCM)"
	RCMStateLedger   = "Output SGST (RCM)"
)

// ReverseChargeInput describes an imported service purchase whose tax the
// recipient self-assesses.
type ReverseChargeInput struct {
	ExpenseLedger       string
	PartyLedger         string
	WithholdingLedger   string
	Base                decimal.Decimal
	Rate                decimal.Decimal
	WithholdingCategory string
	PointCode           string
}

// ReverseChargeResult is the balanced entry set plus the figures that fed it.
type ReverseChargeResult struct {
	Base        decimal.Decimal
	Gross       decimal.Decimal
	Breakup     TaxBreakup
	Withholding decimal.Decimal
	Lines       []LedgerLine
}

// ReverseChargeEngine builds balanced double entries for import purchases.
type ReverseChargeEngine struct {
	calc *Calculator
}

// NewReverseChargeEngine returns an engine sharing the calculator's catalog.
func NewReverseChargeEngine(snap *catalog.Snapshot) *ReverseChargeEngine {
	return &ReverseChargeEngine{calc: NewCalculator(snap)}
}

// Build produces the ordered entry set:
//
//	Dr expense            gross
//	Cr central tax output half
//	Cr state tax output   half
//	Cr withholding        amount (when a category applies)
//	Cr party payable      base minus withholding
//
// Credits sum to gross, so the set always balances.
func (e *ReverseChargeEngine) Build(in ReverseChargeInput) (ReverseChargeResult, error) {
	res, err := e.calc.Compute(in.Base, ModeBase, in.PointCode, in.Rate)
	if err != nil {
		return ReverseChargeResult{}, err
	}
	wh, err := e.calc.Withholding(res.Base, in.WithholdingCategory)
	if err != nil {
		return ReverseChargeResult{}, err
	}

	out := ReverseChargeResult{
		Base:        res.Base,
		Gross:       res.Gross,
		Breakup:     res.Breakup,
		Withholding: wh,
	}
	out.Lines = append(out.Lines, LedgerLine{Ledger: in.ExpenseLedger, Side: SideDebit, Amount: res.Gross})
	out.Lines = append(out.Lines, LedgerLine{Ledger: RCMCentralLedger, Side: SideCredit, Amount: res.Breakup.CentralTax})
	out.Lines = append(out.Lines, LedgerLine{Ledger: RCMStateLedger, Side: SideCredit, Amount: res.Breakup.StateTax})
	if wh.IsPositive() {
		out.Lines = append(out.Lines, LedgerLine{Ledger: in.WithholdingLedger, Side: SideCredit, Amount: wh})
	}
	out.Lines = append(out.Lines, LedgerLine{Ledger: in.PartyLedger, Side: SideCredit, Amount: res.Base.Sub(wh)})
	return out, nil
}

// Preview returns a copy of the entry set for display before posting.
func (r ReverseChargeResult) Preview() []LedgerLine {
	preview := make([]LedgerLine, len(r.Lines))
	copy(preview, r.Lines)
	return preview
}
