package voucher

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

// ErrNotDraft means computation was requested on an already computed voucher.
var ErrNotDraft = errors.New("voucher: compute requires a draft voucher")

// Ledgers names the standing tax and clearing ledgers used when assembling
// double entries. Zero value is not usable; start from DefaultLedgers.
type Ledgers struct {
	InputCentral  string
	InputState    string
	InputInter    string
	OutputCentral string
	OutputState   string
	OutputInter   string
}

// DefaultLedgers returns the conventional Tally ledger names.
func DefaultLedgers() Ledgers {
	return Ledgers{
		InputCentral:  "Input CGST",
		InputState:    "Input SGST",
		InputInter:    "Input IGST",
		OutputCentral: "Output CGST",
		OutputState:   "Output SGST",
		OutputInter:   "Output IGST",
	}
}

// Builder computes amounts, narration and ledger lines for draft vouchers.
type Builder struct {
	snap    *catalog.Snapshot
	calc    *Calculator
	rcm     *ReverseChargeEngine
	ledgers Ledgers
}

// NewBuilder returns a builder over the snapshot using the given ledger names.
func NewBuilder(snap *catalog.Snapshot, ledgers Ledgers) *Builder {
	return &Builder{
		snap:    snap,
		calc:    NewCalculator(snap),
		rcm:     NewReverseChargeEngine(snap),
		ledgers: ledgers,
	}
}

// ComputeInput carries the variable figures for one computation.
type ComputeInput struct {
	Rate              decimal.Decimal
	WithholdingLedger string
}

// Compute fills the voucher's base, gross, tax breakup, withholding,
// narration and ledger lines, then advances it to COMPUTED. It runs exactly
// once per voucher.
func (b *Builder) Compute(v *Voucher, in ComputeInput) error {
	if v.Status != StatusDraft {
		return ErrNotDraft
	}
	if v.Kind == KindJournal {
		// Journal vouchers carry their lines verbatim from the source rows;
		// the debit total stands in as the gross figure.
		v.Gross = v.DebitTotal()
		v.Status = StatusComputed
		return nil
	}

	mode := ModeTotal
	if v.Polarity == catalog.PolarityDebit {
		mode = ModeBase
	}
	v.Mode = mode

	res, err := b.calc.Compute(v.Entered, mode, v.SupplyPoint, in.Rate)
	if err != nil {
		return err
	}

	if res.ReverseCharge {
		return b.computeReverseCharge(v, in)
	}

	v.Base = res.Base
	v.Gross = res.Gross
	v.Tax = res.Breakup

	if v.Polarity == catalog.PolarityDebit {
		wh, err := b.calc.Withholding(v.Base, v.WithholdingCategory)
		if err != nil {
			return err
		}
		v.Withholding = wh
		if err := b.buildNarration(v); err != nil {
			return err
		}
	}

	if err := b.assembleLines(v, in.WithholdingLedger); err != nil {
		return err
	}
	v.Status = StatusComputed
	return nil
}

func (b *Builder) computeReverseCharge(v *Voucher, in ComputeInput) error {
	head, ok := b.snap.Head(v.HeadCode)
	if !ok {
		return fmt.Errorf("voucher: unknown accounting head %q", v.HeadCode)
	}
	out, err := b.rcm.Build(ReverseChargeInput{
		ExpenseLedger:       head.Label,
		PartyLedger:         v.Party,
		WithholdingLedger:   b.withholdingLedger(v.WithholdingCategory, in.WithholdingLedger),
		Base:                v.Entered,
		Rate:                in.Rate,
		WithholdingCategory: v.WithholdingCategory,
		PointCode:           v.SupplyPoint,
	})
	if err != nil {
		return err
	}
	v.ReverseCharge = true
	v.Base = out.Base
	v.Gross = out.Gross
	v.Tax = out.Breakup
	v.Withholding = out.Withholding
	v.Lines = out.Lines
	if err := b.buildNarration(v); err != nil {
		return err
	}
	v.Status = StatusComputed
	return nil
}

func (b *Builder) buildNarration(v *Voucher) error {
	n, err := BuildNarration(NarrationInput{
		ExpenseDetails: v.ExpenseDetails,
		PeriodStart:    v.PeriodStart,
		PeriodEnd:      v.PeriodEnd,
		Vendor:         v.Party,
		Product:        v.Product,
		Segment:        v.Segment,
		Country:        v.Country,
	})
	if err != nil {
		return err
	}
	v.Narration = n
	return nil
}

// withholdingLedger resolves the ledger the withheld amount posts to: an
// explicit override wins, otherwise the catalog's rate name for the category.
func (b *Builder) withholdingLedger(category, override string) string {
	if override != "" {
		return override
	}
	if w, ok := b.snap.Withholding(category); ok {
		return w.Name
	}
	return category
}

func (b *Builder) assembleLines(v *Voucher, withholdingLedger string) error {
	head, ok := b.snap.Head(v.HeadCode)
	if !ok {
		return fmt.Errorf("voucher: unknown accounting head %q", v.HeadCode)
	}
	split := v.Tax.InterStateTax.IsZero()

	switch v.Kind {
	case KindSales:
		v.Lines = append(v.Lines, LedgerLine{Ledger: v.Party, Side: SideDebit, Amount: v.Gross})
		v.Lines = append(v.Lines, LedgerLine{Ledger: head.Label, Side: SideCredit, Amount: v.Base})
		if v.Tax.Total().IsPositive() {
			if split {
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.OutputCentral, Side: SideCredit, Amount: v.Tax.CentralTax})
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.OutputState, Side: SideCredit, Amount: v.Tax.StateTax})
			} else {
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.OutputInter, Side: SideCredit, Amount: v.Tax.InterStateTax})
			}
		}
	case KindPurchase, KindPayroll:
		v.Lines = append(v.Lines, LedgerLine{Ledger: head.Label, Side: SideDebit, Amount: v.Base})
		if v.Tax.Total().IsPositive() {
			if split {
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.InputCentral, Side: SideDebit, Amount: v.Tax.CentralTax})
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.InputState, Side: SideDebit, Amount: v.Tax.StateTax})
			} else {
				v.Lines = append(v.Lines, LedgerLine{Ledger: b.ledgers.InputInter, Side: SideDebit, Amount: v.Tax.InterStateTax})
			}
		}
		if v.Withholding.IsPositive() {
			v.Lines = append(v.Lines, LedgerLine{
				Ledger: b.withholdingLedger(v.WithholdingCategory, withholdingLedger),
				Side:   SideCredit,
				Amount: v.Withholding,
			})
		}
		v.Lines = append(v.Lines, LedgerLine{
			Ledger: v.Party,
			Side:   SideCredit,
			Amount: v.Gross.Sub(v.Withholding),
		})
	default:
		return fmt.Errorf("voucher: cannot assemble lines for kind %q", v.Kind)
	}
	return nil
}
