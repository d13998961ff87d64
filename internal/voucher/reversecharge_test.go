package voucher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseChargeBalancedEntrySet(t *testing.T) {
	eng := NewReverseChargeEngine(testSnapshot(t))

	out, err := eng.Build(ReverseChargeInput{
		ExpenseLedger:       "Consulting Charges",
		PartyLedger:         "Acme Inc",
		WithholdingLedger:   "TDS Payable - 194J",
		Base:                d("1000"),
		Rate:                d("18"),
		WithholdingCategory: "PROFESSIONAL",
		PointCode:           "US",
	})
	require.NoError(t, err)

	require.Len(t, out.Lines, 5)
	assertLine(t, LedgerLine{Ledger: "Consulting Charges", Side: SideDebit, Amount: d("1180")}, out.Lines[0])
	assertLine(t, LedgerLine{Ledger: RCMCentralLedger, Side: SideCredit, Amount: d("90")}, out.Lines[1])
	assertLine(t, LedgerLine{Ledger: RCMStateLedger, Side: SideCredit, Amount: d("90")}, out.Lines[2])
	assertLine(t, LedgerLine{Ledger: "TDS Payable - 194J", Side: SideCredit, Amount: d("100")}, out.Lines[3])
	assertLine(t, LedgerLine{Ledger: "Acme Inc", Side: SideCredit, Amount: d("900")}, out.Lines[4])

	credits := out.Lines[1].Amount.Add(out.Lines[2].Amount).Add(out.Lines[3].Amount).Add(out.Lines[4].Amount)
	assert.True(t, credits.Equal(out.Lines[0].Amount), "credits %s != debit %s", credits, out.Lines[0].Amount)
}

func TestReverseChargeWithoutWithholding(t *testing.T) {
	eng := NewReverseChargeEngine(testSnapshot(t))

	out, err := eng.Build(ReverseChargeInput{
		ExpenseLedger: "Rent Expense",
		PartyLedger:   "Overseas Landlord",
		Base:          d("1000"),
		Rate:          d("18"),
		PointCode:     "US",
	})
	require.NoError(t, err)

	require.Len(t, out.Lines, 4)
	assertLine(t, LedgerLine{Ledger: "Overseas Landlord", Side: SideCredit, Amount: d("1000")}, out.Lines[3])
	assert.True(t, out.Withholding.IsZero())
}

func TestReverseChargePreviewIsACopy(t *testing.T) {
	eng := NewReverseChargeEngine(testSnapshot(t))

	out, err := eng.Build(ReverseChargeInput{
		ExpenseLedger: "Rent Expense",
		PartyLedger:   "Overseas Landlord",
		Base:          d("500"),
		Rate:          d("18"),
		PointCode:     "US",
	})
	require.NoError(t, err)

	preview := out.Preview()
	require.Equal(t, out.Lines, preview)
	preview[0].Ledger = "mutated"
	assert.Equal(t, "Rent Expense", out.Lines[0].Ledger)
}

func TestReverseChargePropagatesRateError(t *testing.T) {
	eng := NewReverseChargeEngine(testSnapshot(t))

	_, err := eng.Build(ReverseChargeInput{
		ExpenseLedger: "Rent Expense",
		PartyLedger:   "Overseas Landlord",
		Base:          d("500"),
		Rate:          d("7"),
		PointCode:     "US",
	})
	assert.ErrorIs(t, err, ErrInvalidRate)
}
