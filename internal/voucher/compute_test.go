package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder(testSnapshot(t), DefaultLedgers())
}

func draftPurchase() *Voucher {
	v := New(KindPurchase, catalog.PolarityDebit)
	v.HeadCode = "EXP-RENT"
	v.Party = "Acme Inc"
	v.Country = "India"
	v.Product = "iCare Life"
	v.Segment = "Education"
	v.SupplyPoint = "MH"
	v.Entered = d("1000")
	v.ExpenseDetails = "Office rent"
	v.Date = time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)
	v.PeriodStart = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	v.PeriodEnd = time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	return v
}

func TestComputeSalesInclusive(t *testing.T) {
	b := testBuilder(t)

	v := New(KindSales, catalog.PolarityCredit)
	v.HeadCode = "REV-SUB"
	v.Party = "Beta School"
	v.SupplyPoint = "KL"
	v.Entered = d("118")

	require.NoError(t, b.Compute(v, ComputeInput{Rate: d("18")}))

	assert.Equal(t, StatusComputed, v.Status)
	assert.Equal(t, ModeTotal, v.Mode)
	require.Len(t, v.Lines, 4)
	assertLine(t, LedgerLine{Ledger: "Beta School", Side: SideDebit, Amount: d("118")}, v.Lines[0])
	assertLine(t, LedgerLine{Ledger: "Subscription Income", Side: SideCredit, Amount: d("100")}, v.Lines[1])
	assertLine(t, LedgerLine{Ledger: "Output CGST", Side: SideCredit, Amount: d("9")}, v.Lines[2])
	assertLine(t, LedgerLine{Ledger: "Output SGST", Side: SideCredit, Amount: d("9")}, v.Lines[3])
	assert.True(t, v.Balanced())
}

func TestComputePurchaseWithWithholding(t *testing.T) {
	b := testBuilder(t)

	v := draftPurchase()
	v.WithholdingCategory = "PROFESSIONAL"
	require.NoError(t, b.Compute(v, ComputeInput{Rate: d("18")}))

	assert.Equal(t, ModeBase, v.Mode)
	assert.True(t, v.Withholding.Equal(d("100")))
	require.Len(t, v.Lines, 4)
	assertLine(t, LedgerLine{Ledger: "Rent Expense", Side: SideDebit, Amount: d("1000")}, v.Lines[0])
	assertLine(t, LedgerLine{Ledger: "Input IGST", Side: SideDebit, Amount: d("180")}, v.Lines[1])
	assertLine(t, LedgerLine{Ledger: "TDS Payable - 194J", Side: SideCredit, Amount: d("100")}, v.Lines[2])
	assertLine(t, LedgerLine{Ledger: "Acme Inc", Side: SideCredit, Amount: d("1080")}, v.Lines[3])
	assert.True(t, v.Balanced())
	assert.Contains(t, v.Narration, "Office rent for the period 01-Apr-2026 to 30-Apr-2026")
}

func TestComputeForeignPurchaseBuildsReverseCharge(t *testing.T) {
	b := testBuilder(t)

	v := draftPurchase()
	v.SupplyPoint = "US"
	v.Country = "United States"
	v.WithholdingCategory = "PROFESSIONAL"
	require.NoError(t, b.Compute(v, ComputeInput{Rate: d("18")}))

	assert.True(t, v.ReverseCharge)
	require.Len(t, v.Lines, 5)
	assertLine(t, LedgerLine{Ledger: "Rent Expense", Side: SideDebit, Amount: d("1180")}, v.Lines[0])
	assertLine(t, LedgerLine{Ledger: "Acme Inc", Side: SideCredit, Amount: d("900")}, v.Lines[4])
	assert.True(t, v.Balanced())
	assert.NotEmpty(t, v.Narration)
}

func TestComputeJournalKeepsLinesVerbatim(t *testing.T) {
	b := testBuilder(t)

	v := New(KindJournal, catalog.PolarityDebit)
	v.Lines = []LedgerLine{
		{Ledger: "Rent Expense", Side: SideDebit, Amount: d("250")},
		{Ledger: "Cash", Side: SideCredit, Amount: d("250")},
	}
	require.NoError(t, b.Compute(v, ComputeInput{}))

	assert.Equal(t, StatusComputed, v.Status)
	require.Len(t, v.Lines, 2)
}

func TestComputeRunsOnce(t *testing.T) {
	b := testBuilder(t)

	v := draftPurchase()
	require.NoError(t, b.Compute(v, ComputeInput{Rate: d("18")}))
	assert.ErrorIs(t, b.Compute(v, ComputeInput{Rate: d("18")}), ErrNotDraft)
}

func TestComputeRejectsDebitWithoutExpenseDetails(t *testing.T) {
	b := testBuilder(t)

	v := draftPurchase()
	v.ExpenseDetails = ""
	assert.ErrorIs(t, b.Compute(v, ComputeInput{Rate: d("18")}), ErrMissingField)
}

func TestGenerateCode(t *testing.T) {
	date := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "DB-ICL-202604-0007", GenerateCode(catalog.PolarityDebit, "ICL", date, 7))
	assert.Equal(t, "CR-MSC-202612-0001", GenerateCode(catalog.PolarityCredit, "", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), 1))
}
