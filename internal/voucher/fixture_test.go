package voucher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

const fixtureCatalog = `{
  "version": "2026-04",
  "homeJurisdiction": "KL",
  "accountingHeads": [
    {"value": "EXP-RENT", "label": "Rent Expense", "polarity": "DEBIT"},
    {"value": "EXP-CONS", "label": "Consulting Charges", "polarity": "DEBIT", "needsFranchise": true},
    {"value": "REV-SUB", "label": "Subscription Income", "polarity": "CREDIT"}
  ],
  "countries": [{"value": "IN", "label": "India"}],
  "products": [{"value": "ICL", "label": "iCare Life", "prefix": "ICL"}],
  "franchises": [{"value": "F001", "label": "Kochi Franchise"}],
  "businessSegments": [
    {"value": "EDU", "label": "Education"},
    {"value": "HC", "label": "Healthcare"}
  ],
  "pointsOfSupply": [
    {"value": "KL", "label": "Kerala", "isHomeJurisdiction": true},
    {"value": "MH", "label": "Maharashtra"},
    {"value": "US", "label": "United States", "isForeign": true}
  ],
  "taxRates": [5, 12, 18],
  "defaultTaxRate": 18,
  "withholdingRates": {
    "PROFESSIONAL": {"name": "TDS Payable - 194J", "rate": 10},
    "CONTRACTOR": {"name": "TDS Payable - 194C", "rate": 2}
  },
  "validation": {"maxBackdateDays": 30}
}`

// Amounts carry their exponent, so struct equality is too strict; compare
// value-wise instead.
func assertLine(t *testing.T, want, got LedgerLine) {
	t.Helper()
	assert.Equal(t, want.Ledger, got.Ledger)
	assert.Equal(t, want.Side, got.Side)
	assert.True(t, want.Amount.Equal(got.Amount), "%s %s: amount %s, want %s", got.Side, got.Ledger, got.Amount, want.Amount)
}

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Parse([]byte(fixtureCatalog))
	if err != nil {
		t.Fatalf("parse fixture catalog: %v", err)
	}
	return snap
}
