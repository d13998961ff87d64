package bulkimport

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const fixtureCatalog = `{
  "version": "2026-04",
  "homeJurisdiction": "KL",
  "accountingHeads": [
    {"value": "EXP-RENT", "label": "Rent Expense", "polarity": "DEBIT"},
    {"value": "EXP-SAL", "label": "Salaries", "polarity": "DEBIT"},
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
    "PROFESSIONAL": {"name": "TDS Payable - 194J", "rate": 10}
  },
  "validation": {}
}`

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Parse([]byte(fixtureCatalog))
	if err != nil {
		t.Fatalf("parse fixture catalog: %v", err)
	}
	return snap
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(testLogger(), testSnapshot(t))
}
