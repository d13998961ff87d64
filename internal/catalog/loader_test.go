package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "version": "2026-04",
  "homeJurisdiction": "KL",
  "accountingHeads": [
    {"value": "EXP-RENT", "label": "Rent Expense", "polarity": "DEBIT"},
    {"value": "REV-SUB", "label": "Subscription Income", "polarity": "CREDIT", "active": false}
  ],
  "countries": [{"value": "IN", "label": "India"}],
  "products": [{"value": "ICL", "label": "iCare Life", "prefix": "ICL"}],
  "franchises": [],
  "businessSegments": [{"value": "EDU", "label": "Education"}],
  "pointsOfSupply": [
    {"value": "KL", "label": "Kerala", "isHomeJurisdiction": true},
    {"value": "US", "label": "United States", "isForeign": true}
  ],
  "taxRates": [5, 12, 18],
  "defaultTaxRate": 18,
  "withholdingRates": {"PROFESSIONAL": {"name": "TDS Payable - 194J", "rate": 10}},
  "validation": {"maxBackdateDays": 30}
}`

func TestParseValidDocument(t *testing.T) {
	snap, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, "2026-04", snap.Version)
	assert.Equal(t, "KL", snap.HomeJurisdiction)

	head, ok := snap.Head("EXP-RENT")
	require.True(t, ok)
	assert.Equal(t, "Rent Expense", head.Label)
	assert.Equal(t, PolarityDebit, head.Polarity)
	assert.True(t, head.Active)

	// Inactive heads stay in the snapshot but never resolve for posting.
	_, ok = snap.Head("REV-SUB")
	assert.False(t, ok)
	require.Len(t, snap.Heads, 2)
	assert.False(t, snap.Heads[1].Active)

	point, ok := snap.Point("US")
	require.True(t, ok)
	assert.True(t, point.IsForeign)

	assert.True(t, snap.AllowsRate(decimal.NewFromInt(12)))
	assert.False(t, snap.AllowsRate(decimal.NewFromInt(7)))
	assert.Equal(t, 30, snap.Rules.MaxBackdateDays)
}

func TestParseSegmentLookupIsCaseInsensitive(t *testing.T) {
	snap, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	for _, key := range []string{"EDU", "edu", "Education", "EDUCATION"} {
		seg, ok := snap.Segment(key)
		require.True(t, ok, "lookup %q", key)
		assert.Equal(t, "EDU", seg.Code)
	}

	_, ok := snap.Segment("Aviation")
	assert.False(t, ok)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"duplicate head": `{
		  "accountingHeads": [
		    {"value": "A", "polarity": "DEBIT"},
		    {"value": "A", "polarity": "DEBIT"}
		  ],
		  "taxRates": [18]
		}`,
		"bad polarity": `{
		  "accountingHeads": [{"value": "A", "polarity": "SIDEWAYS"}],
		  "taxRates": [18]
		}`,
		"home and foreign": `{
		  "pointsOfSupply": [{"value": "X", "isHomeJurisdiction": true, "isForeign": true}],
		  "taxRates": [18]
		}`,
		"two homes": `{
		  "pointsOfSupply": [
		    {"value": "A", "isHomeJurisdiction": true},
		    {"value": "B", "isHomeJurisdiction": true}
		  ],
		  "taxRates": [18]
		}`,
		"empty rate set": `{"taxRates": []}`,
		"default rate not in set": `{
		  "taxRates": [5, 12],
		  "defaultTaxRate": 18
		}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0o600))

	snap, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-04", snap.Version)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
