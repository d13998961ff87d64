package bulkimport

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
)

// Field is a canonical column in a row schema.
type Field string

const (
	FieldDate          Field = "Date"
	FieldInvoiceNo     Field = "InvoiceNo"
	FieldParty         Field = "Party"
	FieldPointOfSupply Field = "PlaceOfSupply"
	FieldSegment       Field = "BusinessSegment"
	FieldAmount        Field = "Amount"
	FieldExpense       Field = "ExpenseDetails"
	FieldWithholding   Field = "TDSCategory"
	FieldPeriodStart   Field = "PeriodStart"
	FieldPeriodEnd     Field = "PeriodEnd"
	FieldVoucherNo     Field = "VoucherNo"
	FieldLedger        Field = "Ledger"
	FieldSide          Field = "DrCr"
)

// Upload headers rarely match the template verbatim; each canonical field
// accepts the spellings seen in the wild, compared case-insensitively.
var headerSynonyms = map[Field][]string{
	FieldDate:          {"date", "voucher date", "txn date"},
	FieldInvoiceNo:     {"invoiceno", "invoice no", "invoice number", "bill no"},
	FieldParty:         {"party", "customername", "customer name", "vendorname", "vendor name", "payee", "employee"},
	FieldPointOfSupply: {"placeofsupply", "place of supply", "pointofsupply", "point of supply", "pos", "state"},
	FieldSegment:       {"businesssegment", "business segment", "segment"},
	FieldAmount:        {"amount", "amount(total)", "amount(base)", "total", "base amount", "gross"},
	FieldExpense:       {"expensedetails", "expense details", "details", "description"},
	FieldWithholding:   {"tdscategory", "tds category", "tds", "withholding category"},
	FieldPeriodStart:   {"periodstart", "period start", "from"},
	FieldPeriodEnd:     {"periodend", "period end", "to"},
	FieldVoucherNo:     {"voucherno", "voucher no", "voucher number", "jv no"},
	FieldLedger:        {"ledger", "ledger name", "account"},
	FieldSide:          {"drcr", "dr/cr", "side", "type"},
}

// Schema describes the expected columns for one (polarity, import type) pair.
type Schema struct {
	Type     ImportType
	Required []Field
	Optional []Field
}

// SchemaFor resolves the row schema from the batch overrides.
func SchemaFor(p catalog.Polarity, t ImportType) (Schema, error) {
	if p == catalog.PolarityCredit {
		return Schema{
			Type:     TypeGeneric,
			Required: []Field{FieldDate, FieldInvoiceNo, FieldParty, FieldPointOfSupply, FieldSegment, FieldAmount},
		}, nil
	}
	switch t {
	case TypePurchase:
		return Schema{
			Type:     TypePurchase,
			Required: []Field{FieldDate, FieldParty, FieldPointOfSupply, FieldSegment, FieldExpense, FieldAmount},
			Optional: []Field{FieldWithholding, FieldPeriodStart, FieldPeriodEnd},
		}, nil
	case TypePayroll:
		return Schema{
			Type:     TypePayroll,
			Required: []Field{FieldDate, FieldParty, FieldAmount},
			Optional: []Field{FieldWithholding, FieldExpense},
		}, nil
	case TypeJournal:
		return Schema{
			Type:     TypeJournal,
			Required: []Field{FieldVoucherNo, FieldDate, FieldLedger, FieldSide, FieldAmount},
		}, nil
	default:
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownImportType, t)
	}
}

// TemplateColumns returns the canonical header row for template downloads.
func (s Schema) TemplateColumns() []string {
	cols := make([]string, 0, len(s.Required)+len(s.Optional))
	for _, f := range s.Required {
		cols = append(cols, string(f))
	}
	for _, f := range s.Optional {
		cols = append(cols, string(f))
	}
	return cols
}

// mapHeader resolves each schema field to its column index in the uploaded
// header row. A required field with no matching column fails the batch.
func (s Schema) mapHeader(headers []string) (map[Field]int, error) {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	find := func(f Field) int {
		for _, syn := range headerSynonyms[f] {
			for i, h := range norm {
				if h == syn {
					return i
				}
			}
		}
		return -1
	}

	cols := make(map[Field]int, len(s.Required)+len(s.Optional))
	for _, f := range s.Required {
		idx := find(f)
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing column %s", ErrHeaderMismatch, f)
		}
		cols[f] = idx
	}
	for _, f := range s.Optional {
		if idx := find(f); idx >= 0 {
			cols[f] = idx
		}
	}
	return cols, nil
}

var dateLayouts = []string{
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
	"20060102",
	"02-Jan-2006",
	"2-Jan-06",
}

func parseRowDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

var amountReplacer = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", " ", "")

func parseRowAmount(s string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable amount %q", s)
	}
	return d, nil
}

func parseRowSide(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dr", "debit", "d":
		return "Dr", nil
	case "cr", "credit", "c":
		return "Cr", nil
	}
	return "", fmt.Errorf("unparseable side %q", s)
}
