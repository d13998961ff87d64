package bulkimport

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
	"github.com/tallyprep/tallyprep/internal/voucher"
)

// Batch-fatal errors: nothing is processed when these occur.
var (
	ErrMissingBatchOverride = errors.New("bulkimport: batch overrides must set polarity and accounting head")
	ErrHeaderMismatch       = errors.New("bulkimport: uploaded header row does not match the schema")
	ErrUnknownImportType    = errors.New("bulkimport: unknown import type")
)

// ImportType selects the row schema within a polarity.
type ImportType string

const (
	TypePurchase ImportType = "PURCHASE"
	TypePayroll  ImportType = "PAYROLL"
	TypeJournal  ImportType = "JOURNAL"
	TypeGeneric  ImportType = "GENERIC"
)

// ReasonCode classifies why a row was rejected.
type ReasonCode string

const (
	ReasonRowParse             ReasonCode = "RowParseError"
	ReasonInvalidSegment       ReasonCode = "InvalidSegment"
	ReasonMissingPointOfSupply ReasonCode = "MissingPointOfSupply"
	ReasonComputeFailed        ReasonCode = "ComputeError"
)

// Rejection records a row that could not become a voucher.
type Rejection struct {
	RowIndex   int        `json:"rowIndex"`
	ReasonCode ReasonCode `json:"reasonCode"`
	Detail     string     `json:"detail"`
}

// RowOutcome is the result for one input row: exactly one of Voucher or
// Rejection is set.
type RowOutcome struct {
	RowIndex  int              `json:"rowIndex"`
	Voucher   *voucher.Voucher `json:"-"`
	Rejection *Rejection       `json:"rejection,omitempty"`
}

// Overrides are the batch-level values applied before any row is read.
// Polarity and HeadCode are mandatory; the rest fill gaps rows leave open.
type Overrides struct {
	Polarity      catalog.Polarity
	HeadCode      string
	ImportType    ImportType
	PointOfSupply string
	Product       string
	Country       string
	Segment       string
	TaxRate       *decimal.Decimal
}

func (o Overrides) validate() error {
	if !o.Polarity.Valid() || o.HeadCode == "" {
		return ErrMissingBatchOverride
	}
	return nil
}

// Batch holds the ordered outcomes of one classification run.
type Batch struct {
	ID         uuid.UUID        `json:"id"`
	CreatedAt  time.Time        `json:"createdAt"`
	Polarity   catalog.Polarity `json:"polarity"`
	ImportType ImportType       `json:"importType"`
	Outcomes   []RowOutcome     `json:"outcomes"`
	// Difference is the gross of accepted CREDIT vouchers minus the gross
	// of accepted DEBIT vouchers. Informational only.
	Difference decimal.Decimal `json:"difference"`
}

// Vouchers returns the accepted vouchers in row order. Journal rows of the
// same group share one voucher, which is reported once.
func (b *Batch) Vouchers() []*voucher.Voucher {
	out := make([]*voucher.Voucher, 0, len(b.Outcomes))
	seen := make(map[*voucher.Voucher]struct{}, len(b.Outcomes))
	for _, o := range b.Outcomes {
		if o.Voucher == nil {
			continue
		}
		if _, dup := seen[o.Voucher]; dup {
			continue
		}
		seen[o.Voucher] = struct{}{}
		out = append(out, o.Voucher)
	}
	return out
}

// Rejections returns the rejected rows in row order.
func (b *Batch) Rejections() []Rejection {
	var out []Rejection
	for _, o := range b.Outcomes {
		if o.Rejection != nil {
			out = append(out, *o.Rejection)
		}
	}
	return out
}

// PreviewRow is the reviewer-facing projection of one outcome.
type PreviewRow struct {
	RowIndex  int                  `json:"rowIndex"`
	Date      string               `json:"date,omitempty"`
	Party     string               `json:"party,omitempty"`
	Segment   string               `json:"segment,omitempty"`
	State     string               `json:"state,omitempty"`
	Amount    decimal.Decimal      `json:"amount"`
	Tax       decimal.Decimal      `json:"tax"`
	Total     decimal.Decimal      `json:"total"`
	Status    voucher.Status       `json:"status,omitempty"`
	Reasons   []voucher.Reason     `json:"reasons,omitempty"`
	Code      string               `json:"code,omitempty"`
	Lines     []voucher.LedgerLine `json:"lines,omitempty"`
	Rejection *Rejection           `json:"rejection,omitempty"`
}

// Preview renders every outcome for review, including the full entry set of
// reverse-charge vouchers.
func (b *Batch) Preview() []PreviewRow {
	rows := make([]PreviewRow, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		row := PreviewRow{RowIndex: o.RowIndex}
		if o.Rejection != nil {
			row.Rejection = o.Rejection
			rows = append(rows, row)
			continue
		}
		v := o.Voucher
		row.Party = v.Party
		row.Segment = v.Segment
		row.State = v.SupplyPoint
		row.Amount = v.Base
		row.Tax = v.Tax.Total()
		row.Total = v.Gross
		row.Status = v.Status
		row.Reasons = v.Reasons
		row.Code = v.Code
		if !v.Date.IsZero() {
			row.Date = v.Date.Format("02-01-2006")
		}
		if v.ReverseCharge || v.Kind == voucher.KindJournal {
			row.Lines = v.Lines
		}
		rows = append(rows, row)
	}
	return rows
}
