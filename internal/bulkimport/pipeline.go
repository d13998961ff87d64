package bulkimport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tallyprep/tallyprep/internal/catalog"
	"github.com/tallyprep/tallyprep/internal/voucher"
)

// Pipeline turns raw tabular rows into computed, validated vouchers.
type Pipeline struct {
	logger    *slog.Logger
	snap      *catalog.Snapshot
	builder   *voucher.Builder
	validator *voucher.Validator
}

// NewPipeline returns a pipeline over the catalog snapshot.
func NewPipeline(logger *slog.Logger, snap *catalog.Snapshot) *Pipeline {
	return &Pipeline{
		logger:    logger,
		snap:      snap,
		builder:   voucher.NewBuilder(snap, voucher.DefaultLedgers()),
		validator: voucher.NewValidator(snap),
	}
}

// Classify processes every data row under the batch overrides. Row failures
// are isolated; only override and header problems abort the batch. Results
// preserve input row order regardless of how rows were scheduled.
func (p *Pipeline) Classify(ctx context.Context, headers []string, rows [][]string, ov Overrides) (*Batch, error) {
	if err := ov.validate(); err != nil {
		return nil, err
	}
	schema, err := SchemaFor(ov.Polarity, ov.ImportType)
	if err != nil {
		return nil, err
	}
	cols, err := schema.mapHeader(headers)
	if err != nil {
		return nil, err
	}

	data := nonBlankRows(rows)
	batch := &Batch{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Polarity:   ov.Polarity,
		ImportType: schema.Type,
	}

	if schema.Type == TypeJournal {
		batch.Outcomes, err = p.classifyJournal(ctx, data, cols)
	} else {
		batch.Outcomes, err = p.classifyParallel(ctx, data, cols, schema, ov)
	}
	if err != nil {
		return nil, err
	}

	p.assignCodes(batch, ov)
	batch.Difference = voucher.BatchDifference(batch.Vouchers())
	p.logger.Info("batch classified",
		"batch", batch.ID,
		"rows", len(data),
		"accepted", len(batch.Vouchers()),
		"rejected", len(batch.Rejections()),
	)
	return batch, nil
}

// Rows are independent, so they fan out across workers; outcomes land in a
// slice indexed by row so output order matches input order.
func (p *Pipeline) classifyParallel(ctx context.Context, rows []indexedRow, cols map[Field]int, schema Schema, ov Overrides) ([]RowOutcome, error) {
	outcomes := make([]RowOutcome, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.classifyRow(row.idx, row.cells, cols, schema, ov)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *Pipeline) classifyRow(idx int, row []string, cols map[Field]int, schema Schema, ov Overrides) RowOutcome {
	reject := func(code ReasonCode, detail string) RowOutcome {
		return RowOutcome{RowIndex: idx, Rejection: &Rejection{RowIndex: idx, ReasonCode: code, Detail: detail}}
	}
	cell := func(f Field) string {
		c, ok := cols[f]
		if !ok || c >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[c])
	}

	for _, f := range schema.Required {
		if c := cols[f]; c >= len(row) {
			return reject(ReasonRowParse, fmt.Sprintf("row has %d columns, column %s expects index %d", len(row), f, c))
		}
	}

	date, err := parseRowDate(cell(FieldDate))
	if err != nil {
		return reject(ReasonRowParse, err.Error())
	}
	amount, err := parseRowAmount(cell(FieldAmount))
	if err != nil {
		return reject(ReasonRowParse, err.Error())
	}
	if !amount.IsPositive() {
		return reject(ReasonRowParse, "amount must be positive")
	}

	segment := cell(FieldSegment)
	if segment == "" {
		segment = ov.Segment
	}
	if _, ok := p.snap.Segment(segment); !ok {
		return reject(ReasonInvalidSegment, fmt.Sprintf("unrecognized business segment %q", segment))
	}

	pointCode, ok := p.resolvePoint(cell(FieldPointOfSupply), ov, schema)
	if !ok {
		return reject(ReasonMissingPointOfSupply, "no point of supply on row or batch overrides")
	}

	v := p.buildVoucher(schema, ov, date, amount, segment, pointCode, cell)
	rate := p.rateFor(schema, ov)
	if err := p.builder.Compute(v, voucher.ComputeInput{Rate: rate}); err != nil {
		return reject(ReasonComputeFailed, err.Error())
	}
	if err := p.validator.Validate(v); err != nil {
		return reject(ReasonComputeFailed, err.Error())
	}
	return RowOutcome{RowIndex: idx, Voucher: v}
}

func (p *Pipeline) buildVoucher(schema Schema, ov Overrides, date time.Time, amount decimal.Decimal, segment, pointCode string, cell func(Field) string) *voucher.Voucher {
	kind := voucher.KindSales
	switch schema.Type {
	case TypePurchase:
		kind = voucher.KindPurchase
	case TypePayroll:
		kind = voucher.KindPayroll
	}

	v := voucher.New(kind, ov.Polarity)
	v.HeadCode = ov.HeadCode
	v.Date = date
	v.Party = cell(FieldParty)
	v.Reference = cell(FieldInvoiceNo)
	v.Segment = segment
	v.SupplyPoint = pointCode
	v.Entered = amount
	v.Product = p.productLabel(ov.Product)
	v.Country = p.countryLabel(ov.Country, pointCode)

	switch schema.Type {
	case TypePurchase:
		v.ExpenseDetails = cell(FieldExpense)
		v.WithholdingCategory = strings.ToUpper(cell(FieldWithholding))
		v.PeriodStart, v.PeriodEnd = p.periodFor(cell(FieldPeriodStart), cell(FieldPeriodEnd), date)
	case TypePayroll:
		v.ExpenseDetails = cell(FieldExpense)
		if v.ExpenseDetails == "" {
			v.ExpenseDetails = "Salary"
		}
		v.WithholdingCategory = strings.ToUpper(cell(FieldWithholding))
		v.PeriodStart, v.PeriodEnd = monthBounds(date)
	default:
		v.PeriodStart, v.PeriodEnd = monthBounds(date)
	}
	return v
}

// Journal rows arrive one ledger line per row, grouped by voucher number.
// Every row yields its own outcome; rows of the same group share the group's
// voucher. Grouping is inherently sequential, so no fan-out here.
func (p *Pipeline) classifyJournal(ctx context.Context, rows []indexedRow, cols map[Field]int) ([]RowOutcome, error) {
	type group struct {
		members []int
		voucher *voucher.Voucher
	}
	outcomes := make([]RowOutcome, len(rows))
	var order []*group
	byCode := map[string]*group{}

	reject := func(pos int, code ReasonCode, detail string) {
		idx := rows[pos].idx
		outcomes[pos] = RowOutcome{RowIndex: idx, Rejection: &Rejection{RowIndex: idx, ReasonCode: code, Detail: detail}}
	}

	for pos, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cell := func(f Field) string {
			c, ok := cols[f]
			if !ok || c >= len(row.cells) {
				return ""
			}
			return strings.TrimSpace(row.cells[c])
		}

		code := cell(FieldVoucherNo)
		if code == "" {
			reject(pos, ReasonRowParse, "missing voucher number")
			continue
		}
		date, err := parseRowDate(cell(FieldDate))
		if err != nil {
			reject(pos, ReasonRowParse, err.Error())
			continue
		}
		side, err := parseRowSide(cell(FieldSide))
		if err != nil {
			reject(pos, ReasonRowParse, err.Error())
			continue
		}
		amount, err := parseRowAmount(cell(FieldAmount))
		if err != nil || !amount.IsPositive() {
			reject(pos, ReasonRowParse, "unparseable or non-positive amount")
			continue
		}

		g, ok := byCode[code]
		if !ok {
			v := voucher.New(voucher.KindJournal, catalog.PolarityDebit)
			v.Code = code
			v.Date = date
			g = &group{voucher: v}
			byCode[code] = g
			order = append(order, g)
		}
		g.members = append(g.members, pos)
		g.voucher.Lines = append(g.voucher.Lines, voucher.LedgerLine{
			Ledger: cell(FieldLedger),
			Side:   voucher.Side(side),
			Amount: amount,
		})
	}

	for _, g := range order {
		err := p.builder.Compute(g.voucher, voucher.ComputeInput{})
		if err == nil {
			err = p.validator.Validate(g.voucher)
		}
		for _, pos := range g.members {
			if err != nil {
				reject(pos, ReasonComputeFailed, err.Error())
				continue
			}
			outcomes[pos] = RowOutcome{RowIndex: rows[pos].idx, Voucher: g.voucher}
		}
	}
	return outcomes, nil
}

func (p *Pipeline) rateFor(schema Schema, ov Overrides) decimal.Decimal {
	if schema.Type == TypePayroll {
		return decimal.Zero
	}
	if ov.TaxRate != nil {
		return *ov.TaxRate
	}
	return p.snap.DefaultTaxRate
}

// resolvePoint accepts either a supply-point code or its label, falling back
// to the batch override.
func (p *Pipeline) resolvePoint(raw string, ov Overrides, schema Schema) (string, bool) {
	if raw == "" {
		raw = ov.PointOfSupply
	}
	if raw == "" && schema.Type == TypePayroll {
		raw = p.snap.HomeJurisdiction
	}
	if raw == "" {
		return "", false
	}
	if _, ok := p.snap.Point(raw); ok {
		return raw, true
	}
	for _, sp := range p.snap.SupplyPoints {
		if strings.EqualFold(sp.Label, raw) {
			return sp.Code, true
		}
	}
	// Unknown codes pass through so the calculator reports the
	// jurisdiction error for this row.
	return raw, true
}

func (p *Pipeline) productLabel(code string) string {
	if e, ok := p.snap.Product(code); ok {
		return e.Label
	}
	return code
}

func (p *Pipeline) countryLabel(code, pointCode string) string {
	if e, ok := p.snap.Country(code); ok {
		return e.Label
	}
	if code != "" {
		return code
	}
	if sp, ok := p.snap.Point(pointCode); ok {
		return sp.Label
	}
	return ""
}

func (p *Pipeline) periodFor(rawStart, rawEnd string, date time.Time) (time.Time, time.Time) {
	start, errS := parseRowDate(rawStart)
	end, errE := parseRowDate(rawEnd)
	if errS != nil || errE != nil {
		return monthBounds(date)
	}
	return start, end
}

// assignCodes numbers accepted vouchers sequentially within the batch.
// Journal vouchers keep the number the rows carried.
func (p *Pipeline) assignCodes(batch *Batch, ov Overrides) {
	prefix := ""
	if e, ok := p.snap.Product(ov.Product); ok {
		prefix = e.Prefix
	}
	seq := 0
	for _, o := range batch.Outcomes {
		if o.Voucher == nil || o.Voucher.Code != "" {
			continue
		}
		seq++
		o.Voucher.Code = voucher.GenerateCode(o.Voucher.Polarity, prefix, o.Voucher.Date, seq)
	}
}

// Default period when the rows carry none: the voucher date's month up to
// the date itself, keeping the period inside the start <= end <= date rule.
func monthBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	return start, date
}

// indexedRow keeps a row tied to its position in the uploaded file, so
// rejections reference the file the user sees even after blanks are skipped.
type indexedRow struct {
	idx   int
	cells []string
}

func nonBlankRows(rows [][]string) []indexedRow {
	out := make([]indexedRow, 0, len(rows))
	for i, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, indexedRow{idx: i, cells: row})
				break
			}
		}
	}
	return out
}
