package bulkimport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/catalog"
	"github.com/tallyprep/tallyprep/internal/platform/httpx"
)

// Handler exposes the classification pipeline over HTTP.
type Handler struct {
	logger    *slog.Logger
	pipeline  *Pipeline
	store     *Store
	validate  *validator.Validate
	maxUpload int64
}

// NewHandler wires the pipeline and batch store into HTTP endpoints.
func NewHandler(logger *slog.Logger, pipeline *Pipeline, store *Store, maxUpload int64) *Handler {
	return &Handler{
		logger:    logger,
		pipeline:  pipeline,
		store:     store,
		validate:  validator.New(),
		maxUpload: maxUpload,
	}
}

// Routes mounts the bulk endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/classify", h.Classify)
	r.Get("/batches/{id}", h.GetBatch)
	r.Get("/template", h.Template)
}

type classifyForm struct {
	Polarity      string `validate:"required,oneof=CREDIT DEBIT"`
	HeadCode      string `validate:"required"`
	ImportType    string `validate:"omitempty,oneof=PURCHASE PAYROLL JOURNAL GENERIC"`
	PointOfSupply string
	Product       string
	Country       string
	Segment       string
	TaxRate       string `validate:"omitempty,numeric"`
}

type batchResponse struct {
	ID         uuid.UUID       `json:"id"`
	Polarity   string          `json:"polarity"`
	ImportType ImportType      `json:"importType"`
	Rows       int             `json:"rows"`
	Accepted   int             `json:"accepted"`
	Rejected   int             `json:"rejected"`
	Difference decimal.Decimal `json:"difference"`
	Preview    []PreviewRow    `json:"preview"`
}

func toBatchResponse(b *Batch) batchResponse {
	return batchResponse{
		ID:         b.ID,
		Polarity:   string(b.Polarity),
		ImportType: b.ImportType,
		Rows:       len(b.Outcomes),
		Accepted:   len(b.Vouchers()),
		Rejected:   len(b.Rejections()),
		Difference: b.Difference,
		Preview:    b.Preview(),
	}
}

// Classify ingests a multipart upload (CSV or XLSX) together with the batch
// overrides and returns the classified batch.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Upload Too Large", err.Error())
		return
	}

	form := classifyForm{
		Polarity:      r.FormValue("polarity"),
		HeadCode:      r.FormValue("head"),
		ImportType:    r.FormValue("importType"),
		PointOfSupply: r.FormValue("pointOfSupply"),
		Product:       r.FormValue("product"),
		Country:       r.FormValue("country"),
		Segment:       r.FormValue("segment"),
		TaxRate:       r.FormValue("taxRate"),
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	ov := Overrides{
		Polarity:      catalog.Polarity(form.Polarity),
		HeadCode:      form.HeadCode,
		ImportType:    ImportType(strings.ToUpper(form.ImportType)),
		PointOfSupply: form.PointOfSupply,
		Product:       form.Product,
		Country:       form.Country,
		Segment:       form.Segment,
	}
	if form.TaxRate != "" {
		rate, err := decimal.NewFromString(form.TaxRate)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: bad tax rate %q", httpx.ErrValidation, form.TaxRate))
			return
		}
		ov.TaxRate = &rate
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: missing file part", httpx.ErrValidation))
		return
	}
	defer file.Close()

	headers, rows, err := ReadTable(fileHeader.Filename, file)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	batch, err := h.pipeline.Classify(r.Context(), headers, rows, ov)
	if err != nil {
		h.respondClassifyError(w, err)
		return
	}
	h.store.Save(batch)
	httpx.JSON(w, http.StatusCreated, toBatchResponse(batch))
}

func (h *Handler) respondClassifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingBatchOverride),
		errors.Is(err, ErrHeaderMismatch),
		errors.Is(err, ErrUnknownImportType):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
	default:
		h.logger.Error("classify failed", "error", err)
		httpx.RespondError(w, err)
	}
}

// GetBatch returns a previously classified batch by id.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: bad batch id", httpx.ErrValidation))
		return
	}
	batch, ok := h.store.Get(id)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: batch %s", httpx.ErrNotFound, id))
		return
	}
	httpx.JSON(w, http.StatusOK, toBatchResponse(batch))
}

// Template serves the canonical CSV header row for a schema so users can
// fill in a well-formed sheet.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	polarity := catalog.Polarity(r.URL.Query().Get("polarity"))
	importType := ImportType(strings.ToUpper(r.URL.Query().Get("type")))
	if !polarity.Valid() {
		httpx.RespondError(w, fmt.Errorf("%w: polarity must be CREDIT or DEBIT", httpx.ErrValidation))
		return
	}
	schema, err := SchemaFor(polarity, importType)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-template.csv", strings.ToLower(string(schema.Type))))
	fmt.Fprintln(w, strings.Join(schema.TemplateColumns(), ","))
}
