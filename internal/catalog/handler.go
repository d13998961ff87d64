package catalog

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tallyprep/tallyprep/internal/platform/httpx"
)

// Handler serves read-only catalog lookups.
type Handler struct {
	logger *slog.Logger
	snap   *Snapshot
	auth   Authorizer
}

// NewHandler returns a handler over a loaded snapshot. auth may be nil, in
// which case editing is reported as closed.
func NewHandler(logger *slog.Logger, snap *Snapshot, auth Authorizer) *Handler {
	return &Handler{logger: logger, snap: snap, auth: auth}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/heads", h.ListHeads)
	r.Get("/segments", h.ListSegments)
	r.Get("/countries", h.ListCountries)
	r.Get("/products", h.ListProducts)
	r.Get("/franchises", h.ListFranchises)
	r.Get("/points-of-supply", h.ListPoints)
	r.Get("/tax-rates", h.ListTaxRates)
	r.Get("/withholding-rates", h.ListWithholdingRates)
	r.Get("/edit-state/{entity}", h.EditState)
}

func (h *Handler) ListHeads(w http.ResponseWriter, r *http.Request) {
	heads := h.snap.Heads
	if q := r.URL.Query().Get("polarity"); q != "" {
		p := Polarity(q)
		if !p.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "polarity must be CREDIT or DEBIT")
			return
		}
		heads = h.snap.HeadsFor(p)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": heads})
}

func (h *Handler) ListSegments(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.snap.Segments})
}

func (h *Handler) ListCountries(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.snap.Countries})
}

func (h *Handler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.snap.Products})
}

func (h *Handler) ListFranchises(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.snap.Franchises})
}

func (h *Handler) ListPoints(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"items": h.snap.SupplyPoints})
}

func (h *Handler) ListTaxRates(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":   h.snap.TaxRates,
		"default": h.snap.DefaultTaxRate,
	})
}

type withholdingItem struct {
	Category string          `json:"category"`
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
}

func (h *Handler) ListWithholdingRates(w http.ResponseWriter, _ *http.Request) {
	items := make([]withholdingItem, 0, len(h.snap.WithholdingRates))
	for category, rate := range h.snap.WithholdingRates {
		items = append(items, withholdingItem{Category: category, Name: rate.Name, Rate: rate.Rate})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Category < items[j].Category })
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// EditState reports whether the external authorization policy currently
// allows edits to the named catalog entity.
func (h *Handler) EditState(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	editable := h.auth != nil && h.auth.CanEdit(entity)
	h.logger.Debug("catalog edit-state checked", "entity", entity, "editable", editable)
	httpx.JSON(w, http.StatusOK, map[string]any{"entity": entity, "editable": editable})
}
