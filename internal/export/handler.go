package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallyprep/tallyprep/internal/bulkimport"
	"github.com/tallyprep/tallyprep/internal/platform/httpx"
)

// Handler turns stored batches into downloadable Tally documents.
type Handler struct {
	logger     *slog.Logger
	serializer *Serializer
	store      *bulkimport.Store
}

// NewHandler wires the serializer to the batch store.
func NewHandler(logger *slog.Logger, serializer *Serializer, store *bulkimport.Store) *Handler {
	return &Handler{logger: logger, serializer: serializer, store: store}
}

// Routes mounts the export endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tally", h.ExportTally)
}

type exportRequest struct {
	BatchID uuid.UUID `json:"batchId"`
}

// ExportTally serializes every accepted voucher of a batch. The call is
// refused outright when any voucher in the batch is not VALID.
func (h *Handler) ExportTally(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	batch, ok := h.store.Get(req.BatchID)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: batch %s", httpx.ErrNotFound, req.BatchID))
		return
	}

	doc, err := h.serializer.Serialize(batch.Vouchers())
	if err != nil {
		if errors.Is(err, ErrNonExportable) {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, err))
			return
		}
		h.logger.Error("export failed", "batch", req.BatchID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("batch exported", "batch", req.BatchID, "vouchers", len(batch.Vouchers()))
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tally-%s.xml", req.BatchID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
