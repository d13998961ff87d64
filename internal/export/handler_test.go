package export

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyprep/tallyprep/internal/bulkimport"
	"github.com/tallyprep/tallyprep/internal/voucher"
)

func testServer(t *testing.T, store *bulkimport.Store) *httptest.Server {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewSerializer("iCare Life"), store)
	r := chi.NewRouter()
	r.Route("/export", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func storedBatch(vouchers ...*voucher.Voucher) *bulkimport.Batch {
	b := &bulkimport.Batch{ID: uuid.New(), CreatedAt: time.Now()}
	for i, v := range vouchers {
		b.Outcomes = append(b.Outcomes, bulkimport.RowOutcome{RowIndex: i, Voucher: v})
	}
	return b
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExportTally(t *testing.T) {
	store := bulkimport.NewStore(time.Hour)
	batch := storedBatch(validVoucher())
	store.Save(batch)
	srv := testServer(t, store)

	resp := post(t, srv.URL+"/export/tally", `{"batchId":"`+batch.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))

	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<VOUCHERNUMBER>DB-ICL-202604-0001</VOUCHERNUMBER>")
}

func TestExportTallyRefusesInvalidBatch(t *testing.T) {
	store := bulkimport.NewStore(time.Hour)
	invalid := validVoucher()
	invalid.Status = voucher.StatusInvalid
	batch := storedBatch(invalid)
	store.Save(batch)
	srv := testServer(t, store)

	resp := post(t, srv.URL+"/export/tally", `{"batchId":"`+batch.ID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExportTallyUnknownBatch(t *testing.T) {
	srv := testServer(t, bulkimport.NewStore(time.Hour))

	resp := post(t, srv.URL+"/export/tally", `{"batchId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
