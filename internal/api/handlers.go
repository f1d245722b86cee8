package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tutomart/pricescout/internal/coordinate"
	"github.com/tutomart/pricescout/internal/scrape"
)

// Runner is the orchestration surface the handlers drive. It is an
// interface so handler tests run against a fake instead of real browsers.
type Runner interface {
	Run(ctx context.Context, userID string, q scrape.Query) ([]scrape.ProductRecord, error)
}

// HistoryStore serves stored price history. Optional; nil disables the
// history endpoint.
type HistoryStore interface {
	History(ctx context.Context, brand, product string, limit int) ([]scrape.ProductRecord, error)
}

type Handlers struct {
	runner    Runner
	history   HistoryStore
	bulkLimit int
	logger    *slog.Logger
}

func NewHandlers(runner Runner, history HistoryStore, bulkLimit int, logger *slog.Logger) *Handlers {
	if bulkLimit <= 0 {
		bulkLimit = 50
	}
	return &Handlers{
		runner:    runner,
		history:   history,
		bulkLimit: bulkLimit,
		logger:    logger,
	}
}

// Scrape handles a single product search across the selected sites.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var q scrape.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	records, err := h.runner.Run(r.Context(), userID(r), q)
	if err != nil {
		h.logger.Error("scrape run failed", "error", err, "brand", q.Brand, "product", q.Product)
		h.respondError(w, statusFor(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"data": records})
}

// BulkRow is the per-row result of a bulk scrape.
type BulkRow struct {
	Row   int                    `json:"row"`
	Data  []scrape.ProductRecord `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// ScrapeBulk handles a batch of queries, processed sequentially so the
// batch shares one user slot lifecycle and the proxy is not hammered.
func (h *Handlers) ScrapeBulk(w http.ResponseWriter, r *http.Request) {
	var queries []scrape.Query
	if err := json.NewDecoder(r.Body).Decode(&queries); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(queries) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one row is required")
		return
	}
	if len(queries) > h.bulkLimit {
		h.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("too many rows: %d (limit %d)", len(queries), h.bulkLimit))
		return
	}

	uid := userID(r)
	rows := make([]BulkRow, 0, len(queries))
	for i, q := range queries {
		row := BulkRow{Row: i + 1}
		records, err := h.runner.Run(r.Context(), uid, q)
		if err != nil {
			h.logger.Warn("bulk row failed", "row", i+1, "error", err)
			row.Error = err.Error()
		} else {
			row.Data = records
		}
		rows = append(rows, row)

		if r.Context().Err() != nil {
			break
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Sites lists the supported target sites.
func (h *Handlers) Sites(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for _, site := range scrape.Sites() {
		names = append(names, site.Name)
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"data": names})
}

// History serves previously stored records for a brand/product pair.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondError(w, http.StatusNotFound, "history store not configured")
		return
	}

	brand := r.URL.Query().Get("brand")
	product := r.URL.Query().Get("product")
	if brand == "" || product == "" {
		h.respondError(w, http.StatusBadRequest, "brand and product are required")
		return
	}

	records, err := h.history.History(r.Context(), brand, product, 100)
	if err != nil {
		h.logger.Error("history lookup failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"data": records})
}

// userID identifies the caller for slot coordination. Anonymous callers
// share one slot, which matches the single-operator deployment.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scrape.ErrMissingFields), errors.Is(err, scrape.ErrUnknownSite):
		return http.StatusBadRequest
	case errors.Is(err, coordinate.ErrUserBusy):
		return http.StatusConflict
	case errors.Is(err, scrape.ErrNoResults):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
