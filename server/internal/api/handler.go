package api

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/consolerelay/consolerelay/pkg/types"
	"github.com/consolerelay/consolerelay/server/internal/asset"
	"github.com/consolerelay/consolerelay/server/internal/metrics"
	"github.com/consolerelay/consolerelay/server/internal/store"
)

// Handler serves the companion script and the relay's status endpoints.
type Handler struct {
	assets  fs.FS
	store   *store.Store
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New creates a Handler serving asset.Name from assets at assetPath. st and m
// may be nil; the endpoints backed by them then report empty values.
func New(assets fs.FS, assetPath string, st *store.Store, m *metrics.Metrics) http.Handler {
	h := &Handler{assets: assets, store: st, metrics: m, mux: http.NewServeMux()}

	h.mux.HandleFunc(assetPath, h.script)
	h.mux.HandleFunc("/healthz", h.health)
	h.mux.HandleFunc("/metrics", h.metricsText)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// script returns the companion script. The file is read on every request so
// edits to an asset_dir override show up without a restart.
func (h *Handler) script(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := fs.ReadFile(h.assets, asset.Name)
	if err != nil {
		slog.Error("api: read companion script", "name", asset.Name, "err", err)
		jsonErr(w, http.StatusInternalServerError, "companion script unavailable")
		return
	}
	h.metrics.AssetServed()

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

// health returns GET /healthz.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Clients: h.metrics.OpenConnections(),
	})
}

// metricsText returns GET /metrics in the Prometheus text format.
func (h *Handler) metricsText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", metrics.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := h.metrics.WriteText(w); err != nil {
		slog.Error("api: write metrics", "err", err)
	}
}

// diagnostics returns GET /api/v1/diagnostics: the last live warnings and
// errors, empty lists when nothing has been built yet.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := DiagnosticsResponse{Warnings: []string{}, Errors: []string{}}
	if h.store != nil {
		var latest time.Time
		for _, e := range h.store.List() {
			switch e.Event.Type {
			case types.KindWarnings:
				resp.Warnings = e.Event.Data
			case types.KindErrors:
				resp.Errors = e.Event.Data
			}
			if e.UpdatedAt.After(latest) {
				latest = e.UpdatedAt
			}
		}
		if !latest.IsZero() {
			resp.UpdatedAt = latest.UTC().Format(time.RFC3339)
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
