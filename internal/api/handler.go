package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calcgraph/calcgraph/internal/config"
	"github.com/calcgraph/calcgraph/internal/engine"
	"github.com/calcgraph/calcgraph/internal/graph"
	"github.com/calcgraph/calcgraph/internal/metrics"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/values/{name}", h.writeValue)
	h.mux.HandleFunc("POST /v1/values/batch", h.writeBatch)
	h.mux.HandleFunc("POST /v1/sources/{name}/emit", h.emitSource)
	h.mux.HandleFunc("GET /v1/nodes/{name}", h.readNode)
	h.mux.HandleFunc("GET /v1/nodes", h.listNodes)
	h.mux.HandleFunc("GET /v1/graph", h.showGraph)
	h.mux.HandleFunc("POST /v1/graph/check", h.checkGraph)
	h.mux.HandleFunc("POST /v1/graph/reload", h.reloadGraph)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// writeRequest is the body of a single value write.
type writeRequest struct {
	Value interface{} `json:"value"`
}

// batchEntry is one write inside a batch request.
type batchEntry struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// POST /v1/values/{name} — synchronous single write.
func (h *Handler) writeValue(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	res, err := h.eng.Write(r.Context(), name, req.Value)
	if err != nil {
		writeError(w, writeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/values/batch — async batch writes (up to 100 entries).
func (h *Handler) writeBatch(w http.ResponseWriter, r *http.Request) {
	var entries []batchEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one write")
		return
	}
	if len(entries) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(entries), maxBatchSize))
		return
	}

	jobID := uuid.New().String()
	queued := 0
	for _, entry := range entries {
		if entry.Name == "" || entry.Value == nil {
			continue
		}
		if h.eng.WriteAsync(entry.Name, entry.Value) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(entries),
		"queued":   queued,
		"rejected": len(entries) - queued,
	})
}

// POST /v1/sources/{name}/emit — emit into an observer source hook.
func (h *Handler) emitSource(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	if err := h.eng.EmitSource(name, req.Value); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownSource):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrNonScalarValue):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"source": name, "status": "emitted"})
}

// GET /v1/nodes/{name} — lazy read, recomputing dirty ancestors.
func (h *Handler) readNode(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Read(r.PathValue("name"))
	if err != nil {
		writeError(w, readStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/nodes — diagnostic snapshot without computing.
func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": h.eng.Snapshot(),
	})
}

// GET /v1/graph — current graph configuration.
func (h *Handler) showGraph(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"graph":   cfg.Graph,
		"sinks":   cfg.Sinks,
	})
}

// POST /v1/graph/check — run the cycle checker over the active graph.
func (h *Handler) checkGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.CheckCycles(); err != nil {
		var cerr *graph.CycleDetectedError
		if errors.As(err, &cerr) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"cycle": true,
				"nodes": []string{cerr.NodeA, cerr.NodeB},
				"error": cerr.Error(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cycle": false})
}

// POST /v1/graph/reload — hot-reload the config from disk.
func (h *Handler) reloadGraph(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	g, err := graph.Build(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.eng.SwapGraph(g, cfg.Sinks); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"nodes":    g.NodeCount(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if write queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// writeStatus maps write errors onto HTTP statuses.
func writeStatus(err error) int {
	var typeErr *graph.TypeMismatchError
	var roErr *graph.ReadOnlyNodeError
	switch {
	case errors.Is(err, engine.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNonScalarValue):
		return http.StatusBadRequest
	case errors.As(err, &typeErr):
		return http.StatusBadRequest
	case errors.As(err, &roErr):
		return http.StatusConflict
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrWriteTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// readStatus maps read errors onto HTTP statuses.
func readStatus(err error) int {
	var unsetErr *graph.UnsetValueError
	switch {
	case errors.Is(err, engine.ErrUnknownNode):
		return http.StatusNotFound
	case errors.As(err, &unsetErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
