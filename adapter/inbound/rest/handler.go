package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// Handler serves a DataGateway as the locker backend REST API
type Handler struct {
	gateway outbound.DataGateway
	logger  outbound.Logger
	levels  LevelController
}

// LevelController changes the log level at runtime
type LevelController interface {
	UpdateLevel(level string)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewHandler(gateway outbound.DataGateway, logger outbound.Logger, levels LevelController) *Handler {
	return &Handler{
		gateway: gateway,
		logger:  logger,
		levels:  levels,
	}
}

// SetupRoutes registers the backend routes on router
func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/stats", h.getStats).Methods("GET")
	router.HandleFunc("/api/lockers", h.listLockers).Methods("GET")
	router.HandleFunc("/api/lockers/{id}/force-open", h.forceOpen).Methods("POST")
	router.HandleFunc("/api/users", h.listUsers).Methods("GET")
	router.HandleFunc("/api/logs", h.listLogs).Methods("GET")
	router.HandleFunc("/api/admin/profile", h.getProfile).Methods("GET")

	if h.levels != nil {
		router.HandleFunc("/api/settings/log-level", h.updateLogLevel).Methods("PUT")
	}

	router.HandleFunc("/health", h.healthCheck).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gateway.FetchStats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) listLockers(w http.ResponseWriter, r *http.Request) {
	lockers, err := h.gateway.FetchLockers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nonNil(lockers))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.gateway.FetchUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nonNil(users))
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.gateway.FetchActivityLogs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nonNil(logs))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.gateway.FetchAdminProfile(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) forceOpen(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ok, err := h.gateway.ForceOpenLocker(r.Context(), id)
	if err != nil {
		h.logger.Warn("Force open rejected", "locker", id, "error", err)
		h.writeError(w, err)
		return
	}

	h.logger.Info("Force open processed", "locker", id, "success", ok)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (h *Handler) updateLogLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "bad_request"})
		return
	}

	switch req.Level {
	case "debug", "info", "warn", "error", "DEBUG", "INFO", "WARN", "ERROR":
	default:
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid log level: " + req.Level, Code: "bad_request"})
		return
	}

	h.levels.UpdateLevel(req.Level)
	h.writeJSON(w, http.StatusOK, map[string]string{"level": req.Level})
}

// writeError maps domain errors to status codes and a machine readable code
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		h.logger.Error("Request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrLockerNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrLockerNotOccupied):
		return http.StatusConflict, "not_occupied"
	case errors.Is(err, model.ErrCommandRejected):
		return http.StatusConflict, "rejected"
	case errors.Is(err, context.DeadlineExceeded), model.IsTransient(err):
		return http.StatusServiceUnavailable, "unavailable"
	case model.IsCommandError(err):
		return http.StatusBadGateway, "command_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// nonNil renders empty collections as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
