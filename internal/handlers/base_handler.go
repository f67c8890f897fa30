package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/logging"
)

// BaseHandler contains common handler functionality: the mux the
// per-page handlers register on and the JSON response helpers.
type BaseHandler struct {
	Mux    *http.ServeMux
	logger zerolog.Logger
}

// errorBody is the JSON error envelope
type errorBody struct {
	Error string `json:"error"`
}

// dataBody is the JSON success envelope
type dataBody struct {
	Data any `json:"data"`
}

// NewBaseHandler creates a common base handler with shared components
func NewBaseHandler(mux *http.ServeMux) *BaseHandler {
	return &BaseHandler{
		Mux:    mux,
		logger: logging.GetLogger("base-handler"),
	}
}

// RegisterRoutes sets up the health endpoint
func (h *BaseHandler) RegisterRoutes() {
	h.Mux.HandleFunc("GET /api/health", h.handleHealth)
}

func (h *BaseHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RespondJSON writes a success envelope with the given status
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataBody{Data: data}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondError writes an error envelope with the given status
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	h.logger.Debug().Int("status", status).Str("error", message).Msg("Responding with error")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: message}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON error response")
	}
}

// DecodeJSON parses a request body into dst
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
