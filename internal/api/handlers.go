package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charleschow/bankroll-calc/internal/config"
	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
	"github.com/charleschow/bankroll-calc/internal/core/session"
	"github.com/charleschow/bankroll-calc/internal/core/staking"
	"github.com/charleschow/bankroll-calc/internal/events"
	"github.com/charleschow/bankroll-calc/internal/telemetry"
)

// errBadRequest marks request-shape problems caught before the core runs.
var errBadRequest = errors.New("bad request")

// Handler contains dependencies for HTTP handlers
type Handler struct {
	sessions *session.Manager
	bus      *events.Bus
	limits   config.Limits
}

func NewHandler(sessions *session.Manager, bus *events.Bus, limits config.Limits) *Handler {
	return &Handler{
		sessions: sessions,
		bus:      bus,
		limits:   limits,
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bankroll-calc",
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, telemetry.TakeSnapshot())
}

func (h *Handler) publish(t events.EventType, sessionID string, payload any) {
	if h.bus != nil {
		h.bus.Publish(events.New(t, sessionID, payload))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// statusFor maps core sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, staking.ErrNoPendingStep):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, staking.ErrInvalidConfiguration),
		errors.Is(err, matchprob.ErrInvalidMatchInput),
		errors.Is(err, matchprob.ErrInvalidLambda),
		errors.Is(err, matchprob.ErrInvalidMaxGoals):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		telemetry.Errorf("api: %v", err)
	}
	respondError(w, status, err.Error())
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
