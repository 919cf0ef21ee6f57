package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/charleschow/bankroll-calc/internal/core/odds"
	"github.com/charleschow/bankroll-calc/internal/core/session"
	"github.com/charleschow/bankroll-calc/internal/core/staking"
)

// createPlanRequest is a staking.Config in which the odds may arrive as free
// text and the win probability and target mode may be left to the defaults.
type createPlanRequest struct {
	InitialBankroll    float64            `json:"initial_bankroll"`
	PlannedBetCount    int                `json:"planned_bet_count"`
	TargetProfitFactor float64            `json:"target_profit_factor"`
	WinProbability     *float64           `json:"win_probability,omitempty"`
	OddsSequence       []float64          `json:"odds_sequence,omitempty"`
	OddsText           string             `json:"odds_text,omitempty"`
	TargetMode         staking.TargetMode `json:"target_mode,omitempty"`
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
}

type updateOddRequest struct {
	Odd float64 `json:"odd"`
}

// planResponse is a session plus the figures a tracker shows next to it.
type planResponse struct {
	session.Session
	Target  float64       `json:"target"`
	Profit  float64       `json:"profit"`
	Done    bool          `json:"done"`
	Current *staking.Step `json:"current,omitempty"`
}

type resolveResponse struct {
	planResponse
	Resolved staking.Step `json:"resolved"`
}

type updateOddResponse struct {
	planResponse
	Updated bool `json:"updated"`
}

func newPlanResponse(s session.Session) planResponse {
	resp := planResponse{
		Session: s,
		Target:  s.Plan.Config.Target(),
		Profit:  s.Plan.Profit(),
		Done:    s.Plan.Done(),
	}
	if cur, ok := s.Plan.Current(); ok {
		resp.Current = &cur
	}
	return resp
}

// toConfig applies defaults and the operator limits. Domain validation is
// left to the engine.
func (h *Handler) toConfig(req createPlanRequest) (staking.Config, error) {
	lim := h.limits.Staking
	cfg := staking.Config{
		InitialBankroll:    req.InitialBankroll,
		PlannedBetCount:    req.PlannedBetCount,
		TargetProfitFactor: req.TargetProfitFactor,
		WinProbability:     lim.DefaultWinProbability,
		OddsSequence:       req.OddsSequence,
		TargetMode:         req.TargetMode,
	}
	if req.WinProbability != nil {
		cfg.WinProbability = *req.WinProbability
	}
	if cfg.TargetMode == "" {
		cfg.TargetMode = lim.DefaultTargetMode
	}
	if len(cfg.OddsSequence) == 0 && req.OddsText != "" {
		cfg.OddsSequence = odds.ParseList(req.OddsText)
	}

	if cfg.PlannedBetCount > lim.MaxPlannedBets {
		return staking.Config{}, fmt.Errorf("%w: planned_bet_count %d exceeds limit %d",
			staking.ErrInvalidConfiguration, cfg.PlannedBetCount, lim.MaxPlannedBets)
	}
	if cfg.InitialBankroll > lim.MaxBankroll {
		return staking.Config{}, fmt.Errorf("%w: initial_bankroll %v exceeds limit %v",
			staking.ErrInvalidConfiguration, cfg.InitialBankroll, lim.MaxBankroll)
	}
	return cfg, nil
}

// CreatePlan builds a Masaniello plan and opens a session for it.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	cfg, err := h.toConfig(req)
	if err != nil {
		respondErr(w, err)
		return
	}

	sess, err := h.sessions.Create(cfg)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/staking/plans/"+sess.ID)
	respondJSON(w, http.StatusCreated, newPlanResponse(sess))
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newPlanResponse(sess))
}

func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveStep settles the current step as won or lost.
func (h *Handler) ResolveStep(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	outcome, err := staking.ParseOutcome(req.Outcome)
	if err != nil {
		respondErr(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sess, step, err := h.sessions.Resolve(chi.URLParam(r, "id"), outcome)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resolveResponse{planResponse: newPlanResponse(sess), Resolved: step})
}

// UpdateOdd re-quotes a pending step. A step that is already settled, out of
// range or given an odd <= 1 is left alone and reported with updated=false.
func (h *Handler) UpdateOdd(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondErr(w, fmt.Errorf("%w: step index %q", errBadRequest, chi.URLParam(r, "index")))
		return
	}
	var req updateOddRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	sess, updated, err := h.sessions.UpdateOdd(chi.URLParam(r, "id"), index, req.Odd)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updateOddResponse{planResponse: newPlanResponse(sess), Updated: updated})
}
