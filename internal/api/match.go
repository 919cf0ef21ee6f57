package api

import (
	"fmt"
	"net/http"

	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
	"github.com/charleschow/bankroll-calc/internal/core/odds"
	"github.com/charleschow/bankroll-calc/internal/events"
	"github.com/charleschow/bankroll-calc/internal/telemetry"
)

// defaultTotalGoals is used when neither a total nor a 2.5 market is quoted.
const defaultTotalGoals = 2.5

type matchOutcomeRequest struct {
	LambdaHome float64  `json:"lambda_home"`
	LambdaAway float64  `json:"lambda_away"`
	MaxGoals   *int     `json:"max_goals,omitempty"`
	OverLine   *float64 `json:"over_line,omitempty"`
}

type matchImpliedRequest struct {
	HomeOdds    float64  `json:"home_odds"`
	DrawOdds    float64  `json:"draw_odds"`
	AwayOdds    float64  `json:"away_odds"`
	TotalGoals  *float64 `json:"total_goals,omitempty"`
	Under25Odds float64  `json:"under25_odds,omitempty"`
	Over25Odds  float64  `json:"over25_odds,omitempty"`
	MaxGoals    *int     `json:"max_goals,omitempty"`
}

type fairOdds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

type matchOutcomeResponse struct {
	matchprob.MatchOutcome
	Input    matchprob.MatchInput `json:"input"`
	MaxGoals int                  `json:"max_goals"`
	FairOdds fairOdds             `json:"fair_odds"`
	OverLine float64              `json:"over_line"`
	OverPct  float64              `json:"over_pct"`
}

type matchImpliedResponse struct {
	Market        matchprob.ThreeWay   `json:"market"`
	ExpectedTotal float64              `json:"expected_total"`
	Outcome       matchOutcomeResponse `json:"outcome"`
}

// MatchOutcome runs the Poisson model for explicit expected-goal rates.
func (h *Handler) MatchOutcome(w http.ResponseWriter, r *http.Request) {
	var req matchOutcomeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	overLine := defaultTotalGoals
	if req.OverLine != nil {
		overLine = *req.OverLine
	}

	resp, err := h.computeOutcome(matchprob.MatchInput{LambdaHome: req.LambdaHome, LambdaAway: req.LambdaAway}, req.MaxGoals, overLine)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// MatchImplied strips the margin from a 1X2 market, backs out the
// expected-goal rates that reproduce it and runs the model on them.
func (h *Handler) MatchImplied(w http.ResponseWriter, r *http.Request) {
	var req matchImpliedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	pH, pD, pA, err := odds.RemoveVig3(req.HomeOdds, req.DrawOdds, req.AwayOdds)
	if err != nil {
		respondErr(w, fmt.Errorf("%w: 1X2 odds: %v", errBadRequest, err))
		return
	}

	total := defaultTotalGoals
	switch {
	case req.TotalGoals != nil:
		total = *req.TotalGoals
	case req.Under25Odds != 0 || req.Over25Odds != 0:
		pUnder, _, err := odds.RemoveVig2(req.Under25Odds, req.Over25Odds)
		if err != nil {
			respondErr(w, fmt.Errorf("%w: 2.5 goal odds: %v", errBadRequest, err))
			return
		}
		total = odds.InferTotalFromUnder25(pUnder)
	}

	market := matchprob.ThreeWay{Home: pH, Draw: pD, Away: pA}
	in, err := matchprob.InferLambdas(market, total, h.limits.Match.InferMaxGoals)
	if err != nil {
		respondErr(w, err)
		return
	}

	out, err := h.computeOutcome(in, req.MaxGoals, defaultTotalGoals)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matchImpliedResponse{
		Market:        market,
		ExpectedTotal: total,
		Outcome:       out,
	})
}

func (h *Handler) computeOutcome(in matchprob.MatchInput, maxGoals *int, overLine float64) (matchOutcomeResponse, error) {
	mg := h.limits.Match.MaxGoals
	if maxGoals != nil {
		mg = *maxGoals
	}

	out, err := matchprob.ComputeMatchOutcome(in, mg)
	if err != nil {
		return matchOutcomeResponse{}, err
	}
	telemetry.Metrics.MatchesComputed.Inc()
	h.publish(events.EventMatchComputed, "", events.MatchComputedEvent{Input: in, Outcome: out})

	home, draw, away := out.FairOdds()
	return matchOutcomeResponse{
		MatchOutcome: out,
		Input:        in,
		MaxGoals:     mg,
		FairOdds:     fairOdds{Home: home, Draw: draw, Away: away},
		OverLine:     overLine,
		OverPct:      out.OverProbability(overLine),
	}, nil
}
