package process

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/bankroll-calc/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTPHost:        "127.0.0.1",
		HTTPPort:        0,
		ShutdownTimeout: time.Second,
		SessionDBPath:   filepath.Join(dir, "sessions.db"),
		LimitsPath:      filepath.Join(dir, "missing.yaml"),
		LogLevel:        "error",
	}
}

func TestService_SessionsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	svc, err := New(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(svc.Handler())

	body, _ := json.Marshal(map[string]any{
		"initial_bankroll":     1000,
		"planned_bet_count":    4,
		"target_profit_factor": 0.5,
		"odds_sequence":        []float64{3},
	})
	resp, err := http.Post(srv.URL+"/api/v1/staking/plans/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/v1/staking/plans/"+created.ID+"/resolve", "application/json",
		bytes.NewReader([]byte(`{"outcome":"won"}`)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	srv.Close()
	require.NoError(t, svc.Close())

	svc, err = New(cfg)
	require.NoError(t, err)
	defer svc.Close()
	srv = httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err = http.Get(srv.URL + "/api/v1/staking/plans/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Plan struct {
			Cursor int `json:"cursor"`
		} `json:"plan"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Plan.Cursor)
}

func TestNew_BadLimits(t *testing.T) {
	cfg := testConfig(t)
	cfg.LimitsPath = filepath.Join(t.TempDir(), "limits.yaml")
	require.NoError(t, os.WriteFile(cfg.LimitsPath, []byte("staking:\n  max_planned_bets: 0\n"), 0o644))

	_, err := New(cfg)
	assert.Error(t, err)
}
