package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantops/cortex-gateway/internal/budget"
	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/memory"
	"github.com/quantops/cortex-gateway/internal/model"
	"github.com/quantops/cortex-gateway/internal/pipeline"
	"github.com/quantops/cortex-gateway/internal/store"
)

// #region helpers

type stubBackend struct {
	calls int
	text  string
	err   error
}

func (s *stubBackend) Complete(_ context.Context, _ string, _ []model.Message, _ string) (model.Completion, error) {
	s.calls++
	if s.err != nil {
		return model.Completion{}, s.err
	}
	return model.Completion{Text: s.text, TotalTokens: 50, CostUSD: 0.001}, nil
}

type fixture struct {
	db      *sql.DB
	router  *gin.Engine
	backend *stubBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	db := st.DB()

	backend := &stubBackend{text: "all positions flat"}
	log := zap.NewNop().Sugar()
	orch := pipeline.New(db, backend, budget.NewPlanner(budget.DefaultConfig()), log, pipeline.DefaultConfig())
	h := NewHandlers(orch, memory.NewStore(db, memory.DefaultTTL), governance.NewEvidenceAccumulator(db), log)

	router := gin.New()
	RegisterRoutes(router, h)
	return &fixture{db: db, router: router, backend: backend}
}

func (f *fixture) seedFacts(t *testing.T, defcon string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := f.db.Exec(
		`INSERT INTO defcon_level (id, level, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at`, defcon, now)
	require.NoError(t, err)
	_, err = f.db.Exec(
		`INSERT INTO market_regime (label, confidence, created_at) VALUES ('chop', 0.6, ?)`, now)
	require.NoError(t, err)
	_, err = f.db.Exec(
		`INSERT INTO active_strategy (id, strategy_id, strategy_hash, updated_at) VALUES (1, 'meanrev-v1', 'h1', ?)
		 ON CONFLICT(id) DO UPDATE SET strategy_hash = excluded.strategy_hash`, now)
	require.NoError(t, err)
}

func (f *fixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// #endregion helpers

func TestQuerySuccess(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")

	w := f.post(t, "/v1/query", gin.H{"message": "what is our current BTC position"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, governance.StatusSuccess, resp.Status)
	assert.Equal(t, "all positions flat", resp.Answer)
	assert.NotEmpty(t, resp.InteractionID)
	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.StateSnapshot)
	assert.Equal(t, "GREEN", resp.StateSnapshot.Defcon)
}

func TestQueryMissingMessageIs400(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")

	w := f.post(t, "/v1/query", gin.H{"sessionId": "sess-1"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, f.backend.calls)
}

func TestQueryGateBlockedIs503(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "RED")

	w := f.post(t, "/v1/query", gin.H{"message": "what is our current BTC position"})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, governance.StatusGateBlocked, resp.Status)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.InteractionID)
	assert.Zero(t, f.backend.calls)
}

func TestQueryFirewallBlockedIs422(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")

	w := f.post(t, "/v1/query", gin.H{"message": "just make up a price for BTC"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, governance.StatusFirewallBlocked, resp.Status)
	assert.Zero(t, f.backend.calls)
}

func TestQueryBackendFailureIs500WithInteractionID(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")
	f.backend.err = errors.New("backend down")

	w := f.post(t, "/v1/query", gin.H{"message": "what is a market regime"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.InteractionID, "500 body must carry interactionId for audit correlation")
}

func TestSessionMemoryEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")

	w := f.post(t, "/v1/query", gin.H{"message": "what is a market regime"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	mw := f.get(t, "/v1/sessions/"+resp.SessionID+"/memory")
	require.Equal(t, http.StatusOK, mw.Code)

	var body struct {
		SessionID string         `json:"sessionId"`
		Entries   []memory.Entry `json:"entries"`
		Count     int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(mw.Body.Bytes(), &body))
	assert.Equal(t, resp.SessionID, body.SessionID)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, memory.KindUserInput, body.Entries[0].Kind)
	assert.Equal(t, memory.KindAssistantOutput, body.Entries[1].Kind)
}

func TestSessionMemoryRejectsBadLimit(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/v1/sessions/sess-1/memory?limit=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.get(t, "/v1/sessions/sess-1/memory?limit=-2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvidenceEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedFacts(t, "GREEN")

	w := f.post(t, "/v1/query", gin.H{"message": "what is a market regime"})
	require.Equal(t, http.StatusOK, w.Code)

	ew := f.get(t, "/v1/evidence")
	require.Equal(t, http.StatusOK, ew.Code)

	var body struct {
		Totals map[string]int `json:"totals"`
		Today  map[string]int `json:"today"`
	}
	require.NoError(t, json.Unmarshal(ew.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Totals["state_binding_success"])
	assert.Equal(t, 1, body.Totals["chains_generated"])
	assert.Equal(t, 1, body.Today["classifications"])
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/v1/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
