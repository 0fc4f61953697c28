package server

// #region imports
import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/memory"
	"github.com/quantops/cortex-gateway/internal/pipeline"
)

// #endregion

// #region handlers-struct

// Handlers exposes the pipeline over HTTP.
type Handlers struct {
	orch     *pipeline.Orchestrator
	sessions *memory.Store
	evidence *governance.EvidenceAccumulator
	log      *zap.SugaredLogger
}

// NewHandlers creates the handler set.
func NewHandlers(orch *pipeline.Orchestrator, sessions *memory.Store, evidence *governance.EvidenceAccumulator, log *zap.SugaredLogger) *Handlers {
	return &Handlers{orch: orch, sessions: sessions, evidence: evidence, log: log}
}

// #endregion handlers-struct

// #region query

// HandleQuery handles POST /v1/query.
//
// Status codes:
//
//	200 success
//	400 missing message
//	422 blocked by knowledge-boundary firewall
//	503 blocked by defcon gate
//	500 unexpected failure (body still carries interactionId for audit correlation)
func (h *Handlers) HandleQuery(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "message is required",
		})
		return
	}

	resp, err := h.orch.Execute(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrValidation) {
			status = http.StatusBadRequest
		}
		h.log.Errorw("query failed", "interaction_id", resp.InteractionID, "error", err)
		resp.Success = false
		c.JSON(status, resp)
		return
	}

	switch resp.Status {
	case governance.StatusGateBlocked:
		c.JSON(http.StatusServiceUnavailable, resp)
	case governance.StatusFirewallBlocked:
		c.JSON(http.StatusUnprocessableEntity, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// #endregion query

// #region session-memory

// HandleSessionMemory handles GET /v1/sessions/:id/memory.
// Returns the most recent entries in chronological order; limit defaults
// to 50 and is capped at 500.
func (h *Handlers) HandleSessionMemory(c *gin.Context) {
	sessionID := c.Param("id")

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	entries, err := h.sessions.Load(sessionID, limit)
	if err != nil {
		h.log.Errorw("memory load failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "memory load failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"entries":   entries,
		"count":     len(entries),
	})
}

// #endregion session-memory

// #region evidence

// HandleEvidence handles GET /v1/evidence: cumulative counters plus
// today's bucket.
func (h *Handlers) HandleEvidence(c *gin.Context) {
	totals, err := h.evidence.Totals()
	if err != nil {
		h.log.Errorw("evidence totals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "counter read failed"})
		return
	}
	today, err := h.evidence.Today()
	if err != nil {
		h.log.Errorw("evidence daily read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "counter read failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": totals,
		"today":  today,
	})
}

// #endregion evidence

// #region health

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// #endregion health
