package server

import "github.com/gin-gonic/gin"

// #region routes
// RegisterRoutes registers all gateway routes on the given engine.
//
//	POST /v1/query               - run one request through the pipeline
//	GET  /v1/sessions/:id/memory - bounded transcript read for audit review
//	GET  /v1/evidence            - cumulative + today's evidence counters
//	GET  /v1/health              - liveness
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	v1 := r.Group("/v1")
	{
		v1.POST("/query", h.HandleQuery)
		v1.GET("/sessions/:id/memory", h.HandleSessionMemory)
		v1.GET("/evidence", h.HandleEvidence)
		v1.GET("/health", h.HandleHealth)
	}
}

// #endregion routes
