package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantops/cortex-gateway/internal/budget"
	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/memory"
	"github.com/quantops/cortex-gateway/internal/model"
	"github.com/quantops/cortex-gateway/internal/pipeline"
	"github.com/quantops/cortex-gateway/internal/server"
	"github.com/quantops/cortex-gateway/internal/store"
)

// #region main
func main() {
	dbPath := envOr("CORTEX_DB", "cortex_gateway.db")
	addr := envOr("CORTEX_ADDR", ":8090")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	slog := logger.Sugar()

	st, err := store.Open(dbPath)
	if err != nil {
		slog.Fatalw("failed to open store", "path", dbPath, "error", err)
	}
	defer st.Close()

	// State facts are an explicit operator responsibility: requests fail
	// closed when they are absent. Seeding is opt-in, never implicit.
	ok, err := st.HasStateFacts()
	if err != nil {
		slog.Fatalw("failed to check state facts", "error", err)
	}
	if !ok {
		if envOr("CORTEX_SEED_STATE", "") == "true" {
			if err := st.SeedDefaults(); err != nil {
				slog.Fatalw("failed to seed state facts", "error", err)
			}
			slog.Infow("seeded initial state facts", "defcon", "GREEN")
		} else {
			slog.Warnw("no state facts present; all requests will fail closed until the state source is populated")
		}
	}

	backend, err := model.NewOpenAIBackend(model.OpenAIConfig{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:        envOr("OPENAI_MODEL", ""),
		BaseURL:      envOr("OPENAI_BASE_URL", ""),
		CostPerToken: envFloat("CORTEX_COST_PER_TOKEN", 0.00002),
	})
	if err != nil {
		slog.Fatalw("failed to build model backend", "error", err)
	}

	plannerCfg := budget.DefaultConfig()
	plannerCfg.RemainingBudgetUSD = envFloat("CORTEX_BUDGET_USD", plannerCfg.RemainingBudgetUSD)

	orchCfg := pipeline.DefaultConfig()
	orchCfg.MemoryLimit = envInt("CORTEX_MEMORY_LIMIT", orchCfg.MemoryLimit)
	orchCfg.ModelTimeout = envDuration("CORTEX_MODEL_TIMEOUT", orchCfg.ModelTimeout)

	orch := pipeline.New(st.DB(), backend, budget.NewPlanner(plannerCfg), slog, orchCfg)
	sessions := memory.NewStore(st.DB(), memory.DefaultTTL)
	evidence := governance.NewEvidenceAccumulator(st.DB())

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	server.RegisterRoutes(r, server.NewHandlers(orch, sessions, evidence, slog))

	slog.Infow("cortex gateway ready", "addr", addr, "db", dbPath)
	if err := r.Run(addr); err != nil {
		slog.Fatalw("server exited", "error", err)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// #endregion helpers
