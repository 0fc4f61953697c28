package pipeline

// #region imports
import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantops/cortex-gateway/internal/boundary"
	"github.com/quantops/cortex-gateway/internal/budget"
	"github.com/quantops/cortex-gateway/internal/chain"
	"github.com/quantops/cortex-gateway/internal/gate"
	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/memory"
	"github.com/quantops/cortex-gateway/internal/model"
	"github.com/quantops/cortex-gateway/internal/statevec"
)

// #endregion

// #region config

// Config holds orchestrator knobs.
type Config struct {
	MemoryLimit  int           // max transcript entries loaded per request
	ModelTimeout time.Duration // deadline on the model backend call
}

// DefaultConfig returns orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		MemoryLimit:  20,
		ModelTimeout: 60 * time.Second,
	}
}

// #endregion config

// #region orchestrator-struct

// Orchestrator ties every stage into one ordered, non-skippable sequence.
// It is the sole owner of Session rows; no other component writes them.
type Orchestrator struct {
	db       *sql.DB
	injector *statevec.Injector
	sessions *memory.Store
	chains   *chain.Store
	recorder *governance.Recorder
	evidence *governance.EvidenceAccumulator
	planner  *budget.Planner
	backend  model.Backend
	log      *zap.SugaredLogger
	config   Config
}

// New creates a fully wired orchestrator over the shared database.
func New(db *sql.DB, backend model.Backend, planner *budget.Planner, log *zap.SugaredLogger, config Config) *Orchestrator {
	return &Orchestrator{
		db:       db,
		injector: statevec.NewInjector(db),
		sessions: memory.NewStore(db, memory.DefaultTTL),
		chains:   chain.NewStore(db),
		recorder: governance.NewRecorder(db),
		evidence: governance.NewEvidenceAccumulator(db),
		planner:  planner,
		backend:  backend,
		log:      log,
		config:   config,
	}
}

// #endregion orchestrator-struct

// #region execute

// Execute runs one request through the full stage sequence. Policy blocks
// return a formed Response with a nil error; failures return the partial
// Response plus a taxonomy error. Either way the interaction record is
// written before returning.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp := Response{
		InteractionID: uuid.New().String(),
		Status:        governance.StatusFailed,
	}
	log := o.log.With("interaction_id", resp.InteractionID)

	if strings.TrimSpace(req.Message) == "" {
		resp.Error = "message is required"
		return resp, fmt.Errorf("%w: message is required", ErrValidation)
	}

	// Stage: session
	resp.StageTrace = append(resp.StageTrace, StageSession)
	sess, err := o.sessions.Resolve(req.SessionID)
	if err != nil {
		resp.Error = "session resolution failed"
		return resp, fmt.Errorf("%w: resolve session: %v", ErrPersistence, err)
	}
	resp.SessionID = sess.ID

	// Stage: snapshot (fail closed, no GREEN default)
	resp.StageTrace = append(resp.StageTrace, StageSnapshot)
	snap, err := o.injector.Capture()
	if err != nil {
		o.bumpCounter(&resp, governance.CounterStateBindingFailure, 1)
		o.finishRecord(&resp, sess.ID, "", req.Message, "", "state source unavailable", start)
		resp.Error = "system state unavailable"
		return resp, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	resp.StateSnapshot = snapshotView(snap)
	o.bumpCounter(&resp, governance.CounterStateBindingSuccess, 1)

	// Stage: gate (may short-circuit)
	resp.StageTrace = append(resp.StageTrace, StageGate)
	gd := gate.Evaluate(gate.Level(snap.Defcon))
	resp.GateDecision = &gd
	log.Infow("gate", "level", gd.Level, "permitted", gd.Permitted, "restrictions", len(gd.Restrictions))
	if !gd.Permitted {
		resp.Status = governance.StatusGateBlocked
		resp.Error = gd.Reason
		if err := o.finishRecord(&resp, sess.ID, snap.Hash, req.Message, "", gd.Reason, start); err != nil {
			return resp, err
		}
		return resp, nil
	}

	// Stage: boundary classification (may short-circuit on BLOCKED)
	resp.StageTrace = append(resp.StageTrace, StageBoundary)
	class := boundary.Classify(req.Message)
	resp.KnowledgeBoundary = &class
	o.bumpCounter(&resp, governance.CounterClassifications, 1)
	if err := boundary.Record(o.db, resp.InteractionID, class); err != nil {
		o.warn(&resp, log, "classification audit write failed", err)
	}
	log.Infow("boundary", "class", class.Class, "confidence", class.Confidence, "volatile", class.Volatile)
	if class.Class == boundary.ClassBlocked {
		nodes := chain.Build(req.Message, class, false)
		o.persistChain(&resp, log, nodes)
		resp.ChainOfQuery = nodes
		resp.Status = governance.StatusFirewallBlocked
		resp.Error = "query rejected by hallucination firewall"
		if err := o.finishRecord(&resp, sess.ID, snap.Hash, req.Message, "", resp.Error, start); err != nil {
			return resp, err
		}
		return resp, nil
	}

	// Stage: retrieval budget planning
	resp.StageTrace = append(resp.StageTrace, StageBudget)
	plan := o.planner.Plan(req.Message)
	resp.RetrievalDecision = &plan
	if plan.WithinBudget {
		o.bumpCounter(&resp, governance.CounterBudgetAdherent, 1)
	}
	if err := budget.Record(o.db, resp.InteractionID, plan); err != nil {
		o.warn(&resp, log, "retrieval decision audit write failed", err)
	}
	log.Infow("budget", "decision", plan.String())

	// Stage: reasoning chain (external tools frozen at elevated defcon)
	resp.StageTrace = append(resp.StageTrace, StageChain)
	retrieve := class.RetrievalTriggered && plan.Execute && !gd.Restricts(gate.RestrictNoExternalTools)
	nodes := chain.Build(req.Message, class, retrieve)
	o.persistChain(&resp, log, nodes)
	o.bumpCounter(&resp, governance.CounterChainsGenerated, 1)
	if retrieve {
		resp.ToolsUsed = append(resp.ToolsUsed, "retrieval")
	}

	// Stage: bounded memory load
	resp.StageTrace = append(resp.StageTrace, StageMemoryLoad)
	entries, err := o.sessions.Load(sess.ID, o.config.MemoryLimit)
	if err != nil {
		o.warn(&resp, log, "memory load failed, continuing without history", err)
		entries = nil
	}

	// Stage: prompt assembly
	resp.StageTrace = append(resp.StageTrace, StagePrompt)
	system := buildSystemPrompt(snap, gd, class)
	history := append(req.History, historyMessages(entries)...)

	// Stage: model call, with deadline
	resp.StageTrace = append(resp.StageTrace, StageModel)
	callCtx, cancel := context.WithTimeout(ctx, o.config.ModelTimeout)
	completion, err := o.backend.Complete(callCtx, system, history, req.Message)
	cancel()
	if err != nil {
		reason := ErrUpstream
		resp.Status = governance.StatusFailed
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ErrUpstreamTimeout
			resp.Status = governance.StatusTimeout
		}
		// Partial audit beats silent loss: the record is written before
		// the error is surfaced.
		resp.Error = "model backend failed"
		if recErr := o.finishRecord(&resp, sess.ID, snap.Hash, req.Message, "", err.Error(), start); recErr != nil {
			return resp, recErr
		}
		return resp, fmt.Errorf("%w: %v", reason, err)
	}
	resp.Answer = completion.Text
	resp.TokensUsed = completion.TotalTokens
	resp.CostUSD = completion.CostUSD

	// Terminal SYNTHESIS node reflects the actual outcome
	synth := chain.Synthesis(len(nodes), completion.TotalTokens, completion.CostUSD)
	if err := o.chains.Append(resp.InteractionID, synth); err != nil {
		o.warn(&resp, log, "synthesis node write failed", err)
	}
	resp.ChainOfQuery = append(nodes, synth)

	// Stage: governance record (primary audit row, fatal on failure)
	resp.Status = governance.StatusSuccess
	resp.Success = true
	if err := o.finishRecord(&resp, sess.ID, snap.Hash, req.Message, completion.Text, "", start); err != nil {
		resp.Success = false
		resp.Answer = ""
		return resp, err
	}

	// Stage: memory append (user turn, then assistant turn)
	resp.StageTrace = append(resp.StageTrace, StageMemoryAppend)
	if _, err := o.sessions.Append(sess.ID, memory.KindUserInput, req.Message, snap.Hash); err != nil {
		o.warn(&resp, log, "user memory append failed", err)
	}
	if _, err := o.sessions.Append(sess.ID, memory.KindAssistantOutput, completion.Text, snap.Hash); err != nil {
		o.warn(&resp, log, "assistant memory append failed", err)
	}

	// Stage: evidence counters
	resp.StageTrace = append(resp.StageTrace, StageCounters)

	log.Infow("complete", "session_id", sess.ID, "tokens", resp.TokensUsed,
		"cost_usd", resp.CostUSD, "latency_ms", time.Since(start).Milliseconds())
	return resp, nil
}

// #endregion execute

// #region helpers

// finishRecord writes the primary interaction record. A failure here is
// ErrPersistence: an unaudited response is never returned.
func (o *Orchestrator) finishRecord(resp *Response, sessionID, snapshotHash, query, answer, errText string, start time.Time) error {
	resp.StageTrace = append(resp.StageTrace, StageRecord)
	rec := governance.InteractionRecord{
		InteractionID: resp.InteractionID,
		SessionID:     sessionID,
		SnapshotHash:  snapshotHash,
		Query:         query,
		Response:      answer,
		Status:        resp.Status,
		Error:         errText,
		TokensUsed:    resp.TokensUsed,
		CostUSD:       resp.CostUSD,
		LatencyMs:     time.Since(start).Milliseconds(),
	}
	if err := o.recorder.Record(rec); err != nil {
		return fmt.Errorf("%w: interaction record: %v", ErrPersistence, err)
	}
	return nil
}

// bumpCounter increments an evidence counter; counter failures are
// secondary audit writes, logged and swallowed.
func (o *Orchestrator) bumpCounter(resp *Response, name governance.Counter, delta int) {
	if err := o.evidence.Increment(name, delta); err != nil {
		o.warn(resp, o.log, fmt.Sprintf("counter %s update failed", name), err)
	}
}

// persistChain writes nodes one at a time, in order.
func (o *Orchestrator) persistChain(resp *Response, log *zap.SugaredLogger, nodes []chain.Node) {
	for _, n := range nodes {
		if err := o.chains.Append(resp.InteractionID, n); err != nil {
			o.warn(resp, log, fmt.Sprintf("chain node %d write failed", n.Index), err)
			return
		}
	}
	resp.ChainOfQuery = nodes
}

func (o *Orchestrator) warn(resp *Response, log *zap.SugaredLogger, msg string, err error) {
	log.Warnw(msg, "error", err)
	resp.GovernanceWarnings = append(resp.GovernanceWarnings, msg)
}

// #endregion helpers
