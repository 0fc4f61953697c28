package gate

// #region level
// Level is the five-value system-wide readiness gate.
type Level string

const (
	LevelGreen  Level = "GREEN"
	LevelYellow Level = "YELLOW"
	LevelOrange Level = "ORANGE"
	LevelRed    Level = "RED"
	LevelBlack  Level = "BLACK"
)

// #endregion level

// #region restrictions
// Restriction names a capability the pipeline must withhold at elevated levels.
type Restriction string

const (
	RestrictCostAware       Restriction = "cost_aware_mode"
	RestrictNoExternalTools Restriction = "disable_external_tools"
	RestrictReducedDepth    Restriction = "reduce_search_depth"
	RestrictDirectedOnly    Restriction = "directed_tasks_only"
	RestrictNoHypotheses    Restriction = "freeze_hypothesis_generation"
)

// #endregion restrictions

// #region decision
// Decision is the output of evaluating the defcon gate.
type Decision struct {
	Level        Level         `json:"level"`
	Permitted    bool          `json:"permitted"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
	Reason       string        `json:"reason,omitempty"` // set when not permitted
}

// #endregion decision
