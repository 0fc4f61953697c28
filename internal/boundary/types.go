package boundary

// #region class
// Class places a query relative to the knowledge boundary.
type Class string

const (
	ClassParametric       Class = "PARAMETRIC"
	ClassExternalRequired Class = "EXTERNAL_REQUIRED"
	ClassHybrid           Class = "HYBRID"
	ClassBlocked          Class = "BLOCKED"
)

// #endregion class

// #region result
// Result is the full classification output for one query.
// Immutable once computed; persisted before the pipeline proceeds.
type Result struct {
	Class              Class   `json:"class"`
	Confidence         float64 `json:"confidence"` // [0.5, 0.95] from the winning score
	Volatile           bool    `json:"volatile"`   // time-sensitive topic, independent of Class
	RetrievalTriggered bool    `json:"retrievalTriggered"`
	Rationale          string  `json:"rationale"`
}

// #endregion result
