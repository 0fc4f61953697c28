package gate

import "fmt"

// #region evaluate
// Evaluate maps a defcon level to a permission decision. Pure function,
// called once per request. Unrecognized levels fail closed.
func Evaluate(level Level) Decision {
	switch level {
	case LevelGreen:
		return Decision{Level: level, Permitted: true}

	case LevelYellow:
		return Decision{
			Level:     level,
			Permitted: true,
			Restrictions: []Restriction{
				RestrictCostAware,
				RestrictNoExternalTools,
				RestrictReducedDepth,
			},
		}

	case LevelOrange:
		return Decision{
			Level:     level,
			Permitted: true,
			Restrictions: []Restriction{
				RestrictNoHypotheses,
				RestrictDirectedOnly,
			},
		}

	case LevelRed:
		return Decision{
			Level:     level,
			Permitted: false,
			Reason:    "cognitive resources reallocated to active incident",
		}

	case LevelBlack:
		return Decision{
			Level:     level,
			Permitted: false,
			Reason:    "total system halt in effect",
		}

	default:
		return Decision{
			Level:     level,
			Permitted: false,
			Reason:    fmt.Sprintf("unrecognized defcon level %q, failing closed", string(level)),
		}
	}
}

// #endregion evaluate

// #region restricts
// Restricts reports whether the decision carries the given restriction.
func (d Decision) Restricts(r Restriction) bool {
	for _, have := range d.Restrictions {
		if have == r {
			return true
		}
	}
	return false
}

// #endregion restricts
