package gate

import "testing"

func TestGreenPermittedNoRestrictions(t *testing.T) {
	d := Evaluate(LevelGreen)

	if !d.Permitted {
		t.Fatal("GREEN should be permitted")
	}
	if len(d.Restrictions) != 0 {
		t.Fatalf("GREEN should carry no restrictions, got %v", d.Restrictions)
	}
	if d.Reason != "" {
		t.Fatalf("GREEN should carry no reason, got %q", d.Reason)
	}
}

func TestYellowPermittedWithRestrictions(t *testing.T) {
	d := Evaluate(LevelYellow)

	if !d.Permitted {
		t.Fatal("YELLOW should be permitted")
	}
	for _, want := range []Restriction{RestrictCostAware, RestrictNoExternalTools, RestrictReducedDepth} {
		if !d.Restricts(want) {
			t.Errorf("YELLOW should restrict %s", want)
		}
	}
}

func TestOrangePermittedDirectedOnly(t *testing.T) {
	d := Evaluate(LevelOrange)

	if !d.Permitted {
		t.Fatal("ORANGE should be permitted")
	}
	if !d.Restricts(RestrictNoHypotheses) {
		t.Error("ORANGE should freeze hypothesis generation")
	}
	if !d.Restricts(RestrictDirectedOnly) {
		t.Error("ORANGE should allow directed tasks only")
	}
}

func TestRedNotPermitted(t *testing.T) {
	d := Evaluate(LevelRed)

	if d.Permitted {
		t.Fatal("RED should not be permitted")
	}
	if d.Reason == "" {
		t.Fatal("RED should carry a reason")
	}
}

func TestBlackNotPermitted(t *testing.T) {
	d := Evaluate(LevelBlack)

	if d.Permitted {
		t.Fatal("BLACK should not be permitted")
	}
	if d.Reason == "" {
		t.Fatal("BLACK should carry a reason")
	}
}

func TestUnknownLevelFailsClosed(t *testing.T) {
	for _, level := range []Level{"", "PURPLE", "green", "Green "} {
		d := Evaluate(level)
		if d.Permitted {
			t.Errorf("level %q should fail closed", level)
		}
	}
}

func TestRestrictsMissing(t *testing.T) {
	d := Evaluate(LevelGreen)
	if d.Restricts(RestrictCostAware) {
		t.Fatal("GREEN should not restrict cost-aware mode")
	}
}
