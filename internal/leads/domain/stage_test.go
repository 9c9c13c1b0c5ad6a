package domain

import "testing"

// TestCanTransitionFullGrid checks every (from, to) pair against the
// transition table: the listed edges pass, everything else is rejected.
func TestCanTransitionFullGrid(t *testing.T) {
	allowed := map[Stage]map[Stage]bool{
		StageNew:          {StageQualifying: true},
		StageQualifying:   {StageQualified: true, StageDisqualified: true},
		StageQualified:    {StageConverted: true},
		StageConverted:    {},
		StageDisqualified: {StageQualifying: true},
	}

	for _, from := range AllStages {
		for _, to := range AllStages {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStages(t *testing.T) {
	if CanTransition(Stage("bogus"), StageQualifying) {
		t.Error("unknown from-stage must not transition")
	}
	if CanTransition(StageNew, Stage("bogus")) {
		t.Error("unknown to-stage must not be reachable")
	}
}

func TestConvertedIsHardTerminal(t *testing.T) {
	if targets := AllowedTargets(StageConverted); len(targets) != 0 {
		t.Errorf("converted must have no outgoing edges, got %v", targets)
	}
	if !IsTerminal(StageConverted) {
		t.Error("converted must be terminal")
	}
	if IsOpen(StageConverted) {
		t.Error("converted must not count as open")
	}
}

func TestDisqualifiedIsSoftTerminal(t *testing.T) {
	targets := AllowedTargets(StageDisqualified)
	if len(targets) != 1 || targets[0] != StageQualifying {
		t.Errorf("disqualified must only re-qualify, got %v", targets)
	}
	if !IsTerminal(StageDisqualified) {
		t.Error("disqualified must be terminal")
	}
	if IsOpen(StageDisqualified) {
		t.Error("disqualified must not count as open")
	}
}

func TestStageValidity(t *testing.T) {
	for _, stage := range AllStages {
		if !stage.IsValid() {
			t.Errorf("stage %s should be valid", stage)
		}
	}
	if Stage("Qualified").IsValid() {
		t.Error("stages are lowercase; mixed case must be invalid")
	}
	if Stage("").IsValid() {
		t.Error("empty stage must be invalid")
	}
}

func TestSourceValidity(t *testing.T) {
	for _, source := range []Source{SourceLogin, SourceEnquiry, SourceManual} {
		if !source.IsValid() {
			t.Errorf("source %s should be valid", source)
		}
	}
	if Source("web").IsValid() {
		t.Error("unknown source must be invalid")
	}
}
