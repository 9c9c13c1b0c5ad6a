// Package domain provides core business rules for the leads bounded context.
package domain

// Stage is a lead's position in the qualification pipeline.
type Stage string

const (
	StageNew          Stage = "new"
	StageQualifying   Stage = "qualifying"
	StageQualified    Stage = "qualified"
	StageConverted    Stage = "converted"
	StageDisqualified Stage = "disqualified"
)

// Source records how a lead was captured. Immutable after creation.
type Source string

const (
	SourceLogin   Source = "login"
	SourceEnquiry Source = "enquiry"
	SourceManual  Source = "manual"
)

// allowedTransitions is the only source of truth for legal stage edges.
// Converted is a hard terminal; Disqualified can only be re-qualified.
var allowedTransitions = map[Stage][]Stage{
	StageNew:          {StageQualifying},
	StageQualifying:   {StageQualified, StageDisqualified},
	StageQualified:    {StageConverted},
	StageConverted:    {},
	StageDisqualified: {StageQualifying},
}

// AllStages lists every valid stage, pipeline order.
var AllStages = []Stage{StageNew, StageQualifying, StageQualified, StageConverted, StageDisqualified}

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	switch s {
	case SourceLogin, SourceEnquiry, SourceManual:
		return true
	}
	return false
}

// CanTransition reports whether the edge from → to is in the transition table.
func CanTransition(from, to Stage) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the stages reachable from the given stage.
func AllowedTargets(from Stage) []Stage {
	return append([]Stage(nil), allowedTransitions[from]...)
}

// IsTerminal reports whether no further pipeline work happens in this stage.
// Converted is hard terminal; Disqualified is soft terminal (re-qualifiable).
func IsTerminal(s Stage) bool {
	return s == StageConverted || s == StageDisqualified
}

// IsOpen reports whether the lead still counts as an open pipeline entry.
// Used by login-sourced dedup, which only matches open leads.
func IsOpen(s Stage) bool {
	return !IsTerminal(s)
}
