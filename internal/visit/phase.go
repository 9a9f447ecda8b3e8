package visit

import (
	"fmt"
	"regexp"
	"strings"
)

// PhaseKind is the display bucket of a visit phase.
type PhaseKind int

const (
	PhaseDefault PhaseKind = iota
	PhaseLead
	PhaseFollowUp
	PhaseClosure
)

// MaxFollowUp is the highest follow-up round with its own tier.
const MaxFollowUp = 8

// Phase is the classified form of a free-text visit phase.
type Phase struct {
	Kind     PhaseKind
	FollowUp int // 1..MaxFollowUp when Kind == PhaseFollowUp
}

// Tier returns a stable key presentation code can map to colors or badges.
func (p Phase) Tier() string {
	switch p.Kind {
	case PhaseLead:
		return "lead"
	case PhaseClosure:
		return "closure"
	case PhaseFollowUp:
		return fmt.Sprintf("follow-up-%d", p.FollowUp)
	default:
		return "default"
	}
}

var followUpPattern = regexp.MustCompile(`(?i)follow up[\s\-\x{2013}\x{2014}]*([a-z]+)`)

var romanNumerals = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4,
	"V": 5, "VI": 6, "VII": 7, "VIII": 8,
}

// RomanToNumber decodes I..VIII in any case. Anything else is 0.
func RomanToNumber(s string) int {
	return romanNumerals[strings.ToUpper(strings.TrimSpace(s))]
}

// ClassifyPhase maps a phase string such as "Lead", "Follow up - III" or
// "Closure" to its bucket. Unrecognized text is PhaseDefault.
func ClassifyPhase(phase string) Phase {
	lower := strings.ToLower(strings.TrimSpace(phase))
	switch {
	case lower == "":
		return Phase{}
	case lower == "lead":
		return Phase{Kind: PhaseLead}
	case strings.Contains(lower, "follow up"):
		m := followUpPattern.FindStringSubmatch(phase)
		if m == nil {
			return Phase{}
		}
		n := RomanToNumber(m[1])
		if n < 1 || n > MaxFollowUp {
			return Phase{}
		}
		return Phase{Kind: PhaseFollowUp, FollowUp: n}
	case lower == "closure":
		return Phase{Kind: PhaseClosure}
	default:
		return Phase{}
	}
}

// IsClosure reports whether phase counts as a successful conversion.
func IsClosure(phase string) bool {
	return strings.EqualFold(phase, "closure")
}

// IsPendingFollowUp reports whether phase counts as a pending follow-up.
func IsPendingFollowUp(phase string) bool {
	return strings.Contains(strings.ToLower(phase), "follow")
}
