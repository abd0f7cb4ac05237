package models

import "fmt"

// MasteryState tracks whether a question is unseen, missed, or answered correctly.
// The integer values are part of the persisted format.
type MasteryState int

const (
	New        MasteryState = iota // Never answered.
	NotLearned                     // Last answer was wrong.
	Learned                        // Last answer was right.
)

var masteryNames = [...]string{New: "New", NotLearned: "NotLearned", Learned: "Learned"}

// Compile-time interface check.
var _ fmt.Stringer = MasteryState(0)

// IsValid reports whether s is one of New, NotLearned or Learned.
func (s MasteryState) IsValid() bool {
	return s >= New && s <= Learned
}

// String returns the name of the state. For invalid values it returns "MasteryState(n)".
func (s MasteryState) String() string {
	if s.IsValid() {
		return masteryNames[s]
	}
	return fmt.Sprintf("MasteryState(%d)", int(s))
}

// IndicatorCounts is the number of questions in each mastery state.
type IndicatorCounts struct {
	New        int
	NotLearned int
	Learned    int
}

// Total returns the number of counted questions.
func (c IndicatorCounts) Total() int {
	return c.New + c.NotLearned + c.Learned
}
