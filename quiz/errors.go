package quiz

import "errors"

// Sentinel errors for the quiz package.
// Use errors.Is to check: errors.Is(err, quiz.ErrState)
var (
	ErrState   = errors.New("quiz: operation not allowed in current phase")
	ErrPersist = errors.New("quiz: persist progress")
)
