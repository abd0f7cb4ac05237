// Package quiz implements the adaptive review loop: mastery scores, the
// review queue and the session that ties them to a question bank.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/korjavin/pikttrainer/models"
	"github.com/korjavin/pikttrainer/questions"
	"go.uber.org/zap"
)

// Phase is the state of a session.
type Phase int

const (
	Presenting Phase = iota // A question is shown, awaiting submission.
	Reviewing               // Feedback is shown, awaiting advance.
)

func (p Phase) String() string {
	switch p {
	case Presenting:
		return "Presenting"
	case Reviewing:
		return "Reviewing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Options configures a Session. Zero values produce sensible defaults.
type Options struct {
	Rand   *rand.Rand  // nil → seeded from the clock
	Logger *zap.Logger // nil → no-op
}

// Session drives one learner through the question bank.
// It is not safe for concurrent use.
type Session struct {
	bank    *questions.Bank
	storage Storage
	scores  *ScoreStore
	queue   *ReviewQueue
	rng     *rand.Rand
	log     *zap.Logger

	phase   Phase
	current models.Question
	order   []int // answer indices in the order last presented
}

// Start loads the question bank from src and opens a session on it.
// A load failure is returned as is and no session is created.
func Start(ctx context.Context, src questions.Source, storage Storage, opts Options) (*Session, error) {
	bank, err := questions.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewSession(bank, storage, opts), nil
}

// NewSession restores progress from storage and presents the queue's front.
func NewSession(bank *questions.Bank, storage Storage, opts Options) *Session {
	rng := opts.Rand
	if rng == nil {
		rng = newRand()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ids := bank.IDs()
	s := &Session{
		bank:    bank,
		storage: storage,
		scores:  NewScoreStore(storage, ids, log),
		queue:   NewReviewQueue(storage, ids, rng, log),
		rng:     rng,
		log:     log,
	}
	s.presentFront()
	return s
}

func (s *Session) presentFront() {
	id := s.queue.Front()
	q, ok := s.bank.Question(id)
	if !ok {
		// Unreachable while the queue holds a permutation of bank ids.
		panic(fmt.Sprintf("quiz: queue front %d not in bank", id))
	}
	s.current = q
	s.order = nil
	s.phase = Presenting
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Current returns the question being asked or reviewed.
func (s *Session) Current() models.Question {
	return s.current
}

// Present returns the current question with its answers in a fresh random
// order. Correctness flags are left out.
func (s *Session) Present() models.QuestionView {
	order := make([]int, len(s.current.Answers))
	for i := range order {
		order[i] = i
	}
	shuffle(order, s.rng)
	s.order = order

	view := models.QuestionView{
		QuestionID: s.current.ID,
		Prompt:     s.current.Prompt,
		Answers:    make([]models.AnswerView, len(order)),
	}
	for i, idx := range order {
		view.Answers[i] = models.AnswerView{Index: idx, Text: s.current.Answers[idx].Text}
	}
	return view
}

// Submit grades the selected answer indices. The answer is correct only if
// the selection is exactly the set of correct answers.
func (s *Session) Submit(selections []int) (models.Feedback, error) {
	if s.phase != Presenting {
		return models.Feedback{}, fmt.Errorf("%w: submit while %v", ErrState, s.phase)
	}

	selected := make(map[int]bool, len(selections))
	for _, idx := range selections {
		selected[idx] = true
	}
	correct := sameSet(selected, s.current.CorrectSet())

	state := models.NotLearned
	if correct {
		state = models.Learned
	}
	s.scores.Set(s.current.ID, state)
	s.queue.RecordOutcome(correct)
	s.phase = Reviewing

	s.log.Debug("answer graded",
		zap.Int("question_id", s.current.ID),
		zap.Bool("correct", correct),
		zap.Ints("queue", s.queue.IDs()),
	)

	fb := s.feedback(selected, correct)
	if err := s.persist(); err != nil {
		return fb, err
	}
	return fb, nil
}

func (s *Session) feedback(selected map[int]bool, correct bool) models.Feedback {
	order := s.order
	if order == nil {
		order = make([]int, len(s.current.Answers))
		for i := range order {
			order[i] = i
		}
	}

	fb := models.Feedback{
		QuestionID: s.current.ID,
		Correct:    correct,
		Answers:    make([]models.AnswerFeedback, len(order)),
		Counts:     s.Counts(),
	}
	for i, idx := range order {
		a := s.current.Answers[idx]
		fb.Answers[i] = models.AnswerFeedback{
			Index:    idx,
			Text:     a.Text,
			Correct:  a.Correct,
			Selected: selected[idx],
		}
	}
	return fb
}

// Advance moves on to the queue's front question.
func (s *Session) Advance() (models.QuestionView, error) {
	if s.phase != Reviewing {
		return models.QuestionView{}, fmt.Errorf("%w: advance while %v", ErrState, s.phase)
	}
	s.presentFront()
	return s.Present(), nil
}

// Reset forgets all progress: every score goes back to New and the queue is
// reshuffled. It is allowed in either phase.
func (s *Session) Reset() (models.QuestionView, error) {
	var errs []error
	for _, key := range []string{ScoresKey, QueueKey} {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	ids := s.bank.IDs()
	s.scores.ResetAll(ids)
	s.queue.Rebuild()
	if err := s.queue.Persist(); err != nil {
		errs = append(errs, err)
	}
	s.presentFront()
	s.log.Info("progress reset", zap.Int("questions", len(ids)))

	view := s.Present()
	if len(errs) > 0 {
		return view, fmt.Errorf("%w: %w", ErrPersist, errors.Join(errs...))
	}
	return view, nil
}

// Counts returns how many questions are in each mastery state.
func (s *Session) Counts() models.IndicatorCounts {
	return s.scores.Counts()
}

// QueueIDs returns the current review order.
func (s *Session) QueueIDs() []int {
	return s.queue.IDs()
}

// State returns the mastery state of a question.
func (s *Session) State(id int) models.MasteryState {
	return s.scores.Get(id)
}

// persist saves scores then queue so a restart never lags the last answer.
func (s *Session) persist() error {
	if err := s.scores.Persist(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.queue.Persist(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func sameSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
