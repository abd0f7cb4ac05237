package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/korjavin/pikttrainer/models"
	"go.uber.org/zap"
)

// ScoreStore maps question IDs to their mastery state.
type ScoreStore struct {
	storage Storage
	states  map[int]models.MasteryState
	log     *zap.Logger
}

// NewScoreStore restores persisted scores for ids. Absent ids, invalid
// values and unreadable or corrupt data all fall back to New.
func NewScoreStore(storage Storage, ids []int, log *zap.Logger) *ScoreStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ScoreStore{
		storage: storage,
		states:  make(map[int]models.MasteryState, len(ids)),
		log:     log,
	}

	saved := s.restore()
	for _, id := range ids {
		state, ok := saved[strconv.Itoa(id)]
		if !ok || !models.MasteryState(state).IsValid() {
			state = int(models.New)
		}
		s.states[id] = models.MasteryState(state)
	}
	return s
}

func (s *ScoreStore) restore() map[string]int {
	raw, ok, err := s.storage.Get(ScoresKey)
	if err != nil {
		s.log.Warn("failed to read saved scores, starting fresh", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var saved map[string]int
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.log.Warn("discarding corrupt saved scores", zap.Error(err))
		return nil
	}
	return saved
}

// Get returns the state of id; unknown ids are New.
func (s *ScoreStore) Get(id int) models.MasteryState {
	return s.states[id]
}

// Set overwrites the state of id. Any state may replace any other.
func (s *ScoreStore) Set(id int, state models.MasteryState) {
	s.states[id] = state
}

// ResetAll sets every id to New and forgets all other entries.
func (s *ScoreStore) ResetAll(ids []int) {
	s.states = make(map[int]models.MasteryState, len(ids))
	for _, id := range ids {
		s.states[id] = models.New
	}
}

// Len returns the number of tracked ids.
func (s *ScoreStore) Len() int {
	return len(s.states)
}

// Counts tallies the tracked ids by state.
func (s *ScoreStore) Counts() models.IndicatorCounts {
	var c models.IndicatorCounts
	for _, state := range s.states {
		switch state {
		case models.New:
			c.New++
		case models.NotLearned:
			c.NotLearned++
		case models.Learned:
			c.Learned++
		}
	}
	return c
}

// Persist writes the full mapping as a JSON object keyed by id.
func (s *ScoreStore) Persist() error {
	out := make(map[string]int, len(s.states))
	for id, state := range s.states {
		out[strconv.Itoa(id)] = int(state)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	if err := s.storage.Set(ScoresKey, string(data)); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}
