// Package questions loads the read-only question bank.
package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/korjavin/pikttrainer/models"
	"github.com/korjavin/pikttrainer/validator"
)

// ErrLoad is returned when the question source is unreachable or malformed.
// Use errors.Is to check.
var ErrLoad = errors.New("questions: load failed")

// Pointers let the validator tell a missing field from a zero value.
type rawBank struct {
	Questions []rawQuestion `validate:"required,min=1,dive"`
}

type rawQuestion struct {
	Question *string     `json:"question" validate:"required"`
	Answers  []rawAnswer `json:"answers" validate:"required,min=1,dive"`
}

type rawAnswer struct {
	Text    *string `json:"text" validate:"required"`
	Correct *bool   `json:"correct" validate:"required"`
}

// Bank is the immutable list of questions. A question's ID is its index.
type Bank struct {
	questions []models.Question
}

// Load fetches and parses the question document.
func Load(ctx context.Context, src Source) (*Bank, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %v: %v", ErrLoad, src, err)
	}
	return Parse(data)
}

// Parse builds a bank from a JSON document of the form
// [{"question": "...", "answers": [{"text": "...", "correct": true}]}].
func Parse(data []byte) (*Bank, error) {
	var raw rawBank
	if err := json.Unmarshal(data, &raw.Questions); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrLoad, err)
	}
	if err := validator.ValidateStruct(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	questions := make([]models.Question, len(raw.Questions))
	for i, rq := range raw.Questions {
		answers := make([]models.Answer, len(rq.Answers))
		for j, ra := range rq.Answers {
			answers[j] = models.Answer{Text: *ra.Text, Correct: *ra.Correct}
		}
		questions[i] = models.Question{
			ID:      i,
			Prompt:  *rq.Question,
			Answers: answers,
		}
	}

	return &Bank{questions: questions}, nil
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Question returns the question with the given ID.
func (b *Bank) Question(id int) (models.Question, bool) {
	if id < 0 || id >= len(b.questions) {
		return models.Question{}, false
	}
	return b.questions[id], true
}

// IDs returns [0, 1, ..., Len()-1].
func (b *Bank) IDs() []int {
	ids := make([]int, len(b.questions))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Questions returns a copy of all questions in source order.
func (b *Bank) Questions() []models.Question {
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out
}
