package models

// Question is one entry of the question bank.
// ID is the zero-based position of the question in the source document.
type Question struct {
	ID      int
	Prompt  string
	Answers []Answer
}

// Answer is a single answer option of a question.
type Answer struct {
	Text    string
	Correct bool
}

// CorrectSet returns the indices of the correct answers.
func (q Question) CorrectSet() map[int]bool {
	set := make(map[int]bool)
	for i, a := range q.Answers {
		if a.Correct {
			set[i] = true
		}
	}
	return set
}

// QuestionView is what the rendering layer gets to show.
// Answers are in presentation order; Index points into Question.Answers.
type QuestionView struct {
	QuestionID int
	Prompt     string
	Answers    []AnswerView
}

// AnswerView is an answer without its correctness flag.
type AnswerView struct {
	Index int
	Text  string
}

// Feedback is the result of a submitted answer.
type Feedback struct {
	QuestionID int
	Correct    bool
	Answers    []AnswerFeedback
	Counts     IndicatorCounts
}

// AnswerFeedback describes one answer after submission.
type AnswerFeedback struct {
	Index    int
	Text     string
	Correct  bool
	Selected bool
}
