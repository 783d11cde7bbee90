// Package view builds the JSON view models for the question lifecycle pages.
package view

import (
	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/qtext"
)

// QuestionView is the payload for displaying one question of a batch.
type QuestionView struct {
	QuestionID     int64          `json:"question_id"`
	QuestionText   string         `json:"question_text"`
	Stem           string         `json:"stem"`
	Options        []qtext.Option `json:"options"`
	Keyword        string         `json:"keyword"`
	QuestionNumber int            `json:"question_number"`
	TotalQuestions int            `json:"total_questions"`
	HasNext        bool           `json:"has_next"`
	HasPrevious    bool           `json:"has_previous"`
	NextNumber     int            `json:"next_number"`
	IsRetry        bool           `json:"is_retry"`
}

// AnswerView is the payload shown right after an answer is graded.
type AnswerView struct {
	QuestionID     int64  `json:"question_id"`
	Question       string `json:"question"`
	Keyword        string `json:"keyword"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
	HasNext        bool   `json:"has_next"`
	NextNumber     int    `json:"next_number"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation"`
	CorrectOption  string `json:"correct_option"`
	IsRetry        bool   `json:"is_retry"`
	UserAnswer     string `json:"user_answer"`
	ShowBackLink   bool   `json:"show_back_link"`
	ShowUserAnswer bool   `json:"show_user_answer"`
	ShowImages     bool   `json:"show_images"`
	ShowNextButton bool   `json:"show_next_button"`
}

// ExplanationView is the payload for revisiting a stored explanation.
type ExplanationView struct {
	QuestionID     int64  `json:"question_id"`
	Question       string `json:"question"`
	Keyword        string `json:"keyword"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
	HasNext        bool   `json:"has_next"`
	NextNumber     int    `json:"next_number"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation"`
	CorrectOption  string `json:"correct_option"`
	IsRetry        bool   `json:"is_retry"`
	UserAnswer     string `json:"user_answer"`
	ShowBackLink   bool   `json:"show_back_link"`
	ShowUserAnswer bool   `json:"show_user_answer"`
	ShowImages     bool   `json:"show_images"`
	ShowNextButton bool   `json:"show_next_button"`
}

// NewQuestionView builds the view for one question of a batch. The stem and
// options come from parsing the stored text; navigation flags derive from the
// position within the batch.
func NewQuestionView(ref model.QuestionRef, total int, isRetry bool) QuestionView {
	stem, options := qtext.Parse(ref.Text)
	return QuestionView{
		QuestionID:     ref.ID,
		QuestionText:   ref.Text,
		Stem:           stem,
		Options:        options,
		Keyword:        ref.Topic,
		QuestionNumber: ref.Number,
		TotalQuestions: total,
		HasNext:        ref.Number < total,
		HasPrevious:    ref.Number > 1,
		NextNumber:     ref.Number + 1,
		IsRetry:        isRetry,
	}
}

// NewAnswerView builds the post-grading view. Retry mode hides the back link
// and the next button; the user's own answer and images always show.
func NewAnswerView(questionID int64, questionText, keyword string, number, total int,
	correct bool, explanation, correctOption string, isRetry bool, userAnswer string) AnswerView {
	return AnswerView{
		QuestionID:     questionID,
		Question:       questionText,
		Keyword:        keyword,
		QuestionNumber: number,
		TotalQuestions: total,
		HasNext:        number < total,
		NextNumber:     number + 1,
		IsCorrect:      correct,
		Explanation:    explanation,
		CorrectOption:  correctOption,
		IsRetry:        isRetry,
		UserAnswer:     userAnswer,
		ShowBackLink:   !isRetry,
		ShowUserAnswer: true,
		ShowImages:     true,
		ShowNextButton: !isRetry,
	}
}

// NewExplanationView builds the review view for a stored explanation. The
// correctness shown prefers the first-attempt outcome and falls back to the
// retry outcome. The view is a standalone page: total is one, navigation and
// display extras are off.
func NewExplanationView(q *model.Question, keyword string, number int, isRetry bool) ExplanationView {
	correct := false
	if q.IsCorrectFirst != nil {
		correct = *q.IsCorrectFirst
	} else if q.IsCorrect != nil {
		correct = *q.IsCorrect
	}
	return ExplanationView{
		QuestionID:     q.ID,
		Question:       q.Text,
		Keyword:        keyword,
		QuestionNumber: number,
		TotalQuestions: 1,
		HasNext:        false,
		NextNumber:     number + 1,
		IsCorrect:      correct,
		Explanation:    q.Explanation,
		CorrectOption:  q.CorrectOption,
		IsRetry:        isRetry,
		ShowBackLink:   false,
		ShowUserAnswer: false,
		ShowImages:     false,
		ShowNextButton: false,
	}
}
