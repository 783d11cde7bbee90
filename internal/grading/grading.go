// Package grading judges answers with the LLM and applies the write-once
// first-attempt rule to stored questions.
package grading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mondaiapp/mondai/internal/llm/prompts"
	"github.com/mondaiapp/mondai/internal/model"
)

// Completer produces a chat completion for a system instruction and prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Store is the persistence surface grading needs.
type Store interface {
	GetQuestion(id, userID int64) (model.Question, error)
	SetFirstResult(id int64, correct bool, correctOption, explanation string) error
	SetRetryResult(id int64, correct bool, correctOption, explanation string) error
	SaveStatistics(userID int64, correctCount int, accuracy float64, notAnswered int) error
	CountNotAnswered(userID int64) (int, error)
}

// Grader checks answers and updates questions and user statistics.
type Grader struct {
	llm   Completer
	store Store
}

// New creates a grader.
func New(llm Completer, store Store) *Grader {
	return &Grader{llm: llm, store: store}
}

// Result is the outcome of grading one answer.
type Result struct {
	Correct       bool
	CorrectOption string
	Explanation   string
	IsFirst       bool
}

// Grade judges the user's answer to a stored question, persists the outcome,
// and updates the user's statistics. The first grading of a question writes
// the first-attempt flag and never touches the retry flag; every later
// grading writes only the retry flag. Letter comparison ignores case.
func (g *Grader) Grade(ctx context.Context, u *model.User, questionID int64, userAnswer string) (*Result, error) {
	q, err := g.store.GetQuestion(questionID, u.ID)
	if err != nil {
		return nil, err
	}

	correctOption, explanation, err := g.CheckAnswer(ctx, q.Text, userAnswer)
	if err != nil {
		return nil, err
	}

	correct := strings.EqualFold(strings.TrimSpace(userAnswer), correctOption) && correctOption != ""

	isFirst := q.IsCorrectFirst == nil
	if isFirst {
		err = g.store.SetFirstResult(q.ID, correct, correctOption, explanation)
	} else {
		err = g.store.SetRetryResult(q.ID, correct, correctOption, explanation)
	}
	if err != nil {
		return nil, err
	}

	if err := g.updateStatistics(u, isFirst, correct); err != nil {
		return nil, err
	}

	slog.Info("graded answer", "user_id", u.ID, "question_id", q.ID,
		"correct", correct, "first", isFirst)
	return &Result{
		Correct:       correct,
		CorrectOption: correctOption,
		Explanation:   explanation,
		IsFirst:       isFirst,
	}, nil
}

// CheckAnswer asks the LLM to judge an answer and parses the correct option
// letter and the explanation out of its response. An unparseable response
// yields an empty correct option, which grades as incorrect.
func (g *Grader) CheckAnswer(ctx context.Context, questionText, userAnswer string) (correctOption, explanation string, err error) {
	raw, err := g.llm.Complete(ctx, prompts.GradingSystem, prompts.BuildGradingPrompt(questionText, userAnswer))
	if err != nil {
		return "", "", err
	}
	correctOption, explanation = parseGrading(raw)
	if correctOption == "" {
		slog.Warn("grading response missing correct option", "raw_length", len(raw))
	}
	return correctOption, explanation, nil
}

// parseGrading extracts the 正解: and 解説: lines from a grading response.
// Parentheses around the letter are stripped.
func parseGrading(raw string) (correctOption, explanation string) {
	replacer := strings.NewReplacer("正解:", "", "(", "", ")", "", "（", "", "）", "")
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "正解:"):
			correctOption = strings.TrimSpace(replacer.Replace(line))
		case strings.HasPrefix(line, "解説:"):
			explanation = strings.TrimSpace(strings.TrimPrefix(line, "解説:"))
		}
	}
	return correctOption, explanation
}

// updateStatistics bumps the correct count on a first-attempt success,
// recomputes the accuracy when any questions exist, and refreshes the
// not-answered count.
func (g *Grader) updateStatistics(u *model.User, isFirst, correct bool) error {
	if isFirst && correct {
		u.CorrectCount++
	}
	if u.GenerateCount > 0 {
		u.Accuracy = float64(u.CorrectCount) / float64(u.GenerateCount) * 100
	}
	notAnswered, err := g.store.CountNotAnswered(u.ID)
	if err != nil {
		return err
	}
	u.NotAnsweredCount = notAnswered
	return g.store.SaveStatistics(u.ID, u.CorrectCount, u.Accuracy, notAnswered)
}
