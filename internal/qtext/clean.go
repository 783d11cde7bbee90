package qtext

import "github.com/mondaiapp/mondai/internal/model"

// Clean prepares stored questions for a listing view: each text blob is
// reduced to its normalized stem, keeping the original text and the
// answer-state flags alongside.
func Clean(questions []model.Question) []model.CleanedQuestion {
	cleaned := make([]model.CleanedQuestion, 0, len(questions))
	for _, q := range questions {
		cleaned = append(cleaned, model.CleanedQuestion{
			ID:             q.ID,
			Number:         q.Number,
			Text:           Normalize(q.Text),
			OriginalText:   q.Text,
			IsCorrectFirst: q.IsCorrectFirst,
			IsCorrect:      q.IsCorrect,
		})
	}
	return cleaned
}
