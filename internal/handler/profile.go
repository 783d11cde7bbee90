package handler

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/qtext"
)

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	favorite, err := h.store.FavoriteTopic(u.ID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if favorite == "" {
		favorite = "なし"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"correct_count":      u.CorrectCount,
		"generate_count":     u.GenerateCount,
		"accuracy":           math.Round(u.Accuracy*10) / 10,
		"not_answered_count": u.NotAnsweredCount,
		"favorite_keyword":   favorite,
	})
}

func (h *Handler) handleAllKeywords(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	search := r.URL.Query().Get("search")
	sort := r.URL.Query().Get("sort")

	topics, err := h.store.ListTopics(u.ID, search, sort)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_themes": topics})
}

func (h *Handler) handleKeywordHistory(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	topics, err := h.store.ListTopics(u.ID, "", "")
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	keywords := make([]string, 0, len(topics))
	for _, t := range topics {
		keywords = append(keywords, t.Topic)
	}
	writeJSON(w, http.StatusOK, map[string]any{"keywords": keywords})
}

// handleAllQuestions lists every question the user has, grouped by topic.
func (h *Handler) handleAllQuestions(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	topics, err := h.store.ListTopics(u.ID, "", "")
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	grouped := make(map[string][]model.CleanedQuestion, len(topics))
	for _, t := range topics {
		questions, err := h.store.ListQuestionsByTopic(u.ID, t.Topic)
		if err != nil {
			h.domainError(w, r, err)
			return
		}
		grouped[t.Topic] = qtext.Clean(questions)
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": grouped})
}

// filterQuestions narrows a topic's questions by their grading outcome.
// Unknown filter values pass everything through.
func filterQuestions(questions []model.Question, filter string) []model.Question {
	match := func(q model.Question) bool {
		switch filter {
		case "correct_first":
			return q.IsCorrectFirst != nil && *q.IsCorrectFirst
		case "incorrect_first":
			return q.IsCorrectFirst != nil && !*q.IsCorrectFirst
		case "correct_second":
			return q.IsCorrect != nil && *q.IsCorrect
		case "incorrect_second":
			return q.IsCorrect != nil && !*q.IsCorrect
		case "retry_none":
			return q.IsCorrect == nil
		default:
			return true
		}
	}
	filtered := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if match(q) {
			filtered = append(filtered, q)
		}
	}
	return filtered
}

func (h *Handler) handleKeywordQuestions(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	keyword := chi.URLParam(r, "keyword")
	filter := r.URL.Query().Get("filter")

	questions, err := h.store.ListQuestionsByTopic(u.ID, keyword)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	questions = filterQuestions(questions, filter)

	sets, err := h.store.ListQuestionSets(u.ID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"keyword":       keyword,
		"questions":     qtext.Clean(questions),
		"question_sets": sets,
	})
}
