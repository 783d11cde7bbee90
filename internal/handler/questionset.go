package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mondaiapp/mondai/internal/model"
)

type createQuestionSetRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Publisher   string   `json:"publisher"`
	Questions   []string `json:"questions"`
}

func (h *Handler) handleCreateQuestionSet(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	var req createQuestionSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"success": false})
		return
	}

	setID, err := h.store.CreateQuestionSet(model.QuestionSet{
		UserID:      u.ID,
		Name:        req.Name,
		Description: req.Description,
		Author:      req.Author,
		Publisher:   req.Publisher,
	})
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.linkQuestionsByText(u.ID, []int64{setID}, req.Questions); err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": setID})
}

type addToQuestionSetRequest struct {
	Questions   []string `json:"questions"`
	Collections []int64  `json:"collections"`
}

func (h *Handler) handleAddToQuestionSet(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	var req addToQuestionSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"success": false})
		return
	}

	if err := h.linkQuestionsByText(u.ID, req.Collections, req.Questions); err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// linkQuestionsByText resolves listing-page question texts back to stored
// rows and links each match into every given set. Texts that match nothing
// are skipped.
func (h *Handler) linkQuestionsByText(userID int64, setIDs []int64, texts []string) error {
	for _, text := range texts {
		questions, err := h.store.FindQuestionsByText(userID, text)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			slog.Warn("no stored question matches text", "user_id", userID)
			continue
		}
		for _, setID := range setIDs {
			for _, q := range questions {
				if err := h.store.AddQuestionToSet(setID, q.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
