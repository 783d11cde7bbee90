package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mondaiapp/mondai/internal/generator"
	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/view"
)

const maxUploadBytes = 10 << 20

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, r, http.StatusBadRequest, "InternalError")
		return
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		h.generateFromFile(w, r, u, file, header.Header.Get("Content-Type"))
		return
	}

	h.generateFromTopic(w, r, u)
}

func (h *Handler) generateFromFile(w http.ResponseWriter, r *http.Request, u *model.User, file io.Reader, contentType string) {
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	text, err := generator.ExtractText(contentType, data)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	batch, err := h.gen.FromDocument(r.Context(), u, text)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.finishGeneration(w, r, batch)
}

func (h *Handler) generateFromTopic(w http.ResponseWriter, r *http.Request, u *model.User) {
	// Full-width spaces in topics break URL round-trips.
	topic := strings.ReplaceAll(r.FormValue("theme"), "　", " ")
	difficulty := model.Difficulty(r.FormValue("difficulty"))

	batch, err := h.gen.FromTopic(r.Context(), u, topic, difficulty)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	h.finishGeneration(w, r, batch)
}

func (h *Handler) finishGeneration(w http.ResponseWriter, r *http.Request, batch model.QuestionBatch) {
	if err := h.sessions.SaveBatch(w, r, batch); err != nil {
		slog.Error("failed to save session batch", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/question/%s/1", batch[0].Topic), http.StatusSeeOther)
}

// retryParams are the optional request fields that switch the lifecycle
// pages from the session batch to stored questions.
type retryParams struct {
	isRetry    bool
	text       string
	questionID int64
}

func readRetryParams(r *http.Request) retryParams {
	id, _ := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
	return retryParams{
		isRetry:    r.FormValue("retry") == "true",
		text:       r.FormValue("question_text"),
		questionID: id,
	}
}

// questionSource resolves where the current batch lives. A retry loads
// stored questions; otherwise the session batch is used.
func (h *Handler) questionSource(r *http.Request, u *model.User, keyword string, p retryParams) (model.QuestionSource, error) {
	if p.isRetry {
		questions, err := h.store.FindQuestionsForRetry(u.ID, keyword, p.text, p.questionID)
		if err != nil {
			return nil, err
		}
		return model.StoredBatch(questions), nil
	}
	return model.SessionBatch(h.sessions.LoadBatch(r)), nil
}

// redirectOut handles a missing batch or position: a retry falls back to the
// topic listing, a normal run back to the generation page.
func (h *Handler) redirectOut(w http.ResponseWriter, r *http.Request, keyword string, isRetry bool) {
	if isRetry {
		http.Redirect(w, r, "/keywords/"+keyword, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/generate", http.StatusSeeOther)
}

// currentRef picks the question a lifecycle request addresses: by ID when a
// retry link carries one, by position otherwise.
func currentRef(src model.QuestionSource, number int, p retryParams) (model.QuestionRef, error) {
	if p.isRetry && p.questionID != 0 {
		if ref, ok := src.ByID(p.questionID); ok {
			return ref, nil
		}
	}
	return src.At(number)
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	keyword := chi.URLParam(r, "keyword")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "QuestionNotFound")
		return
	}
	p := readRetryParams(r)

	src, err := h.questionSource(r, u, keyword, p)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if src.Total() == 0 {
		slog.Error("no questions for keyword", "keyword", keyword, "retry", p.isRetry)
		h.redirectOut(w, r, keyword, p.isRetry)
		return
	}

	ref, err := currentRef(src, number, p)
	if err != nil {
		h.redirectOut(w, r, keyword, p.isRetry)
		return
	}

	writeJSON(w, http.StatusOK, view.NewQuestionView(ref, src.Total(), p.isRetry))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	keyword := chi.URLParam(r, "keyword")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "QuestionNotFound")
		return
	}
	userAnswer := r.FormValue("answer")
	p := readRetryParams(r)

	src, err := h.questionSource(r, u, keyword, p)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if src.Total() == 0 {
		h.redirectOut(w, r, keyword, p.isRetry)
		return
	}
	ref, err := currentRef(src, number, p)
	if err != nil {
		h.redirectOut(w, r, keyword, p.isRetry)
		return
	}

	result, err := h.grader.Grade(r.Context(), u, ref.ID, userAnswer)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view.NewAnswerView(
		ref.ID, ref.Text, keyword, number, src.Total(),
		result.Correct, result.Explanation, result.CorrectOption,
		p.isRetry, userAnswer,
	))
}

func (h *Handler) handleExplanation(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	keyword := chi.URLParam(r, "keyword")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "QuestionNotFound")
		return
	}
	p := readRetryParams(r)

	q, err := h.store.GetQuestion(p.questionID, u.ID)
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "QuestionNotFound")
		return
	}
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if q.Explanation == "" {
		writeError(w, r, http.StatusBadRequest, "ExplanationMissing")
		return
	}

	writeJSON(w, http.StatusOK, view.NewExplanationView(&q, keyword, number, p.isRetry))
}
