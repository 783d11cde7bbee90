// Package handler exposes the HTTP API: auth, question generation, the
// question lifecycle, profile pages, question sets, and billing.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mondaiapp/mondai/internal/billing"
	"github.com/mondaiapp/mondai/internal/generator"
	"github.com/mondaiapp/mondai/internal/grading"
	appI18n "github.com/mondaiapp/mondai/internal/i18n"
	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/session"
	"github.com/mondaiapp/mondai/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      *generator.Orchestrator
	grader   *grading.Grader
	billing  *billing.Service
	sessions *session.Store
	config   model.Config
}

// New creates a new Handler.
func New(s *store.Store, gen *generator.Orchestrator, grader *grading.Grader,
	b *billing.Service, sess *session.Store, cfg model.Config) *Handler {
	return &Handler{store: s, gen: gen, grader: grader, billing: b, sessions: sess, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleLoginPage)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Post("/logout", h.handleLogout)
	r.Post("/signup", h.handleSignup)
	r.Post("/webhook", h.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/generate", h.handleIndex)
		r.Post("/generate_question", h.handleGenerate)

		r.Get("/question/{keyword}/{number}", h.handleQuestion)
		r.Post("/question/{keyword}/{number}", h.handleQuestion)
		r.Post("/answer/{keyword}/{number}", h.handleAnswer)
		r.Get("/explanation/{keyword}/{number}", h.handleExplanation)
		r.Post("/explanation/{keyword}/{number}", h.handleExplanation)

		r.Get("/profile", h.handleProfile)
		r.Get("/allkeyword", h.handleAllKeywords)
		r.Get("/allquestion", h.handleAllQuestions)
		r.Get("/keywords/{keyword}", h.handleKeywordQuestions)
		r.Get("/keyword_history", h.handleKeywordHistory)

		r.Post("/add-to-questionset", h.handleAddToQuestionSet)
		r.Post("/create-questionset", h.handleCreateQuestionSet)

		r.Get("/plans", h.handlePlans)
		r.Post("/checkout/{plan}", h.handleCheckout)
		r.Get("/success", h.handleSuccess)
		r.Get("/cancel", h.handleCancel)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError emits a localized error payload. The message ID is resolved
// against the request's localizer.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error_message": appI18n.T(r.Context(), msgID)})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"daily_generated_count": u.DailyGeneratedCount,
		"is_premium":            u.IsPremium,
	})
}

// domainError maps generation and grading failures to responses. Unknown
// errors become an opaque internal error.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		writeError(w, r, http.StatusTooManyRequests, "QuotaExceeded")
	case errors.Is(err, model.ErrInsufficientQuestions):
		writeError(w, r, http.StatusUnprocessableEntity, "InsufficientQuestions")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "QuestionNotFound")
	case errors.Is(err, model.ErrUnknownPlan):
		writeError(w, r, http.StatusBadRequest, "InvalidPlan")
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.MsgID)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
	}
}
