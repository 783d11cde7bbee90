package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mondaiapp/mondai/internal/model"
)

const maxWebhookBytes = 64 << 10

func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"plans":      []model.Plan{model.PlanBasic, model.PlanPremium},
		"is_premium": u.IsPremium,
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u := model.UserFromContext(r.Context())
	plan := model.Plan(chi.URLParam(r, "plan"))

	url, err := h.billing.CheckoutURL(u, plan, h.config.SuccessURL, h.config.CancelURL)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *Handler) handleSuccess(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "success"})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "plans"})
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.billing.HandleWebhook(payload, r.Header.Get("Stripe-Signature")); err != nil {
		slog.Error("webhook rejected", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
