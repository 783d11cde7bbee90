package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mondaiapp/mondai/internal/model"
)

const sessionCookieName = "session"

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r)
			return
		}
		if authSess == nil {
			h.redirectToLogin(w, r)
			return
		}

		user, err := h.store.GetUserByID(authSess.UserID)
		if err != nil || user == nil {
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"page": "login"})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	passwordConfirm := r.FormValue("password_confirm")

	if email == "" || password == "" || passwordConfirm == "" {
		writeError(w, r, http.StatusBadRequest, "SignupMissingFields")
		return
	}
	if password != passwordConfirm {
		writeError(w, r, http.StatusBadRequest, "PasswordMismatch")
		return
	}
	exists, err := h.store.EmailExists(email)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	if exists {
		writeError(w, r, http.StatusConflict, "EmailTaken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	userID, err := h.store.CreateUser(model.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "SignupFailed")
		return
	}

	h.startSession(w, r, userID)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		writeError(w, r, http.StatusBadRequest, "LoginMissingFields")
		return
	}

	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		writeError(w, r, http.StatusUnauthorized, "LoginError")
		return
	}
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "LoginError")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, "LoginError")
		return
	}

	h.startSession(w, r, user.ID)
}

// startSession creates the auth session, sets the cookie, and lands the user
// on the generation page.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64) {
	token, err := h.store.CreateAuthSession(userID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, "/generate", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
