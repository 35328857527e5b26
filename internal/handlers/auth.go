package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/i18n"
	"github.com/diewo77/festakit/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func t(r *http.Request, code string) string {
	return i18n.T(i18n.LangFromContext(r.Context()), code)
}

// Login: GET, POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if currentUser(r) != 0 {
			http.Redirect(w, r, "/materiais", http.StatusSeeOther)
			return
		}
		render(w, r, http.StatusOK, "login.html", nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	user, err := h.accounts.Authenticate(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("authenticate")
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Error": t(r, "invalid_credentials"),
			"Email": email,
		})
		return
	}

	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/materiais", http.StatusSeeOther)
}

// Signup: GET, POST /cadastro
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, http.StatusOK, "signup.html", nil)
		return
	}

	in := services.SignupInput{
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		Confirm:   r.FormValue("confirm_password"),
		StoreName: strings.TrimSpace(r.FormValue("nome_loja")),
	}
	user, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		msg := errorMessage(err)
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			msg, status = t(r, "email_taken"), http.StatusConflict
		case !isValidation(err):
			log.Error().Err(err).Msg("signup")
			msg, status = "Erro ao criar conta. Tente novamente.", http.StatusInternalServerError
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, status, msg, validationDetails(err))
			return
		}
		render(w, r, status, "signup.html", map[string]any{
			"Error":     msg,
			"Email":     in.Email,
			"StoreName": in.StoreName,
		})
		return
	}

	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/materiais", http.StatusSeeOther)
}

// Logout: POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ForgotPassword: GET, POST /recuperar-senha. The answer does not reveal
// whether the address is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, http.StatusOK, "forgot_password.html", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if err := h.accounts.RequestReset(r.Context(), email); err != nil {
		log.Error().Err(err).Msg("request password reset")
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusAccepted, map[string]string{"message": t(r, "reset_sent")})
		return
	}
	render(w, r, http.StatusOK, "forgot_password.html", map[string]any{"Sent": t(r, "reset_sent")})
}

// ResetPassword: GET, POST /atualizar-senha?token=
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	if r.Method == http.MethodGet {
		if err := h.accounts.CheckResetToken(r.Context(), token); err != nil {
			render(w, r, http.StatusBadRequest, "reset_password.html", map[string]any{"Invalid": t(r, "reset_invalid")})
			return
		}
		render(w, r, http.StatusOK, "reset_password.html", map[string]any{"Token": token})
		return
	}

	err := h.accounts.ResetPassword(r.Context(), token, r.FormValue("password"), r.FormValue("confirm_password"))
	switch {
	case err == nil:
		render(w, r, http.StatusOK, "reset_password.html", map[string]any{"Done": t(r, "password_updated")})
	case errors.Is(err, services.ErrResetInvalid):
		render(w, r, http.StatusBadRequest, "reset_password.html", map[string]any{"Invalid": t(r, "reset_invalid")})
	case isValidation(err):
		render(w, r, http.StatusBadRequest, "reset_password.html", map[string]any{"Token": token, "Error": errorMessage(err)})
	default:
		serverError(w, r, err)
	}
}

func isValidation(err error) bool {
	_, ok := services.IsValidation(err)
	return ok
}
