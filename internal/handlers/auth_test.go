package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/festakit/internal/services"
)

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _, link string) error {
	m.mu.Lock()
	m.links = append(m.links, link)
	m.mu.Unlock()
	return nil
}

func newAuthHandler(t *testing.T) (*AuthHandler, *captureMailer, *services.AccountService) {
	d := setupTestDB(t)
	mailer := &captureMailer{}
	accounts := services.NewAccountService(d, mailer, "http://festa.test", "", nopLog)
	return NewAuthHandler(accounts), mailer, accounts
}

func TestSignup_CreatesSessionAndRedirects(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	w := httptest.NewRecorder()
	h.Signup(w, formRequest("/cadastro", 0, url.Values{
		"email":            {"ana@festa.test"},
		"password":         {"segredo1"},
		"confirm_password": {"segredo1"},
		"nome_loja":        {"Festa da Ana"},
	}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/materiais", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Result().Cookies(), "session cookie expected")
}

func TestSignup_Errors(t *testing.T) {
	h, _, accounts := newAuthHandler(t)
	_, err := accounts.Signup(context.Background(), services.SignupInput{Email: "taken@festa.test", Password: "segredo1", Confirm: "segredo1"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantBody string
	}{
		{"mismatch", url.Values{"email": {"a@festa.test"}, "password": {"segredo1"}, "confirm_password": {"outra123"}}, http.StatusBadRequest, "As senhas não coincidem."},
		{"short", url.Values{"email": {"a@festa.test"}, "password": {"abc"}, "confirm_password": {"abc"}}, http.StatusBadRequest, "A senha deve ter pelo menos 6 caracteres."},
		{"taken", url.Values{"email": {"TAKEN@festa.test"}, "password": {"segredo1"}, "confirm_password": {"segredo1"}}, http.StatusConflict, "Este e-mail já está cadastrado."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Signup(w, formRequest("/cadastro", 0, tt.form))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestLogin(t *testing.T) {
	h, _, accounts := newAuthHandler(t)
	_, err := accounts.Signup(context.Background(), services.SignupInput{Email: "bia@festa.test", Password: "segredo1", Confirm: "segredo1"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Login(w, formRequest("/login", 0, url.Values{"email": {"bia@festa.test"}, "password": {"errada"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "E-mail ou senha inválidos.")

	w = httptest.NewRecorder()
	h.Login(w, formRequest("/login", 0, url.Values{"email": {"bia@festa.test"}, "password": {"segredo1"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/materiais", w.Header().Get("Location"))
}

func TestLogout_ClearsSession(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	w := httptest.NewRecorder()
	h.Logout(w, formRequest("/logout", 1, nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Empty(t, cookies[0].Value)
}

func TestForgotPassword_SameAnswerForUnknownEmail(t *testing.T) {
	h, mailer, accounts := newAuthHandler(t)
	_, err := accounts.Signup(context.Background(), services.SignupInput{Email: "cris@festa.test", Password: "segredo1", Confirm: "segredo1"})
	require.NoError(t, err)

	known := httptest.NewRecorder()
	h.ForgotPassword(known, formRequest("/recuperar-senha", 0, url.Values{"email": {"cris@festa.test"}}))
	unknown := httptest.NewRecorder()
	h.ForgotPassword(unknown, formRequest("/recuperar-senha", 0, url.Values{"email": {"ninguem@festa.test"}}))

	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	require.Len(t, mailer.links, 1)
	assert.True(t, strings.HasPrefix(mailer.links[0], "http://festa.test/atualizar-senha?token="))
}

func TestResetPassword_Flow(t *testing.T) {
	h, mailer, accounts := newAuthHandler(t)
	_, err := accounts.Signup(context.Background(), services.SignupInput{Email: "duda@festa.test", Password: "segredo1", Confirm: "segredo1"})
	require.NoError(t, err)
	require.NoError(t, accounts.RequestReset(context.Background(), "duda@festa.test"))
	link, err := url.Parse(mailer.links[0])
	require.NoError(t, err)
	token := link.Query().Get("token")

	w := httptest.NewRecorder()
	h.ResetPassword(w, getRequest("/atualizar-senha?token="+url.QueryEscape(token), 0))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="token"`)

	w = httptest.NewRecorder()
	h.ResetPassword(w, formRequest("/atualizar-senha", 0, url.Values{"token": {token}, "password": {"nova123"}, "confirm_password": {"outra12"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "As senhas não coincidem.")

	w = httptest.NewRecorder()
	h.ResetPassword(w, formRequest("/atualizar-senha", 0, url.Values{"token": {token}, "password": {"nova123"}, "confirm_password": {"nova123"}}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Senha atualizada com sucesso.")

	_, err = accounts.Authenticate(context.Background(), "duda@festa.test", "nova123")
	assert.NoError(t, err)

	w = httptest.NewRecorder()
	h.ResetPassword(w, formRequest("/atualizar-senha", 0, url.Values{"token": {token}, "password": {"nova456"}, "confirm_password": {"nova456"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Link de redefinição inválido ou expirado.")
}

func TestResetPassword_UnknownToken(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	w := httptest.NewRecorder()
	h.ResetPassword(w, getRequest("/atualizar-senha?token=nope", 0))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
