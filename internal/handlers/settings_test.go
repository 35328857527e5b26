package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

func TestSettings_EditEmptyProfile(t *testing.T) {
	d := setupTestDB(t)
	u := createUser(t, d, "op@festa.test")
	h := NewSettingsHandler(services.NewProfileService(d), newGate(d))

	w := httptest.NewRecorder()
	h.Edit(w, getRequest("/configuracoes", u.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Seu perfil está incompleto.")
	assert.Contains(t, w.Body.String(), `name="nome_loja" value=""`)
}

func TestSettings_Update(t *testing.T) {
	d := setupTestDB(t)
	u := createUser(t, d, "op@festa.test")
	h := NewSettingsHandler(services.NewProfileService(d), newGate(d))

	form := url.Values{
		"nome_loja":  {" Festa Linda "},
		"cpf_cnpj":   {"12.345.678/0001-90"},
		"telefone":   {"11 99999-0000"},
		"assinatura": {testPNG},
	}
	w := httptest.NewRecorder()
	h.Update(w, formRequest("/configuracoes", u.ID, form))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Perfil salvo com sucesso.")
	assert.NotContains(t, w.Body.String(), "Seu perfil está incompleto.")

	var p models.StoreProfile
	require.NoError(t, d.Where("user_id = ?", u.ID).First(&p).Error)
	assert.Equal(t, "Festa Linda", p.StoreName)
	assert.Equal(t, testPNG, p.SignatureImage)

	// saving again updates the same row and an empty signature clears it
	form.Set("telefone", "11 3333-4444")
	form.Set("assinatura", "")
	w = httptest.NewRecorder()
	h.Update(w, formRequest("/configuracoes", u.ID, form))
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	d.Model(&models.StoreProfile{}).Count(&count)
	assert.Equal(t, int64(1), count)
	require.NoError(t, d.Where("user_id = ?", u.ID).First(&p).Error)
	assert.Equal(t, "11 3333-4444", p.Phone)
	assert.Empty(t, p.SignatureImage)
}

func TestSettings_UpdateRejectsNonPNGSignature(t *testing.T) {
	d := setupTestDB(t)
	u := createUser(t, d, "op@festa.test")
	h := NewSettingsHandler(services.NewProfileService(d), newGate(d))

	form := url.Values{"nome_loja": {"Festa Linda"}, "assinatura": {"data:image/gif;base64,R0lGODlh"}}
	w := httptest.NewRecorder()
	h.Update(w, formRequest("/configuracoes", u.ID, form))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `value="Festa Linda"`)

	var count int64
	d.Model(&models.StoreProfile{}).Count(&count)
	assert.Zero(t, count)
}

func TestSettings_UpdateJSON(t *testing.T) {
	d := setupTestDB(t)
	u := createUser(t, d, "op@festa.test")
	h := NewSettingsHandler(services.NewProfileService(d), newGate(d))

	body := `{"store_name":"Festa Linda","tax_id":"123","phone":"1199"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/configuracoes", strings.NewReader(body)), u.ID)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store_name":"Festa Linda"`)

	req = asUser(httptest.NewRequest(http.MethodPost, "/configuracoes", strings.NewReader(`{"store_name":"`+strings.Repeat("x", 300)+`"}`)), u.ID)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	h.Update(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Verifique os campos do perfil.")
}

func TestSettings_NoRoleIsForbidden(t *testing.T) {
	d := setupTestDB(t)
	u := models.User{Email: "sem-papel@festa.test", Password: "x"}
	require.NoError(t, d.Create(&u).Error)
	h := NewSettingsHandler(services.NewProfileService(d), newGate(d))

	w := httptest.NewRecorder()
	h.Edit(w, getRequest("/configuracoes", u.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	h.Update(w, formRequest("/configuracoes", u.ID, url.Values{"nome_loja": {"Festa Linda"}}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	d.Model(&models.StoreProfile{}).Count(&count)
	assert.Zero(t, count)
}
