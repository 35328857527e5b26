package handlers

import (
	"net/http"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

// SettingsHandler edits the operator's store profile.
type SettingsHandler struct {
	profiles *services.ProfileService
	authz    Authorizer
}

func NewSettingsHandler(profiles *services.ProfileService, authz Authorizer) *SettingsHandler {
	return &SettingsHandler{profiles: profiles, authz: authz}
}

// current loads the user's profile and checks action on it. A profile that
// was never saved is checked as a new resource.
func (h *SettingsHandler) current(w http.ResponseWriter, r *http.Request, action access.Action) (*models.StoreProfile, bool) {
	p, err := h.profiles.Get(r.Context(), currentUser(r))
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	var resource any
	if p != nil {
		resource = p
	}
	if err := h.authz.Authorize(r.Context(), action, access.ResourceStoreProfile, resource); err != nil {
		forbidden(w, r)
		return nil, false
	}
	return p, true
}

func profileInput(p *models.StoreProfile) services.ProfileInput {
	if p == nil {
		return services.ProfileInput{}
	}
	return services.ProfileInput{
		StoreName:      p.StoreName,
		TaxID:          p.TaxID,
		Phone:          p.Phone,
		Address:        p.Address,
		SignatureImage: p.SignatureImage,
	}
}

// Edit: GET /configuracoes
func (h *SettingsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.current(w, r, access.ActionView)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	render(w, r, http.StatusOK, "settings.html", map[string]any{
		"Profile":    profileInput(p),
		"Incomplete": p.Incomplete(),
	})
}

// Update: POST /configuracoes
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.current(w, r, access.ActionUpdate); !ok {
		return
	}
	in := services.ProfileInput{
		StoreName:      r.FormValue("nome_loja"),
		TaxID:          r.FormValue("cpf_cnpj"),
		Phone:          r.FormValue("telefone"),
		Address:        r.FormValue("endereco"),
		SignatureImage: r.FormValue("assinatura"),
	}
	if httpx.IsJSONBody(r) {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
	}

	p, err := h.profiles.Save(r.Context(), currentUser(r), in)
	if err != nil {
		if !isValidation(err) {
			serverError(w, r, err)
			return
		}
		if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
			httpx.JSONError(w, http.StatusBadRequest, errorMessage(err), validationDetails(err))
			return
		}
		render(w, r, http.StatusBadRequest, "settings.html", map[string]any{
			"Profile": in,
			"Error":   errorMessage(err),
			"Errors":  validationDetails(err),
		})
		return
	}

	if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	render(w, r, http.StatusOK, "settings.html", map[string]any{
		"Profile":    profileInput(p),
		"Incomplete": p.Incomplete(),
		"Saved":      t(r, "profile_saved"),
	})
}
