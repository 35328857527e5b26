package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

// SigningHandler serves the public counterparty signing page. The token in
// the path is the only credential.
type SigningHandler struct {
	signatures *services.SignatureService
}

func NewSigningHandler(signatures *services.SignatureService) *SigningHandler {
	return &SigningHandler{signatures: signatures}
}

type signingPage struct {
	Token    string
	Contract *models.Contract
	Store    *models.StoreProfile
	Step     services.SigningStep
	Identity services.Identity
	Error    string
}

func identityForm(r *http.Request) services.Identity {
	return services.Identity{
		Name:    r.FormValue("nome"),
		TaxID:   r.FormValue("cpf"),
		Phone:   r.FormValue("telefone"),
		Email:   r.FormValue("email"),
		Address: r.FormValue("endereco"),
	}
}

// replay drives a fresh flow to target with the values carried by the page.
// It stops at the first step that rejects its input.
func replay(target services.SigningStep, id services.Identity) (*services.SigningFlow, error) {
	flow := &services.SigningFlow{}
	if target == services.StepIdentity {
		return flow, nil
	}
	if err := flow.SubmitIdentity(id); err != nil {
		return flow, err
	}
	if target == services.StepTerms {
		return flow, nil
	}
	err := flow.AcceptTerms()
	return flow, err
}

func (h *SigningHandler) render(w http.ResponseWriter, r *http.Request, status int, p signingPage) {
	if httpx.WantsJSON(r) {
		if p.Contract == nil {
			httpx.JSONError(w, status, t(r, "contract_not_found"), nil)
			return
		}
		body := map[string]any{"status": p.Contract.Status, "step": p.Step}
		if p.Error != "" {
			body["error"] = p.Error
		}
		httpx.JSON(w, status, body)
		return
	}
	render(w, r, status, "sign.html", map[string]any{
		"Token":    p.Token,
		"Contract": p.Contract,
		"Store":    p.Store,
		"Step":     string(p.Step),
		"Identity": p.Identity,
		"Error":    p.Error,
		"NotFound": p.Contract == nil,
	})
}

func (h *SigningHandler) find(w http.ResponseWriter, r *http.Request) (signingPage, bool) {
	token := r.PathValue("token")
	c, store, err := h.signatures.FindByToken(r.Context(), token)
	if errors.Is(err, services.ErrNotFound) || (err == nil && c.Status == models.ContractCancelled) {
		h.render(w, r, http.StatusNotFound, signingPage{Token: token})
		return signingPage{}, false
	}
	if err != nil {
		serverError(w, r, err)
		return signingPage{}, false
	}
	p := signingPage{Token: token, Contract: c, Store: store}
	if c.IsSigned() {
		p.Step = services.StepSubmitted
		h.render(w, r, http.StatusOK, p)
		return signingPage{}, false
	}
	return p, true
}

// Show: GET /assinar/{token}?etapa=dados|contrato|assinatura
func (h *SigningHandler) Show(w http.ResponseWriter, r *http.Request) {
	p, ok := h.find(w, r)
	if !ok {
		return
	}
	flow, err := replay(services.ParseSigningStep(r.URL.Query().Get("etapa")), identityForm(r))
	p.Step = flow.Step()
	p.Identity = flow.Identity()
	if err != nil {
		p.Identity = identityForm(r)
		p.Error = errorMessage(err)
	}
	h.render(w, r, http.StatusOK, p)
}

// Submit: POST /assinar/{token}. The form posts the current etapa, the
// carried identity, an acao of "voltar" or "avancar" and, on the last step,
// the signature.
func (h *SigningHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.find(w, r)
	if !ok {
		return
	}
	current := services.ParseSigningStep(r.FormValue("etapa"))
	id := identityForm(r)

	flow, err := replay(current, id)
	if err != nil {
		p.Step, p.Identity, p.Error = flow.Step(), id, errorMessage(err)
		h.render(w, r, http.StatusBadRequest, p)
		return
	}

	if r.FormValue("acao") == "voltar" {
		_ = flow.Back()
		p.Step, p.Identity = flow.Step(), flow.Identity()
		h.render(w, r, http.StatusOK, p)
		return
	}

	switch current {
	case services.StepIdentity:
		err = flow.SubmitIdentity(id)
	case services.StepTerms:
		err = flow.AcceptTerms()
	case services.StepSignature:
		h.sign(w, r, p, flow)
		return
	}
	p.Step, p.Identity = flow.Step(), flow.Identity()
	status := http.StatusOK
	if err != nil {
		p.Identity = id
		p.Error = errorMessage(err)
		status = http.StatusBadRequest
	}
	h.render(w, r, status, p)
}

func (h *SigningHandler) sign(w http.ResponseWriter, r *http.Request, p signingPage, flow *services.SigningFlow) {
	p.Identity = flow.Identity()
	p.Step = services.StepSignature

	if err := flow.CaptureSignature(r.FormValue("assinatura")); err != nil {
		p.Error = errorMessage(err)
		h.render(w, r, http.StatusBadRequest, p)
		return
	}
	sub, err := flow.Submit()
	if err != nil {
		p.Error = errorMessage(err)
		h.render(w, r, http.StatusBadRequest, p)
		return
	}

	c, err := h.signatures.Sign(r.Context(), p.Token, sub)
	switch {
	case err == nil, errors.Is(err, services.ErrAlreadySigned):
		p.Contract = c
		p.Step = services.StepSubmitted
		h.render(w, r, http.StatusOK, p)
	case errors.Is(err, services.ErrNotFound):
		h.render(w, r, http.StatusNotFound, signingPage{Token: p.Token})
	case isValidation(err):
		p.Error = errorMessage(err)
		h.render(w, r, http.StatusBadRequest, p)
	default:
		serverError(w, r, err)
	}
}
