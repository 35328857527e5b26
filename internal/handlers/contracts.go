package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

// ContractHandler serves the operator's contract pages.
type ContractHandler struct {
	contracts *services.ContractService
	profiles  *services.ProfileService
	authz     Authorizer
	baseURL   string
	now       func() time.Time
}

func NewContractHandler(contracts *services.ContractService, profiles *services.ProfileService, authz Authorizer, baseURL string) *ContractHandler {
	return &ContractHandler{
		contracts: contracts,
		profiles:  profiles,
		authz:     authz,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

func (h *ContractHandler) signingLink(c *models.Contract) string {
	return h.baseURL + "/assinar/" + c.SigningToken
}

// List: GET /contratos
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := currentUser(r)
	list, err := h.contracts.List(ctx, uid)
	if err != nil {
		serverError(w, r, err)
		return
	}
	profile, err := h.profiles.Get(ctx, uid)
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": list, "total": len(list), "profile_incomplete": profile.Incomplete()})
		return
	}
	render(w, r, http.StatusOK, "contracts/index.html", map[string]any{
		"Contracts":         list,
		"ProfileIncomplete": profile.Incomplete(),
	})
}

func (h *ContractHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, in services.DraftInput, errMsg string) {
	items := in.Items
	if len(items) == 0 {
		items = []models.ContractItem{{}}
	}
	render(w, r, status, "contracts/new.html", map[string]any{
		"Input":          in,
		"Items":          items,
		"PaymentMethods": models.PaymentMethods,
		"Error":          errMsg,
	})
}

// New: GET /contratos/novo
func (h *ContractHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, services.DraftInput{Rules: models.DefaultRules}, "")
}

func draftForm(r *http.Request) services.DraftInput {
	in := services.DraftInput{
		Event: services.EventDetails{
			Date:     r.FormValue("data_evento"),
			Time:     r.FormValue("horario_evento"),
			Location: r.FormValue("local_evento"),
		},
		PaymentMethod: r.FormValue("forma_pagamento"),
		Deposit:       parseDecimal(r.FormValue("sinal")),
		Rules:         strings.TrimSpace(r.FormValue("regras")),
	}
	descs := r.Form["item_descricao"]
	qtys := r.Form["item_quantidade"]
	prices := r.Form["item_valor"]
	for i, d := range descs {
		it := models.ContractItem{Description: d}
		if i < len(qtys) {
			it.Quantity = parseDecimal(qtys[i])
		}
		if i < len(prices) {
			it.UnitPrice = parseDecimal(prices[i])
		}
		in.Items = append(in.Items, it)
	}
	return in
}

// Create: POST /contratos
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.DraftInput
	if httpx.IsJSONBody(r) {
		var body struct {
			EventDate     string                `json:"event_date"`
			EventTime     string                `json:"event_time"`
			EventLocation string                `json:"event_location"`
			Items         []models.ContractItem `json:"items"`
			PaymentMethod string                `json:"payment_method"`
			Deposit       string                `json:"deposit"`
			Rules         string                `json:"rules"`
		}
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		in = services.DraftInput{
			Event:         services.EventDetails{Date: body.EventDate, Time: body.EventTime, Location: body.EventLocation},
			Items:         body.Items,
			PaymentMethod: body.PaymentMethod,
			Deposit:       parseDecimal(body.Deposit),
			Rules:         body.Rules,
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		in = draftForm(r)
	}

	c, err := h.contracts.CreateDraft(r.Context(), currentUser(r), in)
	if err != nil {
		status := http.StatusBadRequest
		if !isValidation(err) {
			logError(r, err)
			status = http.StatusInternalServerError
		}
		if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
			httpx.JSONError(w, status, errorMessage(err), nil)
			return
		}
		h.renderForm(w, r, status, in, "Erro: "+errorMessage(err))
		return
	}

	if httpx.WantsJSON(r) || httpx.IsJSONBody(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"contract": c, "signing_link": h.signingLink(c)})
		return
	}
	http.Redirect(w, r, "/contratos/"+strconv.FormatUint(uint64(c.ID), 10), http.StatusSeeOther)
}

// load fetches the contract in the path and checks action on it. Owners
// pass, and so do admins.
func (h *ContractHandler) load(w http.ResponseWriter, r *http.Request, action access.Action) (*models.Contract, bool) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return nil, false
	}
	c, err := h.contracts.Find(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	if !authorized(w, r, h.authz, action, access.ResourceContract, c) {
		return nil, false
	}
	return c, true
}

func (h *ContractHandler) renderDetail(w http.ResponseWriter, r *http.Request, status int, c *models.Contract, errMsg string) {
	render(w, r, status, "contracts/view.html", map[string]any{
		"Contract":    c,
		"SigningLink": h.signingLink(c),
		"Error":       errMsg,
	})
}

// View: GET /contratos/{id}
func (h *ContractHandler) View(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"contract": c, "signing_link": h.signingLink(c)})
		return
	}
	h.renderDetail(w, r, http.StatusOK, c, "")
}

// Print: GET /contratos/{id}/imprimir
func (h *ContractHandler) Print(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(r.Context(), c.UserID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	doc, err := services.RenderContractDocument(c, profile, h.now())
	if err != nil {
		serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

// Delete: POST /contratos/{id}/excluir with confirm=1
func (h *ContractHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.load(w, r, access.ActionDelete)
	if !ok {
		return
	}
	if r.FormValue("confirm") != "1" {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "confirm_required", nil)
			return
		}
		h.renderDetail(w, r, http.StatusBadRequest, c, t(r, "confirm_required"))
		return
	}
	err := h.contracts.Delete(r.Context(), c.UserID, c.ID)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/contratos", http.StatusSeeOther)
}
