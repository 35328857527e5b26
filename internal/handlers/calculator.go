package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/internal/services"
)

// CalculatorHandler serves the kit pricing calculator and saved kits.
type CalculatorHandler struct {
	kits  *services.KitService
	authz Authorizer
}

func NewCalculatorHandler(kits *services.KitService, authz Authorizer) *CalculatorHandler {
	return &CalculatorHandler{kits: kits, authz: authz}
}

// loadKit fetches a kit by id and checks action on it.
func (h *CalculatorHandler) loadKit(w http.ResponseWriter, r *http.Request, id uint, action access.Action) (*models.Kit, bool) {
	kit, err := h.kits.Find(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		notFound(w, r)
		return nil, false
	}
	if err != nil {
		serverError(w, r, err)
		return nil, false
	}
	if !authorized(w, r, h.authz, action, access.ResourceKit, kit) {
		return nil, false
	}
	return kit, true
}

// pricingForm reads the calculator form. Rows without a name or cost are
// skipped; the form always keeps at least one row.
func pricingForm(r *http.Request) services.PricingInput {
	names := r.Form["item_nome"]
	costs := r.Form["item_custo"]
	months := r.Form["item_meses"]
	events := r.Form["item_eventos"]

	in := services.PricingInput{
		ProfitPercent:     parseDecimal(r.FormValue("lucro")),
		ShippingPerEvent:  parseDecimal(r.FormValue("frete")),
		LivingCostMonthly: parseDecimal(r.FormValue("custo_vida")),
	}
	for i := range costs {
		it := services.NewKitItem()
		if i < len(names) {
			it.Name = strings.TrimSpace(names[i])
		}
		it.Cost = parseDecimal(costs[i])
		if i < len(months) && strings.TrimSpace(months[i]) != "" {
			it.Months = parseDecimal(months[i])
		}
		if i < len(events) && strings.TrimSpace(events[i]) != "" {
			it.EventsPerMonth = parseDecimal(events[i])
		}
		if it.Name == "" && it.Cost.IsZero() {
			continue
		}
		in.Items = append(in.Items, it)
	}
	if len(in.Items) == 0 {
		in.Items = []models.KitItem{services.NewKitItem()}
	}
	return in
}

func (h *CalculatorHandler) input(r *http.Request) (services.PricingInput, error) {
	if httpx.IsJSONBody(r) {
		var in services.PricingInput
		err := httpx.DecodeJSON(r, &in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return services.PricingInput{}, err
	}
	return pricingForm(r), nil
}

func (h *CalculatorHandler) show(w http.ResponseWriter, r *http.Request, in services.PricingInput, data map[string]any) {
	res := services.Calculate(in).Round2()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"input": in, "result": res})
		return
	}
	kits, err := h.kits.List(r.Context(), currentUser(r))
	if err != nil {
		serverError(w, r, err)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Input"] = in
	data["Result"] = res
	data["Kits"] = kits
	render(w, r, http.StatusOK, "calculator.html", data)
}

// Show: GET /calculadora, optionally ?kit={id}
func (h *CalculatorHandler) Show(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("kit")
	if raw == "" {
		h.show(w, r, services.DefaultPricingInput(), nil)
		return
	}
	id, _ := strconv.ParseUint(raw, 10, 64)
	kit, ok := h.loadKit(w, r, uint(id), access.ActionView)
	if !ok {
		return
	}
	h.show(w, r, services.KitInput(kit), map[string]any{"Kit": kit})
}

// Calculate: POST /calculadora
func (h *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	in, err := h.input(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_input", nil)
		return
	}
	h.show(w, r, in, map[string]any{"KitName": r.FormValue("kit_nome")})
}

// SaveKit: POST /calculadora/kits
func (h *CalculatorHandler) SaveKit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	in := pricingForm(r)
	name := r.FormValue("kit_nome")
	kit, err := h.kits.Save(r.Context(), currentUser(r), name, in)
	if err != nil {
		if ve, ok := services.IsValidation(err); ok {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusBadRequest, ve.Message, nil)
				return
			}
			h.show(w, r, in, map[string]any{"Error": ve.Message, "KitName": name})
			return
		}
		serverError(w, r, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, kit)
		return
	}
	http.Redirect(w, r, "/calculadora?kit="+strconv.FormatUint(uint64(kit.ID), 10), http.StatusSeeOther)
}

// DeleteKit: POST /calculadora/kits/{id}/excluir
func (h *CalculatorHandler) DeleteKit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}
	kit, ok := h.loadKit(w, r, id, access.ActionDelete)
	if !ok {
		return
	}
	err := h.kits.Delete(r.Context(), kit.UserID, kit.ID)
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
	http.Redirect(w, r, "/calculadora", http.StatusSeeOther)
}
