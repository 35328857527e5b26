package services

import (
	"github.com/shopspring/decimal"

	"github.com/diewo77/festakit/internal/models"
)

// Calculator defaults for a fresh form.
var (
	DefaultMonths         = decimal.NewFromInt(6)
	DefaultEventsPerMonth = decimal.NewFromInt(4)
	DefaultProfitPercent  = decimal.NewFromInt(30)
)

var hundred = decimal.NewFromInt(100)

// PricingInput is everything the calculator needs. It is also what a kit stores.
type PricingInput struct {
	Items             []models.KitItem `json:"items"`
	ProfitPercent     decimal.Decimal  `json:"profit_percent"`
	ShippingPerEvent  decimal.Decimal  `json:"shipping_per_event"`
	LivingCostMonthly decimal.Decimal  `json:"living_cost_monthly"`
}

// DefaultPricingInput is one blank item amortized over 6 months × 4 events, 30 % profit.
func DefaultPricingInput() PricingInput {
	return PricingInput{
		Items:         []models.KitItem{NewKitItem()},
		ProfitPercent: DefaultProfitPercent,
	}
}

// NewKitItem returns a blank item with the default amortization window.
func NewKitItem() models.KitItem {
	return models.KitItem{Cost: decimal.Zero, Months: DefaultMonths, EventsPerMonth: DefaultEventsPerMonth}
}

// ItemCost is the per-item breakdown.
type ItemCost struct {
	models.KitItem
	TotalEvents  decimal.Decimal `json:"total_events"`
	PerEventCost decimal.Decimal `json:"per_event_cost"`
}

// PricingResult is the full calculator output.
type PricingResult struct {
	Items              []ItemCost      `json:"items"`
	TotalItemCost      decimal.Decimal `json:"total_item_cost"`
	AverageEvents      decimal.Decimal `json:"average_events"`
	LivingCostPerEvent decimal.Decimal `json:"living_cost_per_event"`
	ShippingPerEvent   decimal.Decimal `json:"shipping_per_event"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ProfitPercent      decimal.Decimal `json:"profit_percent"`
	ProfitAmount       decimal.Decimal `json:"profit_amount"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// Calculate prices one event. Every division by zero yields zero.
func Calculate(in PricingInput) PricingResult {
	res := PricingResult{
		Items:            make([]ItemCost, 0, len(in.Items)),
		ShippingPerEvent: in.ShippingPerEvent,
		ProfitPercent:    in.ProfitPercent,
	}

	eventsSum := decimal.Zero
	for _, it := range in.Items {
		total := it.Months.Mul(it.EventsPerMonth)
		perEvent := decimal.Zero
		if total.IsPositive() {
			perEvent = it.Cost.Div(total)
		}
		res.Items = append(res.Items, ItemCost{KitItem: it, TotalEvents: total, PerEventCost: perEvent})
		res.TotalItemCost = res.TotalItemCost.Add(perEvent)
		eventsSum = eventsSum.Add(total)
	}

	count := int64(len(in.Items))
	if count == 0 {
		count = 1
	}
	res.AverageEvents = eventsSum.Div(decimal.NewFromInt(count))
	if res.AverageEvents.IsPositive() {
		res.LivingCostPerEvent = in.LivingCostMonthly.Div(res.AverageEvents)
	}

	res.Subtotal = res.TotalItemCost.Add(res.LivingCostPerEvent).Add(in.ShippingPerEvent)
	res.ProfitAmount = res.Subtotal.Mul(in.ProfitPercent).Div(hundred)
	res.FinalPrice = res.Subtotal.Add(res.ProfitAmount)
	return res
}

// Round2 rounds every money figure to cents for display and JSON.
func (r PricingResult) Round2() PricingResult {
	out := r
	out.Items = make([]ItemCost, len(r.Items))
	for i, it := range r.Items {
		it.PerEventCost = it.PerEventCost.Round(2)
		out.Items[i] = it
	}
	out.TotalItemCost = r.TotalItemCost.Round(2)
	out.AverageEvents = r.AverageEvents.Round(2)
	out.LivingCostPerEvent = r.LivingCostPerEvent.Round(2)
	out.Subtotal = r.Subtotal.Round(2)
	out.ProfitAmount = r.ProfitAmount.Round(2)
	out.FinalPrice = r.FinalPrice.Round(2)
	return out
}
