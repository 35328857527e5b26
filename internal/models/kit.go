package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kit is a named snapshot of calculator inputs owned by one operator.
// Money columns are unconstrained numeric so a kit reloads exactly as saved.
type Kit struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_kit_owner_name" json:"user_id"`
	Name          string          `gorm:"size:255;not null;uniqueIndex:idx_kit_owner_name" json:"name"`
	Items         KitItems        `gorm:"type:text;serializer:json" json:"items"`
	ProfitPercent decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"profit_percent"`
	Shipping      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"shipping"`
	LivingCost    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"living_cost"`
}

// GetUserID implements the Ownable interface.
func (k *Kit) GetUserID() uint {
	return k.UserID
}

// KitItem is one decoration piece whose cost is amortized over events.
type KitItem struct {
	Name           string          `json:"name"`
	Cost           decimal.Decimal `json:"cost"`
	Months         decimal.Decimal `json:"months"`
	EventsPerMonth decimal.Decimal `json:"events_per_month"`
}

// KitItems is the ordered item list of a kit.
type KitItems []KitItem
