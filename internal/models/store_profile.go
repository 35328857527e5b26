package models

import (
	"strings"
	"time"
)

// StoreProfile holds the operator's store data printed on contracts.
type StoreProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this profile
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	StoreName string `gorm:"size:255" json:"store_name"`
	TaxID     string `gorm:"size:32" json:"tax_id"` // CPF or CNPJ
	Phone     string `gorm:"size:50" json:"phone"`
	Address   string `gorm:"size:500" json:"address"`

	// SignatureImage is the store's default signature as a PNG data URL.
	SignatureImage string `gorm:"type:text" json:"signature_image,omitempty"`
}

// GetUserID implements the Ownable interface.
func (p *StoreProfile) GetUserID() uint {
	return p.UserID
}

// Incomplete reports whether fields required on a contract are missing.
func (p *StoreProfile) Incomplete() bool {
	return p == nil ||
		strings.TrimSpace(p.StoreName) == "" ||
		strings.TrimSpace(p.TaxID) == "" ||
		strings.TrimSpace(p.Phone) == ""
}
