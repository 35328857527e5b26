package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	ContractPending   ContractStatus = "pending"
	ContractSigned    ContractStatus = "signed"
	ContractCancelled ContractStatus = "cancelled"
)

// DefaultRules is the responsibilities clause offered on new contracts.
const DefaultRules = `1. O locatário é responsável pela guarda e conservação dos itens durante o período de locação.
2. Danos, perdas ou extravios serão cobrados separadamente pelo valor de reposição.
3. A devolução deve ocorrer no prazo e local combinados.
4. O não pagamento do sinal implica cancelamento automático da reserva.
5. Em caso de cancelamento com menos de 48h de antecedência, o sinal não será reembolsado.`

// PaymentMethods lists the payment options shown on the contract form.
var PaymentMethods = []string{"Pix", "Dinheiro", "Cartão de crédito", "Cartão de débito", "Transferência"}

// Contract is one rental agreement between an operator and a counterparty.
// Implements the Ownable interface for ownership-based authorization.
type Contract struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the operator who owns this contract
	UserID uint `gorm:"index;not null" json:"user_id"`

	// Counterparty, filled in by the client when signing
	ClientName    *string `gorm:"size:255" json:"client_name"`
	ClientTaxID   *string `gorm:"size:32" json:"client_tax_id"`
	ClientPhone   *string `gorm:"size:50" json:"client_phone"`
	ClientEmail   *string `gorm:"size:255" json:"client_email"`
	ClientAddress *string `gorm:"size:500" json:"client_address"`

	// Event
	EventDate     string  `gorm:"size:10;not null" json:"event_date"` // YYYY-MM-DD
	EventLocation *string `gorm:"size:500" json:"event_location"`
	EventTime     *string `gorm:"size:100" json:"event_time"`

	Items         ContractItems   `gorm:"type:text;serializer:json" json:"items"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	PaymentMethod *string         `gorm:"size:50" json:"payment_method"`
	Deposit       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"deposit"`
	Rules         string          `gorm:"type:text" json:"rules"`

	Status         ContractStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	SigningToken   string         `gorm:"uniqueIndex;size:64;not null" json:"-"`
	SignedAt       *time.Time     `json:"signed_at"`
	SignatureImage *string        `gorm:"type:text" json:"-"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Contract) GetUserID() uint {
	return c.UserID
}

// IsPending reports whether the contract still awaits a signature.
func (c *Contract) IsPending() bool {
	return c.Status == ContractPending
}

// IsSigned reports whether the counterparty has signed.
func (c *Contract) IsSigned() bool {
	return c.Status == ContractSigned
}

// Balance is what remains to be paid after the deposit.
func (c *Contract) Balance() decimal.Decimal {
	return c.Total.Sub(c.Deposit)
}

// StatusCode returns the i18n code of the status badge.
func (c *Contract) StatusCode() string {
	switch c.Status {
	case ContractSigned:
		return "status_signed"
	case ContractCancelled:
		return "status_cancelled"
	}
	return "status_pending"
}

// ContractItem is a rented line. It is embedded in the contract row.
type ContractItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity × unit price.
func (i ContractItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ContractItems is the ordered line list of a contract.
type ContractItems []ContractItem

// Total sums the item subtotals.
func (items ContractItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
