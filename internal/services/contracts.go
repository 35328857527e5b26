package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/internal/models"
)

const signingTokenBytes = 32

// EventDetails describes when and where the party happens.
type EventDetails struct {
	Date     string // YYYY-MM-DD
	Time     string
	Location string
}

// DraftInput is what the operator fills in on the contract form.
type DraftInput struct {
	Event         EventDetails
	Items         []models.ContractItem
	PaymentMethod string
	Deposit       decimal.Decimal
	Rules         string
}

// ContractService builds and manages an operator's contracts.
type ContractService struct {
	db       *gorm.DB
	newToken func() (string, error)
}

func NewContractService(db *gorm.DB) *ContractService {
	return &ContractService{
		db:       db,
		newToken: func() (string, error) { return auth.RandomToken(signingTokenBytes) },
	}
}

// NormalizeItems trims descriptions and drops lines without one.
func NormalizeItems(items []models.ContractItem) models.ContractItems {
	out := make(models.ContractItems, 0, len(items))
	for _, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ValidateDraft returns the first problem of in, or nil.
func ValidateDraft(in DraftInput) error {
	date := strings.TrimSpace(in.Event.Date)
	if date == "" {
		return newValidationError("Informe a data do evento.")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return newValidationError("Data do evento inválida.")
	}
	if len(NormalizeItems(in.Items)) == 0 {
		return newValidationError("Adicione pelo menos um item.")
	}
	for _, it := range in.Items {
		if it.Quantity.IsNegative() || it.UnitPrice.IsNegative() {
			return newValidationError("Quantidade e valor não podem ser negativos.")
		}
	}
	if in.Deposit.IsNegative() {
		return newValidationError("O sinal não pode ser negativo.")
	}
	return nil
}

// CreateDraft persists a pending contract with an empty counterparty and a
// fresh signing token.
func (s *ContractService) CreateDraft(ctx context.Context, ownerID uint, in DraftInput) (*models.Contract, error) {
	if err := ValidateDraft(in); err != nil {
		return nil, err
	}
	items := NormalizeItems(in.Items)
	token, err := s.newToken()
	if err != nil {
		return nil, persistence("generate signing token", err)
	}

	c := &models.Contract{
		UserID:        ownerID,
		EventDate:     strings.TrimSpace(in.Event.Date),
		EventLocation: optional(in.Event.Location),
		EventTime:     optional(in.Event.Time),
		Items:         items,
		Total:         items.Total().Round(2),
		PaymentMethod: optional(in.PaymentMethod),
		Deposit:       in.Deposit.Round(2),
		Rules:         in.Rules,
		Status:        models.ContractPending,
		SigningToken:  token,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, persistence("create contract", err)
	}
	return c, nil
}

// Find returns a contract by id whoever owns it. Callers authorize the result.
func (s *ContractService) Find(ctx context.Context, id uint) (*models.Contract, error) {
	var c models.Contract
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistence("find contract", err)
	}
	return &c, nil
}

// List returns the owner's contracts, newest first.
func (s *ContractService) List(ctx context.Context, ownerID uint) ([]models.Contract, error) {
	var list []models.Contract
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, persistence("list contracts", err)
	}
	return list, nil
}

// Delete removes the owner's contract permanently.
func (s *ContractService) Delete(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Contract{})
	if res.Error != nil {
		return persistence("delete contract", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// optional maps blank strings to NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
