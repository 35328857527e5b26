package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/festakit/internal/models"
	"github.com/diewo77/festakit/validation"
)

// ProfileInput is the store settings form.
type ProfileInput struct {
	StoreName      string `json:"store_name" form:"nome_loja" validate:"max=255"`
	TaxID          string `json:"tax_id" form:"cpf_cnpj" validate:"max=32"`
	Phone          string `json:"phone" form:"telefone" validate:"max=50"`
	Address        string `json:"address" form:"endereco" validate:"max=500"`
	SignatureImage string `json:"signature_image" form:"assinatura"`
}

// ProfileService reads and saves the operator's store profile.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Get returns the profile of userID, or nil when it was never saved.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.StoreProfile, error) {
	var p models.StoreProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("get store profile", err)
	}
	return &p, nil
}

// Save upserts the profile keyed by user id. An empty signature clears it.
func (s *ProfileService) Save(ctx context.Context, userID uint, in ProfileInput) (*models.StoreProfile, error) {
	if v := validation.Struct(in); !v.Empty() {
		return nil, &ValidationError{Message: "Verifique os campos do perfil.", Violations: v}
	}
	sig := strings.TrimSpace(in.SignatureImage)
	if sig != "" {
		if err := ValidateSignatureImage(sig); err != nil {
			return nil, err
		}
	}
	p := &models.StoreProfile{
		UserID:         userID,
		StoreName:      strings.TrimSpace(in.StoreName),
		TaxID:          strings.TrimSpace(in.TaxID),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		SignatureImage: sig,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"store_name", "tax_id", "phone", "address", "signature_image", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return nil, persistence("save store profile", err)
	}
	return s.Get(ctx, userID)
}
