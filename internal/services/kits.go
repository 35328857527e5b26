package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
)

// KitService stores named calculator inputs per operator.
type KitService struct {
	db *gorm.DB
}

func NewKitService(db *gorm.DB) *KitService {
	return &KitService{db: db}
}

// Save creates the kit or overwrites the operator's kit with the same name.
func (s *KitService) Save(ctx context.Context, ownerID uint, name string, in PricingInput) (*models.Kit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("Informe o nome do kit.")
	}

	var kit models.Kit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND name = ?", ownerID, name).First(&kit).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		kit.UserID = ownerID
		kit.Name = name
		kit.Items = models.KitItems(in.Items)
		kit.ProfitPercent = in.ProfitPercent
		kit.Shipping = in.ShippingPerEvent
		kit.LivingCost = in.LivingCostMonthly
		return tx.Save(&kit).Error
	})
	if err != nil {
		return nil, persistence("save kit", err)
	}
	return &kit, nil
}

// Find returns a kit by id whoever owns it. Callers authorize the result.
func (s *KitService) Find(ctx context.Context, id uint) (*models.Kit, error) {
	var kit models.Kit
	err := s.db.WithContext(ctx).First(&kit, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistence("load kit", err)
	}
	return &kit, nil
}

// KitInput is the calculator input stored in kit.
func KitInput(kit *models.Kit) PricingInput {
	return PricingInput{
		Items:             []models.KitItem(kit.Items),
		ProfitPercent:     kit.ProfitPercent,
		ShippingPerEvent:  kit.Shipping,
		LivingCostMonthly: kit.LivingCost,
	}
}

// List returns the owner's kits ordered by name.
func (s *KitService) List(ctx context.Context, ownerID uint) ([]models.Kit, error) {
	var kits []models.Kit
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("name").Find(&kits).Error; err != nil {
		return nil, persistence("list kits", err)
	}
	return kits, nil
}

// Delete removes the owner's kit.
func (s *KitService) Delete(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Kit{})
	if res.Error != nil {
		return persistence("delete kit", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
