package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/access"
	"github.com/diewo77/festakit/internal/models"
)

// DBRoleResolver loads a user's role and capabilities from the database.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

// Resolve returns nil when the user is unknown or has no role.
func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint) (access.Role, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Role.Capabilities").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Role == nil {
		return nil, nil
	}
	caps := make([]access.Capability, len(user.Role.Capabilities))
	for i, c := range user.Role.Capabilities {
		caps[i] = access.NewCapability(c.ResourceType, access.Action(c.Action))
	}
	return access.NewStaticRole(user.Role.ID, user.Role.Name, caps...), nil
}
