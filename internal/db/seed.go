package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
)

type seedRole struct {
	Name         string
	Description  string
	Capabilities []string
}

var seedRoles = []seedRole{
	{
		Name:         models.RoleAdmin,
		Description:  "Full access, including the material catalog",
		Capabilities: []string{"*:*"},
	},
	{
		Name:        "editor",
		Description: "Manages the material catalog",
		Capabilities: []string{
			"material:*",
		},
	},
	{
		Name:        models.RoleSubscriber,
		Description: "Store operator",
		Capabilities: []string{
			"material:list",
			"material:view",
			"material:download",
			"calculator:use",
			"kit:*",
			"contract:*",
			"store_profile:*",
		},
	},
}

var (
	seedCategories = []models.Category{
		{Name: "Aniversário", Slug: "aniversario", Active: true},
		{Name: "Chá de bebê", Slug: "cha-de-bebe", Active: true},
		{Name: "Batizado", Slug: "batizado", Active: true},
		{Name: "Casamento", Slug: "casamento", Active: true},
	}
	seedPieceTypes = []models.PieceType{
		{Name: "Convite", Slug: "convite"},
		{Name: "Painel", Slug: "painel"},
		{Name: "Rótulo", Slug: "rotulo"},
		{Name: "Tag", Slug: "tag"},
		{Name: "Topo de bolo", Slug: "topo-de-bolo"},
	}
	seedFormats = []models.Format{
		{Name: "PDF"},
		{Name: "PNG"},
		{Name: "SVG"},
	}
)

// Seed inserts roles, capabilities and reference data. It is idempotent.
// When adminEmail names an existing account it receives the admin role.
func Seed(db *gorm.DB, adminEmail string) error {
	if err := SeedRoles(db); err != nil {
		return err
	}
	if err := SeedCatalog(db); err != nil {
		return err
	}
	if strings.TrimSpace(adminEmail) != "" {
		err := GrantRole(db, adminEmail, models.RoleAdmin)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

// SeedRoles creates the built-in roles and attaches their capabilities.
func SeedRoles(db *gorm.DB) error {
	for _, sr := range seedRoles {
		role := models.Role{Name: sr.Name}
		if err := db.Where("name = ?", sr.Name).
			Attrs(models.Role{Description: sr.Description}).
			FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", sr.Name, err)
		}

		caps := make([]models.Capability, 0, len(sr.Capabilities))
		for _, code := range sr.Capabilities {
			resource, action, ok := strings.Cut(code, ":")
			if !ok {
				return fmt.Errorf("malformed capability %q", code)
			}
			c := models.Capability{ResourceType: resource, Action: action}
			if err := db.Where("resource_type = ? AND action = ?", resource, action).
				FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("seed capability %s: %w", code, err)
			}
			caps = append(caps, c)
		}
		if err := db.Model(&role).Association("Capabilities").Replace(caps); err != nil {
			return fmt.Errorf("attach capabilities to %s: %w", sr.Name, err)
		}
	}
	return nil
}

// SeedCatalog inserts the default categories, piece types and formats.
func SeedCatalog(db *gorm.DB) error {
	for _, c := range seedCategories {
		if err := db.Where("slug = ?", c.Slug).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}
	for _, p := range seedPieceTypes {
		if err := db.Where("slug = ?", p.Slug).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed piece type %s: %w", p.Slug, err)
		}
	}
	for _, f := range seedFormats {
		if err := db.Where("name = ?", f.Name).FirstOrCreate(&f).Error; err != nil {
			return fmt.Errorf("seed format %s: %w", f.Name, err)
		}
	}
	return nil
}

// GrantRole assigns roleName to the account with email.
// gorm.ErrRecordNotFound is returned when either does not exist.
func GrantRole(db *gorm.DB, email, roleName string) error {
	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return fmt.Errorf("role %s: %w", roleName, err)
	}
	var user models.User
	if err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return fmt.Errorf("user %s: %w", email, err)
	}
	return db.Model(&user).Update("role_id", role.ID).Error
}
