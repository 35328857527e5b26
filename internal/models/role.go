package models

import (
	"time"
)

// Role names seeded at startup.
const (
	RoleAdmin      = "admin"
	RoleSubscriber = "subscriber"
)

// Role groups capabilities. A user holds at most one role.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	// Capabilities holds what this role may do.
	// Many-to-many relationship via the role_capabilities join table.
	Capabilities []Capability `gorm:"many2many:role_capabilities;" json:"capabilities,omitempty"`
}

// Capability is a single action allowed on a resource type, e.g. "material:download".
// Either part may be the "*" wildcard.
type Capability struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_capability" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_capability" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the capability in "resource:action" format.
func (c Capability) Code() string {
	return c.ResourceType + ":" + c.Action
}
