// Package access implements role and capability based authorization.
//
// A Gate first asks the user's role for the "resource:action" capability,
// then, when a concrete resource is given and a Policy is registered for
// its type, lets the policy decide (typically an ownership check).
package access

import (
	"context"
	"errors"
)

var (
	// ErrForbidden is returned when a check fails.
	ErrForbidden = errors.New("forbidden")
)

// Policy holds resource-specific rules for one resource type.
// resource is nil for list and create checks.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// Gate combines role capabilities with per-resource policies.
type Gate[U comparable] struct {
	resolver RoleResolver[U]
	policies map[string]Policy[U]
}

func NewGate[U comparable](resolver RoleResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the policy for resourceType, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when user may perform action on resource.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	if !g.HasCapability(ctx, user, NewCapability(resourceType, action)) {
		return ErrForbidden
	}
	if resource != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, user, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// HasCapability checks only the role, never policies. The zero user holds nothing.
func (g *Gate[U]) HasCapability(ctx context.Context, user U, c Capability) bool {
	var zero U
	if user == zero {
		return false
	}
	role, err := g.resolver.Resolve(ctx, user)
	if err != nil || role == nil {
		return false
	}
	return role.Has(c)
}

// IsAdmin reports whether user holds "*:*".
func (g *Gate[U]) IsAdmin(ctx context.Context, user U) bool {
	return g.HasCapability(ctx, user, CapabilityAll)
}
