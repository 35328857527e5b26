package access

import (
	"context"
	"sort"
)

// Role is a named set of capabilities.
type Role interface {
	ID() uint
	Name() string
	Has(requested Capability) bool
	Capabilities() []Capability
}

// RoleResolver finds the role held by a user. A nil role with a nil error
// means the user holds none.
type RoleResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Role, error)
}

// StaticRole is an in-memory role, used for seeding and in tests.
type StaticRole struct {
	id   uint
	name string
	caps map[Capability]bool
}

// NewStaticRole creates a role holding caps.
func NewStaticRole(id uint, name string, caps ...Capability) *StaticRole {
	r := &StaticRole{id: id, name: name, caps: make(map[Capability]bool, len(caps))}
	for _, c := range caps {
		r.caps[c] = true
	}
	return r
}

func (r *StaticRole) ID() uint     { return r.id }
func (r *StaticRole) Name() string { return r.name }

// Capabilities returns the held capabilities sorted.
func (r *StaticRole) Capabilities() []Capability {
	out := make([]Capability, 0, len(r.caps))
	for c := range r.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has checks requested against every held capability, wildcards included.
func (r *StaticRole) Has(requested Capability) bool {
	return HasAny(r.Capabilities(), requested)
}

// HasAny reports whether any of held grants requested.
func HasAny(held []Capability, requested Capability) bool {
	for _, c := range held {
		if c.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver maps users to roles in memory.
type StaticResolver[U comparable] struct {
	roles map[U]Role
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{roles: make(map[U]Role)}
}

// Set assigns role to user.
func (r *StaticResolver[U]) Set(user U, role Role) {
	r.roles[user] = role
}

func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Role, error) {
	return r.roles[user], nil
}
