package policy

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/access"
)

// AuthGate is the application's authorization point: role capabilities
// resolved from the database (cached) plus ownership policies.
type AuthGate struct {
	Gate     *access.Gate[uint]
	Resolver *access.CachedResolver[uint]
}

// NewAuthGate builds a gate whose roles are cached for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := access.NewCachedResolver[uint](NewDBRoleResolver(db), cacheTTL)
	return &AuthGate{
		Gate:     access.NewGate[uint](cached),
		Resolver: cached,
	}
}

// RegisterPolicy adds a resource policy, e.g. ownership for contracts.
func (ag *AuthGate) RegisterPolicy(resourceType string, p access.Policy[uint]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks the current user against action on resource.
func (ag *AuthGate) Authorize(ctx context.Context, action access.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return access.ErrForbidden
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

// Can is Authorize as a bool.
func (ag *AuthGate) Can(ctx context.Context, action access.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// HasCapability checks only the role of the current user.
// Templates use it to show or hide links before a resource is loaded.
func (ag *AuthGate) HasCapability(ctx context.Context, resourceType string, action access.Action) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.HasCapability(ctx, userID, access.NewCapability(resourceType, action))
}

// IsAdmin reports whether the current user holds "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.IsAdminUser(ctx, userID)
}

// IsAdminUser is IsAdmin for an explicit user id.
func (ag *AuthGate) IsAdminUser(ctx context.Context, userID uint) bool {
	return ag.Gate.IsAdmin(ctx, userID)
}

// InvalidateUser drops the cached role of userID. Call it after a role change.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.Resolver.Invalidate(userID)
}

// InvalidateAll drops every cached role.
func (ag *AuthGate) InvalidateAll() {
	ag.Resolver.InvalidateAll()
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// RequireCapability returns middleware that lets through users whose role
// grants resourceType:action.
func (ag *AuthGate) RequireCapability(resourceType string, action access.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.HasCapability(r.Context(), resourceType, action) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets "*:*" holders through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.IsAdmin(r.Context()) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
