package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/access"
)

// RoleCacheTTL bounds how long a role change takes to apply.
const RoleCacheTTL = 5 * time.Minute

// NewAppGate builds the gate used by the HTTP layer. Operator-owned
// resources get an ownership policy that admins bypass.
func NewAppGate(db *gorm.DB) *AuthGate {
	ag := NewAuthGate(db, RoleCacheTTL)
	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdminUser)
	for _, res := range []string{access.ResourceContract, access.ResourceKit, access.ResourceStoreProfile} {
		ag.RegisterPolicy(res, owned)
	}
	return ag
}
