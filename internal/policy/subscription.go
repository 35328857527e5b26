package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/httpx"
	"github.com/diewo77/festakit/internal/services"
)

// SubscriptionGate decides whether the current user may use paid features.
type SubscriptionGate struct {
	subs *services.SubscriptionService
	gate *AuthGate
	now  func() time.Time
}

func NewSubscriptionGate(subs *services.SubscriptionService, gate *AuthGate) *SubscriptionGate {
	return &SubscriptionGate{subs: subs, gate: gate, now: time.Now}
}

// Allowed reports whether the current user is an admin or has an active
// trial or subscription. Lookup failures deny access.
func (s *SubscriptionGate) Allowed(ctx context.Context) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	if s.gate.IsAdminUser(ctx, userID) {
		return true
	}
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("subscription lookup failed")
		return false
	}
	return services.HasActiveAccess(sub, s.now(), false)
}

// Require sends users without access back to the materials page.
func (s *SubscriptionGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Allowed(r.Context()) {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusPaymentRequired, "subscription required", nil)
				return
			}
			http.Redirect(w, r, "/materiais", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
