package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/festakit/internal/access"
)

type ownedThing struct{ owner uint }

type ownerPolicy struct{}

func (ownerPolicy) Can(_ context.Context, user uint, _ access.Action, resource any) bool {
	o, ok := resource.(*ownedThing)
	return ok && o.owner == user
}

func newTestGate() *access.Gate[uint] {
	resolver := access.NewStaticResolver[uint]()
	subscriber := access.NewStaticRole(2, "subscriber",
		access.NewCapability(access.ResourceContract, access.Wildcard),
		access.NewCapability(access.ResourceMaterial, access.ActionDownload),
	)
	resolver.Set(1, access.NewStaticRole(1, "admin", access.CapabilityAll))
	resolver.Set(2, subscriber)
	resolver.Set(3, subscriber)
	g := access.NewGate[uint](resolver)
	g.Register(access.ResourceContract, ownerPolicy{})
	return g
}

func TestGate_Capabilities(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	if !g.Can(ctx, 2, access.ActionCreate, access.ResourceContract, nil) {
		t.Error("subscriber should create contracts")
	}
	if g.Can(ctx, 2, access.ActionCreate, access.ResourceMaterial, nil) {
		t.Error("subscriber should not create materials")
	}
	if g.Can(ctx, 0, access.ActionDownload, access.ResourceMaterial, nil) {
		t.Error("zero user should be denied")
	}
	if g.Can(ctx, 99, access.ActionDownload, access.ResourceMaterial, nil) {
		t.Error("user without role should be denied")
	}
}

func TestGate_Policy(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()
	thing := &ownedThing{owner: 2}

	if err := g.Authorize(ctx, 2, access.ActionView, access.ResourceContract, thing); err != nil {
		t.Errorf("owner denied: %v", err)
	}
	err := g.Authorize(ctx, 3, access.ActionView, access.ResourceContract, thing)
	if !errors.Is(err, access.ErrForbidden) {
		t.Errorf("non-owner err = %v, want ErrForbidden", err)
	}
}

func TestGate_IsAdmin(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()
	if !g.IsAdmin(ctx, 1) {
		t.Error("user 1 should be admin")
	}
	if g.IsAdmin(ctx, 2) {
		t.Error("subscriber should not be admin")
	}
}

type countingResolver struct {
	calls int
	role  access.Role
}

func (c *countingResolver) Resolve(context.Context, uint) (access.Role, error) {
	c.calls++
	return c.role, nil
}

func TestCachedResolver(t *testing.T) {
	inner := &countingResolver{role: access.NewStaticRole(1, "admin", access.CapabilityAll)}
	cached := access.NewCachedResolver[uint](inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		role, err := cached.Resolve(ctx, 7)
		if err != nil || role.Name() != "admin" {
			t.Fatalf("Resolve() = %v, %v", role, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	cached.Invalidate(7)
	_, _ = cached.Resolve(ctx, 7)
	if inner.calls != 2 {
		t.Errorf("after Invalidate calls = %d, want 2", inner.calls)
	}

	cached.InvalidateAll()
	_, _ = cached.Resolve(ctx, 7)
	if inner.calls != 3 {
		t.Errorf("after InvalidateAll calls = %d, want 3", inner.calls)
	}
}

func TestCachedResolver_Expiry(t *testing.T) {
	inner := &countingResolver{role: access.NewStaticRole(1, "admin")}
	cached := access.NewCachedResolver[uint](inner, 0)
	ctx := context.Background()
	_, _ = cached.Resolve(ctx, 1)
	_, _ = cached.Resolve(ctx, 1)
	if inner.calls != 2 {
		t.Errorf("zero ttl should not cache, calls = %d", inner.calls)
	}
}
