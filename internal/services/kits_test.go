package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/festakit/internal/models"
)

func TestKitService_SaveLoadRoundTrip(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "kit@test")
	svc := NewKitService(gdb)
	ctx := context.Background()

	in := PricingInput{
		Items: []models.KitItem{
			{Name: "Painel", Cost: dec("600"), Months: dec("6"), EventsPerMonth: dec("4")},
			{Name: "Boleira", Cost: dec("89.90"), Months: dec("12"), EventsPerMonth: dec("2.5")},
		},
		ProfitPercent:     dec("35.5"),
		ShippingPerEvent:  dec("20"),
		LivingCostMonthly: dec("1500.75"),
	}
	kit, err := svc.Save(ctx, owner.ID, "  Safari  ", in)
	require.NoError(t, err)
	assert.Equal(t, "Safari", kit.Name)

	loaded, err := svc.Find(ctx, kit.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, loaded.UserID)
	got := KitInput(loaded)
	require.Len(t, got.Items, 2)
	for i := range in.Items {
		assert.Equal(t, in.Items[i].Name, got.Items[i].Name)
		assert.True(t, in.Items[i].Cost.Equal(got.Items[i].Cost), "cost %d", i)
		assert.True(t, in.Items[i].Months.Equal(got.Items[i].Months), "months %d", i)
		assert.True(t, in.Items[i].EventsPerMonth.Equal(got.Items[i].EventsPerMonth), "events %d", i)
	}
	assert.True(t, in.ProfitPercent.Equal(got.ProfitPercent))
	assert.True(t, in.ShippingPerEvent.Equal(got.ShippingPerEvent))
	assert.True(t, in.LivingCostMonthly.Equal(got.LivingCostMonthly))
	assert.True(t, Calculate(in).FinalPrice.Equal(Calculate(got).FinalPrice))
}

func TestKitService_SaveOverwritesByName(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "kit@test")
	svc := NewKitService(gdb)
	ctx := context.Background()

	first, err := svc.Save(ctx, owner.ID, "Safari", DefaultPricingInput())
	require.NoError(t, err)
	second, err := svc.Save(ctx, owner.ID, "Safari", PricingInput{ProfitPercent: dec("50")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	kits, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, kits, 1)
	assert.True(t, kits[0].ProfitPercent.Equal(dec("50")))
}

func TestKitService_OwnerScoped(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "alice@test")
	bob := createUser(t, gdb, "bob@test")
	svc := NewKitService(gdb)
	ctx := context.Background()

	kit, err := svc.Save(ctx, alice.ID, "Circo", DefaultPricingInput())
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Delete(ctx, bob.ID, kit.ID), ErrNotFound))
	require.NoError(t, svc.Delete(ctx, alice.ID, kit.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, alice.ID, kit.ID), ErrNotFound))
}

func TestKitService_SaveRequiresName(t *testing.T) {
	svc := NewKitService(setupTestDB(t))
	_, err := svc.Save(context.Background(), 1, "   ", DefaultPricingInput())
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Informe o nome do kit.", ve.Message)
}

func TestKitService_FindIgnoresOwner(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "kit@test")
	svc := NewKitService(gdb)
	ctx := context.Background()

	kit, err := svc.Save(ctx, owner.ID, "Safari", DefaultPricingInput())
	require.NoError(t, err)

	found, err := svc.Find(ctx, kit.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, found.GetUserID())
	assert.True(t, KitInput(found).ProfitPercent.Equal(DefaultProfitPercent))

	_, err = svc.Find(ctx, kit.ID+100)
	assert.True(t, errors.Is(err, ErrNotFound))
}
