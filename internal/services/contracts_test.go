package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/festakit/internal/models"
)

func draft() DraftInput {
	return DraftInput{
		Event: EventDetails{Date: "2026-11-20", Time: "15h", Location: "Salão Azul"},
		Items: []models.ContractItem{
			{Description: "Mesa", Quantity: dec("2"), UnitPrice: dec("50")},
			{Description: "   ", Quantity: dec("9"), UnitPrice: dec("999")},
			{Description: "Painel", Quantity: dec("1"), UnitPrice: dec("30")},
		},
		PaymentMethod: "Pix",
		Deposit:       dec("40"),
		Rules:         models.DefaultRules,
	}
}

func TestContractService_CreateDraft(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "op@test")
	svc := NewContractService(gdb)

	c, err := svc.CreateDraft(context.Background(), owner.ID, draft())
	require.NoError(t, err)

	assert.Equal(t, models.ContractPending, c.Status)
	assert.True(t, c.Total.Equal(dec("130")), "total = %s", c.Total)
	assert.Len(t, c.Items, 2, "blank item dropped")
	assert.Nil(t, c.ClientName)
	assert.Nil(t, c.SignedAt)
	assert.NotEmpty(t, c.SigningToken)
	assert.GreaterOrEqual(t, len(c.SigningToken), 43)
	require.NotNil(t, c.EventLocation)
	assert.Equal(t, "Salão Azul", *c.EventLocation)

	stored, err := svc.Find(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance().Equal(dec("90")))
	assert.Equal(t, c.SigningToken, stored.SigningToken)
}

func TestContractService_CreateDraftTokensDiffer(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "op@test")
	svc := NewContractService(gdb)

	a, err := svc.CreateDraft(context.Background(), owner.ID, draft())
	require.NoError(t, err)
	b, err := svc.CreateDraft(context.Background(), owner.ID, draft())
	require.NoError(t, err)
	assert.NotEqual(t, a.SigningToken, b.SigningToken)
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DraftInput)
		want   string
	}{
		{"missing date", func(in *DraftInput) { in.Event.Date = " " }, "Informe a data do evento."},
		{"bad date", func(in *DraftInput) { in.Event.Date = "20/11/2026" }, "Data do evento inválida."},
		{"no items", func(in *DraftInput) { in.Items = nil }, "Adicione pelo menos um item."},
		{"only blank items", func(in *DraftInput) {
			in.Items = []models.ContractItem{{Description: "", Quantity: dec("1"), UnitPrice: dec("1")}}
		}, "Adicione pelo menos um item."},
		{"negative deposit", func(in *DraftInput) { in.Deposit = dec("-1") }, "O sinal não pode ser negativo."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := draft()
			tt.mutate(&in)
			ve, ok := IsValidation(ValidateDraft(in))
			require.True(t, ok)
			assert.Equal(t, tt.want, ve.Message)
		})
	}
}

func TestContractService_CreateDraftRejectsWithoutWriting(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "op@test")
	svc := NewContractService(gdb)

	in := draft()
	in.Event.Date = ""
	_, err := svc.CreateDraft(context.Background(), owner.ID, in)
	require.Error(t, err)

	var n int64
	gdb.Model(&models.Contract{}).Count(&n)
	assert.Zero(t, n)
}

func TestContractService_PersistenceError(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "op@test")
	svc := NewContractService(gdb)
	svc.newToken = func() (string, error) { return "fixed", nil }

	_, err := svc.CreateDraft(context.Background(), owner.ID, draft())
	require.NoError(t, err)
	_, err = svc.CreateDraft(context.Background(), owner.ID, draft())

	var pe *PersistenceError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "create contract", pe.Op)
}

func TestContractService_ListAndDelete(t *testing.T) {
	gdb := setupTestDB(t)
	alice := createUser(t, gdb, "alice@test")
	bob := createUser(t, gdb, "bob@test")
	svc := NewContractService(gdb)
	ctx := context.Background()

	first, err := svc.CreateDraft(ctx, alice.ID, draft())
	require.NoError(t, err)
	second, err := svc.CreateDraft(ctx, alice.ID, draft())
	require.NoError(t, err)
	_, err = svc.CreateDraft(ctx, bob.ID, draft())
	require.NoError(t, err)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	assert.True(t, errors.Is(svc.Delete(ctx, bob.ID, first.ID), ErrNotFound))
	require.NoError(t, svc.Delete(ctx, alice.ID, first.ID))
	_, err = svc.Find(ctx, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestContractService_FindIgnoresOwner(t *testing.T) {
	gdb := setupTestDB(t)
	owner := createUser(t, gdb, "op@test")
	svc := NewContractService(gdb)
	ctx := context.Background()

	c, err := svc.CreateDraft(ctx, owner.ID, draft())
	require.NoError(t, err)

	found, err := svc.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, found.GetUserID())

	_, err = svc.Find(ctx, c.ID+100)
	assert.True(t, errors.Is(err, ErrNotFound))
}
