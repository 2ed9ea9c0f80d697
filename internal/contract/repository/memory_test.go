package repository

import (
	"context"
	"testing"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/stretchr/testify/require"
)

func TestMemoryContractsCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := &contract.Contract{Title: "Lease", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Contracts.Create(ctx, old))
	require.NotEmpty(t, old.ID)

	fresh := &contract.Contract{Title: "NDA", CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Contracts.Create(ctx, fresh))

	list, err := s.Contracts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, fresh.ID, list[0].ID)

	// returned rows are copies
	list[0].Title = "mutated"
	got, err := s.Contracts.Get(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, "NDA", got.Title)

	got.Title = "NDA v2"
	got.UpdatedAt = time.Time{}
	require.NoError(t, s.Contracts.Update(ctx, got))
	got2, err := s.Contracts.Get(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, "NDA v2", got2.Title)
	require.Equal(t, fresh.CreatedAt, got2.CreatedAt)
	require.False(t, got2.UpdatedAt.IsZero())

	require.ErrorIs(t, s.Contracts.Update(ctx, &contract.Contract{ID: "nope"}), ErrNotFound)
	require.NoError(t, s.Contracts.Delete(ctx, fresh.ID))
	_, err = s.Contracts.Get(ctx, fresh.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Contracts.Delete(ctx, fresh.ID), ErrNotFound)
}

func TestMemoryObligationsOrderAndStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	undated := &contract.Obligation{ContractID: "c1", Status: contract.ObligationPending}
	later := &contract.Obligation{ContractID: "c1", DueDate: &d1, Status: contract.ObligationPending}
	sooner := &contract.Obligation{ContractID: "c2", DueDate: &d2, Status: contract.ObligationPending}
	for _, o := range []*contract.Obligation{undated, later, sooner} {
		require.NoError(t, s.Obligations.Create(ctx, o))
	}

	all, err := s.Obligations.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{sooner.ID, later.ID, undated.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	byC1, err := s.Obligations.ListByContract(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, byC1, 2)
	require.Equal(t, later.ID, byC1[0].ID)

	require.NoError(t, s.Obligations.SetStatus(ctx, later.ID, contract.ObligationCompleted))
	got, err := s.Obligations.Get(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, contract.ObligationCompleted, got.Status)
	require.ErrorIs(t, s.Obligations.SetStatus(ctx, "missing", contract.ObligationCompleted), ErrNotFound)

	require.NoError(t, s.Obligations.DeleteByContract(ctx, "c1"))
	all, err = s.Obligations.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMemoryCategoriesUniqueSlug(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Categories.Create(ctx, &contract.Category{Name: "Services", Slug: "services"}))
	require.NoError(t, s.Categories.Create(ctx, &contract.Category{Name: "Leases", Slug: "leases"}))
	require.ErrorIs(t, s.Categories.Create(ctx, &contract.Category{Name: "Services", Slug: "services"}), contract.ErrConflict)

	list, err := s.Categories.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Leases", list[0].Name)

	c, err := s.Categories.GetBySlug(ctx, "services")
	require.NoError(t, err)
	require.Equal(t, "Services", c.Name)
	_, err = s.Categories.GetBySlug(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryHistoryAndFiles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.History.Append(ctx, &contract.StatusHistoryEntry{ContractID: "c", NewStatus: contract.StatusPendingReview}))
	require.NoError(t, s.History.Append(ctx, &contract.StatusHistoryEntry{ContractID: "c", NewStatus: contract.StatusApproved}))
	h, err := s.History.ListByContract(ctx, "c")
	require.NoError(t, err)
	require.Len(t, h, 2)
	require.Equal(t, contract.StatusPendingReview, h[0].NewStatus)

	require.NoError(t, s.Files.Create(ctx, &contract.File{ContractID: "c", FileName: "a.pdf"}))
	require.NoError(t, s.Files.Create(ctx, &contract.File{ContractID: "c", FileName: "b.pdf"}))
	files, err := s.Files.ListByContract(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "b.pdf", files[0].FileName)
}

func TestMemoryCascade(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := &contract.Contract{Title: "x"}
	require.NoError(t, s.Contracts.Create(ctx, c))
	require.NoError(t, s.Obligations.Create(ctx, &contract.Obligation{ContractID: c.ID}))
	require.NoError(t, s.Files.Create(ctx, &contract.File{ContractID: c.ID}))
	require.NoError(t, s.History.Append(ctx, &contract.StatusHistoryEntry{ContractID: c.ID}))
	require.NoError(t, s.Obligations.Create(ctx, &contract.Obligation{ContractID: "other"}))

	require.NotNil(t, s.Cascade)
	require.NoError(t, s.Cascade.DeleteContractCascade(ctx, c.ID))
	require.ErrorIs(t, s.Cascade.DeleteContractCascade(ctx, c.ID), ErrNotFound)

	obs, _ := s.Obligations.List(ctx)
	require.Len(t, obs, 1)
	files, _ := s.Files.ListByContract(ctx, c.ID)
	require.Empty(t, files)
	hist, _ := s.History.ListByContract(ctx, c.ID)
	require.Empty(t, hist)
}
