package repository

import (
	"context"
	"testing"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingSettingsRepository(t *testing.T) {
	repo := NewBillingSettingsRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("no active settings", func(t *testing.T) {
		_, err := repo.Active(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	first, err := repo.Create(ctx, model.DefaultBillingSettings())
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	t.Run("active returns the created row", func(t *testing.T) {
		active, err := repo.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, first.ID, active.ID)
		assert.Equal(t, "21", active.IvaPorDefecto.String())
		assert.Equal(t, model.CreditNoteStub, active.CreditNoteStrategy)
	})

	second := model.DefaultBillingSettings()
	second.Descripcion = "second"
	second, err = repo.Create(ctx, second)
	require.NoError(t, err)

	t.Run("creating an active row deactivates the others", func(t *testing.T) {
		active, err := repo.Active(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, active.ID)

		old, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, old.Activo)
	})

	t.Run("activate switches back", func(t *testing.T) {
		activated, err := repo.Activate(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, activated.Activo)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		activeCount := 0
		for _, s := range all {
			if s.Activo {
				activeCount++
			}
		}
		assert.Equal(t, 1, activeCount)
	})

	t.Run("update keeps the id", func(t *testing.T) {
		s, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)
		s.RazonSocialEmpresa = "Nueva Razon"
		updated, err := repo.Update(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, second.ID, updated.ID)

		got, err := repo.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Nueva Razon", got.RazonSocialEmpresa)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := repo.Get(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.Activate(ctx, "3f1c1f0e-8d7a-4c55-9a43-3f6b4b1f0a11")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
