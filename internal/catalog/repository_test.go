//go:build integration

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestProductRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := testutil.SetupPostgres(ctx, t)
	defer pg.Cleanup()

	repo := NewProductRepository(pg.DB)

	names := func(ps []domain.Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	t.Run("empty search lists everything by id", func(t *testing.T) {
		products, err := repo.Search(ctx, "")
		require.NoError(t, err)
		assert.Len(t, products, 5)
		assert.Equal(t, "Blue Widget", products[0].Name)
	})

	t.Run("search matches name or description ignoring case", func(t *testing.T) {
		products, err := repo.Search(ctx, "bLuE")
		require.NoError(t, err)
		assert.Equal(t, []string{"Blue Widget", "Gadget Pro"}, names(products))
	})

	t.Run("wildcard characters are literal", func(t *testing.T) {
		products, err := repo.Search(ctx, "100%")
		require.NoError(t, err)
		assert.Equal(t, []string{"Sprocket"}, names(products))

		products, err = repo.Search(ctx, "k_A")
		require.NoError(t, err)
		assert.Equal(t, []string{"Notebook"}, names(products))

		products, err = repo.Search(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"Sprocket"}, names(products))
	})

	t.Run("get missing product", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("get many omits missing ids", func(t *testing.T) {
		found, err := repo.GetMany(ctx, []int64{1, 2, 9999})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.True(t, found[1].Price.Equal(decimal.RequireFromString("25.00")))
	})

	t.Run("create and update price", func(t *testing.T) {
		p := &domain.Product{Name: "Lamp", Description: "desk lamp", Price: decimal.RequireFromString("30.00")}
		require.NoError(t, repo.Create(ctx, p))
		require.NotZero(t, p.ID)

		updated, err := repo.UpdatePrice(ctx, p.ID, decimal.RequireFromString("35.50"))
		require.NoError(t, err)
		assert.True(t, updated.Price.Equal(decimal.RequireFromString("35.50")))

		_, err = repo.UpdatePrice(ctx, p.ID, decimal.RequireFromString("-1"))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}
