package service_test

import (
	"context"
	"testing"

	appErrors "github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/models"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture(ctx context.Context, t *testing.T, levels map[string]int) (*service.CartService, *service.StockLedger, *store.MemoryStore) {
	t.Helper()

	kv := store.NewMemoryStore()
	ledger := service.NewStockLedger(kv, false)

	for id, level := range levels {
		ledger.Seed(ctx, id, level)
	}

	return service.NewCartService(ledger, kv), ledger, kv
}

func productA() *models.Product {
	return &models.Product{
		ID:    "prod-a",
		Title: "Rainy Days Jacket",
		Price: decimal.RequireFromString("10.00"),
	}
}

func productB() *models.Product {
	return &models.Product{
		ID:              "prod-b",
		Title:           "Thunderbolt Sweater",
		Price:           decimal.RequireFromString("30.00"),
		DiscountedPrice: decimal.RequireFromString("25.50"),
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - New Line", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 10})

		// Act
		cart, err := cartService.AddItem(ctx, productA(), "", 2)

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
		assert.Equal(t, 8, ledger.GetAvailable("prod-a"), "added units must be held in the ledger")
	})

	t.Run("Success - Same Product And Size Merges", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 10})
		_, err := cartService.AddItem(ctx, productA(), "M", 1)
		require.NoError(t, err)

		// Act
		cart, err := cartService.AddItem(ctx, productA(), "M", 2)

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1, "the same (product, size) pair must merge into one line")
		assert.Equal(t, 3, cart.Items[0].Quantity)
	})

	t.Run("Success - Different Sizes Stay Separate Lines", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 10})
		_, err := cartService.AddItem(ctx, productA(), "M", 1)
		require.NoError(t, err)

		// Act
		cart, err := cartService.AddItem(ctx, productA(), "L", 1)

		// Assert
		require.NoError(t, err)
		assert.Len(t, cart.Items, 2)
	})

	t.Run("Success - Discounted Price Wins", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-b": 10})

		// Act
		cart, err := cartService.AddItem(ctx, productB(), "", 1)

		// Assert
		require.NoError(t, err)
		assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("25.50")))
	})

	t.Run("Failure - Out Of Stock", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 1})

		// Act
		cart, err := cartService.AddItem(ctx, productA(), "", 2)

		// Assert
		require.Error(t, err)
		assert.Nil(t, cart)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeOutOfStock, appErr.Code)
		assert.Equal(t, "Only 1 left in stock", appErr.Message)
		assert.Equal(t, 1, ledger.GetAvailable("prod-a"), "a refused add must not hold units")
		assert.Empty(t, cartService.Items())
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Increment Holds Another Unit", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 3})
		_, err := cartService.AddItem(ctx, productA(), "", 1)
		require.NoError(t, err)

		// Act
		cart, err := cartService.IncrementQuantity(ctx, "prod-a", "")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, 1, ledger.GetAvailable("prod-a"))
	})

	t.Run("Failure - Increment Beyond Availability", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 1})
		_, err := cartService.AddItem(ctx, productA(), "", 1)
		require.NoError(t, err)

		// Act
		cart, err := cartService.IncrementQuantity(ctx, "prod-a", "")

		// Assert
		require.Error(t, err)
		assert.Nil(t, cart)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeOutOfStock, appErr.Code)
	})

	t.Run("Success - Decrement Releases A Unit", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "", 3)
		require.NoError(t, err)

		// Act
		cart, err := cartService.DecrementQuantity(ctx, "prod-a", "")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.Equal(t, 3, ledger.GetAvailable("prod-a"))
	})

	t.Run("Success - Decrement Floors At One", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "", 1)
		require.NoError(t, err)

		// Act
		cart, err := cartService.DecrementQuantity(ctx, "prod-a", "")

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1, "decrement at quantity one must not drop the line")
		assert.Equal(t, 1, cart.Items[0].Quantity)
		assert.Equal(t, 4, ledger.GetAvailable("prod-a"))
	})

	t.Run("Failure - Unknown Line", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})

		// Act
		_, err := cartService.IncrementQuantity(ctx, "ghost", "")

		// Assert
		require.Error(t, err)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Releases The Whole Hold", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "", 3)
		require.NoError(t, err)

		// Act
		cart := cartService.RemoveItem(ctx, "prod-a", "")

		// Assert
		assert.Empty(t, cart.Items)
		assert.Equal(t, 5, ledger.GetAvailable("prod-a"))
	})

	t.Run("Success - Missing Line Is A No-Op", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "", 1)
		require.NoError(t, err)

		// Act
		cart := cartService.RemoveItem(ctx, "ghost", "")

		// Assert
		assert.Len(t, cart.Items, 1)
	})

	t.Run("Success - Size Mismatch Leaves Other Variants", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "M", 1)
		require.NoError(t, err)
		_, err = cartService.AddItem(ctx, productA(), "L", 1)
		require.NoError(t, err)

		// Act
		cart := cartService.RemoveItem(ctx, "prod-a", "M")

		// Assert
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "L", cart.Items[0].Size)
	})
}

func TestCartTotals(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Sums Lines At Full Precision", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 10, "prod-b": 10})
		_, err := cartService.AddItem(ctx, productA(), "", 2)
		require.NoError(t, err)
		_, err = cartService.AddItem(ctx, productB(), "M", 1)
		require.NoError(t, err)

		// Act
		total := cartService.ComputeTotal()
		count := cartService.ItemCount()

		// Assert
		assert.True(t, total.Equal(decimal.RequireFromString("45.50")), "got %s", total)
		assert.Equal(t, 3, count)
	})

	t.Run("Success - Empty Cart Is Zero", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, nil)

		// Act & Assert
		assert.True(t, cartService.ComputeTotal().IsZero())
		assert.Equal(t, 0, cartService.ItemCount())
	})
}

func TestCartPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Restore Round-Trips The Cart And Re-Reserves", func(t *testing.T) {
		// Arrange
		kv := store.NewMemoryStore()
		ledger := service.NewStockLedger(kv, false)
		ledger.Seed(ctx, "prod-a", 10)

		original := service.NewCartService(ledger, kv)
		_, err := original.AddItem(ctx, productA(), "M", 2)
		require.NoError(t, err)

		// A restart reseeds a fresh ledger with no holds.
		restartedLedger := service.NewStockLedger(kv, false)
		restartedLedger.Seed(ctx, "prod-a", 10)

		// Act
		restarted := service.NewCartService(restartedLedger, kv)
		restarted.Restore(ctx)

		// Assert
		items := restarted.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "prod-a", items[0].ProductID)
		assert.Equal(t, "M", items[0].Size)
		assert.Equal(t, 2, items[0].Quantity)
		assert.True(t, restarted.ComputeTotal().Equal(decimal.RequireFromString("20.00")))
		assert.Equal(t, 8, restartedLedger.GetAvailable("prod-a"),
			"restored lines must hold their units again")
	})

	t.Run("Success - Restore Drops Lines Without Stock", func(t *testing.T) {
		// Arrange
		kv := store.NewMemoryStore()
		ledger := service.NewStockLedger(kv, false)
		ledger.Seed(ctx, "prod-a", 10)
		ledger.Seed(ctx, "prod-b", 10)

		original := service.NewCartService(ledger, kv)
		_, err := original.AddItem(ctx, productA(), "", 3)
		require.NoError(t, err)
		_, err = original.AddItem(ctx, productB(), "M", 1)
		require.NoError(t, err)

		// After the restart only one unit of prod-a is left.
		restartedLedger := service.NewStockLedger(kv, false)
		restartedLedger.Seed(ctx, "prod-a", 1)
		restartedLedger.Seed(ctx, "prod-b", 10)

		// Act
		restarted := service.NewCartService(restartedLedger, kv)
		restarted.Restore(ctx)

		// Assert
		items := restarted.Items()
		require.Len(t, items, 1, "an unreservable line must be dropped")
		assert.Equal(t, "prod-b", items[0].ProductID)
		assert.Equal(t, 9, restartedLedger.GetAvailable("prod-b"))

		var persisted []models.CartItem
		found, err := kv.Get(ctx, store.CartKey, &persisted)
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, persisted, 1, "the pruned cart must be written back")
	})

	t.Run("Success - Nothing Persisted Leaves The Cart Empty", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, nil)

		// Act
		cartService.Restore(ctx)

		// Assert
		assert.Empty(t, cartService.Items())
	})
}

func TestCartObservers(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Every Mutation Notifies", func(t *testing.T) {
		// Arrange
		cartService, _, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 10})

		var summaries []models.CartSummary
		cartService.Subscribe(func(summary models.CartSummary) {
			summaries = append(summaries, summary)
		})

		// Act
		_, err := cartService.AddItem(ctx, productA(), "", 2)
		require.NoError(t, err)
		cartService.RemoveItem(ctx, "prod-a", "")

		// Assert
		require.Len(t, summaries, 2)
		assert.Equal(t, 2, summaries[0].ItemCount)
		assert.Equal(t, 0, summaries[1].ItemCount)
		assert.True(t, summaries[1].Total.IsZero())
	})
}

func TestCartClear(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Keeps Reservations", func(t *testing.T) {
		// Arrange
		cartService, ledger, _ := newCartFixture(ctx, t, map[string]int{"prod-a": 5})
		_, err := cartService.AddItem(ctx, productA(), "", 2)
		require.NoError(t, err)

		// Act
		cartService.Clear(ctx)

		// Assert
		assert.Empty(t, cartService.Items())
		assert.Equal(t, 3, ledger.GetAvailable("prod-a"),
			"clearing after checkout must not release units the purchase consumed")
	})
}
