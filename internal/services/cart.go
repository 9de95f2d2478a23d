package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/metrics"
	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/rainydayslabs/storefront-core/internal/store"
	"github.com/shopspring/decimal"
)

// CartObserver is invoked after every cart mutation with the fresh item
// count and total, so display surfaces can refresh without the cart
// knowing anything about them.
type CartObserver func(summary models.CartSummary)

// CartService owns the authoritative line-item list for the active session.
// A cart holds at most one line per (productId, size); adding the same pair
// again bumps the quantity. Every mutation reserves or releases units in
// the stock ledger, persists the new state and notifies observers.
type CartService struct {
	mu        sync.Mutex
	items     []models.CartItem
	ledger    *StockLedger
	kv        store.Store
	observers []CartObserver
	updatedAt time.Time
}

func NewCartService(ledger *StockLedger, kv store.Store) *CartService {
	return &CartService{ledger: ledger, kv: kv}
}

// Subscribe registers an observer. Not safe to call concurrently with
// mutations; wire observers up during startup.
func (s *CartService) Subscribe(fn CartObserver) {
	s.observers = append(s.observers, fn)
}

func (s *CartService) findLocked(productID, size string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID && s.items[i].Size == size {
			return i
		}
	}

	return -1
}

// AddItem puts quantity units of a product variant in the cart, merging
// into an existing line when the (productId, size) pair is already present.
// The units are reserved in the ledger first; a refused reservation
// surfaces as an out-of-stock error and leaves the cart unchanged.
func (s *CartService) AddItem(ctx context.Context, product *models.Product, size string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ledger.Reserve(ctx, product.ID, quantity) {
		return nil, errors.OutOfStockError(s.ledger.AvailabilityMessage(product.ID))
	}

	if i := s.findLocked(product.ID, size); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, models.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.EffectivePrice(),
			Size:      size,
			Quantity:  quantity,
		})
	}

	s.afterMutationLocked(ctx)

	return s.snapshotLocked(), nil
}

// RemoveItem deletes the line matching (productId, size) and releases its
// reservation. A missing line is a no-op, not an error.
func (s *CartService) RemoveItem(ctx context.Context, productID, size string) *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(productID, size)
	if i < 0 {
		return s.snapshotLocked()
	}

	s.ledger.CancelReservation(ctx, productID, s.items[i].Quantity)
	s.items = append(s.items[:i], s.items[i+1:]...)

	s.afterMutationLocked(ctx)

	return s.snapshotLocked()
}

// IncrementQuantity adds one unit to an existing line, subject to the same
// availability gate as AddItem.
func (s *CartService) IncrementQuantity(ctx context.Context, productID, size string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(productID, size)
	if i < 0 {
		return nil, errors.NotFoundError("Item not found in the cart")
	}

	if !s.ledger.Reserve(ctx, productID, 1) {
		return nil, errors.OutOfStockError(s.ledger.AvailabilityMessage(productID))
	}

	s.items[i].Quantity++
	s.afterMutationLocked(ctx)

	return s.snapshotLocked(), nil
}

// DecrementQuantity removes one unit from a line but never drops it below
// one; at quantity one the call is a no-op. Dropping a line entirely takes
// an explicit RemoveItem.
func (s *CartService) DecrementQuantity(ctx context.Context, productID, size string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(productID, size)
	if i < 0 {
		return nil, errors.NotFoundError("Item not found in the cart")
	}

	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
		s.ledger.Unreserve(ctx, productID, 1)
		s.afterMutationLocked(ctx)
	}

	return s.snapshotLocked(), nil
}

// Items returns an independent copy of the current line items.
func (s *CartService) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copyItemsLocked()
}

// ComputeTotal sums unitPrice * quantity over all lines at full precision.
// Always recomputed from current state, never cached.
func (s *CartService) ComputeTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return computeTotal(s.items)
}

// ItemCount is the total number of units across all lines, the number the
// header badge shows.
func (s *CartService) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return itemCount(s.items)
}

func (s *CartService) Snapshot() *models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Clear empties the cart after a committed checkout. Reservations are not
// released here: the checkout already consumed them.
func (s *CartService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.afterMutationLocked(ctx)
}

// Restore loads the persisted cart, replacing the in-memory state. Each
// restored line is re-reserved in the ledger, since a fresh ledger holds
// nothing for a cart written by an earlier run; lines whose units are gone
// are dropped and the pruned cart is persisted. Safe to call when nothing
// was persisted yet; corrupt data falls back to an empty cart rather than
// propagating a parse error.
func (s *CartService) Restore(ctx context.Context) {
	var saved []models.CartItem

	found, err := s.kv.Get(ctx, store.CartKey, &saved)
	if err != nil {
		slog.Warn("Failed to restore cart, starting empty", slog.String("error", err.Error()))

		return
	}

	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		kept    []models.CartItem
		dropped bool
	)

	for _, item := range saved {
		if !s.ledger.Reserve(ctx, item.ProductID, item.Quantity) {
			slog.Warn("Dropping restored cart line, units no longer available",
				slog.String("productId", item.ProductID), slog.String("size", item.Size),
				slog.Int("quantity", item.Quantity))
			dropped = true

			continue
		}

		kept = append(kept, item)
	}

	s.items = kept

	if dropped {
		s.afterMutationLocked(ctx)

		return
	}

	s.notifyLocked()
}

func (s *CartService) copyItemsLocked() []models.CartItem {
	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)

	return items
}

func (s *CartService) snapshotLocked() *models.Cart {
	return &models.Cart{
		Items:     s.copyItemsLocked(),
		Total:     computeTotal(s.items),
		ItemCount: itemCount(s.items),
		UpdatedAt: s.updatedAt,
	}
}

// afterMutationLocked persists the new state and notifies observers. A
// failed write is logged and the in-memory cart stands; the next mutation
// retries the write.
func (s *CartService) afterMutationLocked(ctx context.Context) {
	s.updatedAt = time.Now()

	if err := s.kv.Set(ctx, store.CartKey, s.items); err != nil {
		slog.Warn("Failed to persist cart", slog.String("error", err.Error()))
	}

	s.notifyLocked()
}

func (s *CartService) notifyLocked() {
	summary := models.CartSummary{
		ItemCount: itemCount(s.items),
		Total:     computeTotal(s.items),
	}

	metrics.SetCartItems(summary.ItemCount)

	for _, fn := range s.observers {
		fn(summary)
	}
}

func computeTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero

	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	return total
}

func itemCount(items []models.CartItem) int {
	var count int

	for _, item := range items {
		count += item.Quantity
	}

	return count
}
