package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rainydayslabs/storefront-core/internal/metrics"
	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/rainydayslabs/storefront-core/internal/store"
)

// StockLedger gates cart mutations against true product availability and
// turns reservations into consumed inventory on purchase confirmation.
//
// Every unit moves available -> reserved (Reserve) and then either
// reserved -> consumed (ConfirmPurchase) or reserved -> available
// (Unreserve). After every operation reserved <= stock and
// available = stock - reserved >= 0.
type StockLedger struct {
	mu      sync.Mutex
	records map[string]*models.StockRecord
	kv      store.Store
	persist bool
}

func NewStockLedger(kv store.Store, persist bool) *StockLedger {
	return &StockLedger{
		records: make(map[string]*models.StockRecord),
		kv:      kv,
		persist: persist,
	}
}

// Seed sets the owned stock level for a product, creating the record if
// needed. Reserved units are preserved but never exceed the new level.
func (l *StockLedger) Seed(ctx context.Context, productID string, stock int) {
	if stock < 0 {
		stock = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[productID]
	if !ok {
		rec = &models.StockRecord{}
		l.records[productID] = rec
	}

	rec.Stock = stock
	if rec.Reserved > rec.Stock {
		rec.Reserved = rec.Stock
	}

	l.persistLocked(ctx)
}

// SeedMissing seeds only products the ledger has never seen, so an admin
// override survives a catalog refresh.
func (l *StockLedger) SeedMissing(ctx context.Context, productIDs []string, stock int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range productIDs {
		if _, ok := l.records[id]; !ok {
			l.records[id] = &models.StockRecord{Stock: stock}
		}
	}

	l.persistLocked(ctx)
}

// GetAvailable returns stock minus reserved. Unknown products report zero,
// never an error: availability fails closed.
func (l *StockLedger) GetAvailable(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[productID]
	if !ok {
		return 0
	}

	return rec.Available()
}

// Record returns a copy of the full record and whether the product is known.
func (l *StockLedger) Record(productID string) (models.StockRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[productID]
	if !ok {
		return models.StockRecord{}, false
	}

	return *rec, true
}

func (l *StockLedger) CanReserve(productID string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	return l.GetAvailable(productID) >= quantity
}

// Reserve holds quantity units against the product. The check and the hold
// happen under one lock; on refusal nothing changes.
func (l *StockLedger) Reserve(ctx context.Context, productID string, quantity int) bool {
	if quantity < 1 {
		metrics.RecordReservation("refused")

		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[productID]
	if !ok || rec.Available() < quantity {
		metrics.RecordReservation("refused")

		return false
	}

	rec.Reserved += quantity
	l.persistLocked(ctx)
	metrics.RecordReservation("held")

	return true
}

// Unreserve releases up to quantity held units. The floor at zero protects
// against double-release corrupting the record.
func (l *StockLedger) Unreserve(ctx context.Context, productID string, quantity int) {
	if quantity < 1 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[productID]
	if !ok {
		return
	}

	rec.Reserved -= quantity
	if rec.Reserved < 0 {
		slog.Error("stock ledger released more units than were reserved",
			slog.String("productId", productID), slog.Int("quantity", quantity))
		rec.Reserved = 0
	}

	l.persistLocked(ctx)
	metrics.RecordReservation("released")
}

// CancelReservation releases a hold when a checkout is abandoned or a cart
// line is removed.
func (l *StockLedger) CancelReservation(ctx context.Context, productID string, quantity int) {
	l.Unreserve(ctx, productID, quantity)
}

// ConfirmPurchase consumes quantity reserved units: both stock and reserved
// drop together, so the units leave the owned pool for good. Requires the
// full quantity to be reserved already; otherwise nothing changes.
func (l *StockLedger) ConfirmPurchase(ctx context.Context, productID string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.confirmOneLocked(productID, quantity) {
		return false
	}

	l.persistLocked(ctx)

	return true
}

// ConfirmItems commits a whole cart snapshot atomically. Lines are summed
// per product first, so two size variants of one product are validated
// against their combined reservation, then every product is consumed in one
// step. On failure it returns the offending product ids and leaves the
// ledger untouched.
func (l *StockLedger) ConfirmItems(ctx context.Context, items []models.CartItem) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	required := make(map[string]int, len(items))
	productIDs := make([]string, 0, len(items))

	for _, item := range items {
		if _, seen := required[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}

		required[item.ProductID] += item.Quantity
	}

	var failed []string

	for _, id := range productIDs {
		rec, ok := l.records[id]
		if !ok || rec.Reserved < required[id] {
			failed = append(failed, id)
		}
	}

	if len(failed) > 0 {
		return failed
	}

	for _, id := range productIDs {
		if !l.confirmOneLocked(id, required[id]) {
			slog.Error("stock ledger rejected a validated confirmation",
				slog.String("productId", id), slog.Int("quantity", required[id]))
		}
	}

	l.persistLocked(ctx)

	return nil
}

func (l *StockLedger) confirmOneLocked(productID string, quantity int) bool {
	rec, ok := l.records[productID]
	if !ok || rec.Reserved < quantity {
		return false
	}

	rec.Stock -= quantity
	rec.Reserved -= quantity

	return true
}

// Restore loads a persisted snapshot. Missing or corrupt data leaves the
// ledger empty for reseeding.
func (l *StockLedger) Restore(ctx context.Context) {
	if !l.persist || l.kv == nil {
		return
	}

	var snapshot map[string]models.StockRecord

	found, err := l.kv.Get(ctx, store.StockKey, &snapshot)
	if err != nil {
		slog.Warn("Failed to restore stock levels, starting from seed",
			slog.String("error", err.Error()))

		return
	}

	if !found {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, rec := range snapshot {
		r := rec
		l.records[id] = &r
	}
}

// persistLocked snapshots the ledger when persistence is on. Callers hold
// the lock. A failed write is logged; the in-memory state stands.
func (l *StockLedger) persistLocked(ctx context.Context) {
	if !l.persist || l.kv == nil {
		return
	}

	snapshot := make(map[string]models.StockRecord, len(l.records))
	for id, rec := range l.records {
		snapshot[id] = *rec
	}

	if err := l.kv.Set(ctx, store.StockKey, snapshot); err != nil {
		slog.Warn("Failed to persist stock levels", slog.String("error", err.Error()))
	}
}

// AvailabilityMessage is the actionable refusal text shown to shoppers.
func (l *StockLedger) AvailabilityMessage(productID string) string {
	available := l.GetAvailable(productID)
	if available == 0 {
		return "Out of stock"
	}

	return fmt.Sprintf("Only %d left in stock", available)
}
