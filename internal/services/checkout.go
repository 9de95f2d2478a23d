package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/metrics"
	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/rainydayslabs/storefront-core/internal/store"
)

// Processor runs the confirmation step of a checkout: a payment capture, an
// upstream inventory call, or a simulated delay. Returning an error rejects
// the order with the cart and reservations left intact.
type Processor interface {
	Confirm(ctx context.Context, order *models.Order) error
}

// SimulatedProcessor approves every order after a fixed delay, the
// reference storefront behavior.
type SimulatedProcessor struct {
	Delay time.Duration
}

func (p *SimulatedProcessor) Confirm(ctx context.Context, _ *models.Order) error {
	if p.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OrderSink receives the committed order after the cart is cleared. Used
// for the optional archive, confirmation email and event publisher; sink
// failures are logged, never propagated, because the order already stands.
type OrderSink interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

// CheckoutService drives a cart full of items to a placed order: validate,
// snapshot, process, commit stock, finalize. Exactly one order record is
// written and the cart is cleared only on success.
type CheckoutService struct {
	cart      *CartService
	ledger    *StockLedger
	kv        store.Store
	processor Processor
	sinks     []OrderSink
	validate  *validator.Validate
	inFlight  atomic.Bool
}

func NewCheckoutService(cart *CartService, ledger *StockLedger, kv store.Store, processor Processor) *CheckoutService {
	return &CheckoutService{
		cart:      cart,
		ledger:    ledger,
		kv:        kv,
		processor: processor,
		validate:  validator.New(),
	}
}

// AddSink registers a post-commit collaborator. Wire sinks up during startup.
func (s *CheckoutService) AddSink(sink OrderSink) {
	s.sinks = append(s.sinks, sink)
}

// Submit runs one checkout attempt. A second call while one is processing
// is rejected rather than run against the same snapshot.
func (s *CheckoutService) Submit(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.ConflictError("A checkout is already being processed")
	}
	defer s.inFlight.Store(false)

	// Validate
	items := s.cart.Items()
	if len(items) == 0 {
		metrics.RecordCheckout("rejected")

		return nil, errors.BadRequestError("Cart is empty")
	}

	if err := s.validateCustomer(&req.Customer); err != nil {
		metrics.RecordCheckout("rejected")

		return nil, err
	}

	// Snapshot
	now := time.Now()
	order := &models.Order{
		OrderID:           GenerateOrderID(now),
		Items:             items,
		Total:             computeTotal(items),
		Customer:          req.Customer,
		CreatedAt:         now,
		EstimatedDelivery: EstimatedDelivery(now),
	}

	// Processing
	if err := s.processor.Confirm(ctx, order); err != nil {
		metrics.RecordCheckout("rejected")

		return nil, errors.ThirdPartyError("Order confirmation failed").WithError(err)
	}

	// Commit stock: all lines or none. A failing line means inventory moved
	// underneath the snapshot; the cart is left untouched for the shopper
	// to adjust.
	if failed := s.ledger.ConfirmItems(ctx, items); len(failed) > 0 {
		metrics.RecordCheckout("rejected")

		return nil, errors.OutOfStockError("Some items are no longer available").
			WithDetail("products: " + strings.Join(failed, ", "))
	}

	// Finalize
	s.cart.Clear(ctx)
	s.appendHistory(ctx, order)

	for _, sink := range s.sinks {
		if err := sink.OrderPlaced(ctx, order); err != nil {
			slog.Warn("Order sink failed", slog.String("orderId", order.OrderID),
				slog.String("error", err.Error()))
		}
	}

	metrics.RecordCheckout("committed")
	slog.Info("Order placed", slog.String("orderId", order.OrderID),
		slog.String("total", order.Total.StringFixed(2)))

	return order, nil
}

// validateCustomer reports the first failing field so the storefront can
// point the shopper at it.
func (s *CheckoutService) validateCustomer(info *models.CustomerInfo) error {
	err := s.validate.Struct(info)
	if err == nil {
		return nil
	}

	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		first := validationErrs[0]

		return errors.ValidationError(
			fmt.Sprintf("Invalid field '%s'", strings.ToLower(first.Field()))).WithError(err)
	}

	return errors.ValidationError("Invalid customer information").WithError(err)
}

// appendHistory adds the order to the append-only history slot. A failed
// read aborts the append so existing records are never overwritten; a
// failed write is logged. Either way the order itself already succeeded.
func (s *CheckoutService) appendHistory(ctx context.Context, order *models.Order) {
	var history []models.Order

	if _, err := s.kv.Get(ctx, store.OrderHistoryKey, &history); err != nil {
		slog.Error("Failed to read order history, skipping the append",
			slog.String("orderId", order.OrderID), slog.String("error", err.Error()))

		return
	}

	history = append(history, *order)

	if err := s.kv.Set(ctx, store.OrderHistoryKey, history); err != nil {
		slog.Error("Failed to persist order history", slog.String("orderId", order.OrderID),
			slog.String("error", err.Error()))
	}
}

// History returns every order placed so far, oldest first.
func (s *CheckoutService) History(ctx context.Context) ([]models.Order, error) {
	var history []models.Order

	if _, err := s.kv.Get(ctx, store.OrderHistoryKey, &history); err != nil {
		return nil, errors.StorageError("Failed to load order history").WithError(err)
	}

	return history, nil
}

// GenerateOrderID builds the storefront's order token:
// #RD-<unix-millis>-<5-digit-random>.
func GenerateOrderID(now time.Time) string {
	return fmt.Sprintf("#RD-%d-%d", now.UnixMilli(), 10000+rand.Intn(90000))
}

// EstimatedDelivery is the order date plus ten calendar days in long form,
// e.g. "September 10, 2026".
func EstimatedDelivery(now time.Time) string {
	return now.AddDate(0, 0, 10).Format("January 2, 2006")
}
