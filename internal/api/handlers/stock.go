package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rainydayslabs/storefront-core/internal/api/middleware"
	appErrors "github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/models"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/utils"
	"github.com/rainydayslabs/storefront-core/internal/utils/response"
)

type StockHandler struct {
	ledger    *service.StockLedger
	validator *validator.Validate
}

func NewStockHandler(ledger *service.StockLedger) *StockHandler {
	return &StockHandler{
		ledger:    ledger,
		validator: validator.New(),
	}
}

func (h *StockHandler) GetStock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, appErrors.BadRequestError("Product ID is required"))
			return
		}

		rec, ok := h.ledger.Record(productID)
		if !ok {
			response.Error(w, appErrors.NotFoundError("Product not found"))
			return
		}

		response.Success(w, http.StatusOK, models.StockResponse{
			ProductID: productID,
			Stock:     rec.Stock,
			Reserved:  rec.Reserved,
			Available: rec.Available(),
		})
	}
}

// UpdateStock sets the owned stock level for a product, the admin
// dashboard operation.
func (h *StockHandler) UpdateStock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, appErrors.BadRequestError("Product ID is required"))
			return
		}

		var req models.UpdateStockRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		h.ledger.Seed(r.Context(), productID, req.Stock)

		rec, _ := h.ledger.Record(productID)

		logger.Info("Stock level updated", slog.String("productId", productID),
			slog.Int("stock", req.Stock))
		response.Success(w, http.StatusOK, models.StockResponse{
			ProductID: productID,
			Stock:     rec.Stock,
			Reserved:  rec.Reserved,
			Available: rec.Available(),
		})
	}
}
