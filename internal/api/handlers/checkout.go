package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rainydayslabs/storefront-core/internal/api/middleware"
	"github.com/rainydayslabs/storefront-core/internal/models"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/utils"
	"github.com/rainydayslabs/storefront-core/internal/utils/response"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validator:       validator.New(),
	}
}

func (h *CheckoutHandler) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CheckoutRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.WriteJson(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Field-level validation happens inside the checkout so the first
		// failing field is reported; only sanitize here.
		utils.SanitizeCustomerInfo(&req.Customer)

		order, err := h.checkoutService.Submit(r.Context(), &req)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Checkout committed", slog.String("orderId", order.OrderID))
		response.Success(w, http.StatusCreated, models.CheckoutResponse{
			OrderID:           order.OrderID,
			EstimatedDelivery: order.EstimatedDelivery,
		})
	}
}

func (h *CheckoutHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		history, err := h.checkoutService.History(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, history)
	}
}
