package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rainydayslabs/storefront-core/internal/api/middleware"
	appErrors "github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/models"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/utils"
	"github.com/rainydayslabs/storefront-core/internal/utils/response"
	"github.com/rainydayslabs/storefront-core/pkg/catalog"
)

type CartHandler struct {
	cartService *service.CartService
	catalog     catalog.Client
	validator   *validator.Validate
}

func NewCartHandler(cartService *service.CartService, catalogClient catalog.Client) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		catalog:     catalogClient,
		validator:   validator.New(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.cartService.Snapshot())
	}
}

// AddItem resolves the product against the catalog, then puts it in the
// cart at its effective price.
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				response.Error(w, appErrors.NotFoundError("Product not found"))
				return
			}

			logger.Error("Catalog lookup failed", slog.String("error", err.Error()))
			response.Error(w, appErrors.ThirdPartyError("Failed to look up product").WithError(err))
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), product, req.Size, req.Quantity)
		if err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("productId", req.ProductID),
			slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		var (
			cart *models.Cart
			err  error
		)

		switch req.Action {
		case "increment":
			cart, err = h.cartService.IncrementQuantity(r.Context(), req.ProductID, req.Size)
		case "decrement":
			cart, err = h.cartService.DecrementQuantity(r.Context(), req.ProductID, req.Size)
		}

		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.RemoveItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart := h.cartService.RemoveItem(r.Context(), req.ProductID, req.Size)

		response.Success(w, http.StatusOK, cart)
	}
}
