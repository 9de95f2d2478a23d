package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rainydayslabs/storefront-core/internal/api/middleware"
	appErrors "github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/models"
	service "github.com/rainydayslabs/storefront-core/internal/services"
	"github.com/rainydayslabs/storefront-core/internal/utils/response"
	"github.com/rainydayslabs/storefront-core/pkg/catalog"
)

// ProductHandler fronts the upstream catalog and decorates each product
// with its live availability.
type ProductHandler struct {
	catalog catalog.Client
	ledger  *service.StockLedger
}

func NewProductHandler(catalogClient catalog.Client, ledger *service.StockLedger) *ProductHandler {
	return &ProductHandler{
		catalog: catalogClient,
		ledger:  ledger,
	}
}

type productView struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Price           string              `json:"price"`
	DiscountedPrice string              `json:"discountedPrice,omitempty"`
	EffectivePrice  string              `json:"effectivePrice"`
	Image           models.ProductImage `json:"image"`
	Tags            []string            `json:"tags,omitempty"`
	Available       int                 `json:"available"`
	Availability    string              `json:"availability,omitempty"`
}

func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		products, err := h.catalog.ListProducts(r.Context())
		if err != nil {
			logger.Error("Catalog listing failed", slog.String("error", err.Error()))
			response.Error(w, appErrors.ThirdPartyError("Failed to load products").WithError(err))
			return
		}

		views := make([]productView, 0, len(products))
		for _, p := range products {
			available := h.ledger.GetAvailable(p.ID)
			views = append(views, productView{
				ID:              p.ID,
				Title:           p.Title,
				Description:     p.Description,
				Price:           p.Price.StringFixed(2),
				DiscountedPrice: p.DiscountedPrice.StringFixed(2),
				EffectivePrice:  p.EffectivePrice().StringFixed(2),
				Image:           p.Image,
				Tags:            p.Tags,
				Available:       available,
				Availability:    h.ledger.AvailabilityMessage(p.ID),
			})
		}

		response.Success(w, http.StatusOK, views)
	}
}

func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		productID := r.PathValue("id")
		if productID == "" {
			response.Error(w, appErrors.BadRequestError("Product ID is required"))
			return
		}

		product, err := h.catalog.GetProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				response.Error(w, appErrors.NotFoundError("Product not found"))
				return
			}

			response.Error(w, appErrors.ThirdPartyError("Failed to load product").WithError(err))
			return
		}

		response.Success(w, http.StatusOK, productView{
			ID:              product.ID,
			Title:           product.Title,
			Description:     product.Description,
			Price:           product.Price.StringFixed(2),
			DiscountedPrice: product.DiscountedPrice.StringFixed(2),
			EffectivePrice:  product.EffectivePrice().StringFixed(2),
			Image:           product.Image,
			Tags:            product.Tags,
			Available:       h.ledger.GetAvailable(product.ID),
			Availability:    h.ledger.AvailabilityMessage(product.ID),
		})
	}
}
