package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/validator"
)

type EntityHandler interface {
	ListProducts(w http.ResponseWriter, r *http.Request)
	ListFeatures(w http.ResponseWriter, r *http.Request)
}

type entityHandlerImpl struct {
	productService product.ProductService
}

func NewEntityHandler(productService product.ProductService) EntityHandler {
	return &entityHandlerImpl{productService: productService}
}

// ListProducts handles GET /products
func (h *entityHandlerImpl) ListProducts(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.productService.ListProducts(r.Context()))
}

// ListFeatures handles GET /features?product_id= or ?product=
func (h *entityHandlerImpl) ListFeatures(w http.ResponseWriter, r *http.Request) {
	var filter product.FeatureFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		p, ok := product.FromID(id)
		if err != nil || !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "product_id", Message: "must be a listed product id"}})
			return
		}
		filter.Product = &p
	} else if raw := strings.TrimSpace(r.URL.Query().Get("product")); raw != "" {
		p, ok := product.Parse(raw)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "product", Message: "must be one of Academy, Intensive, NIAT"}})
			return
		}
		filter.Product = &p
	}

	features, err := h.productService.ListFeatures(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, features)
}
