package product

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
)

type ProductServiceImpl struct {
	features product.FeatureRepository
}

func NewProductService(features product.FeatureRepository) product.ProductService {
	return &ProductServiceImpl{features: features}
}

// ListProducts implements product.ProductService. IDs are display positions.
func (s *ProductServiceImpl) ListProducts(ctx context.Context) []product.ProductResponse {
	out := make([]product.ProductResponse, 0, len(product.All))
	for _, p := range product.All {
		out = append(out, product.ProductResponse{ID: p.ID(), Name: string(p)})
	}
	return out
}

// ListFeatures implements product.ProductService.
func (s *ProductServiceImpl) ListFeatures(ctx context.Context, filter product.FeatureFilter) ([]product.FeatureResponse, error) {
	features, err := s.features.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}

	out := make([]product.FeatureResponse, 0, len(features))
	for _, f := range features {
		out = append(out, product.FeatureResponse{
			ID:          f.ID,
			Name:        f.Name,
			ProductID:   f.Product.ID(),
			ProductName: string(f.Product),
			Description: f.Description,
		})
	}
	return out, nil
}
