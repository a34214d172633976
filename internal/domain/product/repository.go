package product

import "context"

type FeatureRepository interface {
	List(ctx context.Context, filter FeatureFilter) ([]Feature, error)
	// Upsert creates the feature or refreshes its description; (name, product) is unique.
	Upsert(ctx context.Context, feature Feature) (Feature, error)
}

type ProductService interface {
	ListProducts(ctx context.Context) []ProductResponse
	ListFeatures(ctx context.Context, filter FeatureFilter) ([]FeatureResponse, error)
}
