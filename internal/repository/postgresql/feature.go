package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/contribution-backend-go/internal/domain/product"
	"github.com/cmlabs-hris/contribution-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type featureRepositoryImpl struct {
	db *database.DB
}

func NewFeatureRepository(db *database.DB) product.FeatureRepository {
	return &featureRepositoryImpl{db: db}
}

func scanFeature(row pgx.Row) (product.Feature, error) {
	var (
		f           product.Feature
		productName string
	)
	err := row.Scan(&f.ID, &f.Name, &productName, &f.Description, &f.CreatedAt, &f.UpdatedAt)
	f.Product = product.Product(productName)
	return f, err
}

// List implements product.FeatureRepository.
func (r *featureRepositoryImpl) List(ctx context.Context, filter product.FeatureFilter) ([]product.Feature, error) {
	q := GetQuerier(ctx, r.db)

	var productName *string
	if filter.Product != nil {
		name := string(*filter.Product)
		productName = &name
	}

	query := `
		SELECT id, name, product, description, created_at, updated_at
		FROM features
		WHERE ($1::text IS NULL OR product = $1::text)
		ORDER BY array_position(ARRAY['Academy', 'Intensive', 'NIAT'], product), name
	`

	rows, err := q.Query(ctx, query, productName)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	var features []product.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// Upsert implements product.FeatureRepository.
func (r *featureRepositoryImpl) Upsert(ctx context.Context, feature product.Feature) (product.Feature, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO features (name, product, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (product, (LOWER(name))) DO UPDATE SET
			description = COALESCE(EXCLUDED.description, features.description),
			updated_at = NOW()
		RETURNING id, name, product, description, created_at, updated_at
	`

	f, err := scanFeature(q.QueryRow(ctx, query, feature.Name, string(feature.Product), feature.Description))
	if err != nil {
		return product.Feature{}, fmt.Errorf("failed to upsert feature %q: %w", feature.Name, err)
	}
	return f, nil
}
