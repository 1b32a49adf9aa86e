package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/voltara-ev/voltara/internal/shared"
)

// Service exposes catalog reads and reference-data creation.
type Service struct {
	repo *Repository
}

// NewService constructs a catalog service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateBrand(ctx context.Context, req CreateBrandRequest) (*Brand, error) {
	return s.repo.CreateBrand(ctx, req)
}

func (s *Service) CreateModel(ctx context.Context, req CreateModelRequest) (*Model, error) {
	return s.repo.CreateModel(ctx, req)
}

func (s *Service) CreateVariant(ctx context.Context, req CreateVariantRequest) (*Variant, error) {
	if req.BasePrice.IsNegative() {
		return nil, fmt.Errorf("base price must not be negative: %w", shared.ErrValidation)
	}
	return s.repo.CreateVariant(ctx, req)
}

func (s *Service) CreateColor(ctx context.Context, req CreateColorRequest) (*Color, error) {
	return s.repo.CreateColor(ctx, req)
}

func (s *Service) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	return s.repo.GetVariant(ctx, id)
}

func (s *Service) GetColor(ctx context.Context, id uuid.UUID) (*Color, error) {
	return s.repo.GetColor(ctx, id)
}

func (s *Service) ListVariants(ctx context.Context, activeOnly bool) ([]Variant, error) {
	return s.repo.ListVariants(ctx, activeOnly)
}

func (s *Service) ListColors(ctx context.Context) ([]Color, error) {
	return s.repo.ListColors(ctx)
}
