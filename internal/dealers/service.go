package dealers

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltara-ev/voltara/internal/shared"
)

// Service provides dealer account operations.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateDealerRequest) (*Dealer, error) {
	return s.repo.Create(ctx, req)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Dealer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListDealersRequest) (*DealerPage, error) {
	dealers, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, req.IsActive)
	if err != nil {
		return nil, err
	}
	return &DealerPage{
		Dealers:    dealers,
		Pagination: shared.NewPagination(req.Page, total),
	}, nil
}
