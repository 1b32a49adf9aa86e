package invoices

import (
	"context"

	"github.com/google/uuid"
)

// Service exposes invoice reads.
type Service struct {
	repo *Repository
}

// NewService constructs an invoices service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByQuotation(ctx context.Context, quotationID uuid.UUID) (*Invoice, error) {
	return s.repo.GetByQuotation(ctx, quotationID)
}

func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error) {
	return s.repo.ListByOrder(ctx, orderID)
}
