package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voltara-ev/voltara/internal/shared"
)

// store is the persistence surface the service needs.
type store interface {
	ReceiveUnits(ctx context.Context, req ReceiveUnitsRequest) ([]VehicleUnit, error)
	CountAvailable(ctx context.Context, variantID, colorID uuid.UUID) (int64, error)
	SumPendingQuantity(ctx context.Context, variantID uuid.UUID) (int64, error)
	ListUnits(ctx context.Context, variantID uuid.UUID, status *UnitStatus) ([]VehicleUnit, error)
	MarkDelivered(ctx context.Context, variantID, colorID uuid.UUID, quantity int64) (int64, error)
}

// Service exposes intake, unit listing and cached availability reads.
type Service struct {
	repo  store
	cache *SnapshotCache
}

// NewService constructs an inventory service.
func NewService(repo store, cache *SnapshotCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Receive records an intake batch and drops the stale availability snapshot.
func (s *Service) Receive(ctx context.Context, req ReceiveUnitsRequest) ([]VehicleUnit, error) {
	seen := make(map[string]struct{}, len(req.VINs))
	for _, vin := range req.VINs {
		if _, dup := seen[vin]; dup {
			return nil, fmt.Errorf("duplicate vin %s in batch: %w", vin, shared.ErrValidation)
		}
		seen[vin] = struct{}{}
	}
	units, err := s.repo.ReceiveUnits(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, req.VariantID, req.ColorID)
	return units, nil
}

// Availability returns the sellable counts for a variant and color, served
// from the snapshot cache when warm.
func (s *Service) Availability(ctx context.Context, variantID, colorID uuid.UUID) (*AvailabilitySnapshot, error) {
	return s.cache.Get(ctx, variantID, colorID, s.loadSnapshot)
}

// InvalidateAvailability drops the cached snapshot after an order mutation
// elsewhere changed the pending total.
func (s *Service) InvalidateAvailability(ctx context.Context, variantID, colorID uuid.UUID) {
	s.cache.Invalidate(ctx, variantID, colorID)
}

// ListUnits returns units for a variant, optionally narrowed to one status.
func (s *Service) ListUnits(ctx context.Context, variantID uuid.UUID, status *UnitStatus) ([]VehicleUnit, error) {
	return s.repo.ListUnits(ctx, variantID, status)
}

// MarkDelivered consumes delivered stock and refreshes the snapshot on the
// next read.
func (s *Service) MarkDelivered(ctx context.Context, variantID, colorID uuid.UUID, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("quantity must be positive: %w", shared.ErrValidation)
	}
	flipped, err := s.repo.MarkDelivered(ctx, variantID, colorID, quantity)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, variantID, colorID)
	return flipped, nil
}

func (s *Service) loadSnapshot(ctx context.Context, variantID, colorID uuid.UUID) (*AvailabilitySnapshot, error) {
	available, err := s.repo.CountAvailable(ctx, variantID, colorID)
	if err != nil {
		return nil, shared.Internal("inventory: count available", err)
	}
	pending, err := s.repo.SumPendingQuantity(ctx, variantID)
	if err != nil {
		return nil, shared.Internal("inventory: sum pending", err)
	}
	return &AvailabilitySnapshot{
		VariantID: variantID,
		ColorID:   colorID,
		Available: available,
		Pending:   pending,
		TakenAt:   time.Now().UTC(),
	}, nil
}
