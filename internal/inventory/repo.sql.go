package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltara-ev/voltara/internal/shared"
)

// Repository persists vehicle units in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReceiveUnits inserts one AVAILABLE unit per VIN inside a single transaction
// so a batch either lands whole or not at all.
func (r *Repository) ReceiveUnits(ctx context.Context, req ReceiveUnitsRequest) ([]VehicleUnit, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, shared.Internal("inventory: begin receive", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	units := make([]VehicleUnit, 0, len(req.VINs))
	for _, vin := range req.VINs {
		u := VehicleUnit{
			ID:         uuid.New(),
			VariantID:  req.VariantID,
			ColorID:    req.ColorID,
			VIN:        vin,
			Status:     UnitAvailable,
			ReceivedAt: now,
		}
		_, err := tx.Exec(ctx, `INSERT INTO vehicle_units (id, variant_id, color_id, vin, status, received_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.VariantID, u.ColorID, u.VIN, u.Status, u.ReceivedAt)
		if err != nil {
			return nil, mapUnitWriteErr(vin, err)
		}
		units = append(units, u)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, shared.Internal("inventory: commit receive", err)
	}
	return units, nil
}

// CountAvailable counts AVAILABLE units for a variant and color.
func (r *Repository) CountAvailable(ctx context.Context, variantID, colorID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicle_units
WHERE variant_id=$1 AND color_id=$2 AND status='AVAILABLE'`, variantID, colorID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SumPendingQuantity totals quantity on undelivered order lines for a
// variant, across all colors.
func (r *Repository) SumPendingQuantity(ctx context.Context, variantID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM order_lines
WHERE variant_id=$1 AND status IN ('PENDING','CONFIRMED')`, variantID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ListUnits returns units for a variant, optionally narrowed to one status.
func (r *Repository) ListUnits(ctx context.Context, variantID uuid.UUID, status *UnitStatus) ([]VehicleUnit, error) {
	query := `SELECT id, variant_id, color_id, vin, status, received_at, sold_at
FROM vehicle_units WHERE variant_id=$1`
	args := []any{variantID}
	if status != nil {
		query += ` AND status=$2`
		args = append(args, *status)
	}
	query += ` ORDER BY received_at, vin`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []VehicleUnit{}
	for rows.Next() {
		var u VehicleUnit
		if err := rows.Scan(&u.ID, &u.VariantID, &u.ColorID, &u.VIN, &u.Status, &u.ReceivedAt, &u.SoldAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// MarkDelivered flips up to quantity AVAILABLE units for the pair to SOLD,
// oldest intake first. It reports how many units it actually flipped.
func (r *Repository) MarkDelivered(ctx context.Context, variantID, colorID uuid.UUID, quantity int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE vehicle_units SET status='SOLD', sold_at=NOW()
WHERE id IN (
    SELECT id FROM vehicle_units
    WHERE variant_id=$1 AND color_id=$2 AND status='AVAILABLE'
    ORDER BY received_at, vin
    LIMIT $3
    FOR UPDATE SKIP LOCKED
)`, variantID, colorID, quantity)
	if err != nil {
		return 0, shared.Internal("inventory: mark delivered", err)
	}
	return tag.RowsAffected(), nil
}

func mapUnitWriteErr(vin string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("vin %s already received: %w", vin, shared.ErrConflict)
		case "23503":
			return fmt.Errorf("receive unit %s: %w", vin, shared.ErrNotFound)
		}
	}
	return fmt.Errorf("receive unit %s: %w", vin, err)
}
