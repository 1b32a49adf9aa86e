package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltara-ev/voltara/internal/platform/db"
	"github.com/voltara-ev/voltara/internal/shared"
)

// Repository persists catalog reference data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateBrand(ctx context.Context, req CreateBrandRequest) (*Brand, error) {
	id := uuid.New()
	var b Brand
	err := r.pool.QueryRow(ctx, `INSERT INTO vehicle_brands (id, name, country, created_at)
VALUES ($1,$2,$3,NOW()) RETURNING id, name, country, created_at`,
		id, req.Name, req.Country).Scan(&b.ID, &b.Name, &b.Country, &b.CreatedAt)
	if err != nil {
		return nil, mapWriteErr("create brand", err)
	}
	return &b, nil
}

func (r *Repository) CreateModel(ctx context.Context, req CreateModelRequest) (*Model, error) {
	id := uuid.New()
	var m Model
	err := r.pool.QueryRow(ctx, `INSERT INTO vehicle_models (id, brand_id, name, segment, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id, brand_id, name, segment, created_at`,
		id, req.BrandID, req.Name, req.Segment).Scan(&m.ID, &m.BrandID, &m.Name, &m.Segment, &m.CreatedAt)
	if err != nil {
		return nil, mapWriteErr("create model", err)
	}
	return &m, nil
}

func (r *Repository) CreateVariant(ctx context.Context, req CreateVariantRequest) (*Variant, error) {
	id := uuid.New()
	row := r.pool.QueryRow(ctx, `INSERT INTO vehicle_variants (id, model_id, name, battery_kwh, range_km, base_price, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,TRUE,NOW())
RETURNING id, model_id, name, battery_kwh, range_km, base_price, is_active, created_at`,
		id, req.ModelID, req.Name, db.NumericFromNullableDecimal(req.BatteryKWh), req.RangeKm,
		db.NumericFromDecimal(req.BasePrice))
	v, err := scanVariant(row)
	if err != nil {
		return nil, mapWriteErr("create variant", err)
	}
	return v, nil
}

func (r *Repository) CreateColor(ctx context.Context, req CreateColorRequest) (*Color, error) {
	id := uuid.New()
	var c Color
	err := r.pool.QueryRow(ctx, `INSERT INTO vehicle_colors (id, name, hex_code, created_at)
VALUES ($1,$2,$3,NOW()) RETURNING id, name, hex_code, created_at`,
		id, req.Name, req.HexCode).Scan(&c.ID, &c.Name, &c.HexCode, &c.CreatedAt)
	if err != nil {
		return nil, mapWriteErr("create color", err)
	}
	return &c, nil
}

// GetVariant resolves one variant by ID.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, model_id, name, battery_kwh, range_km, base_price, is_active, created_at
FROM vehicle_variants WHERE id=$1`, id)
	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variant %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}

// GetColor resolves one color by ID.
func (r *Repository) GetColor(ctx context.Context, id uuid.UUID) (*Color, error) {
	var c Color
	err := r.pool.QueryRow(ctx, `SELECT id, name, hex_code, created_at FROM vehicle_colors WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.HexCode, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("color %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListVariants(ctx context.Context, activeOnly bool) ([]Variant, error) {
	query := `SELECT id, model_id, name, battery_kwh, range_km, base_price, is_active, created_at
FROM vehicle_variants`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := []Variant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	return variants, rows.Err()
}

func (r *Repository) ListColors(ctx context.Context) ([]Color, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, hex_code, created_at FROM vehicle_colors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colors := []Color{}
	for rows.Next() {
		var c Color
		if err := rows.Scan(&c.ID, &c.Name, &c.HexCode, &c.CreatedAt); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

func scanVariant(row pgx.Row) (*Variant, error) {
	var (
		v          Variant
		batteryKWh pgtype.Numeric
		basePrice  pgtype.Numeric
	)
	if err := row.Scan(&v.ID, &v.ModelID, &v.Name, &batteryKWh, &v.RangeKm, &basePrice, &v.IsActive, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.BatteryKWh = db.NullableDecimal(batteryKWh)
	v.BasePrice = db.DecimalFromNumeric(basePrice)
	return &v, nil
}

func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, shared.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
