package dealers

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

// Repository persists dealers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const dealerColumns = `id, code, name, email, phone, city, credit_limit, payment_terms_days, is_active, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, req CreateDealerRequest) (*Dealer, error) {
	id := uuid.New()
	row := r.pool.QueryRow(ctx, `INSERT INTO dealers (id, code, name, email, phone, city, credit_limit, payment_terms_days, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE,NOW(),NOW())
RETURNING `+dealerColumns,
		id, req.Code, req.Name, req.Email, req.Phone, req.City,
		db.NumericFromNullableDecimal(req.CreditLimit), req.PaymentTermsDays)
	d, err := scanDealer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("dealer code %q already exists: %w", req.Code, shared.ErrConflict)
		}
		return nil, fmt.Errorf("create dealer: %w", err)
	}
	return d, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Dealer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+dealerColumns+` FROM dealers WHERE id=$1`, id)
	d, err := scanDealer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dealer %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context, req ListDealersRequest) ([]Dealer, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers`
	args := []any{}
	if req.IsActive != nil {
		query += ` WHERE is_active=$1`
		args = append(args, *req.IsActive)
	}
	query += fmt.Sprintf(` ORDER BY code LIMIT %d OFFSET %d`, req.Page.Limit(), req.Page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Dealer{}
	for rows.Next() {
		d, err := scanDealer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *Repository) Count(ctx context.Context, isActive *bool) (int, error) {
	query := `SELECT COUNT(*) FROM dealers`
	args := []any{}
	if isActive != nil {
		query += ` WHERE is_active=$1`
		args = append(args, *isActive)
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count dealers: %w", err)
	}
	return total, nil
}

func scanDealer(row pgx.Row) (*Dealer, error) {
	var (
		d           Dealer
		creditLimit pgtype.Numeric
	)
	if err := row.Scan(&d.ID, &d.Code, &d.Name, &d.Email, &d.Phone, &d.City,
		&creditLimit, &d.PaymentTermsDays, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.CreditLimit = db.NullableDecimal(creditLimit)
	return &d, nil
}
