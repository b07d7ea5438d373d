package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newit5s/tablebook/internal/domain"
)

type TableRepository interface {
	// ListBookable returns tables flagged available-for-booking with
	// capacity >= minCapacity, smallest capacity first, table number as
	// tie-break.
	ListBookable(ctx context.Context, locationID int64, minCapacity int) ([]domain.Table, error)
	ListByLocation(ctx context.Context, locationID int64) ([]domain.Table, error)
	CountBookable(ctx context.Context, locationID int64) (int, error)
	TotalCapacity(ctx context.Context, locationID int64) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	GetByNumber(ctx context.Context, locationID int64, tableNumber int) (*domain.Table, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TableStatus, lastBookingID *int64) (bool, error)
}

type tableRepository struct {
	pool *pgxpool.Pool
}

func NewTableRepository(pool *pgxpool.Pool) TableRepository {
	return &tableRepository{pool: pool}
}

const tableCols = `id, location_id, table_number, capacity, is_available,
current_status, status_updated_at, last_booking_id`

func scanTable(row pgx.Row) (*domain.Table, error) {
	var t domain.Table
	err := row.Scan(
		&t.ID, &t.LocationID, &t.TableNumber, &t.Capacity, &t.IsAvailable,
		&t.CurrentStatus, &t.StatusUpdatedAt, &t.LastBookingID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tableRepository) ListBookable(ctx context.Context, locationID int64, minCapacity int) ([]domain.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables
		WHERE is_available AND location_id=$1 AND capacity >= $2
		ORDER BY capacity ASC, table_number ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, locationID, minCapacity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTables(rows)
}

func (r *tableRepository) ListByLocation(ctx context.Context, locationID int64) ([]domain.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE location_id=$1 ORDER BY table_number ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTables(rows)
}

func (r *tableRepository) CountBookable(ctx context.Context, locationID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM tables WHERE is_available AND location_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, locationID).Scan(&n)
	return n, err
}

func (r *tableRepository) TotalCapacity(ctx context.Context, locationID int64) (int, error) {
	const q = `SELECT COALESCE(SUM(capacity), 0) FROM tables WHERE is_available AND location_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, locationID).Scan(&n)
	return n, err
}

func (r *tableRepository) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTable(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *tableRepository) GetByNumber(ctx context.Context, locationID int64, tableNumber int) (*domain.Table, error) {
	const q = `SELECT ` + tableCols + ` FROM tables WHERE location_id=$1 AND table_number=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scanTable(r.pool.QueryRow(ctx, q, locationID, tableNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *tableRepository) UpdateStatus(ctx context.Context, id int64, status domain.TableStatus, lastBookingID *int64) (bool, error) {
	const q = `UPDATE tables SET current_status=$2, status_updated_at=now(), last_booking_id=$3 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, status, lastBookingID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func collectTables(rows pgx.Rows) ([]domain.Table, error) {
	var tables []domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}
