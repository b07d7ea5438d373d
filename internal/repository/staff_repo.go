package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newit5s/tablebook/internal/domain"
)

type StaffRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Staff, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	const q = `SELECT id, email, name, password_hash, role, created_at
		FROM staff WHERE lower(email)=lower($1)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Staff
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.Role, &s.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
