package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newit5s/tablebook/internal/domain"
)

type LocationRepository interface {
	// GetSettings returns (nil, nil) for an unconfigured location; the
	// working-hours validator treats that as "no constraint".
	GetSettings(ctx context.Context, locationID int64) (*domain.LocationSettings, error)
}

type locationRepository struct {
	pool *pgxpool.Pool
}

func NewLocationRepository(pool *pgxpool.Pool) LocationRepository {
	return &locationRepository{pool: pool}
}

func (r *locationRepository) GetSettings(ctx context.Context, locationID int64) (*domain.LocationSettings, error) {
	const q = `SELECT location_id, opening_time, closing_time,
		lunch_break_enabled, lunch_break_start, lunch_break_end,
		morning_shift_start, morning_shift_end,
		evening_shift_start, evening_shift_end,
		working_hours_mode, time_slot_interval
	FROM location_settings WHERE location_id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.LocationSettings
	err := r.pool.QueryRow(ctx, q, locationID).Scan(
		&s.LocationID, &s.OpeningTime, &s.ClosingTime,
		&s.LunchBreakEnabled, &s.LunchBreakStart, &s.LunchBreakEnd,
		&s.MorningShiftStart, &s.MorningShiftEnd,
		&s.EveningShiftStart, &s.EveningShiftEnd,
		&s.WorkingHoursMode, &s.TimeSlotInterval,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
