package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
)

// StatsRepository computes dashboard counters.
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns the number of profiles, departments, courses and pending OD
// requests in one round trip.
func (r *StatsRepository) Counts(ctx context.Context) (*models.DashboardStats, error) {
	var s models.DashboardStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM departments),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM od_requests WHERE status = 'Pending')`).
		Scan(&s.Profiles, &s.Departments, &s.Courses, &s.PendingODRequests)
	if err != nil {
		return nil, fmt.Errorf("error counting dashboard stats: %w", err)
	}
	return &s, nil
}

// Ping checks database connectivity.
func (r *StatsRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
