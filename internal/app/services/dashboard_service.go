package services

import (
	"context"

	"github.com/yigit/collegeerp/internal/app/models"
)

// StatsStore computes dashboard counters.
type StatsStore interface {
	Counts(ctx context.Context) (*models.DashboardStats, error)
}

// DashboardService serves the counters every dashboard shows.
type DashboardService struct {
	stats StatsStore
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(stats StatsStore) *DashboardService {
	return &DashboardService{stats: stats}
}

// Stats returns the profile, department, course and pending OD counts.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return s.stats.Counts(ctx)
}
