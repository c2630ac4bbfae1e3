package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"vue-dashboard-api/internal/repository"

	"golang.org/x/sync/errgroup"
)

// DashboardStats is the headline card data for the landing dashboard. Growth
// is a fixed demo figure until real historical data exists.
type DashboardStats struct {
	Users       int64   `json:"users"`
	Roles       int64   `json:"roles"`
	Permissions int64   `json:"permissions"`
	Growth      float64 `json:"growth"`
}

// DashboardAnalytics is the demo traffic snapshot the SPA charts. Rates and
// durations are pre-formatted strings ("42%", "300s") because the frontend
// renders them verbatim.
type DashboardAnalytics struct {
	PageViews          int    `json:"page_views"`
	UniqueVisitors     int    `json:"unique_visitors"`
	BounceRate         string `json:"bounce_rate"`
	AvgSessionDuration string `json:"avg_session_duration"`
	ConversionRate     string `json:"conversion_rate"`
}

const demoGrowthPercent = 12.5

// analyticsDelay mimics the upstream analytics lookup this demo replaces.
const analyticsDelay = 100 * time.Millisecond

type DashboardService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	permRepo repository.PermissionRepository
}

func NewDashboardService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, permRepo repository.PermissionRepository) *DashboardService {
	return &DashboardService{userRepo: userRepo, roleRepo: roleRepo, permRepo: permRepo}
}

// Stats gathers the entity counts in parallel.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{Growth: demoGrowthPercent}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.userRepo.Count()
		stats.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.roleRepo.Count()
		stats.Roles = n
		return err
	})
	g.Go(func() error {
		n, err := s.permRepo.Count()
		stats.Permissions = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Analytics returns randomized demo metrics. The context is honored so a
// cancelled request does not burn the artificial delay.
func (s *DashboardService) Analytics(ctx context.Context) (*DashboardAnalytics, error) {
	select {
	case <-time.After(analyticsDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &DashboardAnalytics{
		PageViews:          randBetween(1000, 5000),
		UniqueVisitors:     randBetween(500, 2000),
		BounceRate:         fmt.Sprintf("%d%%", randBetween(20, 80)),
		AvgSessionDuration: fmt.Sprintf("%ds", randBetween(120, 600)),
		ConversionRate:     fmt.Sprintf("%d%%", randBetween(1, 10)),
	}, nil
}

// randBetween picks a value in [lo, hi], both ends inclusive.
func randBetween(lo, hi int) int {
	return lo + rand.IntN(hi-lo+1)
}
