package service

import (
	"context"
	"time"

	"grocery-storefront/internal/repository"
)

type DashboardService interface {
	GetOrderVolume(ctx context.Context, days int) ([]repository.OrderVolumeData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	statsRepo repository.StatsRepository
	now       func() time.Time
}

func NewDashboardService(statsRepo repository.StatsRepository) DashboardService {
	return &dashboardService{statsRepo: statsRepo, now: time.Now}
}

func (s *dashboardService) GetOrderVolume(ctx context.Context, days int) ([]repository.OrderVolumeData, error) {
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.statsRepo.GetOrderVolume(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.statsRepo.GetDashboardStats(ctx)
}
