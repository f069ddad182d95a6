package repository

import (
	"context"
	"time"

	"grocery-storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockThreshold marks store pools and shared pools that need restocking.
const LowStockThreshold = 10

// DashboardStats for the admin overview
type DashboardStats struct {
	TotalStores    int64           `json:"total_stores"`
	TotalProducts  int64           `json:"total_products"`
	TotalOrders    int64           `json:"total_orders"`
	PendingOrders  int64           `json:"pending_orders"`
	TotalCustomers int64           `json:"total_customers"`
	LowStockCount  int64           `json:"low_stock_count"`
	Revenue        decimal.Decimal `json:"revenue"` // confirmed orders only
}

// OrderVolumeData is one day of the order chart
type OrderVolumeData struct {
	Date      string          `json:"date"`
	Confirmed int             `json:"confirmed"`
	Cancelled int             `json:"cancelled"`
	Pending   int             `json:"pending"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type StatsRepository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetOrderVolume(ctx context.Context, startDate, endDate time.Time) ([]OrderVolumeData, error)
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

func (r *statsRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&model.Store{}), &stats.TotalStores},
		{db.Model(&model.CatalogProduct{}), &stats.TotalProducts},
		{db.Model(&model.Order{}), &stats.TotalOrders},
		{db.Model(&model.Order{}).Where("status = ?", model.OrderPendingPayment), &stats.PendingOrders},
		{db.Model(&model.Customer{}), &stats.TotalCustomers},
		{db.Model(&model.StoreProductOverride{}).Where("stock IS NOT NULL AND stock < ?", LowStockThreshold), &stats.LowStockCount},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var sharedLow int64
	if err := db.Model(&model.CatalogProduct{}).
		Where("is_global = ? AND stock < ?", true, LowStockThreshold).
		Count(&sharedLow).Error; err != nil {
		return nil, err
	}
	stats.LowStockCount += sharedLow

	if err := db.Model(&model.Order{}).
		Where("status = ?", model.OrderConfirmed).
		Select("COALESCE(SUM(total), 0)").
		Row().Scan(&stats.Revenue); err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *statsRepo) GetOrderVolume(ctx context.Context, startDate, endDate time.Time) ([]OrderVolumeData, error) {
	var results []OrderVolumeData

	// Aggregate orders per day
	rows, err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN 1 ELSE 0 END), 0) as confirmed,
			COALESCE(SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END), 0) as cancelled,
			COALESCE(SUM(CASE WHEN status = 'PENDING_PAYMENT' THEN 1 ELSE 0 END), 0) as pending,
			COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN total ELSE 0 END), 0) as revenue
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data OrderVolumeData
		if err := rows.Scan(&data.Date, &data.Confirmed, &data.Cancelled, &data.Pending, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
