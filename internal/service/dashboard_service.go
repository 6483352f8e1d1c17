package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
	dashboardRecentOrders  = 5
)

// DashboardService 仪表盘服务
// 说明：按角色聚合首页数据，管理员看全站，团长看自己的区域，顾客看本人订单。
type DashboardService struct {
	repo           repository.DashboardRepository
	regionRepo     repository.RegionRepository
	orderRepo      repository.OrderRepository
	settingService *SettingService
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, regionRepo repository.RegionRepository, orderRepo repository.OrderRepository, settingService *SettingService) *DashboardService {
	return &DashboardService{
		repo:           repo,
		regionRepo:     regionRepo,
		orderRepo:      orderRepo,
		settingService: settingService,
	}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应（管理员 / 团长）
type DashboardOverviewResponse struct {
	Scope       string                    `json:"scope"`
	Range       string                    `json:"range"`
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	Timezone    string                    `json:"timezone"`
	Currency    string                    `json:"currency"`
	RegionIDs   []uint                    `json:"region_ids,omitempty"`
	KPI         DashboardKPI              `json:"kpi"`
	OpenBatches []DashboardBatchProgress  `json:"open_batches"`
	TopProducts []DashboardProductRanking `json:"top_products,omitempty"`
	Alerts      []DashboardAlertItem      `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal      int64  `json:"orders_total"`
	PendingOrders    int64  `json:"pending_orders"`
	InProgressOrders int64  `json:"in_progress_orders"`
	DeliveredOrders  int64  `json:"delivered_orders"`
	CancelledOrders  int64  `json:"cancelled_orders"`
	UnpaidOrders     int64  `json:"unpaid_orders"`
	PaidAmount       string `json:"paid_amount"`
	CancelRate       string `json:"cancel_rate"`
	OpenBatches      int64  `json:"open_batches"`
	ActiveProducts   int64  `json:"active_products"`
	NewUsers         int64  `json:"new_users"`
}

// DashboardBatchProgress 进行中批次进度
type DashboardBatchProgress struct {
	BatchID      uint   `json:"batch_id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	RegionID     *uint  `json:"region_id,omitempty"`
	TargetVials  int    `json:"target_vials"`
	CurrentVials int    `json:"current_vials"`
	Remaining    int    `json:"remaining"`
	Percent      int    `json:"percent"`
}

// DashboardProductRanking 商品排行项
type DashboardProductRanking struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Orders    int64  `json:"orders"`
	Vials     int64  `json:"vials"`
	Amount    string `json:"amount"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Value   int64  `json:"value"`
	BatchID uint   `json:"batch_id,omitempty"`
}

// CustomerDashboardResponse 顾客个人看板
type CustomerDashboardResponse struct {
	Currency        string         `json:"currency"`
	OrdersTotal     int64          `json:"orders_total"`
	OpenOrders      int64          `json:"open_orders"`
	DeliveredOrders int64          `json:"delivered_orders"`
	UnpaidAmount    string         `json:"unpaid_amount"`
	PaidAmount      string         `json:"paid_amount"`
	VialsOrdered    int64          `json:"vials_ordered"`
	RecentOrders    []models.Order `json:"recent_orders"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取后台总览，团长只统计自己负责的区域
func (s *DashboardService) GetOverview(ctx context.Context, actor Actor, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}
	if !actor.IsAdmin() && !actor.IsHost() {
		return nil, ErrForbidden
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	scope := constants.RoleAdmin
	var regionIDs []uint
	if actor.IsHost() {
		scope = constants.RoleHost
		regionIDs, err = s.hostedRegionIDs(actor.UserID)
		if err != nil {
			return nil, err
		}
		if len(regionIDs) == 0 {
			return emptyHostOverview(window), nil
		}
	}

	setting := s.loadDashboardSetting()
	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%s:%d:%d:%s:%d:%d:%d",
		scope,
		actor.UserID,
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		setting.Alert.UnpaidOrdersThreshold,
		setting.Alert.NearFullPercent,
		setting.Ranking.OpenBatchesLimit,
	)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt, regionIDs)
	if err != nil {
		return nil, err
	}
	batchRows, err := s.repo.GetOpenBatches(regionIDs, setting.Ranking.OpenBatchesLimit)
	if err != nil {
		return nil, err
	}

	cancelRate := 0.0
	if overview.OrdersTotal > 0 {
		cancelRate = float64(overview.CancelledOrders) / float64(overview.OrdersTotal) * 100
	}

	batches := make([]DashboardBatchProgress, 0, len(batchRows))
	for _, row := range batchRows {
		batches = append(batches, DashboardBatchProgress{
			BatchID:      row.BatchID,
			Name:         strings.TrimSpace(row.Name),
			Kind:         row.Kind,
			Status:       row.Status,
			RegionID:     row.RegionID,
			TargetVials:  row.TargetVials,
			CurrentVials: row.CurrentVials,
			Remaining:    RemainingCapacity(row.TargetVials, row.CurrentVials),
			Percent:      ProgressPercent(row.TargetVials, row.CurrentVials),
		})
	}

	response := &DashboardOverviewResponse{
		Scope:     scope,
		Range:     window.rangeKey,
		From:      window.startAt.Format(time.RFC3339),
		To:        window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:  window.timezone,
		Currency:  constants.SiteCurrencyDefault,
		RegionIDs: regionIDs,
		KPI: DashboardKPI{
			OrdersTotal:      overview.OrdersTotal,
			PendingOrders:    overview.PendingOrders,
			InProgressOrders: overview.InProgressOrders,
			DeliveredOrders:  overview.DeliveredOrders,
			CancelledOrders:  overview.CancelledOrders,
			UnpaidOrders:     overview.UnpaidOrders,
			PaidAmount:       formatMoneyValue(overview.PaidAmount),
			CancelRate:       formatPercentValue(cancelRate),
			OpenBatches:      overview.OpenBatches,
			ActiveProducts:   overview.ActiveProducts,
			NewUsers:         overview.NewUsers,
		},
		OpenBatches: batches,
		Alerts:      buildDashboardAlerts(overview, batches, setting.Alert),
	}

	if actor.IsAdmin() {
		productRows, err := s.repo.GetTopProducts(window.startAt, window.endAt, setting.Ranking.TopProductsLimit)
		if err != nil {
			return nil, err
		}
		response.TopProducts = make([]DashboardProductRanking, 0, len(productRows))
		for _, item := range productRows {
			name := strings.TrimSpace(item.ProductName)
			if name == "" {
				name = "-"
			}
			response.TopProducts = append(response.TopProducts, DashboardProductRanking{
				ProductID: item.ProductID,
				Name:      name,
				Orders:    item.Orders,
				Vials:     item.Vials,
				Amount:    formatMoneyValue(item.Amount),
			})
		}
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetCustomerDashboard 顾客个人看板，不走缓存
func (s *DashboardService) GetCustomerDashboard(actor Actor) (*CustomerDashboardResponse, error) {
	if actor.UserID == 0 {
		return nil, ErrForbidden
	}
	row, err := s.repo.GetCustomerOverview(actor.UserID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.orderRepo.List(repository.OrderListFilter{
		UserID:   actor.UserID,
		Page:     1,
		PageSize: dashboardRecentOrders,
	})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.Order{}
	}
	return &CustomerDashboardResponse{
		Currency:        constants.SiteCurrencyDefault,
		OrdersTotal:     row.OrdersTotal,
		OpenOrders:      row.OpenOrders,
		DeliveredOrders: row.DeliveredOrders,
		UnpaidAmount:    formatMoneyValue(row.UnpaidAmount),
		PaidAmount:      formatMoneyValue(row.PaidAmount),
		VialsOrdered:    row.VialsOrdered,
		RecentOrders:    recent,
	}, nil
}

func (s *DashboardService) hostedRegionIDs(userID uint) ([]uint, error) {
	if s.regionRepo == nil {
		return nil, nil
	}
	regions, err := s.regionRepo.ListByHost(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(regions))
	for _, region := range regions {
		ids = append(ids, region.ID)
	}
	return ids, nil
}

func (s *DashboardService) loadDashboardSetting() DashboardSetting {
	fallback := DashboardDefaultSetting()
	if s == nil || s.settingService == nil {
		return fallback
	}
	setting, err := s.settingService.GetDashboardSetting()
	if err != nil {
		return fallback
	}
	return NormalizeDashboardSetting(setting)
}

func emptyHostOverview(window dashboardWindow) *DashboardOverviewResponse {
	return &DashboardOverviewResponse{
		Scope:       constants.RoleHost,
		Range:       window.rangeKey,
		From:        window.startAt.Format(time.RFC3339),
		To:          window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:    window.timezone,
		Currency:    constants.SiteCurrencyDefault,
		KPI:         DashboardKPI{PaidAmount: formatMoneyValue(0), CancelRate: formatPercentValue(0)},
		OpenBatches: []DashboardBatchProgress{},
		Alerts:      []DashboardAlertItem{},
	}
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow, batches []DashboardBatchProgress, alertSetting DashboardAlertSetting) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 4)
	if overview.PendingOrders >= alertSetting.PendingOrdersThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_orders", Level: "warning", Value: overview.PendingOrders})
	}
	if overview.UnpaidOrders >= alertSetting.UnpaidOrdersThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "unpaid_orders", Level: "warning", Value: overview.UnpaidOrders})
	}
	for _, batch := range batches {
		if batch.Status != constants.BatchStatusActive || batch.TargetVials == 0 {
			continue
		}
		switch {
		case batch.Remaining == 0:
			alerts = append(alerts, DashboardAlertItem{Type: "batch_filled", Level: "info", Value: int64(batch.Percent), BatchID: batch.BatchID})
		case batch.Percent >= alertSetting.NearFullPercent:
			alerts = append(alerts, DashboardAlertItem{Type: "batch_near_full", Level: "info", Value: int64(batch.Remaining), BatchID: batch.BatchID})
		}
	}
	return alerts
}
