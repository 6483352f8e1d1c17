package service

import (
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

// Progress 认购进度
type Progress struct {
	TargetVials    int  `json:"target_vials"`
	CurrentVials   int  `json:"current_vials"`
	RemainingVials int  `json:"remaining_vials"`
	Percent        int  `json:"percent"`
	Complete       bool `json:"complete"`
}

// MembershipProgress 成员商品进度
type MembershipProgress struct {
	BatchProductID uint         `json:"batch_product_id"`
	ProductID      uint         `json:"product_id"`
	ProductName    string       `json:"product_name"`
	ProductSlug    string       `json:"product_slug"`
	PricePerVial   models.Money `json:"price_per_vial"`
	Progress
}

// BatchProgress 批次进度视图，批次级数据由成员商品汇总得出
type BatchProgress struct {
	BatchID         uint                 `json:"batch_id"`
	Kind            string               `json:"kind"`
	Status          string               `json:"status"`
	AcceptingOrders bool                 `json:"accepting_orders"`
	Progress        Progress             `json:"progress"`
	Products        []MembershipProgress `json:"products"`
}

// RemainingCapacity 剩余容量，不小于 0
func RemainingCapacity(target, current int) int {
	if remaining := target - current; remaining > 0 {
		return remaining
	}
	return 0
}

// ProgressPercent 进度百分比（四舍五入），目标为 0 时返回 0
func ProgressPercent(target, current int) int {
	if target <= 0 || current <= 0 {
		return 0
	}
	return (200*current + target) / (2 * target)
}

// ClampQuantity 将请求数量限制在 [0, remaining]
func ClampQuantity(requested, remaining int) int {
	if requested < 0 || remaining <= 0 {
		return 0
	}
	if requested > remaining {
		return remaining
	}
	return requested
}

// IsBatchComplete 所有成员商品均达到目标时返回 true
func IsBatchComplete(items []models.BatchProduct) bool {
	for _, item := range items {
		if item.CurrentVials < item.TargetVials {
			return false
		}
	}
	return true
}

// BatchAcceptsOrders 批次状态是否允许下单
func BatchAcceptsOrders(status string) bool {
	return status == constants.BatchStatusActive || status == constants.BatchStatusPaymentCollection
}

func newProgress(target, current int) Progress {
	return Progress{
		TargetVials:    target,
		CurrentVials:   current,
		RemainingVials: RemainingCapacity(target, current),
		Percent:        ProgressPercent(target, current),
		Complete:       current >= target,
	}
}

// ComputeBatchProgress 由成员商品计算批次及各商品进度
func ComputeBatchProgress(batch *models.Batch) BatchProgress {
	if batch == nil {
		return BatchProgress{}
	}
	view := BatchProgress{
		BatchID:         batch.ID,
		Kind:            batch.Kind,
		Status:          batch.Status,
		AcceptingOrders: BatchAcceptsOrders(batch.Status),
		Products:        make([]MembershipProgress, 0, len(batch.Products)),
	}
	target, current := 0, 0
	for _, item := range batch.Products {
		target += item.TargetVials
		current += item.CurrentVials
		row := MembershipProgress{
			BatchProductID: item.ID,
			ProductID:      item.ProductID,
			PricePerVial:   item.PricePerVial,
			Progress:       newProgress(item.TargetVials, item.CurrentVials),
		}
		if item.Product != nil {
			row.ProductName = item.Product.Name
			row.ProductSlug = item.Product.Slug
		}
		view.Products = append(view.Products, row)
	}
	view.Progress = newProgress(target, current)
	view.Progress.Complete = len(batch.Products) > 0 && IsBatchComplete(batch.Products)
	return view
}

// ClampRequest 按剩余容量裁剪购买请求（商品ID → 数量），不属于批次的商品被丢弃
func ClampRequest(items []models.BatchProduct, requested map[uint]int) map[uint]int {
	result := make(map[uint]int, len(requested))
	for _, item := range items {
		qty, ok := requested[item.ProductID]
		if !ok {
			continue
		}
		if clamped := ClampQuantity(qty, RemainingCapacity(item.TargetVials, item.CurrentVials)); clamped > 0 {
			result[item.ProductID] = clamped
		}
	}
	return result
}
