package shared

import (
	"strings"

	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/service"

	"github.com/shopspring/decimal"
)

// BatchRequest 批次创建/更新请求。
type BatchRequest struct {
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Kind            string          `json:"kind"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	StartsAt        string          `json:"starts_at"`
	EndsAt          string          `json:"ends_at"`
	RegionID        *uint           `json:"region_id"`
}

// ToServiceInput 转换为 service 层参数。
func (r BatchRequest) ToServiceInput() (service.BatchInput, error) {
	startsAt, err := ParseTimeNullable(r.StartsAt)
	if err != nil {
		return service.BatchInput{}, err
	}
	endsAt, err := ParseTimeNullable(r.EndsAt)
	if err != nil {
		return service.BatchInput{}, err
	}
	return service.BatchInput{
		Name:            r.Name,
		Description:     r.Description,
		Kind:            strings.TrimSpace(r.Kind),
		DiscountPercent: r.DiscountPercent,
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		RegionID:        r.RegionID,
	}, nil
}

// BatchProductRequest 批次成员商品请求。
type BatchProductRequest struct {
	ProductID    uint          `json:"product_id"`
	TargetVials  int           `json:"target_vials" binding:"required"`
	PricePerVial *models.Money `json:"price_per_vial"`
}

// ToServiceInput 转换为 service 层参数。
func (r BatchProductRequest) ToServiceInput() service.BatchProductInput {
	return service.BatchProductInput{
		ProductID:    r.ProductID,
		TargetVials:  r.TargetVials,
		PricePerVial: r.PricePerVial,
	}
}

// StatusRequest 状态流转请求。
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}
