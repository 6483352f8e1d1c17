package cart

import (
	"fmt"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

// Unbounded 表示行数量没有容量上限
const Unbounded = -1

// Line 购物车行，按购买模式区分为三种变体
type Line interface {
	Mode() string
	Key() string
	Quantity() int
	// MaxQuantity 返回可购买上限，Unbounded 表示不限
	MaxQuantity() int
	// Vials 返回折算支数
	Vials() int
	LineTotal() models.Money
	withQuantity(qty int) Line
}

// BatchLine 归属于某个批次的行
type BatchLine interface {
	Line
	Batch() uint
	Membership() uint
	WithMaxQuantity(limit int) BatchLine
}

// IndividualLine 单独购买行（按目录价，可按支或按盒）
type IndividualLine struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	Unit        string       `json:"unit"`
	UnitPrice   models.Money `json:"unit_price"`
	VialsPerBox int          `json:"vials_per_box"`
	Qty         int          `json:"quantity"`
}

// Mode 购买模式
func (l IndividualLine) Mode() string { return constants.PurchaseModeIndividual }

// Key 行唯一键
func (l IndividualLine) Key() string { return fmt.Sprintf("p%d-%s", l.ProductID, l.Unit) }

// Quantity 数量
func (l IndividualLine) Quantity() int { return l.Qty }

// MaxQuantity 单独购买不限量
func (l IndividualLine) MaxQuantity() int { return Unbounded }

// Vials 折算支数
func (l IndividualLine) Vials() int {
	if l.Unit == constants.UnitBox {
		return l.Qty * l.VialsPerBox
	}
	return l.Qty
}

// LineTotal 小计
func (l IndividualLine) LineTotal() models.Money { return l.UnitPrice.MulInt(l.Qty) }

func (l IndividualLine) withQuantity(qty int) Line {
	l.Qty = qty
	return l
}

// GroupBuyLine 团购批次行
type GroupBuyLine struct {
	BatchID        uint         `json:"batch_id"`
	BatchProductID uint         `json:"batch_product_id"`
	ProductID      uint         `json:"product_id"`
	ProductName    string       `json:"product_name"`
	PricePerVial   models.Money `json:"price_per_vial"`
	Qty            int          `json:"quantity"`
	Max            int          `json:"max_quantity"`
}

// Mode 购买模式
func (l GroupBuyLine) Mode() string { return constants.PurchaseModeGroupBuy }

// Key 行唯一键
func (l GroupBuyLine) Key() string { return fmt.Sprintf("m%d", l.BatchProductID) }

// Quantity 数量
func (l GroupBuyLine) Quantity() int { return l.Qty }

// MaxQuantity 剩余容量
func (l GroupBuyLine) MaxQuantity() int { return l.Max }

// Vials 折算支数
func (l GroupBuyLine) Vials() int { return l.Qty }

// LineTotal 小计
func (l GroupBuyLine) LineTotal() models.Money { return l.PricePerVial.MulInt(l.Qty) }

// Batch 批次ID
func (l GroupBuyLine) Batch() uint { return l.BatchID }

// Membership 成员商品ID
func (l GroupBuyLine) Membership() uint { return l.BatchProductID }

// WithMaxQuantity 更新容量上限
func (l GroupBuyLine) WithMaxQuantity(limit int) BatchLine {
	l.Max = limit
	return l
}

func (l GroupBuyLine) withQuantity(qty int) Line {
	l.Qty = qty
	return l
}

// SubGroupLine 区域子团批次行
type SubGroupLine struct {
	RegionID       uint         `json:"region_id"`
	BatchID        uint         `json:"batch_id"`
	BatchProductID uint         `json:"batch_product_id"`
	ProductID      uint         `json:"product_id"`
	ProductName    string       `json:"product_name"`
	PricePerVial   models.Money `json:"price_per_vial"`
	Qty            int          `json:"quantity"`
	Max            int          `json:"max_quantity"`
}

// Mode 购买模式
func (l SubGroupLine) Mode() string { return constants.PurchaseModeSubGroup }

// Key 行唯一键
func (l SubGroupLine) Key() string { return fmt.Sprintf("m%d", l.BatchProductID) }

// Quantity 数量
func (l SubGroupLine) Quantity() int { return l.Qty }

// MaxQuantity 剩余容量
func (l SubGroupLine) MaxQuantity() int { return l.Max }

// Vials 折算支数
func (l SubGroupLine) Vials() int { return l.Qty }

// LineTotal 小计
func (l SubGroupLine) LineTotal() models.Money { return l.PricePerVial.MulInt(l.Qty) }

// Batch 批次ID
func (l SubGroupLine) Batch() uint { return l.BatchID }

// Membership 成员商品ID
func (l SubGroupLine) Membership() uint { return l.BatchProductID }

// WithMaxQuantity 更新容量上限
func (l SubGroupLine) WithMaxQuantity(limit int) BatchLine {
	l.Max = limit
	return l
}

func (l SubGroupLine) withQuantity(qty int) Line {
	l.Qty = qty
	return l
}

func clamp(qty, limit int) int {
	if qty < 0 {
		return 0
	}
	if limit == Unbounded {
		return qty
	}
	if limit < 0 {
		return 0
	}
	if qty > limit {
		return limit
	}
	return qty
}

func batchOf(line Line) uint {
	if bl, ok := line.(BatchLine); ok {
		return bl.Batch()
	}
	return 0
}
