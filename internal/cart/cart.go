package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

var (
	// ErrInvalidQuantity 数量必须大于 0
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	// ErrNoCapacity 没有剩余容量
	ErrNoCapacity = errors.New("cart: no remaining capacity")
	// ErrLineNotFound 行不存在
	ErrLineNotFound = errors.New("cart: line not found")
	// ErrUnknownMode 未知购买模式
	ErrUnknownMode = errors.New("cart: unknown purchase mode")
)

// Cart 临时购物车，同一时间只持有一种购买模式（批次模式下只持有一个批次）
type Cart struct {
	ID        string
	UpdatedAt time.Time

	mode  string
	lines []Line
}

// New 创建空购物车
func New(id string) *Cart {
	return &Cart{ID: id, UpdatedAt: time.Now()}
}

// Mode 当前购买模式，空购物车返回空字符串
func (c *Cart) Mode() string {
	return c.mode
}

// BatchID 当前批次，单独购买或空购物车返回 0
func (c *Cart) BatchID() uint {
	if len(c.lines) == 0 {
		return 0
	}
	return batchOf(c.lines[0])
}

// Lines 返回行副本
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len 行数
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Add 加入一行；与已有行同键时数量累加。模式或批次不同时先清空原有内容。
// 数量按行的容量上限裁剪，裁剪后为 0 返回 ErrNoCapacity。
func (c *Cart) Add(line Line) error {
	if line == nil {
		return ErrUnknownMode
	}
	if line.Quantity() <= 0 {
		return ErrInvalidQuantity
	}
	if len(c.lines) > 0 && (line.Mode() != c.mode || batchOf(line) != c.BatchID()) {
		c.Clear()
	}

	for i, existing := range c.lines {
		if existing.Key() != line.Key() {
			continue
		}
		qty := clamp(existing.Quantity()+line.Quantity(), line.MaxQuantity())
		if qty == 0 {
			return ErrNoCapacity
		}
		c.lines[i] = line.withQuantity(qty)
		c.touch()
		return nil
	}

	qty := clamp(line.Quantity(), line.MaxQuantity())
	if qty == 0 {
		return ErrNoCapacity
	}
	c.mode = line.Mode()
	c.lines = append(c.lines, line.withQuantity(qty))
	c.touch()
	return nil
}

// SetQuantity 设置行数量并按上限裁剪，返回裁剪后的数量；数量为 0 时移除该行
func (c *Cart) SetQuantity(key string, qty int) (int, error) {
	for i, existing := range c.lines {
		if existing.Key() != key {
			continue
		}
		clamped := clamp(qty, existing.MaxQuantity())
		if clamped == 0 {
			c.removeAt(i)
			return 0, nil
		}
		c.lines[i] = existing.withQuantity(clamped)
		c.touch()
		return clamped, nil
	}
	return 0, ErrLineNotFound
}

// Remove 移除行
func (c *Cart) Remove(key string) bool {
	for i, existing := range c.lines {
		if existing.Key() == key {
			c.removeAt(i)
			return true
		}
	}
	return false
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.lines = nil
	c.mode = ""
	c.touch()
}

// Reconcile 按最新剩余容量（成员ID → 剩余支数）刷新批次行上限并裁剪数量。
// 不在 limits 中或裁剪后为 0 的行被移除，返回发生变化的行键。
func (c *Cart) Reconcile(limits map[uint]int) []string {
	var changed []string
	kept := c.lines[:0]
	for _, line := range c.lines {
		bl, ok := line.(BatchLine)
		if !ok {
			kept = append(kept, line)
			continue
		}
		limit, found := limits[bl.Membership()]
		if !found {
			changed = append(changed, line.Key())
			continue
		}
		refreshed := bl.WithMaxQuantity(limit)
		qty := clamp(refreshed.Quantity(), limit)
		if qty == 0 {
			changed = append(changed, line.Key())
			continue
		}
		if qty != line.Quantity() {
			changed = append(changed, line.Key())
		}
		kept = append(kept, refreshed.withQuantity(qty))
	}
	c.lines = kept
	if len(c.lines) == 0 {
		c.mode = ""
	}
	if len(changed) > 0 {
		c.touch()
	}
	return changed
}

// Subtotal 按行小计汇总（仅用于展示，下单金额以服务端价格为准）
func (c *Cart) Subtotal() models.Money {
	total := models.NewMoney(0)
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// TotalVials 折算总支数
func (c *Cart) TotalVials() int {
	total := 0
	for _, line := range c.lines {
		total += line.Vials()
	}
	return total
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.mode = ""
	}
	c.touch()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

type cartJSON struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	BatchID    uint              `json:"batch_id,omitempty"`
	Lines      []json.RawMessage `json:"lines"`
	Subtotal   models.Money      `json:"subtotal"`
	TotalVials int               `json:"total_vials"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// MarshalJSON 输出购物车及各行（行附带 key）
func (c *Cart) MarshalJSON() ([]byte, error) {
	out := cartJSON{
		ID:         c.ID,
		Mode:       c.mode,
		BatchID:    c.BatchID(),
		Lines:      make([]json.RawMessage, 0, len(c.lines)),
		Subtotal:   c.Subtotal(),
		TotalVials: c.TotalVials(),
		UpdatedAt:  c.UpdatedAt,
	}
	for _, line := range c.lines {
		raw, err := marshalLine(line)
		if err != nil {
			return nil, err
		}
		out.Lines = append(out.Lines, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 按模式还原行变体
func (c *Cart) UnmarshalJSON(b []byte) error {
	var in cartJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	c.ID = in.ID
	c.UpdatedAt = in.UpdatedAt
	c.mode = ""
	c.lines = nil
	if len(in.Lines) == 0 {
		return nil
	}
	lines := make([]Line, 0, len(in.Lines))
	for _, raw := range in.Lines {
		line, err := DecodeLine(in.Mode, raw)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	c.mode = in.Mode
	c.lines = lines
	return nil
}

func marshalLine(line Line) (json.RawMessage, error) {
	body, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	key, err := json.Marshal(line.Key())
	if err != nil {
		return nil, err
	}
	fields["key"] = key
	return json.Marshal(fields)
}

// DecodeLine 按模式解析单行
func DecodeLine(mode string, raw []byte) (Line, error) {
	switch mode {
	case constants.PurchaseModeIndividual:
		var line IndividualLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, err
		}
		if line.Unit == "" {
			line.Unit = constants.UnitVial
		}
		return line, nil
	case constants.PurchaseModeGroupBuy:
		var line GroupBuyLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, err
		}
		return line, nil
	case constants.PurchaseModeSubGroup:
		var line SubGroupLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, err
		}
		return line, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
