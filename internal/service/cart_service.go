package service

import (
	"context"
	"errors"
	"strings"

	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/repository"

	"github.com/google/uuid"
)

// AddCartItemInput 加入购物车参数
type AddCartItemInput struct {
	Mode           string
	ProductID      uint
	Unit           string
	BatchProductID uint
	Quantity       int
}

// CartService 购物车服务（临时存储，下单时由 CheckoutService 消费）
type CartService struct {
	store          cart.Store
	productRepo    repository.ProductRepository
	batchRepo      repository.BatchRepository
	settingService *SettingService
	maxLines       int
}

// NewCartService 创建购物车服务
func NewCartService(store cart.Store, productRepo repository.ProductRepository, batchRepo repository.BatchRepository, settingService *SettingService, orderCfg config.OrderConfig) *CartService {
	maxLines := orderCfg.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxCartLines
	}
	return &CartService{
		store:          store,
		productRepo:    productRepo,
		batchRepo:      batchRepo,
		settingService: settingService,
		maxLines:       maxLines,
	}
}

// Create 新建空购物车
func (s *CartService) Create(ctx context.Context) (*cart.Cart, error) {
	c := cart.New(uuid.NewString())
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get 读取购物车并按最新容量刷新批次行
func (s *CartService) Get(ctx context.Context, id string) (*cart.Cart, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.BatchID() == 0 {
		return c, nil
	}
	items, err := s.batchRepo.ListProducts(c.BatchID())
	if err != nil {
		return nil, err
	}
	limits := make(map[uint]int, len(items))
	for _, item := range items {
		limits[item.ID] = RemainingCapacity(item.TargetVials, item.CurrentVials)
	}
	if changed := c.Reconcile(limits); len(changed) > 0 {
		if err := s.store.Save(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddItem 加入商品；批次行的上限为当前剩余容量
func (s *CartService) AddItem(ctx context.Context, id string, input AddCartItemInput) (*cart.Cart, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mode := strings.TrimSpace(input.Mode)
	if err := s.settingService.RequireMode(ctx, mode); err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidCartLine
	}

	var line cart.Line
	switch mode {
	case constants.PurchaseModeIndividual:
		line, err = s.individualLine(input)
	default:
		line, err = s.batchLine(mode, input)
	}
	if err != nil {
		return nil, err
	}

	replacing := c.Mode() != line.Mode() || c.BatchID() != batchIDOfLine(line)
	if !replacing && !hasLine(c, line.Key()) && c.Len() >= s.maxLines {
		return nil, ErrTooManyLines
	}
	if err := c.Add(line); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetQuantity 修改行数量，按容量上限裁剪，裁剪到 0（含负数）即移除该行
func (s *CartService) SetQuantity(ctx context.Context, id, key string, qty int) (*cart.Cart, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := c.SetQuantity(key, qty); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem 移除行
func (s *CartService) RemoveItem(ctx context.Context, id, key string) (*cart.Cart, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Remove(key) {
		return nil, ErrInvalidCartLine
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, id string) (*cart.Cart, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 删除购物车
func (s *CartService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, strings.TrimSpace(id))
}

func (s *CartService) load(ctx context.Context, id string) (*cart.Cart, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrCartNotFound
	}
	c, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	return c, nil
}

func (s *CartService) individualLine(input AddCartItemInput) (cart.Line, error) {
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	unit := strings.ToLower(strings.TrimSpace(input.Unit))
	line := cart.IndividualLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		VialsPerBox: product.VialsPerBox,
		Qty:         input.Quantity,
	}
	switch unit {
	case "", constants.UnitVial:
		line.Unit = constants.UnitVial
		line.UnitPrice = product.PricePerVial
	case constants.UnitBox:
		line.Unit = constants.UnitBox
		line.UnitPrice = product.PricePerBox
	default:
		return nil, ErrInvalidCartLine
	}
	if !line.UnitPrice.IsPositive() {
		return nil, ErrProductPriceInvalid
	}
	return line, nil
}

func (s *CartService) batchLine(mode string, input AddCartItemInput) (cart.Line, error) {
	membership, err := s.batchRepo.GetProduct(input.BatchProductID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, ErrMembershipNotFound
	}
	batch, err := s.batchRepo.GetByID(membership.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil || batch.Status == constants.BatchStatusDraft {
		return nil, ErrBatchNotFound
	}
	if batch.Kind != mode {
		return nil, ErrInvalidCartLine
	}
	if !BatchAcceptsOrders(batch.Status) {
		return nil, ErrBatchNotAcceptingOrders
	}
	product, err := s.productRepo.GetByID(membership.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotAvailable
	}
	remaining := RemainingCapacity(membership.TargetVials, membership.CurrentVials)
	if remaining == 0 {
		return nil, ErrCapacityInsufficient
	}
	if mode == constants.PurchaseModeSubGroup {
		if batch.RegionID == nil {
			return nil, ErrRegionNotFound
		}
		return cart.SubGroupLine{
			RegionID:       *batch.RegionID,
			BatchID:        batch.ID,
			BatchProductID: membership.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			PricePerVial:   membership.PricePerVial,
			Qty:            input.Quantity,
			Max:            remaining,
		}, nil
	}
	return cart.GroupBuyLine{
		BatchID:        batch.ID,
		BatchProductID: membership.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		PricePerVial:   membership.PricePerVial,
		Qty:            input.Quantity,
		Max:            remaining,
	}, nil
}

func mapCartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrNoCapacity):
		return ErrCapacityInsufficient
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrLineNotFound), errors.Is(err, cart.ErrUnknownMode):
		return ErrInvalidCartLine
	default:
		return err
	}
}

func hasLine(c *cart.Cart, key string) bool {
	for _, line := range c.Lines() {
		if line.Key() == key {
			return true
		}
	}
	return false
}

func batchIDOfLine(line cart.Line) uint {
	if bl, ok := line.(cart.BatchLine); ok {
		return bl.Batch()
	}
	return 0
}

