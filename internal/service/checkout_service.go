package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/notify"
	"github.com/groupvial/internal/queue"
	"github.com/groupvial/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultOrderCodePrefix   = "GV"
	defaultMaxCartLines      = 50
	defaultCodeRetryAttempts = 3
	maxIdempotencyKeyLength  = 100
	maxCustomerNameLength    = 200
	maxContactHandleLength   = 200
	maxOrderNotesLength      = 2000
)

// CaptchaVerifier 验证码校验
type CaptchaVerifier interface {
	Verify(scene string, payload CaptchaVerifyPayload, clientIP string) error
}

// CheckoutInput 下单参数
type CheckoutInput struct {
	UserID         *uint
	CartID         string
	CustomerName   string
	ContactHandle  string
	Notes          string
	IdempotencyKey string
	Captcha        CaptchaVerifyPayload
	ClientIP       string
}

// CheckoutResult 下单结果
type CheckoutResult struct {
	Order    *models.Order  `json:"order"`
	Summary  notify.Summary `json:"summary"`
	Replayed bool           `json:"replayed"`
	Progress *BatchProgress `json:"progress,omitempty"`
}

// placedOrder 事务内产出的下单结果
type placedOrder struct {
	order  *models.Order
	batch  *models.Batch
	region *models.Region
	vials  int
	filled bool
}

// errOrderCodeCollision 订单编号冲突，换号重试
var errOrderCodeCollision = errors.New("order code collision")

// CheckoutService 下单服务（购物车 → 订单，唯一写入路径）
type CheckoutService struct {
	batchRepo      repository.BatchRepository
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	regionRepo     repository.RegionRepository
	settingService *SettingService
	batchService   *BatchService
	captcha        CaptchaVerifier
	carts          cart.Store
	queueClient    queue.Enqueuer
	publisher      events.Publisher
	orderCfg       config.OrderConfig
	messagingCfg   config.MessagingConfig

	newOrderCode func() string
}

// NewCheckoutService 创建下单服务
func NewCheckoutService(batchRepo repository.BatchRepository, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, regionRepo repository.RegionRepository, settingService *SettingService, batchService *BatchService, captcha CaptchaVerifier, carts cart.Store, queueClient queue.Enqueuer, publisher events.Publisher, orderCfg config.OrderConfig, messagingCfg config.MessagingConfig) *CheckoutService {
	s := &CheckoutService{
		batchRepo:      batchRepo,
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		regionRepo:     regionRepo,
		settingService: settingService,
		batchService:   batchService,
		captcha:        captcha,
		carts:          carts,
		queueClient:    queueClient,
		publisher:      publisher,
		orderCfg:       orderCfg,
		messagingCfg:   messagingCfg,
	}
	prefix := strings.TrimSpace(orderCfg.CodePrefix)
	if prefix == "" {
		prefix = defaultOrderCodePrefix
	}
	s.newOrderCode = func() string { return generateOrderCode(prefix) }
	return s
}

// Checkout 将购物车原子地转为订单并占用批次容量
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()
	mode := "unknown"
	result, err := s.checkout(ctx, input, &mode)
	metrics.ObserveCheckout(mode, checkoutResultLabel(result, err), started)
	if err != nil {
		logger.Warnw("checkout_failed",
			"mode", mode,
			"cart_id", input.CartID,
			"error", err,
		)
	}
	return result, err
}

func (s *CheckoutService) checkout(ctx context.Context, input CheckoutInput, mode *string) (*CheckoutResult, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.ContactHandle = strings.TrimSpace(input.ContactHandle)
	input.Notes = strings.TrimSpace(input.Notes)
	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	if key != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			*mode = existing.Mode
			return s.replay(ctx, existing, input)
		}
	}

	c, err := s.loadCart(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	*mode = c.Mode()
	if c.Len() > s.maxLines() {
		return nil, ErrTooManyLines
	}
	if err := s.settingService.RequireMode(ctx, c.Mode()); err != nil {
		return nil, err
	}
	if input.UserID == nil && s.orderCfg.RequireGuestCaptcha && s.captcha != nil {
		if err := s.captcha.Verify(constants.CaptchaSceneGuestCheckout, input.Captcha, input.ClientIP); err != nil {
			return nil, err
		}
	}

	attempts := s.orderCfg.CodeRetryAttempts
	if attempts <= 0 {
		attempts = defaultCodeRetryAttempts
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		placed, err := s.place(c, input, s.newOrderCode())
		if err == nil {
			return s.afterCommit(ctx, c, placed), nil
		}
		if !errors.Is(err, errOrderCodeCollision) {
			return nil, err
		}
		// 唯一约束冲突可能来自并发的同一幂等键
		if key != "" {
			existing, lookupErr := s.orderRepo.GetByIdempotencyKey(key)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return s.replay(ctx, existing, input)
			}
		}
		metrics.ObserveCheckout(c.Mode(), metrics.ResultCollision, time.Time{})
		logger.Warnw("checkout_order_code_collision", "attempt", attempt, "mode", c.Mode())
	}
	return nil, ErrOrderCreateFailed
}

// place 单个事务内完成校验、定价、建单与容量占用
func (s *CheckoutService) place(c *cart.Cart, input CheckoutInput, code string) (*placedOrder, error) {
	placed := &placedOrder{}
	err := s.batchRepo.Transaction(func(tx *gorm.DB) error {
		batchRepo := s.batchRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		var (
			items []models.OrderItem
			err   error
		)
		switch c.Mode() {
		case constants.PurchaseModeIndividual:
			items, err = s.buildIndividualItems(s.productRepo.WithTx(tx), c)
		case constants.PurchaseModeGroupBuy, constants.PurchaseModeSubGroup:
			items, err = s.buildBatchItems(batchRepo, s.regionRepo.WithTx(tx), c, placed)
		default:
			err = ErrInvalidCartLine
		}
		if err != nil {
			return err
		}

		total := models.NewMoney(0)
		for _, item := range items {
			total = total.Add(item.TotalPrice)
			placed.vials += item.VialQuantity
		}
		order := &models.Order{
			OrderCode:     code,
			UserID:        input.UserID,
			CustomerName:  input.CustomerName,
			ContactHandle: input.ContactHandle,
			Mode:          c.Mode(),
			Status:        constants.OrderStatusPending,
			PaymentStatus: constants.PaymentStatusPending,
			Currency:      constants.SiteCurrencyDefault,
			TotalAmount:   total,
			Notes:         input.Notes,
		}
		if input.IdempotencyKey != "" {
			key := input.IdempotencyKey
			order.IdempotencyKey = &key
		}
		if placed.batch != nil {
			batchID := placed.batch.ID
			order.BatchID = &batchID
			if placed.batch.RegionID != nil {
				regionID := *placed.batch.RegionID
				order.RegionID = &regionID
			}
		}
		if err := orderRepo.Create(order, items); err != nil {
			if repository.IsUniqueViolation(err) {
				return errOrderCodeCollision
			}
			return err
		}
		placed.order = order

		if placed.batch == nil {
			return nil
		}
		for _, item := range order.Items {
			affected, err := batchRepo.ReserveVials(placed.batch.ID, *item.BatchProductID, item.VialQuantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCapacityInsufficient
			}
		}
		if err := batchRepo.AdjustBatchVials(placed.batch.ID, placed.vials); err != nil {
			return err
		}
		refreshed, err := batchRepo.GetByIDWithProducts(placed.batch.ID)
		if err != nil {
			return err
		}
		if refreshed != nil {
			placed.batch = refreshed
		}
		placed.filled = placed.batch.Status == constants.BatchStatusActive && IsBatchComplete(placed.batch.Products)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *CheckoutService) buildBatchItems(batchRepo repository.BatchRepository, regionRepo repository.RegionRepository, c *cart.Cart, placed *placedOrder) ([]models.OrderItem, error) {
	batch, err := batchRepo.GetByIDWithProducts(c.BatchID())
	if err != nil {
		return nil, err
	}
	if batch == nil || batch.Status == constants.BatchStatusDraft {
		return nil, ErrBatchNotFound
	}
	if batch.Kind != c.Mode() {
		return nil, ErrInvalidCartLine
	}
	if !BatchAcceptsOrders(batch.Status) {
		return nil, ErrBatchNotAcceptingOrders
	}
	if batch.Kind == constants.BatchKindSubGroup {
		if batch.RegionID == nil {
			return nil, ErrRegionNotFound
		}
		region, err := regionRepo.GetByID(*batch.RegionID)
		if err != nil {
			return nil, err
		}
		if region == nil {
			return nil, ErrRegionNotFound
		}
		if !region.IsActive {
			return nil, ErrRegionInactive
		}
		placed.region = region
	}
	placed.batch = batch

	memberships := make(map[uint]models.BatchProduct, len(batch.Products))
	for _, item := range batch.Products {
		memberships[item.ID] = item
	}
	items := make([]models.OrderItem, 0, c.Len())
	for _, line := range c.Lines() {
		batchLine, ok := line.(cart.BatchLine)
		if !ok || line.Quantity() <= 0 {
			return nil, ErrInvalidCartLine
		}
		if sub, ok := line.(cart.SubGroupLine); ok && (batch.RegionID == nil || sub.RegionID != *batch.RegionID) {
			return nil, ErrInvalidCartLine
		}
		membership, ok := memberships[batchLine.Membership()]
		if !ok {
			return nil, ErrMembershipNotInBatch
		}
		if membership.Product == nil || !membership.Product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if !membership.PricePerVial.IsPositive() {
			return nil, ErrProductPriceInvalid
		}
		membershipID := membership.ID
		qty := line.Quantity()
		items = append(items, models.OrderItem{
			ProductID:      membership.ProductID,
			BatchProductID: &membershipID,
			ProductName:    membership.Product.Name,
			Unit:           constants.UnitVial,
			Quantity:       qty,
			VialQuantity:   qty,
			PricePerVial:   membership.PricePerVial,
			UnitPrice:      membership.PricePerVial,
			TotalPrice:     membership.PricePerVial.MulInt(qty),
		})
	}
	return items, nil
}

func (s *CheckoutService) buildIndividualItems(productRepo repository.ProductRepository, c *cart.Cart) ([]models.OrderItem, error) {
	lines := c.Lines()
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		individual, ok := line.(cart.IndividualLine)
		if !ok || individual.Qty <= 0 {
			return nil, ErrInvalidCartLine
		}
		ids = append(ids, individual.ProductID)
	}
	products, err := productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		individual := line.(cart.IndividualLine)
		product, ok := byID[individual.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		item := models.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Unit:         individual.Unit,
			Quantity:     individual.Qty,
			PricePerVial: product.PricePerVial,
		}
		switch individual.Unit {
		case constants.UnitVial:
			item.UnitPrice = product.PricePerVial
			item.VialQuantity = individual.Qty
		case constants.UnitBox:
			if product.VialsPerBox <= 0 {
				return nil, ErrInvalidCartLine
			}
			item.UnitPrice = product.PricePerBox
			item.VialQuantity = individual.Qty * product.VialsPerBox
		default:
			return nil, ErrInvalidCartLine
		}
		if !item.UnitPrice.IsPositive() {
			return nil, ErrProductPriceInvalid
		}
		item.TotalPrice = item.UnitPrice.MulInt(item.Quantity)
		items = append(items, item)
	}
	return items, nil
}

// afterCommit 提交后的副作用，失败只记录日志
func (s *CheckoutService) afterCommit(ctx context.Context, c *cart.Cart, placed *placedOrder) *CheckoutResult {
	order := placed.order
	if s.carts != nil {
		if err := s.carts.Delete(ctx, c.ID); err != nil {
			logger.Warnw("checkout_cart_clear_failed", "cart_id", c.ID, "error", err)
		}
	}
	s.dispatchOrderCreated(ctx, order)
	metrics.AddVialsReserved(order.Mode, placed.vials)

	result := &CheckoutResult{Order: order}
	batchName := ""
	if placed.batch != nil {
		batchName = placed.batch.Name
		view := ComputeBatchProgress(placed.batch)
		result.Progress = &view
		if s.batchService != nil {
			s.batchService.PublishProgress(ctx, placed.batch)
			if placed.filled {
				s.batchService.NotifyIfFilled(ctx, placed.batch.ID)
			}
		}
	}
	result.Summary = s.buildSummary(order, batchName, placed.region)
	logger.Infow("checkout_order_created",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"mode", order.Mode,
		"vials", placed.vials,
		"batch_filled", placed.filled,
	)
	return result
}

// replay 幂等重放：同一幂等键返回首次创建的订单
func (s *CheckoutService) replay(ctx context.Context, existing *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	if !sameOrderOwner(existing, input) {
		return nil, ErrIdempotencyKeyConflict
	}
	result := &CheckoutResult{Order: existing, Replayed: true}
	batchName := ""
	var region *models.Region
	if existing.BatchID != nil {
		batch, err := s.batchRepo.GetByIDWithProducts(*existing.BatchID)
		if err != nil {
			return nil, err
		}
		if batch != nil {
			batchName = batch.Name
			view := ComputeBatchProgress(batch)
			result.Progress = &view
		}
	}
	if existing.RegionID != nil {
		found, err := s.regionRepo.GetByID(*existing.RegionID)
		if err != nil {
			return nil, err
		}
		region = found
	}
	result.Summary = s.buildSummary(existing, batchName, region)
	logger.Infow("checkout_idempotent_replay", "order_code", existing.OrderCode)
	return result, nil
}

func (s *CheckoutService) dispatchOrderCreated(ctx context.Context, order *models.Order) {
	batchID := uint(0)
	if order.BatchID != nil {
		batchID = *order.BatchID
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderCreated(queue.OrderCreatedPayload{
			OrderID:   order.ID,
			OrderCode: order.OrderCode,
			BatchID:   batchID,
			Mode:      order.Mode,
		})
		if err != nil {
			logger.Warnw("checkout_enqueue_order_created_failed", "order_id", order.ID, "error", err)
		}
		return
	}
	if s.publisher != nil && s.publisher.Enabled() {
		if err := s.publisher.PublishOrder(ctx, constants.EventOrderCreated, order.OrderCode, order); err != nil {
			logger.Warnw("checkout_publish_order_created_failed", "order_id", order.ID, "error", err)
		}
	}
}

// buildSummary 生成订单摘要与联系跳转：子团优先团长联系方式，其次站点配置，最后默认配置
func (s *CheckoutService) buildSummary(order *models.Order, batchName string, region *models.Region) notify.Summary {
	provider := s.messagingCfg.Provider
	handle := s.messagingCfg.DefaultHandle
	if s.settingService != nil {
		site, err := s.settingService.GetByKey(constants.SettingKeySiteConfig)
		if err != nil {
			logger.Warnw("checkout_site_config_read_failed", "error", err)
		}
		if v := site.String("messaging_provider"); v != "" {
			provider = v
		}
		if v := site.String(constants.SettingFieldContactHandle); v != "" {
			handle = v
		}
	}
	if region != nil && strings.TrimSpace(region.ContactHandle) != "" {
		handle = region.ContactHandle
	}
	summary, err := notify.Build(order, batchName, provider, handle)
	if err != nil {
		logger.Warnw("checkout_deep_link_failed", "order_code", order.OrderCode, "provider", provider, "error", err)
	}
	return summary
}

func (s *CheckoutService) loadCart(ctx context.Context, id string) (*cart.Cart, error) {
	id = strings.TrimSpace(id)
	if id == "" || s.carts == nil {
		return nil, ErrCartNotFound
	}
	c, err := s.carts.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	return c, nil
}

func (s *CheckoutService) maxLines() int {
	if s.orderCfg.MaxLines > 0 {
		return s.orderCfg.MaxLines
	}
	return defaultMaxCartLines
}

func validateCheckoutInput(input CheckoutInput) error {
	if input.CustomerName == "" {
		return ErrCustomerNameRequired
	}
	if input.ContactHandle == "" {
		return ErrContactHandleRequired
	}
	if utf8.RuneCountInString(input.CustomerName) > maxCustomerNameLength ||
		utf8.RuneCountInString(input.ContactHandle) > maxContactHandleLength ||
		utf8.RuneCountInString(input.Notes) > maxOrderNotesLength ||
		len(input.IdempotencyKey) > maxIdempotencyKeyLength {
		return ErrInvalidArgument
	}
	return nil
}

func sameOrderOwner(order *models.Order, input CheckoutInput) bool {
	if order.UserID != nil || input.UserID != nil {
		return order.UserID != nil && input.UserID != nil && *order.UserID == *input.UserID
	}
	return strings.EqualFold(strings.TrimSpace(order.ContactHandle), input.ContactHandle)
}

func checkoutResultLabel(result *CheckoutResult, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return metrics.ResultReplayed
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrCapacityInsufficient):
		return metrics.ResultNoCapacity
	case errors.Is(err, ErrFeatureDisabled),
		errors.Is(err, ErrCaptchaRequired),
		errors.Is(err, ErrCaptchaInvalid),
		errors.Is(err, ErrIdempotencyKeyConflict),
		errors.Is(err, ErrBatchNotAcceptingOrders),
		errors.Is(err, ErrRegionInactive):
		return metrics.ResultRejected
	case errors.Is(err, ErrCustomerNameRequired),
		errors.Is(err, ErrContactHandleRequired),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidCartLine),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrTooManyLines):
		return metrics.ResultInvalid
	default:
		return metrics.ResultFailed
	}
}

// orderCodeSeq 进程内序号，连续 1000 次生成内尾号不重复
var orderCodeSeq atomic.Uint32

// generateOrderCode 前缀 + 秒级时间 + 3 位序号 + 3 位随机数
func generateOrderCode(prefix string) string {
	now := time.Now().Format("20060102150405")
	seq := orderCodeSeq.Add(1) % 1000
	return fmt.Sprintf("%s%s%03d%s", prefix, now, seq, randNumeric(3))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
