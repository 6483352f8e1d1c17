package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

func TestCheckoutGroupBuyReservesCapacity(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "bpc-157", 200)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progressEvents, _, err := f.hub.Subscribe(ctx, batch.ID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	cartID := f.groupBuyCart(t, batch, items[0], 4)
	result, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        cartID,
		CustomerName:  " Maria Santos ",
		ContactHandle: "+639181112222",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Order
	if order.TotalAmount.String() != "800.00" {
		t.Fatalf("expected total 800.00, got %s", order.TotalAmount.String())
	}
	if order.CustomerName != "Maria Santos" {
		t.Fatalf("expected trimmed name, got %q", order.CustomerName)
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("unexpected initial status: %s/%s", order.Status, order.PaymentStatus)
	}
	if order.BatchID == nil || *order.BatchID != batch.ID {
		t.Fatalf("order should reference batch %d", batch.ID)
	}
	if len(order.Items) != 1 || order.Items[0].VialQuantity != 4 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if result.Progress == nil || result.Progress.Progress.Percent != 40 {
		t.Fatalf("expected 40%% progress, got %+v", result.Progress)
	}
	if result.Summary.Text == "" || result.Summary.DeepLink == "" {
		t.Fatalf("expected summary text and deep link, got %+v", result.Summary)
	}

	reloaded := f.reloadBatch(t, batch.ID)
	if reloaded.CurrentVials != 4 || reloaded.Products[0].CurrentVials != 4 {
		t.Fatalf("expected 4 reserved vials, got batch=%d membership=%d", reloaded.CurrentVials, reloaded.Products[0].CurrentVials)
	}
	if reloaded.Status != constants.BatchStatusActive {
		t.Fatalf("batch should stay active, got %s", reloaded.Status)
	}

	stored, err := f.carts.Load(context.Background(), cartID)
	if err != nil {
		t.Fatalf("load cart failed: %v", err)
	}
	if stored != nil {
		t.Fatalf("cart should be removed after checkout")
	}

	select {
	case event := <-progressEvents:
		if event.Percent != 40 || event.CurrentVials != 4 {
			t.Fatalf("unexpected progress event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a progress event")
	}
}

func TestCheckoutConcurrentLastVials(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "tb-500", 300)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	presetVials(t, f.db, batch.ID, items[0], 5)

	cartIDs := []string{
		f.groupBuyCart(t, batch, items[0], 5),
		f.groupBuyCart(t, batch, items[0], 5),
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i, cartID := range cartIDs {
		wg.Add(1)
		go func(i int, cartID string) {
			defer wg.Done()
			_, err := f.checkout.Checkout(context.Background(), CheckoutInput{
				CartID:        cartID,
				CustomerName:  "buyer",
				ContactHandle: "@buyer" + string(rune('a'+i)),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(i, cartID)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d (failures=%v)", successes, failures)
	}
	if len(failures) != 1 || !errors.Is(failures[0], ErrCapacityInsufficient) {
		t.Fatalf("expected capacity error for the loser, got %v", failures)
	}
	reloaded := f.reloadBatch(t, batch.ID)
	if reloaded.Products[0].CurrentVials != 10 || reloaded.CurrentVials != 10 {
		t.Fatalf("expected batch full at 10, got batch=%d membership=%d", reloaded.CurrentVials, reloaded.Products[0].CurrentVials)
	}
	if reloaded.Status != constants.BatchStatusPaymentCollection {
		t.Fatalf("full batch should move to payment collection, got %s", reloaded.Status)
	}
	if reloaded.FilledAt == nil {
		t.Fatalf("filled_at should be set")
	}
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "ghk-cu", 150)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{20})

	input := CheckoutInput{
		CartID:         f.groupBuyCart(t, batch, items[0], 3),
		CustomerName:   "Ana",
		ContactHandle:  "@ana",
		IdempotencyKey: "key-123",
	}
	first, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	second, err := f.checkout.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("replayed checkout failed: %v", err)
	}
	if !second.Replayed || second.Order.OrderCode != first.Order.OrderCode {
		t.Fatalf("expected replay of %s, got %+v", first.Order.OrderCode, second.Order)
	}
	reloaded := f.reloadBatch(t, batch.ID)
	if reloaded.CurrentVials != 3 {
		t.Fatalf("replay must not reserve again, got %d", reloaded.CurrentVials)
	}

	other := input
	other.ContactHandle = "@someone-else"
	if _, err := f.checkout.Checkout(context.Background(), other); !errors.Is(err, ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestCheckoutRetriesOnOrderCodeCollision(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{CodeRetryAttempts: 2})
	product := seedProduct(t, f.db, "ipamorelin", 180)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{50})

	f.checkout.newOrderCode = func() string { return "GV-TAKEN" }
	if _, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        f.groupBuyCart(t, batch, items[0], 1),
		CustomerName:  "first",
		ContactHandle: "@first",
	}); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}

	codes := []string{"GV-TAKEN", "GV-FRESH"}
	f.checkout.newOrderCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}
	result, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        f.groupBuyCart(t, batch, items[0], 2),
		CustomerName:  "second",
		ContactHandle: "@second",
	})
	if err != nil {
		t.Fatalf("retry checkout failed: %v", err)
	}
	if result.Order.OrderCode != "GV-FRESH" {
		t.Fatalf("expected regenerated code, got %s", result.Order.OrderCode)
	}

	f.checkout.newOrderCode = func() string { return "GV-TAKEN" }
	_, err = f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        f.groupBuyCart(t, batch, items[0], 4),
		CustomerName:  "third",
		ContactHandle: "@third",
	})
	if !errors.Is(err, ErrOrderCreateFailed) {
		t.Fatalf("expected create failure after retries, got %v", err)
	}
	reloaded := f.reloadBatch(t, batch.ID)
	if reloaded.CurrentVials != 3 {
		t.Fatalf("failed attempts must roll back, got %d vials", reloaded.CurrentVials)
	}
}

func TestCheckoutRejectsDisabledMode(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "cjc-1295", 220)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})

	if _, err := f.settings.Update(context.Background(), constants.SettingKeyFeatureFlags, map[string]interface{}{
		constants.SettingFieldGroupBuyEnabled: false,
	}); err != nil {
		t.Fatalf("update flags failed: %v", err)
	}
	_, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        f.groupBuyCart(t, batch, items[0], 1),
		CustomerName:  "buyer",
		ContactHandle: "@buyer",
	})
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected feature disabled, got %v", err)
	}
	if reloaded := f.reloadBatch(t, batch.ID); reloaded.CurrentVials != 0 {
		t.Fatalf("rejected checkout must not reserve, got %d", reloaded.CurrentVials)
	}
}

func TestCheckoutValidatesInput(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "selank", 120)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	cartID := f.groupBuyCart(t, batch, items[0], 1)

	cases := []struct {
		name  string
		input CheckoutInput
		want  error
	}{
		{"empty name", CheckoutInput{CartID: cartID, CustomerName: "  ", ContactHandle: "@x"}, ErrCustomerNameRequired},
		{"empty contact", CheckoutInput{CartID: cartID, CustomerName: "x", ContactHandle: "\t"}, ErrContactHandleRequired},
		{"missing cart", CheckoutInput{CartID: "nope", CustomerName: "x", ContactHandle: "@x"}, ErrCartNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.checkout.Checkout(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	empty := cart.New("empty-cart")
	if err := f.carts.Save(context.Background(), empty); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}
	if _, err := f.checkout.Checkout(context.Background(), CheckoutInput{CartID: "empty-cart", CustomerName: "x", ContactHandle: "@x"}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}
}

func TestCheckoutRejectsClosedBatch(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "semax", 120)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusShipped, nil, []*models.Product{product}, []int{10})

	_, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        f.groupBuyCart(t, batch, items[0], 1),
		CustomerName:  "x",
		ContactHandle: "@x",
	})
	if !errors.Is(err, ErrBatchNotAcceptingOrders) {
		t.Fatalf("expected not accepting orders, got %v", err)
	}
}

func TestCheckoutIndividualVialAndBox(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "aod-9604", 200)

	c := cart.New("individual-cart")
	for _, line := range []cart.IndividualLine{
		{ProductID: product.ID, ProductName: product.Name, Unit: constants.UnitVial, UnitPrice: product.PricePerVial, VialsPerBox: 10, Qty: 3},
		{ProductID: product.ID, ProductName: product.Name, Unit: constants.UnitBox, UnitPrice: product.PricePerBox, VialsPerBox: 10, Qty: 1},
	} {
		if err := c.Add(line); err != nil {
			t.Fatalf("add line failed: %v", err)
		}
	}
	if err := f.carts.Save(context.Background(), c); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}

	result, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        c.ID,
		CustomerName:  "solo",
		ContactHandle: "@solo",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	order := result.Order
	// 3 × 200 + 1 × 1800
	if order.TotalAmount.String() != "2400.00" {
		t.Fatalf("expected total 2400.00, got %s", order.TotalAmount.String())
	}
	sum := models.NewMoney(0)
	vials := 0
	for _, item := range order.Items {
		sum = sum.Add(item.TotalPrice)
		vials += item.VialQuantity
	}
	if !sum.Equal(order.TotalAmount.Decimal) {
		t.Fatalf("total %s must equal item sum %s", order.TotalAmount, sum)
	}
	if vials != 13 {
		t.Fatalf("expected 13 vials, got %d", vials)
	}
	if order.BatchID != nil || result.Progress != nil {
		t.Fatalf("individual order should not reference a batch")
	}
}

func TestCheckoutSubGroupUsesRegionContact(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "mots-c", 250)
	region := seedRegion(t, f.db, "cebu", nil)
	regionID := region.ID
	batch, items := seedBatch(t, f.db, constants.BatchKindSubGroup, constants.BatchStatusActive, &regionID, []*models.Product{product}, []int{10})

	c := cart.New("sub-group-cart")
	if err := c.Add(cart.SubGroupLine{
		RegionID:       region.ID,
		BatchID:        batch.ID,
		BatchProductID: items[0].ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		PricePerVial:   items[0].PricePerVial,
		Qty:            2,
		Max:            10,
	}); err != nil {
		t.Fatalf("add line failed: %v", err)
	}
	if err := f.carts.Save(context.Background(), c); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}

	result, err := f.checkout.Checkout(context.Background(), CheckoutInput{
		CartID:        c.ID,
		CustomerName:  "Jun",
		ContactHandle: "@jun",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Order.RegionID == nil || *result.Order.RegionID != region.ID {
		t.Fatalf("order should reference region %d", region.ID)
	}
	if !strings.HasPrefix(result.Summary.DeepLink, "https://wa.me/639170000000?") {
		t.Fatalf("expected region contact link, got %s", result.Summary.DeepLink)
	}
}
