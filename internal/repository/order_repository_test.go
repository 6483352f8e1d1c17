package repository

import (
	"testing"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

func newTestOrder(code string, key *string) *models.Order {
	return &models.Order{
		OrderCode:      code,
		IdempotencyKey: key,
		CustomerName:   "Ana",
		ContactHandle:  "+639170000000",
		Mode:           constants.PurchaseModeIndividual,
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       constants.SiteCurrencyDefault,
		TotalAmount:    models.NewMoney(400),
	}
}

func TestOrderCreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	key := "idem-1"
	order := newTestOrder("GV-1", &key)
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "BPC-157", Unit: constants.UnitVial, Quantity: 2, VialQuantity: 2,
			PricePerVial: models.NewMoney(200), UnitPrice: models.NewMoney(200), TotalPrice: models.NewMoney(400)},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	byCode, err := repo.GetByCode("GV-1")
	if err != nil || byCode == nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if len(byCode.Items) != 1 || byCode.Items[0].OrderID != order.ID {
		t.Fatalf("unexpected items: %+v", byCode.Items)
	}
	byKey, err := repo.GetByIdempotencyKey("idem-1")
	if err != nil || byKey == nil || byKey.ID != order.ID {
		t.Fatalf("get by idempotency key failed: %v", err)
	}
	missing, err := repo.GetByCode("GV-404")
	if err != nil || missing != nil {
		t.Fatalf("missing order should be nil, nil")
	}
}

func TestOrderUniqueIndexes(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	key := "idem-dup"
	if err := repo.Create(newTestOrder("GV-DUP", &key), nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	err := repo.Create(newTestOrder("GV-DUP", nil), nil)
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate order code want unique violation got %v", err)
	}
	err = repo.Create(newTestOrder("GV-OTHER", &key), nil)
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate idempotency key want unique violation got %v", err)
	}
	// 空幂等键允许多条
	if err := repo.Create(newTestOrder("GV-A", nil), nil); err != nil {
		t.Fatalf("nil key order failed: %v", err)
	}
	if err := repo.Create(newTestOrder("GV-B", nil), nil); err != nil {
		t.Fatalf("second nil key order failed: %v", err)
	}
}

func TestOrderTransitionStatusAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	regionID := uint(3)
	order := newTestOrder("GV-R1", nil)
	order.RegionID = &regionID
	order.Mode = constants.PurchaseModeSubGroup
	if err := repo.Create(order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := repo.Create(newTestOrder("GV-R2", nil), nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	affected, err := repo.TransitionStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusConfirmed, nil)
	if err != nil || affected != 1 {
		t.Fatalf("transition want 1 got %d err=%v", affected, err)
	}
	affected, err = repo.TransitionStatus(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil || affected != 0 {
		t.Fatalf("stale transition want 0 got %d err=%v", affected, err)
	}

	list, total, err := repo.List(OrderListFilter{RegionIDs: []uint{regionID}, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Status != constants.OrderStatusConfirmed {
		t.Fatalf("unexpected region list total=%d list=%+v", total, list)
	}
}
