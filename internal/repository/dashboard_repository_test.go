package repository

import (
	"testing"
	"time"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

func TestDashboardOverviewAndTopProducts(t *testing.T) {
	db := openTestDB(t)
	orders := NewOrderRepository(db)
	dash := NewDashboardRepository(db)
	product := createTestProduct(t, db, "bpc-157", 200)
	createTestBatch(t, db, constants.BatchStatusActive, map[*models.Product]int{product: 10})

	paid := newTestOrder("GV-P", nil)
	paid.PaymentStatus = constants.PaymentStatusPaid
	item := func() []models.OrderItem {
		return []models.OrderItem{{ProductID: product.ID, ProductName: product.Name, Unit: constants.UnitVial,
			Quantity: 2, VialQuantity: 2, PricePerVial: models.NewMoney(200), UnitPrice: models.NewMoney(200),
			TotalPrice: models.NewMoney(400)}}
	}
	if err := orders.Create(paid, item()); err != nil {
		t.Fatalf("create paid order failed: %v", err)
	}
	cancelled := newTestOrder("GV-C", nil)
	cancelled.Status = constants.OrderStatusCancelled
	if err := orders.Create(cancelled, item()); err != nil {
		t.Fatalf("create cancelled order failed: %v", err)
	}

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	overview, err := dash.GetOverview(start, end, nil)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.OrdersTotal != 2 || overview.CancelledOrders != 1 || overview.PaidAmount != 400 || overview.OpenBatches != 1 {
		t.Fatalf("unexpected overview: %+v", overview)
	}

	top, err := dash.GetTopProducts(start, end, 5)
	if err != nil {
		t.Fatalf("top products failed: %v", err)
	}
	if len(top) != 1 || top[0].Vials != 2 || top[0].Orders != 1 {
		t.Fatalf("cancelled orders must not count: %+v", top)
	}
}

func TestDashboardCustomerOverview(t *testing.T) {
	db := openTestDB(t)
	orders := NewOrderRepository(db)
	dash := NewDashboardRepository(db)
	product := createTestProduct(t, db, "tb-500", 300)

	userID := uint(9)
	items := []models.OrderItem{{ProductID: product.ID, ProductName: product.Name, Unit: constants.UnitVial,
		Quantity: 3, VialQuantity: 3, PricePerVial: models.NewMoney(300), UnitPrice: models.NewMoney(300),
		TotalPrice: models.NewMoney(900)}}
	open := newTestOrder("GV-OPEN", nil)
	open.UserID = &userID
	open.TotalAmount = models.NewMoney(900)
	if err := orders.Create(open, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	other := newTestOrder("GV-OTHER", nil)
	if err := orders.Create(other, nil); err != nil {
		t.Fatalf("create guest order failed: %v", err)
	}

	row, err := dash.GetCustomerOverview(userID)
	if err != nil {
		t.Fatalf("customer overview failed: %v", err)
	}
	if row.OrdersTotal != 1 || row.OpenOrders != 1 || row.UnpaidAmount != 900 || row.VialsOrdered != 3 {
		t.Fatalf("unexpected customer overview: %+v", row)
	}
}
