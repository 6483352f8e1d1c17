package service

import (
	"context"
	"errors"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"

	"github.com/shopspring/decimal"
)

func TestBatchLifecycleFromDraftToActive(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	admin := Actor{UserID: 1, Role: constants.RoleAdmin}
	product := seedProduct(t, f.db, "bpc-157", 200)

	batch, err := f.batchService.Create(admin, BatchInput{
		Name:            "October group buy",
		Kind:            constants.BatchKindGroupBuy,
		DiscountPercent: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	if batch.Status != constants.BatchStatusDraft {
		t.Fatalf("new batch should be draft, got %s", batch.Status)
	}
	if _, err := f.batchService.Transition(context.Background(), admin, batch.ID, constants.BatchStatusActive); !errors.Is(err, ErrBatchTargetInvalid) {
		t.Fatalf("empty batch must not activate, got %v", err)
	}

	item, err := f.batchService.AddProduct(admin, batch.ID, BatchProductInput{ProductID: product.ID, TargetVials: 10})
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}
	if item.PricePerVial.String() != "180.00" {
		t.Fatalf("expected discounted price 180.00, got %s", item.PricePerVial.String())
	}
	if _, err := f.batchService.AddProduct(admin, batch.ID, BatchProductInput{ProductID: product.ID, TargetVials: 5}); !errors.Is(err, ErrMembershipExists) {
		t.Fatalf("duplicate membership should fail, got %v", err)
	}

	active, err := f.batchService.Transition(context.Background(), admin, batch.ID, constants.BatchStatusActive)
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if active.Status != constants.BatchStatusActive || active.StartsAt == nil || active.TargetVials != 10 {
		t.Fatalf("unexpected active batch: %+v", active)
	}
	if err := f.batchService.RemoveProduct(admin, item.ID); !errors.Is(err, ErrBatchNotEditable) {
		t.Fatalf("removing from active batch should fail, got %v", err)
	}
	if _, err := f.batchService.Transition(context.Background(), admin, batch.ID, constants.BatchStatusShipped); !errors.Is(err, ErrBatchStatusInvalid) {
		t.Fatalf("skipping states should fail, got %v", err)
	}
}

func TestBatchUpdateProductKeepsTargetAboveReserved(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	admin := Actor{UserID: 1, Role: constants.RoleAdmin}
	product := seedProduct(t, f.db, "tb-500", 300)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	presetVials(t, f.db, batch.ID, items[0], 6)

	if _, err := f.batchService.UpdateProduct(admin, items[0].ID, BatchProductInput{TargetVials: 5}); !errors.Is(err, ErrBatchTargetInvalid) {
		t.Fatalf("target below reserved should fail, got %v", err)
	}
	if _, err := f.batchService.UpdateProduct(admin, items[0].ID, BatchProductInput{TargetVials: 20}); err != nil {
		t.Fatalf("raise target failed: %v", err)
	}
	progress, err := f.batchService.Progress(batch.ID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.Progress.TargetVials != 20 || progress.Progress.Percent != 30 {
		t.Fatalf("unexpected progress: %+v", progress.Progress)
	}
}

func TestBatchMarkFilledOnlyWhenComplete(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	a := seedProduct(t, f.db, "semax", 100)
	b := seedProduct(t, f.db, "selank", 100)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{a, b}, []int{5, 5})
	presetVials(t, f.db, batch.ID, items[0], 5)

	filled, err := f.batchService.MarkFilled(context.Background(), batch.ID)
	if err != nil || filled {
		t.Fatalf("partially filled batch must stay active (filled=%v err=%v)", filled, err)
	}
	presetVials(t, f.db, batch.ID, items[1], 5)
	filled, err = f.batchService.MarkFilled(context.Background(), batch.ID)
	if err != nil || !filled {
		t.Fatalf("complete batch should be marked filled (filled=%v err=%v)", filled, err)
	}
	filled, err = f.batchService.MarkFilled(context.Background(), batch.ID)
	if err != nil || filled {
		t.Fatalf("second mark should be a no-op (filled=%v err=%v)", filled, err)
	}
	if reloaded := f.reloadBatch(t, batch.ID); reloaded.Status != constants.BatchStatusPaymentCollection {
		t.Fatalf("expected payment collection, got %s", reloaded.Status)
	}
}

func TestBatchHostScopedToOwnRegion(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	host := seedUser(t, f.db, "host", constants.RoleHost)
	region := seedRegion(t, f.db, "cebu", &host.ID)
	foreign := seedRegion(t, f.db, "manila", nil)
	hostActor := Actor{UserID: host.ID, Role: constants.RoleHost}
	product := seedProduct(t, f.db, "mots-c", 250)

	batch, err := f.batchService.Create(hostActor, BatchInput{
		Name:     "Cebu round",
		Kind:     constants.BatchKindGroupBuy,
		RegionID: &region.ID,
	})
	if err != nil {
		t.Fatalf("host create failed: %v", err)
	}
	if batch.Kind != constants.BatchKindSubGroup {
		t.Fatalf("host batches are always sub groups, got %s", batch.Kind)
	}
	if _, err := f.batchService.Create(hostActor, BatchInput{Name: "Manila", RegionID: &foreign.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("host must not create in foreign region, got %v", err)
	}
	if _, err := f.batchService.AddProduct(hostActor, batch.ID, BatchProductInput{ProductID: product.ID, TargetVials: 10}); err != nil {
		t.Fatalf("add product failed: %v", err)
	}
	if _, err := f.batchService.Transition(context.Background(), hostActor, batch.ID, constants.BatchStatusActive); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	second, err := f.batchService.Create(hostActor, BatchInput{Name: "Cebu round 2", RegionID: &region.ID})
	if err != nil {
		t.Fatalf("second draft failed: %v", err)
	}
	if _, err := f.batchService.AddProduct(hostActor, second.ID, BatchProductInput{ProductID: product.ID, TargetVials: 10}); err != nil {
		t.Fatalf("add product failed: %v", err)
	}
	if _, err := f.batchService.Transition(context.Background(), hostActor, second.ID, constants.BatchStatusActive); !errors.Is(err, ErrRegionBusy) {
		t.Fatalf("region allows one open sub group, got %v", err)
	}

	customer := Actor{UserID: 77, Role: constants.RoleCustomer}
	if _, err := f.batchService.Create(customer, BatchInput{Name: "nope", Kind: constants.BatchKindGroupBuy}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer must not create batches, got %v", err)
	}
}

func TestBatchGetVisibleHidesDrafts(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "ipamorelin", 180)
	draft, _ := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusDraft, nil, []*models.Product{product}, []int{10})

	if _, err := f.batchService.GetVisible(draft.ID); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("draft should be hidden, got %v", err)
	}
}

// reserveAfterReadRepo 读取成员商品后立即插入一次认购，模拟并发下单
type reserveAfterReadRepo struct {
	repository.BatchRepository
	reserve  int
	reserved bool
}

func (r *reserveAfterReadRepo) GetProduct(id uint) (*models.BatchProduct, error) {
	item, err := r.BatchRepository.GetProduct(id)
	if err != nil || item == nil || r.reserved {
		return item, err
	}
	r.reserved = true
	if _, err := r.BatchRepository.ReserveVials(item.BatchID, item.ID, r.reserve); err != nil {
		return nil, err
	}
	return item, nil
}

func TestBatchUpdateProductRejectsTargetBelowConcurrentReservation(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	admin := Actor{UserID: 1, Role: constants.RoleAdmin}
	product := seedProduct(t, f.db, "ghk-cu", 150)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	presetVials(t, f.db, batch.ID, items[0], 3)

	repo := &reserveAfterReadRepo{BatchRepository: f.batchRepo, reserve: 4}
	svc := NewBatchService(repo, f.productRepo, f.regionRepo, nil, f.hub)

	if _, err := svc.UpdateProduct(admin, items[0].ID, BatchProductInput{TargetVials: 5}); !errors.Is(err, ErrBatchTargetInvalid) {
		t.Fatalf("target below concurrent reservation should fail, got %v", err)
	}
	if !repo.reserved {
		t.Fatalf("reservation was not interleaved")
	}

	var membership models.BatchProduct
	if err := f.db.First(&membership, items[0].ID).Error; err != nil {
		t.Fatalf("reload membership failed: %v", err)
	}
	if membership.CurrentVials != 7 || membership.TargetVials != 10 {
		t.Fatalf("expected current=7 target=10, got current=%d target=%d", membership.CurrentVials, membership.TargetVials)
	}
	if reloaded := f.reloadBatch(t, batch.ID); reloaded.TargetVials != 10 {
		t.Fatalf("batch target should stay 10, got %d", reloaded.TargetVials)
	}

	updated, err := svc.UpdateProduct(admin, items[0].ID, BatchProductInput{TargetVials: 7})
	if err != nil {
		t.Fatalf("target equal to reserved should succeed: %v", err)
	}
	if updated.TargetVials != 7 || updated.CurrentVials != 7 {
		t.Fatalf("unexpected membership after update: %+v", updated)
	}
}

func TestBatchListForHostPaginatesAcrossRegions(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	host := seedUser(t, f.db, "multi-host", constants.RoleHost)
	actor := Actor{UserID: host.ID, Role: constants.RoleHost}
	product := seedProduct(t, f.db, "ipamorelin", 120)
	for _, slug := range []string{"cebu", "davao", "iloilo"} {
		region := seedRegion(t, f.db, slug, &host.ID)
		seedBatch(t, f.db, constants.BatchKindSubGroup, constants.BatchStatusActive, &region.ID, []*models.Product{product}, []int{10})
	}
	other := seedRegion(t, f.db, "baguio", nil)
	seedBatch(t, f.db, constants.BatchKindSubGroup, constants.BatchStatusActive, &other.ID, []*models.Product{product}, []int{10})

	seen := map[uint]bool{}
	for page := 1; page <= 3; page++ {
		items, total, err := f.batchService.ListForActor(actor, repository.BatchListFilter{Page: page, PageSize: 1})
		if err != nil {
			t.Fatalf("list page %d failed: %v", page, err)
		}
		if total != 3 {
			t.Fatalf("expected total 3, got %d", total)
		}
		if len(items) != 1 {
			t.Fatalf("page %d: expected 1 item, got %d", page, len(items))
		}
		if *items[0].RegionID == other.ID {
			t.Fatalf("host must not see foreign region batches")
		}
		seen[items[0].ID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct batches across pages, got %d", len(seen))
	}
	items, _, err := f.batchService.ListForActor(actor, repository.BatchListFilter{Page: 4, PageSize: 1})
	if err != nil || len(items) != 0 {
		t.Fatalf("page past the end should be empty (len=%d err=%v)", len(items), err)
	}
}
