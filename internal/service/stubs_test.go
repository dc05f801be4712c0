package service

// In-memory repository stubs shared by the service tests. DB() returns nil so
// runTx executes callbacks directly without a database.

import (
	"context"
	"errors"
	"time"

	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errStubNotFound = errors.New("not found")

// ── Products ─────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products  map[uuid.UUID]*model.Product
	locations map[uuid.UUID]*model.Location
	order     []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products:  make(map[uuid.UUID]*model.Product),
		locations: make(map[uuid.UUID]*model.Location),
	}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.add(p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errStubNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context, userID uuid.UUID, _ dto.ProductFilter) ([]model.Product, int64, error) {
	out, _ := r.byUser(userID)
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListAllByUser(_ context.Context, userID uuid.UUID) ([]model.Product, error) {
	out, _ := r.byUser(userID)
	return out, nil
}

func (r *stubProductRepo) ListAutoAdd(_ context.Context, userID uuid.UUID) ([]model.Product, error) {
	all, _ := r.byUser(userID)
	var out []model.Product
	for _, p := range all {
		if p.AutoAddToList {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) byUser(userID uuid.UUID) ([]model.Product, int64) {
	var out []model.Product
	for _, id := range r.order {
		if p := r.products[id]; p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out))
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) NameExists(_ context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	for _, p := range r.products {
		if p.UserID == userID && p.Name == name && (excludeID == nil || p.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductRepo) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	_, n := r.byUser(userID)
	return n, nil
}

func (r *stubProductRepo) CreateLocation(_ context.Context, l *model.Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.locations[l.ID] = l
	return nil
}

func (r *stubProductRepo) FindLocationByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, errStubNotFound
	}
	return l, nil
}

func (r *stubProductRepo) ListLocations(_ context.Context, userID uuid.UUID) ([]model.Location, error) {
	var out []model.Location
	for _, l := range r.locations {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Categories ───────────────────────────────────────────────────────────────

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	order      []uuid.UUID
	products   *stubProductRepo
}

func newStubCategoryRepo(products *stubProductRepo) *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category), products: products}
}

func (r *stubCategoryRepo) add(c *model.Category) *model.Category {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categories[c.ID] = c
	r.order = append(r.order, c.ID)
	return c
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	r.add(c)
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, errStubNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context, userID uuid.UUID) ([]model.Category, error) {
	var out []model.Category
	for _, id := range r.order {
		if c := r.categories[id]; c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.categories, id)
	return nil
}

func (r *stubCategoryRepo) NameExists(_ context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	for _, c := range r.categories {
		if c.UserID == userID && c.Name == name && (excludeID == nil || c.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCategoryRepo) CountProducts(_ context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.products.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

// ── Batches ──────────────────────────────────────────────────────────────────

type stubBatchRepo struct {
	batches  map[uuid.UUID]*model.StockBatch
	order    []uuid.UUID
	products *stubProductRepo
	// createErr, when set, makes CreateTx fail to exercise rollback paths.
	createErr error
}

func newStubBatchRepo(products *stubProductRepo) *stubBatchRepo {
	return &stubBatchRepo{batches: make(map[uuid.UUID]*model.StockBatch), products: products}
}

func (r *stubBatchRepo) add(b *model.StockBatch) *model.StockBatch {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.batches[b.ID] = b
	r.order = append(r.order, b.ID)
	return b
}

func (r *stubBatchRepo) CreateTx(_ *gorm.DB, b *model.StockBatch) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(b)
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, errStubNotFound
	}
	return b, nil
}

func (r *stubBatchRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.StockBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, errStubNotFound
	}
	return b, nil
}

func (r *stubBatchRepo) SetQuantityTx(_ *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error {
	b, ok := r.batches[id]
	if !ok {
		return errStubNotFound
	}
	b.Quantity = quantity
	return nil
}

func (r *stubBatchRepo) List(_ context.Context, userID uuid.UUID, filter repository.BatchFilter) ([]model.StockBatch, int64, error) {
	var out []model.StockBatch
	for _, id := range r.order {
		b := r.batches[id]
		if r.ownerOf(b.ProductID) != userID {
			continue
		}
		if filter.ProductID != nil && b.ProductID != *filter.ProductID {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBatchRepo) ListAvailableByProduct(_ context.Context, productID uuid.UUID) ([]model.StockBatch, error) {
	var out []model.StockBatch
	for _, id := range r.order {
		b := r.batches[id]
		if b.ProductID == productID && b.Quantity.IsPositive() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBatchRepo) TotalByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range r.batches {
		if b.ProductID == productID {
			total = total.Add(b.Quantity)
		}
	}
	return total, nil
}

func (r *stubBatchRepo) TotalsByProducts(_ context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, pid := range productIDs {
		for _, b := range r.batches {
			if b.ProductID == pid {
				totals[pid] = totals[pid].Add(b.Quantity)
			}
		}
	}
	return totals, nil
}

func (r *stubBatchRepo) ListExpiring(_ context.Context, userID uuid.UUID, after, until time.Time) ([]model.StockBatch, error) {
	var out []model.StockBatch
	for _, id := range r.order {
		b := r.batches[id]
		if r.ownerOf(b.ProductID) != userID || !b.Quantity.IsPositive() || b.ExpiryDate == nil {
			continue
		}
		if b.ExpiryDate.After(after) && !b.ExpiryDate.After(until) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBatchRepo) ListExpired(_ context.Context, userID uuid.UUID, before time.Time) ([]model.StockBatch, error) {
	var out []model.StockBatch
	for _, id := range r.order {
		b := r.batches[id]
		if r.ownerOf(b.ProductID) != userID || !b.Quantity.IsPositive() || b.ExpiryDate == nil {
			continue
		}
		if b.ExpiryDate.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *stubBatchRepo) ListToConsumeFirst(_ context.Context, userID uuid.UUID, limit int) ([]model.StockBatch, error) {
	out, err := r.ListExpiring(context.Background(), userID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubBatchRepo) CountLive(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range r.batches {
		if r.ownerOf(b.ProductID) == userID && b.Quantity.IsPositive() {
			n++
		}
	}
	return n, nil
}

func (r *stubBatchRepo) CountExpiring(ctx context.Context, userID uuid.UUID, after, until time.Time) (int64, error) {
	out, err := r.ListExpiring(ctx, userID, after, until)
	return int64(len(out)), err
}

func (r *stubBatchRepo) CountExpired(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error) {
	out, err := r.ListExpired(ctx, userID, before)
	return int64(len(out)), err
}

func (r *stubBatchRepo) TotalPurchaseValue(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range r.batches {
		if r.ownerOf(b.ProductID) == userID && b.Quantity.IsPositive() && b.PurchasePrice != nil {
			total = total.Add(*b.PurchasePrice)
		}
	}
	return total, nil
}

func (r *stubBatchRepo) ownerOf(productID uuid.UUID) uuid.UUID {
	if p, ok := r.products.products[productID]; ok {
		return p.UserID
	}
	return uuid.Nil
}

func (r *stubBatchRepo) DB() *gorm.DB { return nil }

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

// ── Movements ────────────────────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []*model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ uuid.UUID, filter repository.MovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) ConsumptionStats(_ context.Context, _ uuid.UUID, since time.Time, _ int) ([]dto.ProductConsumption, error) {
	totals := make(map[uuid.UUID]decimal.Decimal)
	counts := make(map[uuid.UUID]int64)
	for _, m := range r.movements {
		if m.Type != model.MovementOut || m.OccurredAt.Before(since) {
			continue
		}
		totals[m.ProductID] = totals[m.ProductID].Add(m.Quantity)
		counts[m.ProductID]++
	}
	var out []dto.ProductConsumption
	for pid, total := range totals {
		out = append(out, dto.ProductConsumption{
			ProductID:     pid.String(),
			TotalConsumed: total,
			MovementCount: counts[pid],
		})
	}
	return out, nil
}

// byBatch returns movements recorded against one batch, in creation order.
func (r *stubMovementRepo) byBatch(batchID uuid.UUID) []*model.StockMovement {
	var out []*model.StockMovement
	for _, m := range r.movements {
		if m.BatchID != nil && *m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// ── Alerts ───────────────────────────────────────────────────────────────────

type stubAlertRepo struct {
	alerts []*model.ExpiryAlert
}

func (r *stubAlertRepo) Create(_ context.Context, a *model.ExpiryAlert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *stubAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ExpiryAlert, error) {
	for _, a := range r.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubAlertRepo) ExistsForDay(_ context.Context, batchID uuid.UUID, alertType string, dayStart time.Time) (bool, error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	for _, a := range r.alerts {
		if a.BatchID == batchID && a.AlertType == alertType &&
			!a.AlertDate.Before(dayStart) && a.AlertDate.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAlertRepo) List(_ context.Context, _ uuid.UUID, filter dto.AlertFilter) ([]model.ExpiryAlert, int64, error) {
	var out []model.ExpiryAlert
	for _, a := range r.alerts {
		if filter.AlertType != "" && a.AlertType != filter.AlertType {
			continue
		}
		if filter.IsRead != nil && a.IsRead != *filter.IsRead {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *stubAlertRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.ExpiryAlert, error) {
	var out []model.ExpiryAlert
	for _, a := range r.alerts {
		for _, id := range ids {
			if a.ID == id {
				out = append(out, *a)
			}
		}
	}
	return out, nil
}

func (r *stubAlertRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, a := range r.alerts {
		if a.ID == id {
			a.IsRead = true
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubAlertRepo) MarkAllRead(_ context.Context, _ uuid.UUID) (int64, error) {
	var n int64
	for _, a := range r.alerts {
		if !a.IsRead {
			a.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *stubAlertRepo) MarkEmailSent(_ context.Context, ids []uuid.UUID) error {
	for _, a := range r.alerts {
		for _, id := range ids {
			if a.ID == id {
				a.EmailSent = true
			}
		}
	}
	return nil
}

func (r *stubAlertRepo) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*model.ExpiryAlert
	var n int64
	for _, a := range r.alerts {
		if a.IsRead && a.AlertDate.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.alerts = kept
	return n, nil
}

var _ repository.AlertRepository = (*stubAlertRepo)(nil)

// ── Shopping ─────────────────────────────────────────────────────────────────

type stubShoppingRepo struct {
	lists    map[uuid.UUID]*model.ShoppingList
	items    map[uuid.UUID]*model.ShoppingListItem
	order    []uuid.UUID
	products *stubProductRepo
}

func newStubShoppingRepo(products *stubProductRepo) *stubShoppingRepo {
	return &stubShoppingRepo{
		lists:    make(map[uuid.UUID]*model.ShoppingList),
		items:    make(map[uuid.UUID]*model.ShoppingListItem),
		products: products,
	}
}

func (r *stubShoppingRepo) CreateList(_ context.Context, l *model.ShoppingList) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	r.lists[l.ID] = l
	return nil
}

func (r *stubShoppingRepo) FindListByID(_ context.Context, id uuid.UUID) (*model.ShoppingList, error) {
	l, ok := r.lists[id]
	if !ok {
		return nil, errStubNotFound
	}
	return l, nil
}

func (r *stubShoppingRepo) ListLists(_ context.Context, userID uuid.UUID, _ dto.ListFilter) ([]model.ShoppingList, int64, error) {
	var out []model.ShoppingList
	for _, l := range r.lists {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubShoppingRepo) UpdateList(_ context.Context, l *model.ShoppingList) error {
	r.lists[l.ID] = l
	return nil
}

func (r *stubShoppingRepo) UpdateListTx(_ *gorm.DB, l *model.ShoppingList) error {
	r.lists[l.ID] = l
	return nil
}

func (r *stubShoppingRepo) DeleteList(_ context.Context, id uuid.UUID) error {
	delete(r.lists, id)
	for itemID, it := range r.items {
		if it.ShoppingListID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *stubShoppingRepo) CreateItem(_ context.Context, it *model.ShoppingListItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	r.items[it.ID] = it
	r.order = append(r.order, it.ID)
	return nil
}

func (r *stubShoppingRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.ShoppingListItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, errStubNotFound
	}
	r.attachProduct(it)
	return it, nil
}

// attachProduct mimics the Product preload of the GORM repository.
func (r *stubShoppingRepo) attachProduct(it *model.ShoppingListItem) {
	if r.products == nil {
		return
	}
	if p, ok := r.products.products[it.ProductID]; ok {
		it.Product = p
	}
}

func (r *stubShoppingRepo) ItemExists(_ context.Context, listID, productID uuid.UUID) (bool, error) {
	for _, it := range r.items {
		if it.ShoppingListID == listID && it.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubShoppingRepo) UpdateItem(_ context.Context, it *model.ShoppingListItem) error {
	r.items[it.ID] = it
	return nil
}

func (r *stubShoppingRepo) ListItems(_ context.Context, listID uuid.UUID) ([]model.ShoppingListItem, error) {
	var out []model.ShoppingListItem
	for _, id := range r.order {
		if it, ok := r.items[id]; ok && it.ShoppingListID == listID {
			r.attachProduct(it)
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *stubShoppingRepo) DB() *gorm.DB { return nil }

var _ repository.ShoppingRepository = (*stubShoppingRepo)(nil)
