package service

import (
	"context"
	"testing"

	"pantrio/internal/clock"
	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shoppingFixture struct {
	svc       ShoppingService
	lists     *stubShoppingRepo
	products  *stubProductRepo
	batches   *stubBatchRepo
	movements *stubMovementRepo
	user      *model.User
}

func newShoppingFixture() *shoppingFixture {
	products := newStubProductRepo()
	batches := newStubBatchRepo(products)
	movements := &stubMovementRepo{}
	lists := newStubShoppingRepo(products)
	clk := clock.Fixed(testNow)
	stock := NewStockService(batches, movements, products, nil, clk)
	return &shoppingFixture{
		svc:       NewShoppingService(lists, products, batches, stock, clk),
		lists:     lists,
		products:  products,
		batches:   batches,
		movements: movements,
		user:      &model.User{ID: uuid.New(), Username: "ana", Name: "Ana"},
	}
}

func (f *shoppingFixture) product(name, threshold, stock string, autoAdd bool) *model.Product {
	p := f.products.add(&model.Product{
		UserID:        f.user.ID,
		Name:          name,
		Unit:          "piece",
		Threshold:     decimal.RequireFromString(threshold),
		AutoAddToList: autoAdd,
	})
	if stock != "0" {
		f.batches.add(&model.StockBatch{
			ProductID:    p.ID,
			Quantity:     decimal.RequireFromString(stock),
			PurchaseDate: testNow,
		})
	}
	return p
}

func (f *shoppingFixture) list(status string) *model.ShoppingList {
	l := &model.ShoppingList{UserID: f.user.ID, Title: "Weekly shop", Status: status}
	_ = f.lists.CreateList(context.Background(), l)
	return l
}

// ── Generator ────────────────────────────────────────────────────────────────

func TestGeneratePrioritiesAndQuantities(t *testing.T) {
	f := newShoppingFixture()
	out := f.product("Out", "5", "0", true)     // out of stock → urgent
	scarce := f.product("Scarce", "10", "2", true) // 2 < 30% of 10 → high
	low := f.product("Low", "10", "6", true)    // below but above the band → normal
	f.product("Stocked", "2", "8", true)        // sufficiently stocked → excluded
	f.product("Manual", "5", "0", false)        // auto-add disabled → never suggested

	res, err := f.svc.Generate(context.Background(), f.user)
	require.NoError(t, err)
	require.True(t, res.ListCreated)
	assert.Equal(t, 3, res.ItemCount)
	require.NotNil(t, res.List)
	assert.Equal(t, model.ListActive, res.List.Status)
	assert.True(t, res.List.IsAutoGenerated)
	assert.Equal(t, "Shopping list 15/08/2026", res.List.Title)

	byProduct := map[string]dto.ItemResponse{}
	for _, it := range res.List.Items {
		byProduct[it.ProductID] = it
	}

	it := byProduct[out.ID.String()]
	assert.Equal(t, model.PriorityUrgent, it.Priority)
	assert.Equal(t, model.ReasonOutOfStock, it.Reason)
	assert.True(t, it.SuggestedQuantity.Equal(decimal.NewFromInt(5)), "refill to threshold")

	it = byProduct[scarce.ID.String()]
	assert.Equal(t, model.PriorityHigh, it.Priority)
	assert.Equal(t, model.ReasonBelowThreshold, it.Reason)
	assert.True(t, it.SuggestedQuantity.Equal(decimal.NewFromInt(8)), "threshold minus stock")

	it = byProduct[low.ID.String()]
	assert.Equal(t, model.PriorityNormal, it.Priority)
	assert.True(t, it.SuggestedQuantity.Equal(decimal.NewFromInt(4)))
}

func TestGenerateNothingNeededDiscardsList(t *testing.T) {
	f := newShoppingFixture()
	f.product("Stocked", "2", "10", true)

	res, err := f.svc.Generate(context.Background(), f.user)
	require.NoError(t, err)
	assert.False(t, res.ListCreated)
	assert.Equal(t, 0, res.ItemCount)
	assert.Equal(t, "all products sufficiently stocked", res.Message)
	assert.Empty(t, f.lists.lists, "empty auto list must not survive")
}

func TestGenerateZeroThresholdOutOfStock(t *testing.T) {
	// Threshold 0 with zero stock still needs restocking: the product must
	// appear on the generated list even though the refill size is zero.
	f := newShoppingFixture()
	spice := f.product("Saffron", "0", "0", true)

	res, err := f.svc.Generate(context.Background(), f.user)
	require.NoError(t, err)
	require.True(t, res.ListCreated)
	require.Equal(t, 1, res.ItemCount)

	it := res.List.Items[0]
	assert.Equal(t, spice.ID.String(), it.ProductID)
	assert.Equal(t, model.PriorityUrgent, it.Priority)
	assert.Equal(t, model.ReasonOutOfStock, it.Reason)
	assert.True(t, it.SuggestedQuantity.IsZero(), "refill to threshold, which is zero")
}

// ── Grouped view ─────────────────────────────────────────────────────────────

func TestItemsByCategoryGroups(t *testing.T) {
	f := newShoppingFixture()
	dairy := &model.Category{ID: uuid.New(), UserID: f.user.ID, Name: "dairy", Color: "#3B82F6"}
	bakery := &model.Category{ID: uuid.New(), UserID: f.user.ID, Name: "bakery", Color: "#F59E0B"}

	milk := f.product("Milk", "2", "0", true)
	milk.CategoryID = &dairy.ID
	milk.Category = dairy
	yogurt := f.product("Yogurt", "4", "0", true)
	yogurt.CategoryID = &dairy.ID
	yogurt.Category = dairy
	bread := f.product("Bread", "1", "0", true)
	bread.CategoryID = &bakery.ID
	bread.Category = bakery
	soap := f.product("Soap", "1", "0", true) // no category

	list := f.list(model.ListActive)
	for _, p := range []*model.Product{milk, yogurt, bread, soap} {
		require.NoError(t, f.lists.CreateItem(context.Background(), &model.ShoppingListItem{
			ShoppingListID: list.ID, ProductID: p.ID, SuggestedQuantity: decimal.NewFromInt(1),
		}))
	}

	groups, err := f.svc.ItemsByCategory(context.Background(), f.user.ID, list.ID)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	// Alphabetical by category, uncategorized products close the view.
	assert.Equal(t, "bakery", groups[0].Category)
	assert.Equal(t, "#F59E0B", groups[0].Color)
	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, "Bread", groups[0].Items[0].ProductName)

	assert.Equal(t, "dairy", groups[1].Category)
	assert.Len(t, groups[1].Items, 2)

	assert.Equal(t, "uncategorized", groups[2].Category)
	require.Len(t, groups[2].Items, 1)
	assert.Equal(t, "Soap", groups[2].Items[0].ProductName)
}

func TestItemsByCategoryOwnerScoped(t *testing.T) {
	f := newShoppingFixture()
	list := f.list(model.ListActive)

	_, err := f.svc.ItemsByCategory(context.Background(), uuid.New(), list.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func TestActivateOnlyFromDraft(t *testing.T) {
	f := newShoppingFixture()

	draft := f.list(model.ListDraft)
	resp, err := f.svc.Activate(context.Background(), f.user.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListActive, resp.Status)

	for _, status := range []string{model.ListActive, model.ListCompleted, model.ListArchived} {
		l := f.list(status)
		_, err := f.svc.Activate(context.Background(), f.user.ID, l.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", status)
	}
}

func TestArchiveTransitions(t *testing.T) {
	f := newShoppingFixture()

	for _, status := range []string{model.ListActive, model.ListCompleted} {
		l := f.list(status)
		resp, err := f.svc.Archive(context.Background(), f.user.ID, l.ID)
		require.NoError(t, err, "from %s", status)
		assert.Equal(t, model.ListArchived, resp.Status)
	}

	for _, status := range []string{model.ListDraft, model.ListArchived} {
		l := f.list(status)
		_, err := f.svc.Archive(context.Background(), f.user.ID, l.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", status)
	}
}

func TestCompleteCreatesBatchesForCheckedItems(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	bread := f.product("Bread", "1", "0", true)
	eggs := f.product("Eggs", "6", "0", true)

	list := f.list(model.ListActive)
	actualQty := decimal.RequireFromString("1.5")
	cost := decimal.NewFromInt(3)
	items := []*model.ShoppingListItem{
		// Checked with an actual quantity: the actual wins over the suggestion.
		{ShoppingListID: list.ID, ProductID: milk.ID, SuggestedQuantity: decimal.NewFromInt(2),
			IsChecked: true, ActualQuantity: &actualQty, ActualCost: &cost},
		// Checked without actuals: the suggested quantity is purchased.
		{ShoppingListID: list.ID, ProductID: bread.ID, SuggestedQuantity: decimal.NewFromInt(1), IsChecked: true},
		// Unchecked: not purchased, no batch.
		{ShoppingListID: list.ID, ProductID: eggs.ID, SuggestedQuantity: decimal.NewFromInt(6)},
	}
	for _, it := range items {
		require.NoError(t, f.lists.CreateItem(context.Background(), it))
	}

	res, err := f.svc.Complete(context.Background(), f.user, list.ID, dto.CompleteListRequest{AutoUpdateStock: true})
	require.NoError(t, err)
	assert.Equal(t, model.ListCompleted, res.Status)
	assert.True(t, res.StockUpdated)
	assert.Equal(t, 2, res.BatchesCreated)
	assert.Equal(t, model.ListCompleted, list.Status)
	require.NotNil(t, list.CompletedAt)

	milkTotal, _ := f.batches.TotalByProduct(context.Background(), milk.ID)
	assert.True(t, milkTotal.Equal(actualQty))
	breadTotal, _ := f.batches.TotalByProduct(context.Background(), bread.ID)
	assert.True(t, breadTotal.Equal(decimal.NewFromInt(1)))
	eggsTotal, _ := f.batches.TotalByProduct(context.Background(), eggs.ID)
	assert.True(t, eggsTotal.IsZero())

	// Each purchase fed the movement ledger with one IN carrying the list note.
	require.Len(t, f.movements.movements, 2)
	for _, m := range f.movements.movements {
		assert.Equal(t, model.MovementIn, m.Type)
		assert.Equal(t, "Purchase - list: Weekly shop", m.Note)
	}
}

func TestCompleteFailureKeepsListActive(t *testing.T) {
	// A purchase that cannot be written must not close the list: completion
	// stays retryable because the status flip shares the batch transaction.
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	list := f.list(model.ListActive)
	require.NoError(t, f.lists.CreateItem(context.Background(), &model.ShoppingListItem{
		ShoppingListID: list.ID, ProductID: milk.ID,
		SuggestedQuantity: decimal.NewFromInt(2), IsChecked: true,
	}))

	f.batches.createErr = errStubNotFound
	_, err := f.svc.Complete(context.Background(), f.user, list.ID, dto.CompleteListRequest{AutoUpdateStock: true})
	require.Error(t, err)
	assert.Equal(t, model.ListActive, list.Status)
	assert.Nil(t, list.CompletedAt)

	// Clearing the fault lets the same completion go through.
	f.batches.createErr = nil
	res, err := f.svc.Complete(context.Background(), f.user, list.ID, dto.CompleteListRequest{AutoUpdateStock: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.BatchesCreated)
	assert.Equal(t, model.ListCompleted, list.Status)
}

func TestCompleteWithoutStockUpdate(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	list := f.list(model.ListActive)
	require.NoError(t, f.lists.CreateItem(context.Background(), &model.ShoppingListItem{
		ShoppingListID: list.ID, ProductID: milk.ID,
		SuggestedQuantity: decimal.NewFromInt(2), IsChecked: true,
	}))

	res, err := f.svc.Complete(context.Background(), f.user, list.ID, dto.CompleteListRequest{})
	require.NoError(t, err)
	assert.False(t, res.StockUpdated)
	assert.Equal(t, 0, res.BatchesCreated)
	assert.Empty(t, f.movements.movements)
}

func TestCompleteRejectsClosedLists(t *testing.T) {
	f := newShoppingFixture()
	for _, status := range []string{model.ListCompleted, model.ListArchived} {
		l := f.list(status)
		_, err := f.svc.Complete(context.Background(), f.user, l.ID, dto.CompleteListRequest{AutoUpdateStock: true})
		assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", status)
	}
}

func TestDeleteCompletedListRejected(t *testing.T) {
	f := newShoppingFixture()
	l := f.list(model.ListCompleted)
	err := f.svc.DeleteList(context.Background(), f.user.ID, l.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// ── Items ────────────────────────────────────────────────────────────────────

func TestAddItemDuplicateProduct(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	list := f.list(model.ListDraft)

	req := dto.AddItemRequest{ProductID: milk.ID.String(), Quantity: "2"}
	_, err := f.svc.AddItem(context.Background(), f.user.ID, list.ID, req)
	require.NoError(t, err)

	_, err = f.svc.AddItem(context.Background(), f.user.ID, list.ID, req)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAddItemToClosedList(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	for _, status := range []string{model.ListCompleted, model.ListArchived} {
		l := f.list(status)
		_, err := f.svc.AddItem(context.Background(), f.user.ID, l.ID,
			dto.AddItemRequest{ProductID: milk.ID.String(), Quantity: "1"})
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestToggleCheck(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	list := f.list(model.ListActive)
	item := &model.ShoppingListItem{
		ShoppingListID: list.ID, ProductID: milk.ID,
		SuggestedQuantity: decimal.NewFromInt(2),
	}
	require.NoError(t, f.lists.CreateItem(context.Background(), item))

	resp, err := f.svc.ToggleCheck(context.Background(), f.user.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsChecked)

	resp, err = f.svc.ToggleCheck(context.Background(), f.user.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsChecked)
}

func TestSetActualsChecksItem(t *testing.T) {
	f := newShoppingFixture()
	milk := f.product("Milk", "2", "0", true)
	list := f.list(model.ListActive)
	item := &model.ShoppingListItem{
		ShoppingListID: list.ID, ProductID: milk.ID,
		SuggestedQuantity: decimal.NewFromInt(2),
	}
	require.NoError(t, f.lists.CreateItem(context.Background(), item))

	resp, err := f.svc.SetActuals(context.Background(), f.user.ID, item.ID, dto.SetActualsRequest{
		ActualQuantity: strPtr("1,75"),
		ActualCost:     strPtr("4.20"),
	})
	require.NoError(t, err)
	assert.True(t, resp.IsChecked, "recording actuals checks the item off")
	require.NotNil(t, resp.ActualQuantity)
	assert.True(t, resp.ActualQuantity.Equal(decimal.RequireFromString("1.75")))
	require.NotNil(t, resp.ActualCost)
	assert.True(t, resp.ActualCost.Equal(decimal.RequireFromString("4.2")))
}

func TestListsAreOwnerScoped(t *testing.T) {
	f := newShoppingFixture()
	foreign := &model.ShoppingList{UserID: uuid.New(), Title: "Not yours", Status: model.ListActive}
	require.NoError(t, f.lists.CreateList(context.Background(), foreign))

	_, err := f.svc.GetList(context.Background(), f.user.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
