package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/quantity"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// highPriorityBand: a below-threshold product is marked high priority when
// its remaining stock is under 30% of the threshold.
var highPriorityBand = decimal.NewFromFloat(0.3)

// ShoppingService manages shopping lists, the restock-driven generator, and
// the completion path that feeds purchases back into the stock ledger.
type ShoppingService interface {
	CreateList(ctx context.Context, userID uuid.UUID, req dto.CreateListRequest) (*dto.ListResponse, error)
	GetList(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error)
	ListLists(ctx context.Context, userID uuid.UUID, filter dto.ListFilter) ([]dto.ListResponse, int64, error)
	DeleteList(ctx context.Context, userID, listID uuid.UUID) error

	// ItemsByCategory returns a list's items bucketed by product category,
	// alphabetical by category with uncategorized products last.
	ItemsByCategory(ctx context.Context, userID, listID uuid.UUID) ([]dto.CategoryItemsGroup, error)

	Generate(ctx context.Context, user *model.User) (*dto.GenerateResult, error)
	Activate(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error)
	Complete(ctx context.Context, user *model.User, listID uuid.UUID, req dto.CompleteListRequest) (*dto.CompleteResult, error)
	Archive(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error)

	AddItem(ctx context.Context, userID, listID uuid.UUID, req dto.AddItemRequest) (*dto.ItemResponse, error)
	ToggleCheck(ctx context.Context, userID, itemID uuid.UUID) (*dto.ItemResponse, error)
	SetActuals(ctx context.Context, userID, itemID uuid.UUID, req dto.SetActualsRequest) (*dto.ItemResponse, error)
}

type shoppingService struct {
	lists    repository.ShoppingRepository
	products repository.ProductRepository
	batches  repository.BatchRepository
	stock    StockService
	clk      clock.Clock
}

func NewShoppingService(
	lists repository.ShoppingRepository,
	products repository.ProductRepository,
	batches repository.BatchRepository,
	stock StockService,
	clk clock.Clock,
) ShoppingService {
	return &shoppingService{lists: lists, products: products, batches: batches, stock: stock, clk: clk}
}

// ── List lifecycle ───────────────────────────────────────────────────────────

func (s *shoppingService) CreateList(ctx context.Context, userID uuid.UUID, req dto.CreateListRequest) (*dto.ListResponse, error) {
	list := &model.ShoppingList{
		UserID: userID,
		Title:  req.Title,
		Status: model.ListDraft,
		Notes:  req.Notes,
	}
	if err := s.lists.CreateList(ctx, list); err != nil {
		return nil, err
	}
	resp := listToResponse(list, nil)
	return &resp, nil
}

func (s *shoppingService) GetList(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	items, err := s.lists.ListItems(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	resp := listToResponse(list, items)
	return &resp, nil
}

func (s *shoppingService) ListLists(ctx context.Context, userID uuid.UUID, filter dto.ListFilter) ([]dto.ListResponse, int64, error) {
	lists, total, err := s.lists.ListLists(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ListResponse, len(lists))
	for i := range lists {
		// Listing omits item details but keeps the counters.
		out[i] = listToResponse(&lists[i], nil)
		out[i].TotalItems = len(lists[i].Items)
		out[i].CheckedItems = checkedCount(lists[i].Items)
		out[i].CompletionPercentage = lists[i].CompletionPercentage()
	}
	return out, total, nil
}

func (s *shoppingService) DeleteList(ctx context.Context, userID, listID uuid.UUID) error {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return err
	}
	if list.Status == model.ListCompleted {
		return ErrInvalidTransition
	}
	return s.lists.DeleteList(ctx, list.ID)
}

// Activate moves a draft list to active. Any other starting status is
// rejected.
func (s *shoppingService) Activate(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.Status != model.ListDraft {
		return nil, ErrInvalidTransition
	}
	list.Status = model.ListActive
	if err := s.lists.UpdateList(ctx, list); err != nil {
		return nil, err
	}
	return s.GetList(ctx, userID, listID)
}

// Archive is terminal and accepts active or completed lists.
func (s *shoppingService) Archive(ctx context.Context, userID, listID uuid.UUID) (*dto.ListResponse, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.Status != model.ListActive && list.Status != model.ListCompleted {
		return nil, ErrInvalidTransition
	}
	list.Status = model.ListArchived
	if err := s.lists.UpdateList(ctx, list); err != nil {
		return nil, err
	}
	return s.GetList(ctx, userID, listID)
}

// Complete closes a list and, when requested, turns every checked item into
// a new stock batch plus its IN movement. Unchecked items are left alone.
func (s *shoppingService) Complete(ctx context.Context, user *model.User, listID uuid.UUID, req dto.CompleteListRequest) (*dto.CompleteResult, error) {
	list, err := s.ownedList(ctx, user.ID, listID)
	if err != nil {
		return nil, err
	}
	if list.Status == model.ListArchived || list.Status == model.ListCompleted {
		return nil, ErrInvalidTransition
	}

	var items []model.ShoppingListItem
	if req.AutoUpdateStock {
		items, err = s.lists.ListItems(ctx, list.ID)
		if err != nil {
			return nil, err
		}
	}

	// Batches and the status flip commit together: a failure mid-purchase
	// leaves the list active with no batches, so completion can be retried
	// without double-counting stock.
	batchesCreated := 0
	today := s.clk.Today()
	now := s.clk.Now()
	note := fmt.Sprintf("Purchase - list: %s", list.Title)
	txErr := runTx(ctx, s.lists.DB(), func(tx *gorm.DB) error {
		for i := range items {
			it := items[i]
			if !it.IsChecked {
				continue
			}
			qty := it.SuggestedQuantity
			if it.ActualQuantity != nil {
				qty = *it.ActualQuantity
			}
			if !qty.IsPositive() {
				continue
			}
			var locationID *uuid.UUID
			if it.Product != nil {
				locationID = it.Product.DefaultLocationID
			}
			_, err := s.stock.CreateBatchForPurchase(tx, PurchaseBatchInput{
				ProductID:     it.ProductID,
				UserID:        user.ID,
				Quantity:      qty,
				LocationID:    locationID,
				PurchaseDate:  today,
				PurchasePrice: it.ActualCost,
				Note:          note,
			})
			if err != nil {
				return err
			}
			batchesCreated++
		}
		list.Status = model.ListCompleted
		list.CompletedAt = &now
		return s.lists.UpdateListTx(tx, list)
	})
	if txErr != nil {
		return nil, txErr
	}
	if batchesCreated > 0 {
		s.stock.InvalidateSummary(ctx, user.ID)
	}

	return &dto.CompleteResult{
		Status:         model.ListCompleted,
		StockUpdated:   req.AutoUpdateStock,
		BatchesCreated: batchesCreated,
	}, nil
}

// uncategorizedGroup names the bucket for items whose product carries no
// category.
const uncategorizedGroup = "uncategorized"

// ItemsByCategory buckets a list's items by their product's category name.
func (s *shoppingService) ItemsByCategory(ctx context.Context, userID, listID uuid.UUID) ([]dto.CategoryItemsGroup, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	items, err := s.lists.ListItems(ctx, list.ID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*dto.CategoryItemsGroup)
	var names []string
	for i := range items {
		it := &items[i]
		name := uncategorizedGroup
		color := ""
		if it.Product != nil && it.Product.Category != nil {
			name = it.Product.Category.Name
			color = it.Product.Category.Color
		}
		g, ok := groups[name]
		if !ok {
			g = &dto.CategoryItemsGroup{Category: name, Color: color}
			groups[name] = g
			names = append(names, name)
		}
		g.Items = append(g.Items, itemToResponse(it))
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == uncategorizedGroup || names[j] == uncategorizedGroup {
			return names[j] == uncategorizedGroup
		}
		return names[i] < names[j]
	})
	out := make([]dto.CategoryItemsGroup, len(names))
	for i, name := range names {
		out[i] = *groups[name]
	}
	return out, nil
}

// ── Generator ────────────────────────────────────────────────────────────────

// Generate builds an auto list from the restock evaluator: every auto-add
// product at or below its threshold gets one item sized to refill it. When
// nothing needs restocking the empty list is discarded, not kept.
func (s *shoppingService) Generate(ctx context.Context, user *model.User) (*dto.GenerateResult, error) {
	products, err := s.products.ListAutoAdd(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	list := &model.ShoppingList{
		UserID:          user.ID,
		Title:           fmt.Sprintf("Shopping list %s", s.clk.Today().Format("02/01/2006")),
		Status:          model.ListActive,
		IsAutoGenerated: true,
	}
	if err := s.lists.CreateList(ctx, list); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	totals, err := s.batches.TotalsByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	itemCount := 0
	for _, p := range products {
		stock := totals[p.ID]
		item := model.ShoppingListItem{
			ShoppingListID: list.ID,
			ProductID:      p.ID,
		}
		switch {
		case stock.IsZero():
			item.SuggestedQuantity = p.Threshold
			item.Priority = model.PriorityUrgent
			item.Reason = model.ReasonOutOfStock
		case stock.LessThan(p.Threshold):
			item.SuggestedQuantity = p.Threshold.Sub(stock)
			item.Reason = model.ReasonBelowThreshold
			if stock.LessThan(p.Threshold.Mul(highPriorityBand)) {
				item.Priority = model.PriorityHigh
			} else {
				item.Priority = model.PriorityNormal
			}
		default:
			continue
		}
		// An out-of-stock product with threshold 0 still gets an item: it
		// needs restocking even though the refill size works out to zero.
		if err := s.lists.CreateItem(ctx, &item); err != nil {
			return nil, err
		}
		itemCount++
	}

	if itemCount == 0 {
		if err := s.lists.DeleteList(ctx, list.ID); err != nil {
			return nil, err
		}
		return &dto.GenerateResult{Message: "all products sufficiently stocked", ListCreated: false}, nil
	}

	full, err := s.GetList(ctx, user.ID, list.ID)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateResult{
		Message:     "shopping list generated",
		ListCreated: true,
		ItemCount:   itemCount,
		List:        full,
	}, nil
}

// ── Items ────────────────────────────────────────────────────────────────────

func (s *shoppingService) AddItem(ctx context.Context, userID, listID uuid.UUID, req dto.AddItemRequest) (*dto.ItemResponse, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.Status == model.ListCompleted || list.Status == model.ListArchived {
		return nil, ErrInvalidTransition
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, newValidationError("product_id", "invalid id")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil || product.UserID != userID {
		return nil, ErrNotFound
	}

	exists, err := s.lists.ItemExists(ctx, list.ID, product.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	qty, err := quantity.ParsePositive(req.Quantity)
	if err != nil {
		return nil, newValidationError("quantity", err.Error())
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	item := &model.ShoppingListItem{
		ShoppingListID:    list.ID,
		ProductID:         product.ID,
		SuggestedQuantity: qty,
		Priority:          priority,
		Reason:            model.ReasonManual,
		Notes:             req.Notes,
	}
	if err := s.lists.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	item.Product = product
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *shoppingService) ToggleCheck(ctx context.Context, userID, itemID uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	item.IsChecked = !item.IsChecked
	if err := s.lists.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

// SetActuals records the purchased quantity and cost. Setting an actual
// quantity also checks the item off.
func (s *shoppingService) SetActuals(ctx context.Context, userID, itemID uuid.UUID, req dto.SetActualsRequest) (*dto.ItemResponse, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if req.ActualQuantity != nil {
		qty, err := quantity.ParsePositive(*req.ActualQuantity)
		if err != nil {
			return nil, newValidationError("actual_quantity", err.Error())
		}
		item.ActualQuantity = &qty
		item.IsChecked = true
	}
	if req.ActualCost != nil {
		cost, err := quantity.ParseOptional(*req.ActualCost)
		if err != nil {
			return nil, newValidationError("actual_cost", err.Error())
		}
		item.ActualCost = cost
	}

	if err := s.lists.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *shoppingService) ownedList(ctx context.Context, userID, listID uuid.UUID) (*model.ShoppingList, error) {
	list, err := s.lists.FindListByID(ctx, listID)
	if err != nil || list.UserID != userID {
		return nil, ErrNotFound
	}
	return list, nil
}

func (s *shoppingService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*model.ShoppingListItem, error) {
	item, err := s.lists.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.ownedList(ctx, userID, item.ShoppingListID); err != nil {
		return nil, ErrNotFound
	}
	return item, nil
}

func checkedCount(items []model.ShoppingListItem) int {
	n := 0
	for _, it := range items {
		if it.IsChecked {
			n++
		}
	}
	return n
}

func listToResponse(l *model.ShoppingList, items []model.ShoppingListItem) dto.ListResponse {
	resp := dto.ListResponse{
		ID:              l.ID.String(),
		Title:           l.Title,
		Status:          l.Status,
		IsAutoGenerated: l.IsAutoGenerated,
		Notes:           l.Notes,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
	if l.CompletedAt != nil {
		ca := l.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &ca
	}
	if items != nil {
		resp.TotalItems = len(items)
		resp.CheckedItems = checkedCount(items)
		if resp.TotalItems > 0 {
			resp.CompletionPercentage = resp.CheckedItems * 100 / resp.TotalItems
		}
		resp.Items = make([]dto.ItemResponse, len(items))
		for i := range items {
			resp.Items[i] = itemToResponse(&items[i])
		}
	}
	return resp
}

func itemToResponse(it *model.ShoppingListItem) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:                it.ID.String(),
		ProductID:         it.ProductID.String(),
		SuggestedQuantity: it.SuggestedQuantity,
		ActualQuantity:    it.ActualQuantity,
		Priority:          it.Priority,
		Reason:            it.Reason,
		EstimatedCost:     it.EstimatedCost,
		ActualCost:        it.ActualCost,
		IsChecked:         it.IsChecked,
		Notes:             it.Notes,
	}
	if it.Product != nil {
		resp.ProductName = it.Product.Name
		resp.Unit = it.Product.Unit
		if it.Product.Category != nil {
			resp.Category = it.Product.Category.Name
		}
	}
	return resp
}
