package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/quantity"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService is the ledger store and consumption allocator: batches,
// movements, restock evaluation, and the dashboard aggregates derived from
// them. All quantity mutations flow through recordMovementTx so the batch
// update and the movement insert commit or roll back together.
type StockService interface {
	CreateBatch(ctx context.Context, userID uuid.UUID, req dto.CreateBatchRequest) (*dto.BatchResponse, error)
	RecordMovement(ctx context.Context, userID uuid.UUID, req dto.RecordMovementRequest) (*dto.MovementResponse, error)
	Consume(ctx context.Context, userID, productID uuid.UUID, req dto.ConsumeRequest) (*dto.ConsumeResult, error)
	ConsumeBatch(ctx context.Context, userID, batchID uuid.UUID, req dto.ConsumeRequest) (*dto.ConsumeResult, error)

	EvaluateRestock(ctx context.Context, products []model.Product) ([]dto.RestockState, error)

	GetBatch(ctx context.Context, userID, batchID uuid.UUID) (*dto.BatchResponse, error)
	ListBatches(ctx context.Context, userID uuid.UUID, filter repository.BatchFilter) ([]dto.BatchResponse, int64, error)
	ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) ([]dto.BatchResponse, error)
	Expired(ctx context.Context, userID uuid.UUID) ([]dto.BatchResponse, error)
	ToConsumeFirst(ctx context.Context, userID uuid.UUID, limit int) ([]dto.BatchResponse, error)

	ListMovements(ctx context.Context, userID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	Summary(ctx context.Context, userID uuid.UUID, warnDays int) (*dto.StockSummary, error)
	ConsumptionStats(ctx context.Context, userID uuid.UUID, days int) ([]dto.ProductConsumption, error)

	// CreateBatchForPurchase is the shopping-completion bridge: same semantics
	// as CreateBatch but with already-parsed values. It joins the caller's
	// transaction so a whole purchase commits or rolls back as one unit.
	CreateBatchForPurchase(tx *gorm.DB, in PurchaseBatchInput) (*model.StockBatch, error)
	// InvalidateSummary drops the cached dashboard summary after writes that
	// bypass the service's own mutation paths.
	InvalidateSummary(ctx context.Context, userID uuid.UUID)
}

// PurchaseBatchInput carries the values list completion feeds back into the
// ledger for one checked item.
type PurchaseBatchInput struct {
	ProductID     uuid.UUID
	UserID        uuid.UUID
	Quantity      decimal.Decimal
	LocationID    *uuid.UUID
	PurchaseDate  time.Time
	PurchasePrice *decimal.Decimal
	Note          string
}

type stockService struct {
	batches   repository.BatchRepository
	movements repository.MovementRepository
	products  repository.ProductRepository
	rdb       *redis.Client
	clk       clock.Clock
}

func NewStockService(
	batches repository.BatchRepository,
	movements repository.MovementRepository,
	products repository.ProductRepository,
	rdb *redis.Client,
	clk clock.Clock,
) StockService {
	return &stockService{batches: batches, movements: movements, products: products, rdb: rdb, clk: clk}
}

// ── Ledger store ─────────────────────────────────────────────────────────────

// CreateBatch opens a batch at quantity zero and immediately records one IN
// movement for the initial quantity, inside a single transaction. This is the
// only sanctioned way to introduce new stock with a paired audit trail.
func (s *stockService) CreateBatch(ctx context.Context, userID uuid.UUID, req dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, newValidationError("product_id", "invalid id")
	}
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	qty, err := quantity.ParsePositive(req.InitialQuantity)
	if err != nil {
		return nil, newValidationError("initial_quantity", err.Error())
	}

	var locationID *uuid.UUID
	if req.LocationID != nil {
		lid, err := uuid.Parse(*req.LocationID)
		if err != nil {
			return nil, newValidationError("location_id", "invalid id")
		}
		locationID = &lid
	}

	purchaseDate := s.clk.Today()
	if req.PurchaseDate != nil {
		purchaseDate, err = time.Parse("2006-01-02", *req.PurchaseDate)
		if err != nil {
			return nil, newValidationError("purchase_date", "expected YYYY-MM-DD")
		}
	}
	var expiryDate *time.Time
	if req.ExpiryDate != nil {
		d, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, newValidationError("expiry_date", "expected YYYY-MM-DD")
		}
		expiryDate = &d
	}
	var price *decimal.Decimal
	if req.PurchasePrice != nil {
		price, err = quantity.ParseOptional(*req.PurchasePrice)
		if err != nil {
			return nil, newValidationError("purchase_price", err.Error())
		}
	}

	batch := &model.StockBatch{
		ProductID:     product.ID,
		Quantity:      decimal.Zero,
		LocationID:    locationID,
		ExpiryDate:    expiryDate,
		PurchaseDate:  purchaseDate,
		PurchasePrice: price,
		Supplier:      req.Supplier,
		Notes:         req.Notes,
	}

	txErr := runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		if err := s.batches.CreateTx(tx, batch); err != nil {
			return err
		}
		_, err := s.recordMovementTx(tx, product.ID, &batch.ID, model.MovementIn, qty, "Initial stock", userID)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateSummary(ctx, userID)
	batch.Quantity = qty
	resp := s.batchToResponse(batch)
	resp.ProductName = product.Name
	return &resp, nil
}

func (s *stockService) CreateBatchForPurchase(tx *gorm.DB, in PurchaseBatchInput) (*model.StockBatch, error) {
	if !in.Quantity.IsPositive() {
		return nil, newValidationError("quantity", "must be positive")
	}
	batch := &model.StockBatch{
		ProductID:     in.ProductID,
		Quantity:      decimal.Zero,
		LocationID:    in.LocationID,
		PurchaseDate:  in.PurchaseDate,
		PurchasePrice: in.PurchasePrice,
	}
	if err := s.batches.CreateTx(tx, batch); err != nil {
		return nil, err
	}
	if _, err := s.recordMovementTx(tx, in.ProductID, &batch.ID, model.MovementIn, in.Quantity, in.Note, in.UserID); err != nil {
		return nil, err
	}
	batch.Quantity = in.Quantity
	return batch, nil
}

func (s *stockService) InvalidateSummary(ctx context.Context, userID uuid.UUID) {
	s.invalidateSummary(ctx, userID)
}

// RecordMovement appends one ledger entry. When a batch is referenced, the
// type-specific effect (IN add, OUT subtract, ADJUST absolute set) is applied
// to that batch inside the same transaction.
func (s *stockService) RecordMovement(ctx context.Context, userID uuid.UUID, req dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, newValidationError("product_id", "invalid id")
	}
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	qty, err := quantity.ParsePositive(req.Quantity)
	if err != nil {
		return nil, newValidationError("quantity", err.Error())
	}

	var batchID *uuid.UUID
	if req.BatchID != nil {
		bid, err := uuid.Parse(*req.BatchID)
		if err != nil {
			return nil, newValidationError("batch_id", "invalid id")
		}
		batchID = &bid
	}

	var movement *model.StockMovement
	txErr := runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		m, err := s.recordMovementTx(tx, product.ID, batchID, req.Type, qty, req.Note, userID)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateSummary(ctx, userID)
	resp := movementToResponse(movement)
	return &resp, nil
}

// recordMovementTx applies the movement's effect to its batch (if any) and
// inserts the ledger row, all on the supplied transaction. The batch row is
// read FOR UPDATE so concurrent movements on the same batch serialize.
func (s *stockService) recordMovementTx(tx *gorm.DB, productID uuid.UUID, batchID *uuid.UUID, movementType string, qty decimal.Decimal, note string, userID uuid.UUID) (*model.StockMovement, error) {
	if !qty.IsPositive() {
		return nil, newValidationError("quantity", "must be positive")
	}

	if batchID != nil {
		batch, err := s.batches.FindByIDForUpdateTx(tx, *batchID)
		if err != nil {
			return nil, ErrNotFound
		}
		if batch.ProductID != productID {
			return nil, newValidationError("batch_id", "batch belongs to a different product")
		}

		var newQty decimal.Decimal
		switch movementType {
		case model.MovementIn:
			newQty = batch.Quantity.Add(qty)
		case model.MovementOut:
			newQty = batch.Quantity.Sub(qty)
			if newQty.IsNegative() {
				return nil, &InsufficientStockError{Requested: qty, Available: batch.Quantity}
			}
		case model.MovementAdjust:
			// Absolute correction: the movement's quantity becomes the batch
			// quantity. The positivity check above keeps batches non-negative.
			newQty = qty
		default:
			return nil, newValidationError("type", "must be IN, OUT or ADJUST")
		}

		if err := s.batches.SetQuantityTx(tx, batch.ID, newQty); err != nil {
			return nil, err
		}
	}

	movement := &model.StockMovement{
		ProductID:  productID,
		BatchID:    batchID,
		Type:       movementType,
		Quantity:   qty,
		OccurredAt: s.clk.Now(),
		Note:       note,
		UserID:     userID,
	}
	if err := s.movements.CreateTx(tx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// ── Consumption allocator ────────────────────────────────────────────────────

// Consume withdraws qty from a product's batches, nearest expiry first, one
// OUT movement per batch touched, all-or-nothing.
func (s *stockService) Consume(ctx context.Context, userID, productID uuid.UUID, req dto.ConsumeRequest) (*dto.ConsumeResult, error) {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	qty, err := quantity.ParsePositive(req.Quantity)
	if err != nil {
		return nil, newValidationError("quantity", err.Error())
	}

	batches, err := s.batches.ListAvailableByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	available := decimal.Zero
	for _, b := range batches {
		available = available.Add(b.Quantity)
	}
	if qty.GreaterThan(available) {
		return nil, &InsufficientStockError{Requested: qty, Available: available}
	}

	orderForConsumption(batches)

	note := req.Note
	if note == "" {
		note = "Consumption"
	}

	var created []dto.MovementResponse
	txErr := runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		remaining := qty
		for i := range batches {
			if !remaining.IsPositive() {
				break
			}
			// Re-read under lock: a concurrent consume may have drained this
			// batch since the pre-flight listing.
			batch, err := s.batches.FindByIDForUpdateTx(tx, batches[i].ID)
			if err != nil {
				return err
			}
			if !batch.Quantity.IsPositive() {
				continue
			}
			take := decimal.Min(batch.Quantity, remaining)
			m, err := s.recordMovementTx(tx, product.ID, &batch.ID, model.MovementOut, take, note, userID)
			if err != nil {
				return err
			}
			created = append(created, movementToResponse(m))
			remaining = remaining.Sub(take)
		}
		if remaining.IsPositive() {
			// Stock shrank between pre-flight and lock: abort the whole call.
			return &InsufficientStockError{Requested: qty, Available: qty.Sub(remaining)}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateSummary(ctx, userID)
	return &dto.ConsumeResult{Consumed: qty, Movements: created}, nil
}

// ConsumeBatch withdraws from a single known batch; fails if the batch alone
// cannot cover the quantity.
func (s *stockService) ConsumeBatch(ctx context.Context, userID, batchID uuid.UUID, req dto.ConsumeRequest) (*dto.ConsumeResult, error) {
	batch, err := s.ownedBatch(ctx, userID, batchID)
	if err != nil {
		return nil, err
	}
	qty, err := quantity.ParsePositive(req.Quantity)
	if err != nil {
		return nil, newValidationError("quantity", err.Error())
	}
	if qty.GreaterThan(batch.Quantity) {
		return nil, &InsufficientStockError{Requested: qty, Available: batch.Quantity}
	}

	note := req.Note
	if note == "" {
		note = "Consumption"
	}

	var created dto.MovementResponse
	txErr := runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		m, err := s.recordMovementTx(tx, batch.ProductID, &batch.ID, model.MovementOut, qty, note, userID)
		if err != nil {
			return err
		}
		created = movementToResponse(m)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateSummary(ctx, userID)
	return &dto.ConsumeResult{Consumed: qty, Movements: []dto.MovementResponse{created}}, nil
}

// orderForConsumption sorts batches into allocation order: batches with an
// expiry date first, soonest first, then never-expiring batches; ties broken
// by purchase date, then id, so the order is total and deterministic.
func orderForConsumption(batches []model.StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		return a.ID.String() < b.ID.String()
	})
}

// ── Restock evaluator ────────────────────────────────────────────────────────

// EvaluateRestock derives per-product stock state from the ledger. The
// threshold comparison is strict (<), and zero stock always needs restock
// regardless of threshold — a threshold of 0 still restocks an empty product.
func (s *stockService) EvaluateRestock(ctx context.Context, products []model.Product) ([]dto.RestockState, error) {
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	totals, err := s.batches.TotalsByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	states := make([]dto.RestockState, len(products))
	for i, p := range products {
		total := totals[p.ID] // zero value when the product has no batches
		below := total.LessThan(p.Threshold)
		states[i] = dto.RestockState{
			ProductID:        p.ID.String(),
			ProductName:      p.Name,
			TotalStock:       total,
			Threshold:        p.Threshold,
			IsBelowThreshold: below,
			NeedsRestock:     total.IsZero() || below,
		}
	}
	return states, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *stockService) GetBatch(ctx context.Context, userID, batchID uuid.UUID) (*dto.BatchResponse, error) {
	batch, err := s.ownedBatch(ctx, userID, batchID)
	if err != nil {
		return nil, err
	}
	resp := s.batchToResponse(batch)
	return &resp, nil
}

func (s *stockService) ListBatches(ctx context.Context, userID uuid.UUID, filter repository.BatchFilter) ([]dto.BatchResponse, int64, error) {
	batches, total, err := s.batches.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.batchesToResponses(batches), total, nil
}

func (s *stockService) ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) ([]dto.BatchResponse, error) {
	if days < 1 {
		days = 7
	}
	today := s.clk.Today()
	batches, err := s.batches.ListExpiring(ctx, userID, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return s.batchesToResponses(batches), nil
}

func (s *stockService) Expired(ctx context.Context, userID uuid.UUID) ([]dto.BatchResponse, error) {
	batches, err := s.batches.ListExpired(ctx, userID, s.clk.Today())
	if err != nil {
		return nil, err
	}
	return s.batchesToResponses(batches), nil
}

func (s *stockService) ToConsumeFirst(ctx context.Context, userID uuid.UUID, limit int) ([]dto.BatchResponse, error) {
	batches, err := s.batches.ListToConsumeFirst(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.batchesToResponses(batches), nil
}

func (s *stockService) ListMovements(ctx context.Context, userID uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	repoFilter := repository.MovementFilter{
		Type:  filter.Type,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, newValidationError("product_id", "invalid id")
		}
		repoFilter.ProductID = &pid
	}
	if filter.Days > 0 {
		since := s.clk.Now().AddDate(0, 0, -filter.Days)
		repoFilter.Since = &since
	}

	movements, total, err := s.movements.List(ctx, userID, repoFilter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovementResponse, len(movements))
	for i := range movements {
		data[i] = movementToResponse(&movements[i])
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}
	return &dto.MovementListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

const summaryCacheTTL = 60 * time.Second

// Summary aggregates the stock dashboard. Results are cached briefly in
// redis; any movement-producing operation invalidates the cache.
func (s *stockService) Summary(ctx context.Context, userID uuid.UUID, warnDays int) (*dto.StockSummary, error) {
	if warnDays < 1 {
		warnDays = 7
	}

	// Only the default warn window is cached; custom windows always recompute.
	cacheable := warnDays == 7
	cacheKey := summaryCacheKey(userID)
	if s.rdb != nil && cacheable {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var summary dto.StockSummary
			if json.Unmarshal([]byte(cached), &summary) == nil {
				return &summary, nil
			}
		}
	}

	products, err := s.products.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	states, err := s.EvaluateRestock(ctx, products)
	if err != nil {
		return nil, err
	}
	below, outOfStock := 0, 0
	for _, st := range states {
		if st.TotalStock.IsZero() {
			outOfStock++
		} else if st.IsBelowThreshold {
			below++
		}
	}

	today := s.clk.Today()
	liveBatches, err := s.batches.CountLive(ctx, userID)
	if err != nil {
		return nil, err
	}
	expiring, err := s.batches.CountExpiring(ctx, userID, today, today.AddDate(0, 0, warnDays))
	if err != nil {
		return nil, err
	}
	expired, err := s.batches.CountExpired(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	totalValue, err := s.batches.TotalPurchaseValue(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.StockSummary{
		TotalProducts:          int64(len(products)),
		TotalBatches:           liveBatches,
		ProductsBelowThreshold: below,
		ProductsOutOfStock:     outOfStock,
		BatchesExpiringSoon:    expiring,
		BatchesExpired:         expired,
		TotalValue:             totalValue,
	}

	if s.rdb != nil && cacheable {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, summaryCacheTTL).Err(); err != nil {
				log.Debug().Err(err).Msg("summary cache write failed")
			}
		}
	}
	return summary, nil
}

func (s *stockService) ConsumptionStats(ctx context.Context, userID uuid.UUID, days int) ([]dto.ProductConsumption, error) {
	if days < 1 {
		days = 30
	}
	since := s.clk.Now().AddDate(0, 0, -days)
	return s.movements.ConsumptionStats(ctx, userID, since, 10)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func summaryCacheKey(userID uuid.UUID) string { return "stock:summary:" + userID.String() }

func (s *stockService) invalidateSummary(ctx context.Context, userID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, summaryCacheKey(userID)).Err(); err != nil {
		log.Debug().Err(err).Msg("summary cache invalidation failed")
	}
}

// ownedProduct fetches a product and hides it behind ErrNotFound when the
// caller does not own it.
func (s *stockService) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil || product.UserID != userID {
		return nil, ErrNotFound
	}
	return product, nil
}

func (s *stockService) ownedBatch(ctx context.Context, userID, batchID uuid.UUID) (*model.StockBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, ErrNotFound
	}
	if _, err := s.ownedProduct(ctx, userID, batch.ProductID); err != nil {
		return nil, ErrNotFound
	}
	return batch, nil
}

func (s *stockService) batchToResponse(b *model.StockBatch) dto.BatchResponse {
	today := s.clk.Today()
	resp := dto.BatchResponse{
		ID:            b.ID.String(),
		ProductID:     b.ProductID.String(),
		Quantity:      b.Quantity,
		PurchaseDate:  b.PurchaseDate.Format("2006-01-02"),
		PurchasePrice: b.PurchasePrice,
		Supplier:      b.Supplier,
		Notes:         b.Notes,
		IsExpired:     b.IsExpired(today),
	}
	if b.Product != nil {
		resp.ProductName = b.Product.Name
	}
	if b.LocationID != nil {
		lid := b.LocationID.String()
		resp.LocationID = &lid
	}
	if b.ExpiryDate != nil {
		ed := b.ExpiryDate.Format("2006-01-02")
		resp.ExpiryDate = &ed
		resp.DaysUntilExpiry = b.DaysUntilExpiry(today)
	}
	return resp
}

func (s *stockService) batchesToResponses(batches []model.StockBatch) []dto.BatchResponse {
	out := make([]dto.BatchResponse, len(batches))
	for i := range batches {
		out[i] = s.batchToResponse(&batches[i])
	}
	return out
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:         m.ID.String(),
		ProductID:  m.ProductID.String(),
		Type:       m.Type,
		Quantity:   m.Quantity,
		OccurredAt: m.OccurredAt.Format(time.RFC3339),
		Note:       m.Note,
	}
	if m.BatchID != nil {
		bid := m.BatchID.String()
		resp.BatchID = &bid
	}
	return resp
}
