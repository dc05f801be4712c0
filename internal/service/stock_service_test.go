package service

import (
	"context"
	"testing"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

type stockFixture struct {
	svc       StockService
	products  *stubProductRepo
	batches   *stubBatchRepo
	movements *stubMovementRepo
	userID    uuid.UUID
}

func newStockFixture() *stockFixture {
	products := newStubProductRepo()
	batches := newStubBatchRepo(products)
	movements := &stubMovementRepo{}
	return &stockFixture{
		svc:       NewStockService(batches, movements, products, nil, clock.Fixed(testNow)),
		products:  products,
		batches:   batches,
		movements: movements,
		userID:    uuid.New(),
	}
}

func (f *stockFixture) product(name string, threshold string) *model.Product {
	return f.products.add(&model.Product{
		UserID:    f.userID,
		Name:      name,
		Unit:      "piece",
		Threshold: decimal.RequireFromString(threshold),
	})
}

func (f *stockFixture) batch(p *model.Product, qty string, expiry *time.Time) *model.StockBatch {
	return f.batches.add(&model.StockBatch{
		ProductID:    p.ID,
		Quantity:     decimal.RequireFromString(qty),
		ExpiryDate:   expiry,
		PurchaseDate: testNow.AddDate(0, 0, -10),
	})
}

func day(offset int) *time.Time {
	d := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func TestCreateBatchRecordsInitialMovement(t *testing.T) {
	f := newStockFixture()
	p := f.product("Milk", "2")

	resp, err := f.svc.CreateBatch(context.Background(), f.userID, dto.CreateBatchRequest{
		ProductID:       p.ID.String(),
		InitialQuantity: "2,5", // comma decimal separator
		ExpiryDate:      strPtr("2026-08-25"),
	})
	require.NoError(t, err)

	assert.True(t, resp.Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "Milk", resp.ProductName)
	require.NotNil(t, resp.ExpiryDate)
	assert.Equal(t, "2026-08-25", *resp.ExpiryDate)

	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, model.MovementIn, m.Type)
	assert.True(t, m.Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "Initial stock", m.Note)

	// The stored batch carries the full initial quantity.
	batches, err := f.batches.ListAvailableByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].Quantity.Equal(decimal.RequireFromString("2.5")))
}

func TestCreateBatchRejectsBadQuantity(t *testing.T) {
	f := newStockFixture()
	p := f.product("Milk", "2")

	for _, qty := range []string{"0", "-1", "abc", ""} {
		_, err := f.svc.CreateBatch(context.Background(), f.userID, dto.CreateBatchRequest{
			ProductID:       p.ID.String(),
			InitialQuantity: qty,
		})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "quantity %q", qty)
	}
	assert.Empty(t, f.movements.movements)
}

func TestCreateBatchHidesForeignProduct(t *testing.T) {
	f := newStockFixture()
	other := f.products.add(&model.Product{UserID: uuid.New(), Name: "Not yours"})

	_, err := f.svc.CreateBatch(context.Background(), f.userID, dto.CreateBatchRequest{
		ProductID:       other.ID.String(),
		InitialQuantity: "1",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeAllocatesNearestExpiryFirst(t *testing.T) {
	f := newStockFixture()
	p := f.product("Yogurt", "1")
	// Inserted out of order on purpose: allocation must follow expiry, not
	// insertion. The never-expiring batch goes last.
	noExpiry := f.batch(p, "5", nil)
	late := f.batch(p, "3", day(20))
	soon := f.batch(p, "2", day(3))

	res, err := f.svc.Consume(context.Background(), f.userID, p.ID, dto.ConsumeRequest{Quantity: "4"})
	require.NoError(t, err)
	assert.True(t, res.Consumed.Equal(decimal.NewFromInt(4)))
	require.Len(t, res.Movements, 2)

	// Soonest-expiring batch drained fully, then the later one partially.
	assert.Equal(t, soon.ID.String(), *res.Movements[0].BatchID)
	assert.True(t, res.Movements[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, late.ID.String(), *res.Movements[1].BatchID)
	assert.True(t, res.Movements[1].Quantity.Equal(decimal.NewFromInt(2)))

	assert.True(t, soon.Quantity.IsZero())
	assert.True(t, late.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, noExpiry.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestConsumeFallsThroughToNeverExpiring(t *testing.T) {
	f := newStockFixture()
	p := f.product("Rice", "1")
	dated := f.batch(p, "1", day(5))
	undated := f.batch(p, "10", nil)

	res, err := f.svc.Consume(context.Background(), f.userID, p.ID, dto.ConsumeRequest{Quantity: "3"})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, dated.ID.String(), *res.Movements[0].BatchID)
	assert.Equal(t, undated.ID.String(), *res.Movements[1].BatchID)
	assert.True(t, undated.Quantity.Equal(decimal.NewFromInt(8)))
}

func TestConsumeInsufficientStock(t *testing.T) {
	f := newStockFixture()
	p := f.product("Eggs", "6")
	b := f.batch(p, "4", day(10))

	_, err := f.svc.Consume(context.Background(), f.userID, p.ID, dto.ConsumeRequest{Quantity: "5"})

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Requested.Equal(decimal.NewFromInt(5)))
	assert.True(t, ise.Available.Equal(decimal.NewFromInt(4)))

	// Nothing touched.
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(4)))
	assert.Empty(t, f.movements.movements)
}

func TestConsumeExactAvailability(t *testing.T) {
	f := newStockFixture()
	p := f.product("Flour", "1")
	a := f.batch(p, "1.5", day(2))
	b := f.batch(p, "0.5", day(9))

	res, err := f.svc.Consume(context.Background(), f.userID, p.ID, dto.ConsumeRequest{Quantity: "2"})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.True(t, a.Quantity.IsZero())
	assert.True(t, b.Quantity.IsZero())
}

func TestConsumeBatchCannotOverdraw(t *testing.T) {
	f := newStockFixture()
	p := f.product("Butter", "1")
	b := f.batch(p, "2", day(10))
	f.batch(p, "10", day(30)) // plenty elsewhere, but ConsumeBatch targets one batch

	_, err := f.svc.ConsumeBatch(context.Background(), f.userID, b.ID, dto.ConsumeRequest{Quantity: "3"})

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Available.Equal(decimal.NewFromInt(2)))
}

func TestRecordMovementOutRejectsNegativeResult(t *testing.T) {
	f := newStockFixture()
	p := f.product("Cheese", "1")
	b := f.batch(p, "2", nil)
	bid := b.ID.String()

	_, err := f.svc.RecordMovement(context.Background(), f.userID, dto.RecordMovementRequest{
		ProductID: p.ID.String(),
		BatchID:   &bid,
		Type:      model.MovementOut,
		Quantity:  "2.01",
	})
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(2)))
	assert.Empty(t, f.movements.movements)
}

func TestRecordMovementAdjustSetsAbsoluteQuantity(t *testing.T) {
	f := newStockFixture()
	p := f.product("Pasta", "1")
	b := f.batch(p, "7", nil)
	bid := b.ID.String()

	resp, err := f.svc.RecordMovement(context.Background(), f.userID, dto.RecordMovementRequest{
		ProductID: p.ID.String(),
		BatchID:   &bid,
		Type:      model.MovementAdjust,
		Quantity:  "3",
		Note:      "Recount after spill",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementAdjust, resp.Type)
	// ADJUST is an absolute set, not a delta.
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestMovementReplayFromLastAdjust(t *testing.T) {
	f := newStockFixture()
	p := f.product("Detergent", "1")
	b := f.batch(p, "5", nil)
	bid := b.ID.String()

	// Quantity after any sequence equals the last ADJUST replayed with the
	// IN/OUT deltas that follow it.
	steps := []struct {
		typ string
		qty string
	}{
		{model.MovementIn, "2"},      // 7
		{model.MovementOut, "3"},     // 4
		{model.MovementAdjust, "10"}, // 10
		{model.MovementOut, "2.5"},   // 7.5
		{model.MovementIn, "0,5"},    // 8
	}
	for _, st := range steps {
		_, err := f.svc.RecordMovement(context.Background(), f.userID, dto.RecordMovementRequest{
			ProductID: p.ID.String(),
			BatchID:   &bid,
			Type:      st.typ,
			Quantity:  st.qty,
		})
		require.NoError(t, err, "%s %s", st.typ, st.qty)
	}
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(8)))
	assert.Len(t, f.movements.byBatch(b.ID), 5, "every step is a ledger entry")
}

// Combined flow: a batch flagged by the expiry scan is then partially
// consumed; the flag and the restock state stay consistent.
func TestScanThenConsumeScenario(t *testing.T) {
	f := newStockFixture()
	p := f.product("Cream", "2")
	b := f.batch(p, "5", day(3))

	alerts := &stubAlertRepo{}
	user := &model.User{ID: f.userID, NotificationExpiryDays: 7}
	alertSvc := NewAlertService(alerts, f.batches, f.products, nil, clock.Fixed(testNow))

	scan, err := alertSvc.ScanExpiry(context.Background(), user, 7)
	require.NoError(t, err)
	require.Equal(t, 1, scan.AlertsCreated)
	assert.Equal(t, model.AlertExpiringSoon, alerts.alerts[0].AlertType)

	res, err := f.svc.Consume(context.Background(), f.userID, p.ID, dto.ConsumeRequest{Quantity: "4"})
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.True(t, res.Movements[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, b.Quantity.Equal(decimal.NewFromInt(1)))

	states, err := f.svc.EvaluateRestock(context.Background(), []model.Product{*p})
	require.NoError(t, err)
	assert.True(t, states[0].NeedsRestock, "1 left against a threshold of 2")
}

func TestRecordMovementBatchMustMatchProduct(t *testing.T) {
	f := newStockFixture()
	p1 := f.product("Tea", "1")
	p2 := f.product("Coffee", "1")
	b := f.batch(p2, "5", nil)
	bid := b.ID.String()

	_, err := f.svc.RecordMovement(context.Background(), f.userID, dto.RecordMovementRequest{
		ProductID: p1.ID.String(),
		BatchID:   &bid,
		Type:      model.MovementIn,
		Quantity:  "1",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "batch_id", verr.Field)
}

func TestRecordMovementWithoutBatchOnlyAppendsLedger(t *testing.T) {
	f := newStockFixture()
	p := f.product("Salt", "1")

	resp, err := f.svc.RecordMovement(context.Background(), f.userID, dto.RecordMovementRequest{
		ProductID: p.ID.String(),
		Type:      model.MovementOut,
		Quantity:  "1",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.BatchID)
	require.Len(t, f.movements.movements, 1)
}

func TestEvaluateRestock(t *testing.T) {
	f := newStockFixture()

	stocked := f.product("Stocked", "2")
	f.batch(stocked, "5", nil)

	atThreshold := f.product("AtThreshold", "3")
	f.batch(atThreshold, "3", nil)

	below := f.product("Below", "4")
	f.batch(below, "1", nil)

	empty := f.product("Empty", "0") // zero threshold, zero stock

	states, err := f.svc.EvaluateRestock(context.Background(),
		[]model.Product{*stocked, *atThreshold, *below, *empty})
	require.NoError(t, err)
	require.Len(t, states, 4)

	assert.False(t, states[0].NeedsRestock)
	// Equal to threshold is not below: strict comparison.
	assert.False(t, states[1].NeedsRestock)
	assert.False(t, states[1].IsBelowThreshold)
	assert.True(t, states[2].NeedsRestock)
	assert.True(t, states[2].IsBelowThreshold)
	// Zero stock needs restock even with a zero threshold.
	assert.True(t, states[3].NeedsRestock)
	assert.False(t, states[3].IsBelowThreshold)
}

func TestSummaryAggregates(t *testing.T) {
	f := newStockFixture()

	low := f.product("Low", "5")
	f.batch(low, "1", day(3)) // expiring within the warn window

	out := f.product("Out", "1")

	ok := f.product("Ok", "1")
	expired := f.batch(ok, "2", day(-1))
	price := decimal.NewFromInt(10)
	expired.PurchasePrice = &price
	f.batch(ok, "4", day(60))

	summary, err := f.svc.Summary(context.Background(), f.userID, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalProducts)
	assert.Equal(t, int64(3), summary.TotalBatches)
	assert.Equal(t, 1, summary.ProductsBelowThreshold)
	assert.Equal(t, 1, summary.ProductsOutOfStock)
	assert.Equal(t, int64(1), summary.BatchesExpiringSoon)
	assert.Equal(t, int64(1), summary.BatchesExpired)
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(10)))
	_ = out
}

func TestExpiringSoonWindow(t *testing.T) {
	f := newStockFixture()
	p := f.product("Ham", "1")
	in3 := f.batch(p, "1", day(3))
	f.batch(p, "1", day(10)) // outside a 7-day window
	f.batch(p, "1", day(-1)) // already expired, not "expiring"
	f.batch(p, "1", nil)

	got, err := f.svc.ExpiringSoon(context.Background(), f.userID, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in3.ID.String(), got[0].ID)
	require.NotNil(t, got[0].DaysUntilExpiry)
	assert.Equal(t, 3, *got[0].DaysUntilExpiry)
}

func TestGetBatchOwnership(t *testing.T) {
	f := newStockFixture()
	foreign := f.products.add(&model.Product{UserID: uuid.New(), Name: "Foreign"})
	b := f.batch(foreign, "1", nil)

	_, err := f.svc.GetBatch(context.Background(), f.userID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBatchForPurchase(t *testing.T) {
	f := newStockFixture()
	p := f.product("Bread", "1")

	batch, err := f.svc.CreateBatchForPurchase(nil, PurchaseBatchInput{
		ProductID:    p.ID,
		UserID:       f.userID,
		Quantity:     decimal.NewFromInt(2),
		PurchaseDate: testNow,
		Note:         "Purchase - list: Weekly shop",
	})
	require.NoError(t, err)
	assert.True(t, batch.Quantity.Equal(decimal.NewFromInt(2)))

	ms := f.movements.byBatch(batch.ID)
	require.Len(t, ms, 1)
	assert.Equal(t, model.MovementIn, ms[0].Type)
	assert.Equal(t, "Purchase - list: Weekly shop", ms[0].Note)
}

func strPtr(s string) *string { return &s }
