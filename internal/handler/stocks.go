package handler

import (
	"net/http"

	"pantrio/internal/dto"
	"pantrio/internal/repository"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StocksHandler struct {
	svc      service.StockService
	warnDays int
}

func NewStocksHandler(svc service.StockService, warnDays int) *StocksHandler {
	return &StocksHandler{svc: svc, warnDays: warnDays}
}

// CreateBatch godoc
// @Summary Register a purchased batch
// @Description Creates the batch and its initial IN movement atomically.
// @Tags stocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateBatchRequest true "Batch"
// @Success 201 {object} dto.BatchResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stocks/batches [post]
func (h *StocksHandler) CreateBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBatch(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StocksHandler) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetBatch(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ListBatches(c *gin.Context) {
	filter := repository.BatchFilter{
		Page:  intQuery(c, "page"),
		Limit: intQuery(c, "limit"),
	}
	if raw := c.Query("product_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err == nil {
			filter.ProductID = &pid
		}
	}
	if raw := c.Query("location_id"); raw != "" {
		lid, err := uuid.Parse(raw)
		if err == nil {
			filter.LocationID = &lid
		}
	}
	batches, total, err := h.svc.ListBatches(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches, "total": total})
}

// RecordMovement godoc
// @Summary Append a stock movement (IN, OUT or ADJUST)
// @Tags stocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stocks/movements [post]
func (h *StocksHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Consume godoc
// @Summary Consume a quantity of a product, nearest expiry first
// @Tags stocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product UUID"
// @Param body body dto.ConsumeRequest true "Quantity (accepts comma decimals)"
// @Success 200 {object} dto.ConsumeResult
// @Failure 409 {object} apierror.APIError
// @Router /v1/stocks/products/{id}/consume [post]
func (h *StocksHandler) Consume(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ConsumeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Consume(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ConsumeBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ConsumeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ConsumeBatch(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ListMovements(c *gin.Context) {
	filter := dto.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
		Days:      intQuery(c, "days"),
		Page:      intQuery(c, "page"),
		Limit:     intQuery(c, "limit"),
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary Stock dashboard aggregates
// @Tags stocks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.StockSummary
// @Router /v1/stocks/summary [get]
func (h *StocksHandler) Summary(c *gin.Context) {
	days := intQuery(c, "days")
	if days == 0 {
		days = h.warnDays
	}
	resp, err := h.svc.Summary(c.Request.Context(), currentUserID(c), days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ExpiringSoon(c *gin.Context) {
	days := intQuery(c, "days")
	if days == 0 {
		days = h.warnDays
	}
	resp, err := h.svc.ExpiringSoon(c.Request.Context(), currentUserID(c), days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) Expired(c *gin.Context) {
	resp, err := h.svc.Expired(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ToConsumeFirst(c *gin.Context) {
	resp, err := h.svc.ToConsumeFirst(c.Request.Context(), currentUserID(c), intQuery(c, "limit"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StocksHandler) ConsumptionStats(c *gin.Context) {
	resp, err := h.svc.ConsumptionStats(c.Request.Context(), currentUserID(c), intQuery(c, "days"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
