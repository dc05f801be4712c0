package handler

import (
	"net/http"
	"strconv"

	"pantrio/internal/dto"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Create godoc
// @Summary Create a catalog product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateProductRequest true "Product"
// @Success 201 {object} dto.ProductResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List products with derived stock state
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param name query string false "Filter by name substring"
// @Param category_id query string false "Filter by category UUID"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 100)"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	filter := dto.ProductFilter{
		Name:       c.Query("name"),
		CategoryID: c.Query("category_id"),
		Page:       intQuery(c, "page"),
		Limit:      intQuery(c, "limit"),
	}
	products, total, err := h.svc.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products, "total": total})
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NeedingRestock godoc
// @Summary Products whose stock is exhausted or below threshold
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RestockState
// @Router /v1/products/needing-restock [get]
func (h *ProductsHandler) NeedingRestock(c *gin.Context) {
	states, err := h.svc.NeedingRestock(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, states)
}

func (h *ProductsHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateLocation(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) ListLocations(c *gin.Context) {
	resp, err := h.svc.ListLocations(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func intQuery(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}
