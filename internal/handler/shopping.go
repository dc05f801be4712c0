package handler

import (
	"fmt"
	"net/http"

	"pantrio/internal/dto"
	"pantrio/internal/infra"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
)

type ShoppingHandler struct {
	shopping service.ShoppingService
	auth     service.AuthService
}

func NewShoppingHandler(shopping service.ShoppingService, auth service.AuthService) *ShoppingHandler {
	return &ShoppingHandler{shopping: shopping, auth: auth}
}

func (h *ShoppingHandler) Create(c *gin.Context) {
	var req dto.CreateListRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.shopping.CreateList(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShoppingHandler) List(c *gin.Context) {
	filter := dto.ListFilter{
		Status: c.Query("status"),
		Page:   intQuery(c, "page"),
		Limit:  intQuery(c, "limit"),
	}
	if raw := c.Query("auto_generated"); raw != "" {
		auto := raw == "true"
		filter.AutoGenerated = &auto
	}
	lists, total, err := h.shopping.ListLists(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lists, "total": total})
}

func (h *ShoppingHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shopping.GetList(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShoppingHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.shopping.DeleteList(c.Request.Context(), currentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ItemsByCategory godoc
// @Summary List items grouped by product category
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Param id path string true "List UUID"
// @Success 200 {array} dto.CategoryItemsGroup
// @Router /v1/shopping-lists/{id}/by-category [get]
func (h *ShoppingHandler) ItemsByCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groups, err := h.shopping.ItemsByCategory(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Generate godoc
// @Summary Auto-generate a shopping list from products needing restock
// @Description Creates an active list with one item per auto-add product at or below threshold. Discards the list when nothing needs restocking.
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.GenerateResult
// @Router /v1/shopping-lists/generate [post]
func (h *ShoppingHandler) Generate(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	result, err := h.shopping.Generate(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ShoppingHandler) Activate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shopping.Activate(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary Complete a shopping list
// @Description Optionally converts every checked item into a stock batch with its IN movement.
// @Tags shopping-lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "List UUID"
// @Param body body dto.CompleteListRequest true "Completion options"
// @Success 200 {object} dto.CompleteResult
// @Failure 409 {object} apierror.APIError
// @Router /v1/shopping-lists/{id}/complete [post]
func (h *ShoppingHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteListRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	result, err := h.shopping.Complete(c.Request.Context(), user, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ShoppingHandler) Archive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shopping.Archive(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF streams a printable rendering of the list.
func (h *ShoppingHandler) PDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := h.shopping.GetList(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	pdf, err := infra.ShoppingListPDF(list)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "shopping-list-"+list.ID+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *ShoppingHandler) AddItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.shopping.AddItem(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShoppingHandler) ToggleCheck(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shopping.ToggleCheck(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShoppingHandler) SetActuals(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetActualsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.shopping.SetActuals(c.Request.Context(), currentUserID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
