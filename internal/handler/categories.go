package handler

import (
	"net/http"

	"pantrio/internal/dto"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoriesHandler struct{ svc service.CategoryService }

func NewCategoriesHandler(svc service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

// Create godoc
// @Summary Create a product category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/categories [post]
func (h *CategoriesHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryRequest
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
// @Summary List the caller's categories with product counts
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CategoryResponse
// @Router /v1/categories [get]
func (h *CategoriesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
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

// Delete godoc
// @Summary Delete a category
// @Description Rejected while products still reference the category.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category UUID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/categories/{id} [delete]
func (h *CategoriesHandler) Delete(c *gin.Context) {
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
