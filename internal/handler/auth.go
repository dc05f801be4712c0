package handler

import (
	"net/http"

	"pantrio/internal/apierror"
	"pantrio/internal/dto"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Users Handler ────────────────────────────────────────────────────────────

type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UsersHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	resp, err := h.svc.ListUsers(c.Request.Context(), includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list users"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateUser(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UsersHandler) Reactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ReactivateUser(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's own profile and settings.
func (h *UsersHandler) Me(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserResponse{
		ID:                     user.ID.String(),
		Username:               user.Username,
		Name:                   user.Name,
		Email:                  user.Email,
		Role:                   user.Role,
		NotificationExpiryDays: user.NotificationExpiryDays,
		NotifyByEmail:          user.NotifyByEmail,
		Active:                 user.Active,
	})
}
