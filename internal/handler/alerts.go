package handler

import (
	"net/http"

	"pantrio/internal/dto"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
)

type AlertsHandler struct {
	alerts service.AlertService
	auth   service.AuthService
}

func NewAlertsHandler(alerts service.AlertService, auth service.AuthService) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, auth: auth}
}

// List godoc
// @Summary List expiry alerts
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Param alert_type query string false "EXPIRING_SOON | EXPIRED"
// @Param is_read query bool false "Filter by read state"
// @Success 200 {array} dto.AlertResponse
// @Router /v1/alerts [get]
func (h *AlertsHandler) List(c *gin.Context) {
	filter := dto.AlertFilter{
		AlertType: c.Query("alert_type"),
		Page:      intQuery(c, "page"),
		Limit:     intQuery(c, "limit"),
	}
	if raw := c.Query("is_read"); raw != "" {
		isRead := raw == "true"
		filter.IsRead = &isRead
	}
	alerts, total, err := h.alerts.List(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "total": total})
}

func (h *AlertsHandler) Unread(c *gin.Context) {
	isRead := false
	alerts, total, err := h.alerts.List(c.Request.Context(), currentUserID(c), dto.AlertFilter{IsRead: &isRead})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "total": total})
}

func (h *AlertsHandler) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.alerts.MarkRead(c.Request.Context(), currentUserID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AlertsHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.alerts.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": updated})
}

// Scan godoc
// @Summary Run the expiry scan for the authenticated user
// @Description Idempotent per calendar day; re-running creates no duplicates.
// @Tags alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ScanResult
// @Router /v1/alerts/scan [post]
func (h *AlertsHandler) Scan(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	result, err := h.alerts.ScanExpiry(c.Request.Context(), user, intQuery(c, "days"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
