package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetTeacherDashboard returns the caller's counters and latest submissions
// @Summary Teacher dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.TeacherDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard [get]
func (h *DashboardHandler) GetTeacherDashboard(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	dash, err := h.service.Teacher(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetAdminStats
// @Summary System-wide counters
// @Tags admin
// @Produce json
// @Success 200 {object} repositories.AdminCounts
// @Failure 403 {object} ErrorResponse "Admin only"
// @Router /admin/stats [get]
func (h *DashboardHandler) GetAdminStats(c *gin.Context) {
	stats, err := h.service.Admin(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) ListUsers(c *gin.Context) {
	var query services.PageQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.service.ListUsers(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
