package positions

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/export"
)

// Handler handles HTTP requests for position computations and sessions
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new positions handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers position and session routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	positions := router.Group("/positions")
	{
		positions.POST("/compute", h.compute)
		positions.POST("/cashflow", h.cashFlow)
		positions.POST("/consolidate", h.consolidate)

		// What-if and decision helpers
		positions.POST("/simulate/new-sale", h.simulateNewSale)
		positions.POST("/simulate/sensitivity", h.sensitivity)
		positions.POST("/simulate/heatmap", h.heatmap)
		positions.POST("/simulate/carry", h.carry)
		positions.POST("/simulate/barter", h.barter)
		positions.POST("/simulate/parity", h.parity)
	}

	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:id/state", h.getState)
		sessions.PUT("/:id/state", h.updateState)
		sessions.POST("/:id/reset/:crop", h.resetCrop)
		sessions.POST("/:id/recalculate", h.recalculate)
		sessions.GET("/:id/report", h.getReport)
		sessions.GET("/:id/export", h.exportReport)
	}
}

// =====================================================
// Position Endpoints
// =====================================================

// compute handles POST /api/v1/positions/compute
func (h *Handler) compute(c *gin.Context) {
	var in calculation.Inputs
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Compute(in))
}

// cashFlow handles POST /api/v1/positions/cashflow
func (h *Handler) cashFlow(c *gin.Context) {
	var req CashFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.CashFlow(req))
}

// consolidate handles POST /api/v1/positions/consolidate
func (h *Handler) consolidate(c *gin.Context) {
	var req ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Consolidate(req))
}

func (h *Handler) simulateNewSale(c *gin.Context) {
	var req NewSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.SimulateNewSale(req))
}

func (h *Handler) sensitivity(c *gin.Context) {
	var req SensitivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": h.service.Sensitivity(req)})
}

func (h *Handler) heatmap(c *gin.Context) {
	var req HeatmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Heatmap(req))
}

func (h *Handler) carry(c *gin.Context) {
	var req CarryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Carry(req))
}

func (h *Handler) barter(c *gin.Context) {
	var req BarterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Barter(req))
}

func (h *Handler) parity(c *gin.Context) {
	var req calculation.ParityInputs
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.Parity(req))
}

// =====================================================
// Session Endpoints
// =====================================================

// createSession handles POST /api/v1/sessions
func (h *Handler) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, h.service.CreateSession(c.Request.Context()))
}

// getState handles GET /api/v1/sessions/:id/state
func (h *Handler) getState(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetState(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get session state", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateState handles PUT /api/v1/sessions/:id/state
func (h *Handler) updateState(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.service.UpdateState(c.Request.Context(), id, values)
	if err != nil {
		h.fail(c, "Failed to update session state", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// resetCrop handles POST /api/v1/sessions/:id/reset/:crop
func (h *Handler) resetCrop(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	resp, err := h.service.ResetCrop(c.Request.Context(), id, c.Param("crop"))
	if err != nil {
		h.fail(c, "Failed to reset crop", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// recalculate handles POST /api/v1/sessions/:id/recalculate
func (h *Handler) recalculate(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	report, err := h.service.Recalculate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to recalculate", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// getReport handles GET /api/v1/sessions/:id/report
func (h *Handler) getReport(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	report, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to build report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// exportReport handles GET /api/v1/sessions/:id/export
func (h *Handler) exportReport(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export format"})
		return
	}

	// Render fully before writing headers so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), id, format, &buf); err != nil {
		h.fail(c, "Failed to export report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName(format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// =====================================================
// Helper Methods
// =====================================================

func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownCrop):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("session_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
