package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/request"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/response"
)

// ReportHandler handles dashboard aggregations
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// DateWise counts orders created in a date range, per status and per flag
func (h *ReportHandler) DateWise(c *gin.Context) {
	var req request.DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	r, err := h.reportService.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	counts, err := h.reportService.AggregateStatusCounts(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Report generated successfully", counts)
}

// CallCenterSummary counts each agent's orders touched in a date range
func (h *ReportHandler) CallCenterSummary(c *gin.Context) {
	var req request.DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	r, err := h.reportService.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.reportService.AggregateAgentSummary(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Report generated successfully", summary)
}

// StockOut groups stocked-out orders by parent sku
func (h *ReportHandler) StockOut(c *gin.Context) {
	groups, err := h.reportService.AggregateStockOut(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Report generated successfully", groups)
}
