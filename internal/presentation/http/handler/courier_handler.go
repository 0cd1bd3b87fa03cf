package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/response"
)

// CourierHandler handles courier tracking, payment report upload and reconciliation
type CourierHandler struct {
	dispatchService *service.DispatchService
	reportService   *service.PaymentReportService
	reconciler      *service.ReconciliationService
	uploadMaxSize   int64
}

// NewCourierHandler creates a new courier handler
func NewCourierHandler(dispatchService *service.DispatchService, reportService *service.PaymentReportService, reconciler *service.ReconciliationService, uploadMaxSize int64) *CourierHandler {
	return &CourierHandler{
		dispatchService: dispatchService,
		reportService:   reportService,
		reconciler:      reconciler,
		uploadMaxSize:   uploadMaxSize,
	}
}

// Status returns the courier's current status for a tracking id
func (h *CourierHandler) Status(c *gin.Context) {
	courier, ok := courierParam(c)
	if !ok {
		return
	}

	status, err := h.dispatchService.CourierStatus(c.Request.Context(), courier, c.Param("trackingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Courier status retrieved", gin.H{
		"courier":     courier,
		"tracking_id": c.Param("trackingId"),
		"status":      status,
	})
}

// Areas lists the courier's delivery areas for a district
func (h *CourierHandler) Areas(c *gin.Context) {
	courier, ok := courierParam(c)
	if !ok {
		return
	}

	areas, err := h.dispatchService.CourierAreas(c.Request.Context(), courier, c.Query("district_name"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Courier areas retrieved", gin.H{"areas": areas})
}

// UploadPaymentReport stores the rows of an uploaded xlsx payment report
func (h *CourierHandler) UploadPaymentReport(c *gin.Context) {
	courier, ok := courierParam(c)
	if !ok {
		return
	}

	if h.uploadMaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxSize)
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "A spreadsheet file is required")
		return
	}
	defer file.Close()

	result, err := h.reportService.ImportReport(c.Request.Context(), courier, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment report uploaded successfully", result)
}

// Reconcile applies the courier's stored payment report immediately
func (h *CourierHandler) Reconcile(c *gin.Context) {
	courier, ok := courierParam(c)
	if !ok {
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), courier)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Reconciliation completed", result)
}
