package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/request"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/response"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService    *service.OrderService
	mergeService    *service.MergeService
	dispatchService *service.DispatchService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, mergeService *service.MergeService, dispatchService *service.DispatchService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		mergeService:    mergeService,
		dispatchService: dispatchService,
	}
}

// List handles listing orders
func (h *OrderHandler) List(c *gin.Context) {
	result, err := h.orderService.ListOrders(c.Request.Context(), orderFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

// ListAssigned handles listing the orders assigned to one agent
func (h *OrderHandler) ListAssigned(c *gin.Context) {
	result, err := h.orderService.ListAssigned(c.Request.Context(), c.Param("userId"), orderFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

// Create handles creating an order
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// CreateExchange handles creating a replacement order for an earlier delivery
func (h *OrderHandler) CreateExchange(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateExchangeOrder(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Exchange order created successfully", order)
}

// Get handles getting a single order
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// CheckInvoice reports whether an invoice id is already taken
func (h *OrderHandler) CheckInvoice(c *gin.Context) {
	exists, err := h.orderService.InvoiceExists(c.Request.Context(), c.Query("invoice_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice checked", gin.H{"exists": exists})
}

// Find handles looking an order up by status and invoice or consignment id
func (h *OrderHandler) Find(c *gin.Context) {
	var req request.FindOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.FindOrder(c.Request.Context(), enum.OrderStatus(req.Status), req.InvoiceID, req.ConsignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// UpdateStatus handles an agent's status change together with any field edits
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req request.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.ApplyStatusChange(c.Request.Context(), id, enum.OrderStatus(req.Status), &req.StatusChangeInput)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order updated successfully", order)
}

// UpdateLogisticStatus handles a manually entered courier outcome
func (h *OrderHandler) UpdateLogisticStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req request.LogisticStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.UpdateLogisticStatus(c.Request.Context(), id, enum.LogisticStatus(*req.LogisticStatus), req.ReturnedProducts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Logistic status updated successfully", order)
}

// BulkUpload merges a batch of exported orders by invoice. It also serves the
// consignment upload, whose rows carry consignment ids and a courier status.
func (h *OrderHandler) BulkUpload(c *gin.Context) {
	var req request.BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	results, summary := h.mergeService.MergeOrders(c.Request.Context(), req.Orders)

	message := "Orders imported successfully"
	if summary.Failed > 0 {
		message = "Orders imported with errors"
	}
	response.OK(c, message, gin.H{
		"summary": summary,
		"results": results,
	})
}

// BulkAssign hands orders to an agent
func (h *OrderHandler) BulkAssign(c *gin.Context) {
	var req request.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	n, err := h.orderService.BulkAssign(c.Request.Context(), req.IDs, req.AssignedTo)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders assigned successfully", gin.H{"updated": n})
}

// MarkPrinted flags orders whose invoices were printed
func (h *OrderHandler) MarkPrinted(c *gin.Context) {
	var req request.OrderIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	n, err := h.orderService.MarkPrinted(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders marked as printed", gin.H{"updated": n})
}

// MarkExported flags orders exported to a courier sheet
func (h *OrderHandler) MarkExported(c *gin.Context) {
	var req request.OrderIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	n, err := h.orderService.MarkExported(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders marked as exported", gin.H{"updated": n})
}

// BulkUpdateStatus moves orders selected by invoice to a status
func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var req request.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	n, err := h.orderService.BulkUpdateStatus(c.Request.Context(), req.InvoiceIDs, enum.OrderStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order statuses updated successfully", gin.H{"updated": n})
}

// Dispatch books the order with the courier named by its status
func (h *OrderHandler) Dispatch(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req service.DispatchInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.dispatchService.SendToCourier(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order sent to courier", order)
}
