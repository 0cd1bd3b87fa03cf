package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/application/service"
)

// StatusChangeRequest represents an agent's status change with optional field edits
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	service.StatusChangeInput
}

// LogisticStatusRequest represents a manual courier outcome. An empty status
// clears a wrongly recorded outcome, so only presence is required.
type LogisticStatusRequest struct {
	LogisticStatus   *string                    `json:"logistic_status" binding:"required"`
	ReturnedProducts []service.ProductLineInput `json:"returned_products"`
}

// FindOrderRequest looks an order up by status plus invoice or consignment id
type FindOrderRequest struct {
	Status        string `json:"status" binding:"required"`
	InvoiceID     string `json:"invoice_id"`
	ConsignmentID string `json:"consignment_id"`
}

// OrderIDsRequest selects orders for a bulk flag update
type OrderIDsRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// BulkAssignRequest assigns orders to a call-center agent
type BulkAssignRequest struct {
	IDs        []uuid.UUID `json:"ids" binding:"required,min=1"`
	AssignedTo string      `json:"assigned_to" binding:"required"`
}

// BulkStatusRequest moves orders selected by invoice to a status
type BulkStatusRequest struct {
	InvoiceIDs []string `json:"invoice_ids" binding:"required,min=1"`
	Status     string   `json:"status" binding:"required"`
}

// BulkUploadRequest carries a batch of imported orders
type BulkUploadRequest struct {
	Orders []service.MergePayload `json:"orders" binding:"required,min=1"`
}
