package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/internal/presentation/http/dto/response"
	"github.com/sangkips/order-reconciler/pkg/pagination"
)

// orderIDParam parses the :id path parameter, writing a 400 when it is not a UUID
func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

// courierParam parses the :courier path parameter in any letter case
func courierParam(c *gin.Context) (enum.Courier, bool) {
	courier, ok := enum.ParseCourier(c.Param("courier"))
	if !ok {
		response.BadRequest(c, "Unknown courier")
		return "", false
	}
	return courier, true
}

// orderFilter reads the list query string shared by the order listing endpoints
func orderFilter(c *gin.Context) *repository.OrderFilterParams {
	params := &repository.OrderFilterParams{
		Pagination: pagination.FromQuery(c.Query("page"), c.Query("per_page")),
		Search:     c.Query("search"),
		AssignedTo: c.Query("assigned_to"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if s := c.Query("status"); s != "" {
		status := enum.OrderStatus(s)
		params.Status = &status
	}
	return params
}
