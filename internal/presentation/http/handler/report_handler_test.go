package handler_test

import (
	"net/http"
	"testing"

	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportHandler_DateWise(t *testing.T) {
	app := newTestApp(t)
	app.orders.Seed(
		testutil.Order("INV-1", enum.OrderStatusPending),
		testutil.Order("INV-2", enum.OrderStatusCancel),
	)

	w, env := app.do(t, http.MethodPost, "/api/v1/reports/date-wise", map[string]string{
		"start_date": "2000-01-01",
		"end_date":   "2999-12-31",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	counts := decode[service.StatusCounts](t, env.Data)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.ByStatus[enum.OrderStatusCancel])
	assert.Equal(t, 0, counts.ByStatus[enum.OrderStatusStockOut])

	w, env = app.do(t, http.MethodPost, "/api/v1/reports/date-wise", map[string]string{"start_date": "2024-01-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, string(env.Errors), "end_date")
}

func TestReportHandler_CallCenterSummary(t *testing.T) {
	app := newTestApp(t)
	assigned := testutil.Order("INV-1", enum.OrderStatusNoAnswer)
	assigned.AssignedTo = "agent-2"
	app.orders.Seed(assigned, testutil.Order("INV-2", enum.OrderStatusPending))

	w, env := app.do(t, http.MethodPost, "/api/v1/reports/call-center-summary", map[string]string{
		"start_date": "2000-01-01",
		"end_date":   "2999-12-31",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[[]service.AgentSummary](t, env.Data)
	require.Len(t, summary, 1)
	assert.Equal(t, "Karim", summary[0].UserName)
	assert.Equal(t, 1, summary[0].TotalAssigned)
	assert.Equal(t, 1, summary[0].ByStatus[enum.OrderStatusNoAnswer])
}

func TestReportHandler_StockOut(t *testing.T) {
	app := newTestApp(t)
	app.orders.Seed(
		testutil.Order("INV-1", enum.OrderStatusStockOut, testutil.Line("P1", "S1", 2, "10"), testutil.Line("P1", "S2", 1, "10")),
		testutil.Order("INV-2", enum.OrderStatusStockOut, testutil.Line("P1", "S1", 3, "10")),
		testutil.Order("INV-3", enum.OrderStatusPending, testutil.Line("P1", "S1", 9, "10")),
	)

	w, env := app.do(t, http.MethodGet, "/api/v1/reports/stock-out", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	groups := decode[[]service.StockOutGroup](t, env.Data)
	require.Len(t, groups, 1)
	assert.Equal(t, service.StockOutGroup{ParentSku: "P1", OrderQuantity: 2, TotalQuantity: 6}, groups[0])
}
