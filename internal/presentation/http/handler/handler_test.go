package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/infrastructure/importer"
	"github.com/sangkips/order-reconciler/internal/presentation/http/handler"
	"github.com/sangkips/order-reconciler/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type testApp struct {
	router  *gin.Engine
	orders  *testutil.OrderStore
	reports *testutil.PaymentReportStore
	users   *testutil.UserStore
	courier *testutil.FakeCourierClient
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{
		orders:  testutil.NewOrderStore(),
		reports: testutil.NewPaymentReportStore(),
		users: testutil.NewUserStore(
			entity.User{UID: "agent-1", UserName: "Rahim"},
			entity.User{UID: "agent-2", UserName: "Karim"},
		),
		courier: &testutil.FakeCourierClient{
			ConsignmentID: "RDX-900",
			Status:        "delivered",
			AreaList:      []entity.CourierArea{{ID: 7, Name: "Mirpur"}},
		},
	}

	log := zap.NewNop()
	reconciler := service.NewReconciliationService(app.orders, app.reports, log, false)
	orderService := service.NewOrderService(app.orders, reconciler, log)
	mergeService := service.NewMergeService(app.orders, log)
	dispatchService := service.NewDispatchService(app.orders, map[enum.Courier]service.CourierClient{enum.CourierRedx: app.courier}, log)
	paymentReports := service.NewPaymentReportService(app.reports, importer.NewXLSXReader(), log)
	reportService := service.NewReportService(app.orders, app.users, log, time.UTC)

	orders := handler.NewOrderHandler(orderService, mergeService, dispatchService)
	couriers := handler.NewCourierHandler(dispatchService, paymentReports, reconciler, 1<<20)
	reports := handler.NewReportHandler(reportService)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/orders", orders.List)
	v1.POST("/orders", orders.Create)
	v1.POST("/orders/exchange", orders.CreateExchange)
	v1.GET("/orders/check-invoice", orders.CheckInvoice)
	v1.POST("/orders/find", orders.Find)
	v1.GET("/orders/assigned/:userId", orders.ListAssigned)
	v1.POST("/orders/bulk-upload", orders.BulkUpload)
	v1.POST("/orders/bulk-assign", orders.BulkAssign)
	v1.POST("/orders/mark-printed", orders.MarkPrinted)
	v1.POST("/orders/mark-exported", orders.MarkExported)
	v1.POST("/orders/bulk-update-status", orders.BulkUpdateStatus)
	v1.GET("/orders/:id", orders.Get)
	v1.PUT("/orders/:id", orders.UpdateStatus)
	v1.PATCH("/orders/:id/logistic-status", orders.UpdateLogisticStatus)
	v1.POST("/orders/:id/dispatch", orders.Dispatch)
	v1.GET("/couriers/:courier/status/:trackingId", couriers.Status)
	v1.GET("/couriers/:courier/areas", couriers.Areas)
	v1.POST("/couriers/:courier/payment-reports", couriers.UploadPaymentReport)
	v1.POST("/couriers/:courier/reconcile", couriers.Reconcile)
	v1.POST("/reports/date-wise", reports.DateWise)
	v1.POST("/reports/call-center-summary", reports.CallCenterSummary)
	v1.GET("/reports/stock-out", reports.StockOut)
	app.router = r

	return app
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return a.serve(t, req)
}

func (a *testApp) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
