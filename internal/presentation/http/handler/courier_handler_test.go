package handler_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sangkips/order-reconciler/internal/application/service"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func reportWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, file []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if file != nil {
		part, err := mw.CreateFormFile("file", "report.xlsx")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCourierHandler_Status(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/v1/couriers/redx/status/T-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "delivered", decode[map[string]string](t, env.Data)["status"])

	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/dhl/status/T-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/steadfast/status/T-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	app.courier.Err = errors.New("connection reset")
	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/redx/status/T-1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCourierHandler_Areas(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/v1/couriers/redx/areas?district_name=Dhaka", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	areas := decode[map[string][]entity.CourierArea](t, env.Data)["areas"]
	require.Len(t, areas, 1)
	assert.Equal(t, 7, areas[0].ID)
	assert.Equal(t, []string{"Dhaka"}, app.courier.Districts)

	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/redx/areas", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/steadfast/areas?district_name=Dhaka", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	app.courier.Err = errors.New("connection reset")
	w, _ = app.do(t, http.MethodGet, "/api/v1/couriers/redx/areas?district_name=Dhaka", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCourierHandler_UploadThenReconcile(t *testing.T) {
	app := newTestApp(t)
	order := testutil.Order("INV-1", enum.OrderStatusSteadfast, testutil.Line("P1", "S1", 1, "900"))
	app.orders.Seed(order)

	file := reportWorkbook(t, [][]interface{}{
		{"Invoice", "COD Amount", "Shipping Charge", "Status"},
		{"INV-1", 900, 60, "Completed"},
		{"", 100, 60, "Completed"},
		{"INV-2", 100, 60, "Lost"},
	})

	w, env := app.serve(t, uploadRequest(t, "/api/v1/couriers/Steadfast/payment-reports", file))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	imported := decode[service.ImportResult](t, env.Data)
	assert.Equal(t, 1, imported.Accepted)
	require.Len(t, imported.Rejected, 2)
	assert.Equal(t, 3, imported.Rejected[0].Row)
	assert.Equal(t, 1, app.reports.Len(enum.CourierSteadfast))

	w, env = app.do(t, http.MethodPost, "/api/v1/couriers/steadfast/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[service.ReconcileResult](t, env.Data)
	assert.Equal(t, 1, result.Matched)

	stored := app.orders.Get(order.ID)
	assert.Equal(t, enum.LogisticStatusCompleted, stored.LogisticStatus)
	assert.Equal(t, "900", stored.CodAmount.String())
	assert.Equal(t, "60", stored.ShippingCharge.String())
}

func TestCourierHandler_UploadRejections(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.serve(t, uploadRequest(t, "/api/v1/couriers/redx/payment-reports", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.serve(t, uploadRequest(t, "/api/v1/couriers/redx/payment-reports", []byte("not a workbook")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	file := reportWorkbook(t, [][]interface{}{{"Invoice", "Status"}, {"INV-1", "Completed"}})
	w, _ = app.serve(t, uploadRequest(t, "/api/v1/couriers/pathaow/payment-reports", file))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, app.reports.Len(enum.CourierPathaow))
}

func TestCourierHandler_ReconcileRejectsPathaow(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/v1/couriers/pathaow/reconcile", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, env.Success)
}
