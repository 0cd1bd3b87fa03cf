// Package courier holds the HTTP clients for courier parcel APIs.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sangkips/order-reconciler/internal/config"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoTrackingID is returned when Redx accepts a parcel but sends no tracking id.
var ErrNoTrackingID = errors.New("redx response has no tracking_id")

// StatusError is a non-2xx answer from a courier API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("courier api returned %d: %s", e.StatusCode, e.Body)
}

// RedxClient calls the Redx open API. Calls are throttled by a shared limiter.
type RedxClient struct {
	baseURL      string
	token        string
	parcelWeight int
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewRedxClient creates a Redx client from configuration
func NewRedxClient(cfg *config.CourierConfig, logger *zap.Logger) *RedxClient {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RedxClient{
		baseURL:      strings.TrimRight(cfg.RedxBaseURL, "/"),
		token:        cfg.RedxToken,
		parcelWeight: cfg.ParcelWeight,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		logger:       logger.Named("redx"),
	}
}

type parcelRequest struct {
	CustomerName         string `json:"customer_name"`
	CustomerPhone        string `json:"customer_phone"`
	DeliveryArea         string `json:"delivery_area"`
	DeliveryAreaID       int    `json:"delivery_area_id"`
	CustomerAddress      string `json:"customer_address"`
	MerchantInvoiceID    string `json:"merchant_invoice_id"`
	CashCollectionAmount string `json:"cash_collection_amount"`
	ParcelWeight         int    `json:"parcel_weight"`
	Value                string `json:"value"`
}

// Dispatch creates a parcel for the order and returns its tracking id.
func (c *RedxClient) Dispatch(ctx context.Context, order *entity.Order, area string, areaID int) (string, error) {
	amount := order.GrandTotal.StringFixed(2)
	body := parcelRequest{
		CustomerName:         order.CustomerName,
		CustomerPhone:        order.PhoneNumber,
		DeliveryArea:         area,
		DeliveryAreaID:       areaID,
		CustomerAddress:      order.Address,
		MerchantInvoiceID:    order.InvoiceID,
		CashCollectionAmount: amount,
		ParcelWeight:         c.parcelWeight,
		Value:                amount,
	}

	var result struct {
		TrackingID string `json:"tracking_id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/parcel", body, &result); err != nil {
		return "", err
	}
	if result.TrackingID == "" {
		return "", ErrNoTrackingID
	}
	c.logger.Info("parcel created", zap.String("invoice_id", order.InvoiceID), zap.String("tracking_id", result.TrackingID))
	return result.TrackingID, nil
}

// FetchStatus returns the parcel status Redx reports for a tracking id.
func (c *RedxClient) FetchStatus(ctx context.Context, trackingID string) (string, error) {
	var result struct {
		Parcel struct {
			Status string `json:"status"`
		} `json:"parcel"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/parcel/info/"+url.PathEscape(trackingID), nil, &result); err != nil {
		return "", err
	}
	if result.Parcel.Status == "" {
		return "Status not found", nil
	}
	return result.Parcel.Status, nil
}

// Areas lists the delivery areas Redx serves in a district. Redx matches
// district names in lower case.
func (c *RedxClient) Areas(ctx context.Context, district string) ([]entity.CourierArea, error) {
	query := url.Values{"district_name": {strings.ToLower(strings.TrimSpace(district))}}
	var result struct {
		Areas []entity.CourierArea `json:"areas"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/areas?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.Areas == nil {
		return []entity.CourierArea{}, nil
	}
	return result.Areas, nil
}

func (c *RedxClient) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("redx rate limit: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode redx request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build redx request: %w", err)
	}
	req.Header.Set("API-ACCESS-TOKEN", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("redx %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read redx response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("redx request failed", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode redx response: %w", err)
	}
	return nil
}
