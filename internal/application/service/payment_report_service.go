package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"github.com/sangkips/order-reconciler/pkg/coerce"
	"go.uber.org/zap"
)

// SheetReader yields the data rows of the first sheet of a workbook. Keys are
// header cells lowercased with everything but letters and digits removed, so
// "COD Amount" arrives as "codamount".
type SheetReader interface {
	ReadRows(r io.Reader) ([]map[string]string, error)
}

// Normalised report headers.
const (
	colInvoice        = "invoice"
	colCodAmount      = "codamount"
	colShippingCharge = "shippingcharge"
	colStatus         = "status"
	colOrderID        = "orderid"
	colConsignmentID  = "consignmentid"
	colTrackingCode   = "trackingcode"
)

type reportRowInput struct {
	Invoice string `json:"invoice" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// RowError lists the problems with one sheet row. Row is the 1-based sheet
// row number, counting the header.
type RowError struct {
	Row    int                   `json:"row"`
	Errors []apperror.FieldError `json:"errors"`
}

// ImportResult describes an uploaded payment report.
type ImportResult struct {
	Courier  enum.Courier `json:"courier"`
	Accepted int          `json:"accepted"`
	Rejected []RowError   `json:"rejected"`
}

// PaymentReportService stores uploaded courier payment reports for reconciliation.
type PaymentReportService struct {
	reportRepo repository.PaymentReportRepository
	reader     SheetReader
	logger     *zap.Logger
}

// NewPaymentReportService creates a new payment report service
func NewPaymentReportService(reportRepo repository.PaymentReportRepository, reader SheetReader, logger *zap.Logger) *PaymentReportService {
	return &PaymentReportService{
		reportRepo: reportRepo,
		reader:     reader,
		logger:     logger,
	}
}

// ImportReport reads a workbook and appends its valid rows to the courier's
// report collection. Rows without an invoice or with an unknown status are
// rejected individually; amounts that are not numbers become zero.
func (s *PaymentReportService) ImportReport(ctx context.Context, courier enum.Courier, r io.Reader) (*ImportResult, error) {
	if !courier.Reconcilable() {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "courier", Message: "does not send payment reports"}})
	}

	sheet, err := s.reader.ReadRows(r)
	if err != nil {
		return nil, apperror.NewMalformedInputError("Unable to read the uploaded spreadsheet", err)
	}

	result := &ImportResult{Courier: courier, Rejected: []RowError{}}
	rows := make([]entity.PaymentReportRow, 0, len(sheet))
	for i, cells := range sheet {
		row, fieldErrors := toReportRow(courier, cells)
		if len(fieldErrors) > 0 {
			result.Rejected = append(result.Rejected, RowError{Row: i + 2, Errors: fieldErrors})
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if err := s.reportRepo.Append(ctx, rows); err != nil {
			return nil, fmt.Errorf("append %s payment report: %w", courier, err)
		}
	}
	result.Accepted = len(rows)

	s.logger.Info("payment report imported",
		zap.String("courier", courier.String()),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

func toReportRow(courier enum.Courier, cells map[string]string) (entity.PaymentReportRow, []apperror.FieldError) {
	in := reportRowInput{
		Invoice: strings.TrimSpace(cells[colInvoice]),
		Status:  strings.TrimSpace(cells[colStatus]),
	}
	if err := validateStruct(&in); err != nil {
		return entity.PaymentReportRow{}, apperror.GetAppError(err).Errors
	}
	status, ok := enum.ParseReportStatus(in.Status)
	if !ok {
		return entity.PaymentReportRow{}, []apperror.FieldError{{Field: "status", Message: "must be one of Returned, Completed, Partial"}}
	}

	return entity.PaymentReportRow{
		Courier:        courier,
		Invoice:        in.Invoice,
		CodAmount:      coerce.Decimal(cells[colCodAmount]),
		ShippingCharge: coerce.Decimal(cells[colShippingCharge]),
		Status:         status,
		OrderRef:       strings.TrimSpace(cells[colOrderID]),
		ConsignmentID:  strings.TrimSpace(cells[colConsignmentID]),
		TrackingCode:   strings.TrimSpace(cells[colTrackingCode]),
	}, nil
}
