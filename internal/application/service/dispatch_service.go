package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"go.uber.org/zap"
)

// CourierClient talks to one courier's parcel API.
type CourierClient interface {
	// Dispatch books a parcel for the order and returns the courier's consignment id.
	Dispatch(ctx context.Context, order *entity.Order, area string, areaID int) (string, error)
	FetchStatus(ctx context.Context, trackingID string) (string, error)
}

// AreaLister is implemented by courier clients that can list delivery areas.
type AreaLister interface {
	Areas(ctx context.Context, district string) ([]entity.CourierArea, error)
}

// DispatchInput names the courier delivery area for a parcel.
type DispatchInput struct {
	Area   string `json:"area" validate:"required"`
	AreaID int    `json:"area_id" validate:"required,min=1"`
}

// DispatchService hands orders to courier APIs. The courier call and the local
// write are not atomic: if the write loses a race the parcel is still booked
// and the conflict is reported to the caller.
type DispatchService struct {
	orderRepo repository.OrderRepository
	clients   map[enum.Courier]CourierClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(orderRepo repository.OrderRepository, clients map[enum.Courier]CourierClient, logger *zap.Logger) *DispatchService {
	return &DispatchService{
		orderRepo: orderRepo,
		clients:   clients,
		logger:    logger,
		now:       time.Now,
	}
}

// SendToCourier books the order with the courier named by its status, then
// stores the consignment id and marks the logistic status with the courier.
func (s *DispatchService) SendToCourier(ctx context.Context, orderID uuid.UUID, input *DispatchInput) (*entity.Order, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	courier, ok := order.Status.Courier()
	if !ok {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "order is not assigned to a courier"}})
	}
	client, err := s.client(courier)
	if err != nil {
		return nil, err
	}

	consignmentID, err := client.Dispatch(ctx, order, strings.TrimSpace(input.Area), input.AreaID)
	if err != nil {
		s.logger.Error("courier dispatch failed", zap.String("courier", courier.String()), zap.String("invoice_id", order.InvoiceID), zap.Error(err))
		return nil, upstream(courier, err)
	}

	logistic := courier.LogisticStatus()
	changes := repository.OrderChanges{
		ConsignmentID:  &consignmentID,
		LogisticStatus: &logistic,
		UpdatedAt:      s.now(),
	}
	guard := repository.OrderGuard{Status: order.Status, LogisticStatus: order.LogisticStatus}
	applied, err := s.orderRepo.UpdateIf(ctx, order.ID, guard, changes)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.logger.Warn("order changed while dispatching, consignment not stored",
			zap.String("invoice_id", order.InvoiceID),
			zap.String("consignment_id", consignmentID),
		)
		return nil, apperror.NewConflictError("Order changed while dispatching; consignment " + consignmentID + " was booked")
	}
	changes.Apply(order)
	order.Version++

	s.logger.Info("order dispatched",
		zap.String("courier", courier.String()),
		zap.String("invoice_id", order.InvoiceID),
		zap.String("consignment_id", consignmentID),
	)
	return order, nil
}

// CourierStatus asks the courier for the current state of a parcel.
func (s *DispatchService) CourierStatus(ctx context.Context, courier enum.Courier, trackingID string) (string, error) {
	if strings.TrimSpace(trackingID) == "" {
		return "", apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("tracking_id")})
	}
	client, err := s.client(courier)
	if err != nil {
		return "", err
	}
	status, err := client.FetchStatus(ctx, trackingID)
	if err != nil {
		return "", upstream(courier, err)
	}
	return status, nil
}

// CourierAreas lists the courier's delivery areas in a district, giving the
// area ids a dispatch needs.
func (s *DispatchService) CourierAreas(ctx context.Context, courier enum.Courier, district string) ([]entity.CourierArea, error) {
	if strings.TrimSpace(district) == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("district_name")})
	}
	client, err := s.client(courier)
	if err != nil {
		return nil, err
	}
	lister, ok := client.(AreaLister)
	if !ok {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "courier", Message: courier.String() + " has no area lookup"}})
	}
	areas, err := lister.Areas(ctx, district)
	if err != nil {
		s.logger.Error("courier area lookup failed", zap.String("courier", courier.String()), zap.String("district", district), zap.Error(err))
		return nil, upstream(courier, err)
	}
	return areas, nil
}

func (s *DispatchService) client(courier enum.Courier) (CourierClient, error) {
	client, ok := s.clients[courier]
	if !ok || client == nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "courier", Message: courier.String() + " has no API integration"}})
	}
	return client, nil
}

func upstream(courier enum.Courier, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewUpstreamUnavailableError(courier.String(), err)
}
