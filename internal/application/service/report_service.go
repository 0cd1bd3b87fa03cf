package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"github.com/sangkips/order-reconciler/pkg/utils"
	"go.uber.org/zap"
)

// StatusCounts summarises orders created in a date range.
type StatusCounts struct {
	Start    time.Time                `json:"start"`
	End      time.Time                `json:"end"`
	Total    int                      `json:"total"`
	ByStatus map[enum.OrderStatus]int `json:"by_status"`
	Printed  int                      `json:"printed"`
	Returned int                      `json:"returned"`
	Damaged  int                      `json:"damaged"`
	Partial  int                      `json:"partial"`
}

// StockOutGroup is the stock-out demand for one parent product.
type StockOutGroup struct {
	ParentSku     string `json:"parent_sku"`
	OrderQuantity int    `json:"order_quantity"`
	TotalQuantity int    `json:"total_quantity"`
}

// AgentSummary counts the orders an agent touched in a date range.
type AgentSummary struct {
	UID           string                   `json:"uid"`
	UserName      string                   `json:"user_name"`
	TotalAssigned int                      `json:"total_assigned"`
	ByStatus      map[enum.OrderStatus]int `json:"by_status"`
}

// ReportService aggregates orders for dashboards. It never writes.
type ReportService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	logger    *zap.Logger
	loc       *time.Location
}

// NewReportService creates a new report service. Calendar dates are read in loc.
func NewReportService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, logger *zap.Logger, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		logger:    logger,
		loc:       loc,
	}
}

// ParseRange reads a start and end date; the end covers its whole day.
func (s *ReportService) ParseRange(start, end string) (utils.DateRange, error) {
	var missing []apperror.FieldError
	if start == "" {
		missing = append(missing, apperror.MissingField("start_date"))
	}
	if end == "" {
		missing = append(missing, apperror.MissingField("end_date"))
	}
	if len(missing) > 0 {
		return utils.DateRange{}, apperror.NewValidationError(missing)
	}

	r, err := utils.ParseDateRange(start, end, s.loc)
	if err != nil {
		return utils.DateRange{}, apperror.NewValidationError([]apperror.FieldError{{Field: "date_range", Message: err.Error()}})
	}
	return r, nil
}

// AggregateStatusCounts counts orders created in r per status and outcome flag.
func (s *ReportService) AggregateStatusCounts(ctx context.Context, r utils.DateRange) (*StatusCounts, error) {
	orders, err := s.orderRepo.Scan(ctx, repository.OrderScanFilter{CreatedFrom: &r.Start, CreatedTo: &r.End})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}

	counts := &StatusCounts{Start: r.Start, End: r.End, ByStatus: emptyStatusCounts()}
	for i := range orders {
		o := &orders[i]
		counts.Total++
		counts.ByStatus[o.Status]++
		if o.MarkAsPrinted {
			counts.Printed++
		}
		switch o.LogisticStatus {
		case enum.LogisticStatusReturned:
			counts.Returned++
		case enum.LogisticStatusDamage:
			counts.Damaged++
		case enum.LogisticStatusPartial:
			counts.Partial++
		}
	}
	return counts, nil
}

// AggregateStockOut groups Stock Out orders by parent product. Lines without a
// parent sku are skipped. Groups are sorted by parent sku.
func (s *ReportService) AggregateStockOut(ctx context.Context) ([]StockOutGroup, error) {
	status := enum.OrderStatusStockOut
	orders, err := s.orderRepo.Scan(ctx, repository.OrderScanFilter{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("scan stock out orders: %w", err)
	}

	groups := map[string]*StockOutGroup{}
	for i := range orders {
		seen := map[string]bool{}
		for _, p := range orders[i].Products {
			if p.ParentSku == "" {
				s.logger.Debug("stock out line without parent sku", zap.String("invoice_id", orders[i].InvoiceID), zap.String("sku", p.Sku))
				continue
			}
			g, ok := groups[p.ParentSku]
			if !ok {
				g = &StockOutGroup{ParentSku: p.ParentSku}
				groups[p.ParentSku] = g
			}
			if !seen[p.ParentSku] {
				seen[p.ParentSku] = true
				g.OrderQuantity++
			}
			g.TotalQuantity += p.Qty
		}
	}

	out := make([]StockOutGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParentSku < out[j].ParentSku })
	return out, nil
}

// AggregateAgentSummary counts, per agent, the assigned orders updated in r.
// Agents with nothing in range are left out; the rest keep the user listing order.
func (s *ReportService) AggregateAgentSummary(ctx context.Context, r utils.DateRange) ([]AgentSummary, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	orders, err := s.orderRepo.Scan(ctx, repository.OrderScanFilter{UpdatedFrom: &r.Start, UpdatedTo: &r.End})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}

	byAgent := map[string][]int{}
	for i := range orders {
		if a := orders[i].AssignedTo; a != "" {
			byAgent[a] = append(byAgent[a], i)
		}
	}

	summaries := make([]AgentSummary, 0, len(users))
	for _, u := range users {
		idx := byAgent[u.UID]
		if len(idx) == 0 {
			continue
		}
		summary := AgentSummary{UID: u.UID, UserName: u.UserName, TotalAssigned: len(idx), ByStatus: emptyStatusCounts()}
		for _, i := range idx {
			summary.ByStatus[orders[i].Status]++
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func emptyStatusCounts() map[enum.OrderStatus]int {
	m := make(map[enum.OrderStatus]int, len(enum.OrderStatuses()))
	for _, st := range enum.OrderStatuses() {
		m[st] = 0
	}
	return m
}
