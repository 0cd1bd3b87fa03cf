// Package testutil holds in-memory repositories and fixtures shared by tests.
// The stores honour the same conditional-update rules as the gorm repositories.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
)

// ErrInjected is returned by stores configured to fail.
var ErrInjected = errors.New("injected store failure")

// OrderStore is an in-memory repository.OrderRepository.
type OrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order
	seq    int

	// BeforeWrite, when set, runs before every conditional write with the
	// store unlocked, letting tests interleave a competing update.
	BeforeWrite func(id uuid.UUID)
	// FailWrites makes every write return ErrInjected.
	FailWrites bool
}

var _ repository.OrderRepository = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: map[uuid.UUID]*entity.Order{}}
}

// Seed stores orders as-is, assigning ids and timestamps when missing.
func (s *OrderStore) Seed(orders ...*entity.Order) {
	for _, o := range orders {
		_ = s.Create(context.Background(), o)
	}
}

// Get returns a copy of the stored order, or nil.
func (s *OrderStore) Get(id uuid.UUID) *entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return o.Clone()
	}
	return nil
}

// All returns copies of every stored order in creation order.
func (s *OrderStore) All() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *OrderStore) Create(_ context.Context, order *entity.Order) error {
	if s.FailWrites {
		return ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Version == 0 {
		order.Version = 1
	}
	s.seq++
	if order.CreatedAt.IsZero() {
		// Monotonic so creation order is stable even within one clock tick.
		order.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Microsecond)
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	return s.Get(id), nil
}

func (s *OrderStore) GetByInvoiceID(_ context.Context, invoiceID string) (*entity.Order, error) {
	return s.firstWhere(func(o *entity.Order) bool { return o.InvoiceID == invoiceID }), nil
}

func (s *OrderStore) FindByInvoiceAndStatus(_ context.Context, invoiceID string, status enum.OrderStatus) (*entity.Order, error) {
	return s.firstWhere(func(o *entity.Order) bool {
		return o.InvoiceID == invoiceID && o.Status == status
	}), nil
}

func (s *OrderStore) FindByConsignmentAndStatus(_ context.Context, consignmentID string, status enum.OrderStatus) (*entity.Order, error) {
	return s.firstWhere(func(o *entity.Order) bool {
		return o.ConsignmentID == consignmentID && o.Status == status
	}), nil
}

func (s *OrderStore) FindReconcileCandidate(_ context.Context, invoiceID string, courier enum.Courier) (*entity.Order, error) {
	return s.firstWhere(func(o *entity.Order) bool {
		return o.InvoiceID == invoiceID && o.Status == courier.OrderStatus() && !o.IsParcelDue()
	}), nil
}

func (s *OrderStore) ExistsInvoice(ctx context.Context, invoiceID string) (bool, error) {
	o, _ := s.GetByInvoiceID(ctx, invoiceID)
	return o != nil, nil
}

func (s *OrderStore) UpdateIfVersion(_ context.Context, order *entity.Order) (bool, error) {
	if s.BeforeWrite != nil {
		s.BeforeWrite(order.ID)
	}
	if s.FailWrites {
		return false, ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return false, nil
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}
	order.Version++
	next := order.Clone()
	next.CreatedAt = stored.CreatedAt
	s.orders[order.ID] = next
	return true, nil
}

func (s *OrderStore) UpdateIf(_ context.Context, id uuid.UUID, guard repository.OrderGuard, changes repository.OrderChanges) (bool, error) {
	if s.BeforeWrite != nil {
		s.BeforeWrite(id)
	}
	if s.FailWrites {
		return false, ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok || !guard.Matches(stored) {
		return false, nil
	}
	if changes.UpdatedAt.IsZero() {
		changes.UpdatedAt = time.Now()
	}
	changes.Apply(stored)
	stored.Version++
	return true, nil
}

func (s *OrderStore) UpdateMany(_ context.Context, target repository.BulkTarget, changes repository.OrderChanges) (int64, error) {
	if s.FailWrites {
		return 0, ErrInjected
	}
	if target.Empty() {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if changes.UpdatedAt.IsZero() {
		changes.UpdatedAt = time.Now()
	}
	ids := map[uuid.UUID]bool{}
	for _, id := range target.IDs {
		ids[id] = true
	}
	invoices := map[string]bool{}
	for _, inv := range target.InvoiceIDs {
		invoices[inv] = true
	}

	var n int64
	for _, o := range s.orders {
		if len(ids) > 0 && !ids[o.ID] {
			continue
		}
		if len(invoices) > 0 && !invoices[o.InvoiceID] {
			continue
		}
		changes.Apply(o)
		o.Version++
		n++
	}
	return n, nil
}

func (s *OrderStore) List(_ context.Context, params *repository.OrderFilterParams) ([]entity.Order, int64, error) {
	s.mu.Lock()
	all := s.sortedLocked()
	s.mu.Unlock()

	var matched []entity.Order
	for i := range all {
		o := &all[i]
		if params.Search != "" && !strings.Contains(strings.ToLower(o.InvoiceID), strings.ToLower(params.Search)) {
			continue
		}
		if params.Status != nil && o.Status != *params.Status {
			continue
		}
		if params.AssignedTo != "" && o.AssignedTo != params.AssignedTo {
			continue
		}
		if params.StartDate != nil && o.CreatedAt.Before(*params.StartDate) {
			continue
		}
		if params.EndDate != nil && o.CreatedAt.After(*params.EndDate) {
			continue
		}
		matched = append(matched, *o)
	}
	// newest first, like the default listing
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	params.Pagination.Validate()
	start := params.Pagination.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Pagination.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *OrderStore) Scan(_ context.Context, filter repository.OrderScanFilter) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Order
	for _, o := range s.sortedLocked() {
		if filter.Matches(&o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *OrderStore) firstWhere(pred func(*entity.Order) bool) *entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.sortedLocked() {
		if pred(&o) {
			found := o
			return &found
		}
	}
	return nil
}

func (s *OrderStore) sortedLocked() []entity.Order {
	out := make([]entity.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// PaymentReportStore is an in-memory repository.PaymentReportRepository.
type PaymentReportStore struct {
	mu   sync.Mutex
	rows []entity.PaymentReportRow

	// FailList makes ListByCourier return ErrInjected.
	FailList bool
}

var _ repository.PaymentReportRepository = (*PaymentReportStore)(nil)

func NewPaymentReportStore() *PaymentReportStore {
	return &PaymentReportStore{}
}

func (s *PaymentReportStore) Append(_ context.Context, rows []entity.PaymentReportRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = time.Now()
		}
		s.rows = append(s.rows, rows[i])
	}
	return nil
}

func (s *PaymentReportStore) ListByCourier(_ context.Context, courier enum.Courier) ([]entity.PaymentReportRow, error) {
	if s.FailList {
		return nil, ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.PaymentReportRow
	for _, r := range s.rows {
		if r.Courier == courier {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *PaymentReportStore) Delete(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.rows[:0]
	for _, r := range s.rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

// Len returns the number of stored rows for a courier.
func (s *PaymentReportStore) Len(courier enum.Courier) int {
	rows, _ := s.ListByCourier(context.Background(), courier)
	return len(rows)
}

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	users []entity.User
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore(users ...entity.User) *UserStore {
	s := &UserStore{}
	for i := range users {
		_ = s.Create(context.Background(), &users[i])
	}
	return s
}

func (s *UserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *UserStore) GetByUID(_ context.Context, uid string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UID == uid {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *UserStore) List(_ context.Context) ([]entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.User(nil), s.users...), nil
}

// IdempotencyStore is an in-memory repository.IdempotencyRepository.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
}

var _ repository.IdempotencyRepository = (*IdempotencyStore)(nil)

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: map[string]entity.IdempotencyKey{}}
}

func (s *IdempotencyStore) GetByKey(_ context.Context, key, endpoint string) (*entity.IdempotencyKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[endpoint+"|"+key]; ok {
		return &k, nil
	}
	return nil, nil
}

func (s *IdempotencyStore) Reserve(_ context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ikey.Endpoint + "|" + ikey.Key
	if k, ok := s.keys[id]; ok && !k.IsExpired() {
		return false, nil
	}
	s.keys[id] = *ikey
	return true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, ikey *entity.IdempotencyKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ikey.Endpoint + "|" + ikey.Key
	k, ok := s.keys[id]
	if !ok {
		return nil
	}
	k.ResponseCode = ikey.ResponseCode
	k.ResponseBody = ikey.ResponseBody
	k.ExpiresAt = ikey.ExpiresAt
	s.keys[id] = k
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, endpoint+"|"+key)
	return nil
}

// Len returns the number of stored keys.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func (s *IdempotencyStore) DeleteExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.keys {
		if v.IsExpired() {
			delete(s.keys, k)
		}
	}
	return nil
}
