package repository

import (
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	domainRepo "github.com/sangkips/order-reconciler/internal/domain/repository"
	"gorm.io/gorm"
)

// UnlockedScope excludes orders parked as Parcel Due
func UnlockedScope(db *gorm.DB) *gorm.DB {
	return db.Where("COALESCE(consignment_status, '') <> ?", enum.ConsignmentStatusParcelDue)
}

// GuardScope restricts a write to rows still in the state the caller observed
func GuardScope(guard domainRepo.OrderGuard) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", guard.Status).
			Where("COALESCE(logistic_status, '') = ?", guard.LogisticStatus)
		if guard.RequireUnlocked {
			db = UnlockedScope(db)
		}
		return db
	}
}

// ScanScope applies report filters
func ScanScope(f domainRepo.OrderScanFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != nil {
			db = db.Where("status = ?", *f.Status)
		}
		if f.AssignedTo != "" {
			db = db.Where("assigned_to = ?", f.AssignedTo)
		}
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *f.CreatedFrom)
		}
		if f.CreatedTo != nil {
			db = db.Where("created_at <= ?", *f.CreatedTo)
		}
		if f.UpdatedFrom != nil {
			db = db.Where("updated_at >= ?", *f.UpdatedFrom)
		}
		if f.UpdatedTo != nil {
			db = db.Where("updated_at <= ?", *f.UpdatedTo)
		}
		return db
	}
}

// BulkTargetScope selects rows by id or invoice
func BulkTargetScope(t domainRepo.BulkTarget) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(t.IDs) > 0 {
			db = db.Where("id IN ?", t.IDs)
		}
		if len(t.InvoiceIDs) > 0 {
			db = db.Where("invoice_id IN ?", t.InvoiceIDs)
		}
		return db
	}
}
