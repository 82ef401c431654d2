package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/google/uuid"
)

// LeaseAgreement binds a tenant to a condo. DueDay is the day-of-month rent
// falls due; DueDayLastOfMonth (-1) means the month's last calendar day.
type LeaseAgreement struct {
	ID           string    `gorm:"primary_key;size:36" json:"id"`
	CondoId      string    `gorm:"size:36;not null;index" json:"condo_id"`
	TenantId     string    `gorm:"size:36;not null;index" json:"tenant_id"`
	LeaseStart   time.Time `gorm:"not null" json:"lease_start"`
	DueDay       int       `gorm:"not null;default:1" json:"due_day"`
	IsLeaseEnded *bool     `gorm:"not null;default:false" json:"is_lease_ended"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Condo  *Condo `gorm:"foreignKey:CondoId" json:"condo,omitempty"`
	Tenant *User  `gorm:"foreignKey:TenantId" json:"tenant,omitempty"`
}

type NewLeaseAgreement struct {
	CondoId    string    `json:"condoId" binding:"required"`
	TenantId   string    `json:"tenantId" binding:"required"`
	LeaseStart time.Time `json:"leaseStart" binding:"required"`
	DueDay     int       `json:"dueDay" binding:"required"`
}

func newLeaseAgreement(input *NewLeaseAgreement) (*LeaseAgreement, error) {
	if input.DueDay != DueDayLastOfMonth && (input.DueDay < 1 || input.DueDay > 31) {
		return nil, errors.New("due day must be 1-31 or -1 for last day of month")
	}
	return &LeaseAgreement{
		ID:           uuid.NewString(),
		CondoId:      input.CondoId,
		TenantId:     input.TenantId,
		LeaseStart:   input.LeaseStart,
		DueDay:       input.DueDay,
		IsLeaseEnded: utils.NewFalse(),
	}, nil
}

// CreateLeaseAgreement starts a lease and assigns the tenant to the condo.
// A condo can only carry one active lease at a time.
func CreateLeaseAgreement(ctx context.Context, ownerId string, input *NewLeaseAgreement) (*LeaseAgreement, error) {
	lease, err := newLeaseAgreement(input)
	if err != nil {
		return nil, err
	}

	if _, err := GetOwnedCondo(ctx, ownerId, input.CondoId); err != nil {
		return nil, err
	}

	tenant, err := GetUser(ctx, input.TenantId)
	if err != nil {
		return nil, err
	}
	if tenant.Role != UserRoleTenant {
		return nil, fmt.Errorf("user %s is not a tenant: %w", input.TenantId, utils.ErrorInvalidState)
	}

	active, err := utils.ResourceCountWhere[LeaseAgreement](ctx, "condo_id = ? AND is_lease_ended = ?", input.CondoId, false)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, fmt.Errorf("condo %s already has an active lease: %w", input.CondoId, utils.ErrorInvalidState)
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(lease).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&Condo{}).Where("id = ?", input.CondoId).
		Update("tenant_id", input.TenantId).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return lease, nil
}

func GetLeaseAgreement(ctx context.Context, id string) (*LeaseAgreement, error) {
	lease, err := utils.FetchSingleModel[LeaseAgreement](ctx, id, "Condo", "Tenant")
	if err != nil {
		return nil, fmt.Errorf("lease %s: %w", id, err)
	}
	return lease, nil
}

// EndLeaseAgreement marks the lease ended and unassigns the condo's tenant.
func EndLeaseAgreement(ctx context.Context, ownerId string, id string) (*LeaseAgreement, error) {
	lease, err := GetLeaseAgreement(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease.Condo == nil || lease.Condo.OwnerId != ownerId {
		return nil, fmt.Errorf("lease %s: %w", id, utils.ErrorRecordNotFound)
	}
	if utils.DereferencePtr(lease.IsLeaseEnded) {
		return nil, fmt.Errorf("lease %s already ended: %w", id, utils.ErrorInvalidState)
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Model(&LeaseAgreement{}).Where("id = ?", id).
		Update("is_lease_ended", true).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&Condo{}).
		Where("id = ? AND tenant_id = ?", lease.CondoId, lease.TenantId).
		Update("tenant_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	lease.IsLeaseEnded = utils.NewTrue()
	return lease, nil
}

// ListActiveLeases returns all non-ended leases with condo and tenant
// preloaded. Used by the due-reminder job.
func ListActiveLeases(ctx context.Context) ([]*LeaseAgreement, error) {
	db := config.GetDB()

	var leases []*LeaseAgreement
	err := db.WithContext(ctx).Preload("Condo").Preload("Tenant").
		Where("is_lease_ended = ?", false).
		Find(&leases).Error
	if err != nil {
		return nil, err
	}
	return leases, nil
}
