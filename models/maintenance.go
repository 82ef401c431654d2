package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Maintenance is a repair/upkeep job on a condo. Tenant-responsibility
// costs completed inside a billing month are added to that month's charge;
// landlord-responsibility costs only show up in reporting.
type Maintenance struct {
	ID                    string                `gorm:"primary_key;size:36" json:"id"`
	CondoId               string                `gorm:"size:36;not null;index" json:"condo_id"`
	Title                 string                `gorm:"size:255;not null" json:"title"`
	Description           string                `gorm:"type:text" json:"description"`
	PaymentResponsibility PaymentResponsibility `gorm:"type:enum('TENANT','LANDLORD');not null" json:"payment_responsibility"`
	CurrentStatus         MaintenanceStatus     `gorm:"type:enum('PENDING','SCHEDULED','COMPLETED','CANCELED');not null;default:'PENDING'" json:"current_status"`
	TotalCost             decimal.Decimal       `gorm:"type:decimal(20,4);not null;default:0" json:"total_cost"`
	CompletionDate        *time.Time            `gorm:"index" json:"completion_date"`
	CreatedAt             time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time             `gorm:"autoUpdateTime" json:"updated_at"`

	Condo *Condo `gorm:"foreignKey:CondoId" json:"condo,omitempty"`
}

type NewMaintenance struct {
	CondoId               string                `json:"condoId" binding:"required"`
	Title                 string                `json:"title" binding:"required"`
	Description           string                `json:"description"`
	PaymentResponsibility PaymentResponsibility `json:"paymentResponsibility" binding:"required"`
	TotalCost             decimal.Decimal       `json:"totalCost"`
}

func CreateMaintenance(ctx context.Context, ownerId string, input *NewMaintenance) (*Maintenance, error) {
	if input.PaymentResponsibility != PaymentResponsibilityTenant &&
		input.PaymentResponsibility != PaymentResponsibilityLandlord {
		return nil, errors.New("invalid payment responsibility")
	}
	if input.TotalCost.IsNegative() {
		return nil, errors.New("total cost cannot be negative")
	}
	if _, err := GetOwnedCondo(ctx, ownerId, input.CondoId); err != nil {
		return nil, err
	}

	m := &Maintenance{
		ID:                    uuid.NewString(),
		CondoId:               input.CondoId,
		Title:                 input.Title,
		Description:           input.Description,
		PaymentResponsibility: input.PaymentResponsibility,
		CurrentStatus:         MaintenanceStatusPending,
		TotalCost:             input.TotalCost,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CompleteMaintenance marks the job completed, stamping the completion
// date that anchors it to a billing month.
func CompleteMaintenance(ctx context.Context, ownerId string, id string, totalCost *decimal.Decimal) (*Maintenance, error) {
	db := config.GetDB()

	var m Maintenance
	err := db.WithContext(ctx).
		Joins("JOIN condos ON condos.id = maintenances.condo_id").
		Where("maintenances.id = ? AND condos.owner_id = ?", id, ownerId).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("maintenance %s: %w", id, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	if m.CurrentStatus == MaintenanceStatusCompleted {
		return nil, fmt.Errorf("maintenance %s already completed: %w", id, utils.ErrorInvalidState)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"current_status":  MaintenanceStatusCompleted,
		"completion_date": now,
	}
	if totalCost != nil {
		if totalCost.IsNegative() {
			return nil, errors.New("total cost cannot be negative")
		}
		updates["total_cost"] = *totalCost
	}

	if err := db.WithContext(ctx).Model(&Maintenance{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	m.CurrentStatus = MaintenanceStatusCompleted
	m.CompletionDate = &now
	if totalCost != nil {
		m.TotalCost = *totalCost
	}
	return &m, nil
}

// SumTenantMaintenanceCost totals tenant-responsibility maintenance
// completed inside [start, end].
func SumTenantMaintenanceCost(ctx context.Context, condoId string, start time.Time, end time.Time) (decimal.Decimal, error) {
	db := config.GetDB()

	var total decimal.Decimal
	err := db.WithContext(ctx).Model(&Maintenance{}).
		Where("condo_id = ?", condoId).
		Where("payment_responsibility = ?", PaymentResponsibilityTenant).
		Where("completion_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total_cost), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// LandlordMaintenanceCostByMonth groups completed landlord-responsibility
// maintenance cost per billing month ("MM-YYYY") for a condo.
func LandlordMaintenanceCostByMonth(ctx context.Context, condoId string) (map[string]decimal.Decimal, error) {
	rows, err := utils.FetchModelsWhere[Maintenance](ctx,
		"condo_id = ? AND payment_responsibility = ? AND current_status = ? AND completion_date IS NOT NULL",
		condoId, PaymentResponsibilityLandlord, MaintenanceStatusCompleted)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, m := range rows {
		key := BillingMonthOfDate(m.CompletionDate.UTC())
		byMonth[key] = byMonth[key].Add(m.TotalCost)
	}
	return byMonth, nil
}
