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

type Condo struct {
	ID         string          `gorm:"primary_key;size:36" json:"id"`
	OwnerId    string          `gorm:"size:36;not null;index" json:"owner_id"`
	TenantId   *string         `gorm:"size:36;index" json:"tenant_id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Address    string          `gorm:"size:512;not null" json:"address"`
	Photo      *string         `gorm:"size:512" json:"photo"`
	RentAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rent_amount"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Owner  *User `gorm:"foreignKey:OwnerId" json:"owner,omitempty"`
	Tenant *User `gorm:"foreignKey:TenantId" json:"tenant,omitempty"`
}

type NewCondo struct {
	Name       string          `json:"name" binding:"required"`
	Address    string          `json:"address" binding:"required"`
	RentAmount decimal.Decimal `json:"rentAmount" binding:"required"`
	Photo      string          `json:"photo"`
}

func newCondo(ownerId string, input *NewCondo) (*Condo, error) {
	if input.RentAmount.IsNegative() {
		return nil, errors.New("rent amount cannot be negative")
	}
	return &Condo{
		ID:         uuid.NewString(),
		OwnerId:    ownerId,
		Name:       input.Name,
		Address:    input.Address,
		Photo:      utils.NilIfEmpty(input.Photo),
		RentAmount: input.RentAmount,
		IsActive:   utils.NewTrue(),
	}, nil
}

func CreateCondo(ctx context.Context, ownerId string, input *NewCondo) (*Condo, error) {
	condo, err := newCondo(ownerId, input)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(condo).Error; err != nil {
		return nil, err
	}
	return condo, nil
}

// GetCondo fetches a condo by id with its tenant preloaded.
func GetCondo(ctx context.Context, id string) (*Condo, error) {
	db := config.GetDB()

	var condo Condo
	err := db.WithContext(ctx).Preload("Tenant").Where("id = ?", id).First(&condo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("condo %s: %w", id, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &condo, nil
}

// GetOwnedCondo fetches a condo only if it belongs to the given owner.
func GetOwnedCondo(ctx context.Context, ownerId string, id string) (*Condo, error) {
	db := config.GetDB()

	var condo Condo
	err := db.WithContext(ctx).Preload("Tenant").
		Where("id = ? AND owner_id = ?", id, ownerId).
		First(&condo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("condo %s: %w", id, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &condo, nil
}

// GetTenantCondo fetches the condo currently assigned to the given tenant.
func GetTenantCondo(ctx context.Context, tenantId string) (*Condo, error) {
	db := config.GetDB()

	var condo Condo
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantId).
		First(&condo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("condo of tenant %s: %w", tenantId, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &condo, nil
}

// PaginateMyCondos lists the owner's condos, newest first.
func PaginateMyCondos(ctx context.Context, ownerId string, page int) (*OffsetPage[Condo], error) {
	db := config.GetDB()
	pageSize := config.PaymentsPageSize

	filtered := func() *gorm.DB {
		return db.WithContext(ctx).Model(&Condo{}).Where("owner_id = ?", ownerId)
	}

	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*Condo
	err := filtered().Preload("Tenant").
		Order("created_at DESC").
		Limit(pageSize).
		Offset(PageOffset(page, pageSize)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return NewOffsetPage(rows, count, page, pageSize), nil
}

type UpdateCondoInput struct {
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	RentAmount *decimal.Decimal `json:"rentAmount"`
	Photo      string           `json:"photo"`
}

func UpdateCondo(ctx context.Context, ownerId string, id string, input *UpdateCondoInput) (*Condo, error) {
	condo, err := GetOwnedCondo(ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Address != "" {
		updates["address"] = input.Address
	}
	if input.RentAmount != nil {
		if input.RentAmount.IsNegative() {
			return nil, errors.New("rent amount cannot be negative")
		}
		updates["rent_amount"] = *input.RentAmount
	}

	var oldPhoto string
	if input.Photo != "" {
		if condo.Photo != nil && *condo.Photo != input.Photo {
			oldPhoto = *condo.Photo
		}
		updates["photo"] = input.Photo
	}

	if len(updates) == 0 {
		return condo, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Condo{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	// best-effort cleanup of the replaced photo
	if oldPhoto != "" {
		if key := utils.ExtractObjectKeyFromURL(oldPhoto); key != "" {
			if err := utils.DeleteImageFromGCS(ctx, key); err != nil {
				config.LogError(config.GetLogger(), "condo", "UpdateCondo", "delete old photo", oldPhoto, err)
			}
		}
	}

	return GetOwnedCondo(ctx, ownerId, id)
}

func DeleteCondo(ctx context.Context, ownerId string, id string) error {
	condo, err := GetOwnedCondo(ctx, ownerId, id)
	if err != nil {
		return err
	}

	activeLeases, err := utils.ResourceCountWhere[LeaseAgreement](ctx, "condo_id = ? AND is_lease_ended = ?", id, false)
	if err != nil {
		return err
	}
	if activeLeases > 0 {
		return fmt.Errorf("condo %s has an active lease: %w", id, utils.ErrorInvalidState)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&Condo{}, "id = ?", id).Error; err != nil {
		return err
	}

	if condo.Photo != nil {
		if key := utils.ExtractObjectKeyFromURL(*condo.Photo); key != "" {
			if err := utils.DeleteImageFromGCS(ctx, key); err != nil {
				config.LogError(config.GetLogger(), "condo", "DeleteCondo", "delete photo", *condo.Photo, err)
			}
		}
	}
	return nil
}
