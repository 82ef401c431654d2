package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CondoPayment is the immutable financial record of one billing-month
// settlement attempt. Financial columns never change after creation; only
// the status columns move (see UpdateCondoPaymentStatus).
type CondoPayment struct {
	ID                 string                    `gorm:"primary_key;size:36" json:"id"`
	CondoId            string                    `gorm:"size:36;not null;index:idx_condo_tenant,priority:1" json:"condo_id"`
	TenantId           string                    `gorm:"size:36;not null;index:idx_condo_tenant,priority:2" json:"tenant_id"`
	Channel            CondoPaymentChannel       `gorm:"type:enum('MANUAL','RECEIPT','GATEWAY');not null;index" json:"channel"`
	BillingMonth       string                    `gorm:"size:7;not null;index" json:"billing_month"`
	RentCost           decimal.Decimal           `gorm:"type:decimal(20,4);not null;default:0" json:"rent_cost"`
	AdditionalCost     decimal.Decimal           `gorm:"type:decimal(20,4);not null;default:0" json:"additional_cost"`
	TotalPaid          decimal.Decimal           `gorm:"type:decimal(20,4);not null;default:0" json:"total_paid"`
	IsPaid             *bool                     `gorm:"not null;default:false;index" json:"is_paid"`
	IsVerified         *bool                     `gorm:"not null;default:false" json:"is_verified"`
	VerificationStatus ReceiptVerificationStatus `gorm:"size:20;index" json:"verification_status"`
	ReceiptImageUrl    *string                   `gorm:"size:512" json:"receipt_image_url"`
	GatewayLinkId      *string                   `gorm:"size:255" json:"gateway_link_id"`
	DueDate            time.Time                 `gorm:"not null" json:"due_date"`
	PaidAt             time.Time                 `gorm:"not null;index" json:"paid_at"`
	CreatedAt          time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`

	Condo  *Condo `gorm:"foreignKey:CondoId" json:"condo,omitempty"`
	Tenant *User  `gorm:"foreignKey:TenantId" json:"tenant,omitempty"`
}

type NewCondoPayment struct {
	CondoId         string
	TenantId        string
	Channel         CondoPaymentChannel
	BillingMonth    string
	RentCost        decimal.Decimal
	AdditionalCost  decimal.Decimal
	DueDate         time.Time
	ReceiptImageUrl string
}

func newCondoPayment(input *NewCondoPayment) (*CondoPayment, error) {
	if input.CondoId == "" || input.TenantId == "" {
		return nil, errors.New("condo and tenant are required")
	}
	if _, _, err := ParseBillingMonth(input.BillingMonth); err != nil {
		return nil, err
	}
	if input.RentCost.IsNegative() || input.AdditionalCost.IsNegative() {
		return nil, errors.New("payment amounts cannot be negative")
	}

	payment := &CondoPayment{
		ID:             uuid.NewString(),
		CondoId:        input.CondoId,
		TenantId:       input.TenantId,
		Channel:        input.Channel,
		BillingMonth:   input.BillingMonth,
		RentCost:       input.RentCost,
		AdditionalCost: input.AdditionalCost,
		TotalPaid:      input.RentCost.Add(input.AdditionalCost),
		IsPaid:         utils.NewFalse(),
		IsVerified:     utils.NewFalse(),
		DueDate:        input.DueDate,
		PaidAt:         time.Now().UTC(),
	}

	switch input.Channel {
	case CondoPaymentChannelManual:
		// landlord recorded it; settled on the spot
		payment.IsPaid = utils.NewTrue()
	case CondoPaymentChannelReceipt:
		if input.ReceiptImageUrl == "" {
			return nil, errors.New("receipt image is required")
		}
		payment.ReceiptImageUrl = &input.ReceiptImageUrl
		payment.VerificationStatus = ReceiptVerificationStatusPending
	case CondoPaymentChannelGateway:
		// stays unpaid until the checkout session reports paid
	default:
		return nil, fmt.Errorf("invalid payment channel %q", input.Channel)
	}

	return payment, nil
}

// CreateCondoPayment inserts a payment built from the given input on the
// supplied transaction. Callers hold the billing pair lock.
func CreateCondoPayment(ctx context.Context, tx *gorm.DB, input *NewCondoPayment) (*CondoPayment, error) {
	payment, err := newCondoPayment(input)
	if err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func GetCondoPayment(ctx context.Context, id string) (*CondoPayment, error) {
	db := config.GetDB()

	var payment CondoPayment
	err := db.WithContext(ctx).Preload("Condo").Preload("Tenant").
		Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payment %s: %w", id, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// statusFields are the only columns UpdateCondoPaymentStatus may touch.
// Financial columns (amounts, billing month, channel) are immutable.
var statusFields = map[string]bool{
	"is_paid":             true,
	"is_verified":         true,
	"verification_status": true,
	"gateway_link_id":     true,
}

// UpdateCondoPaymentStatus applies a status-only mutation. Any attempt to
// touch a financial field fails fast.
func UpdateCondoPaymentStatus(ctx context.Context, tx *gorm.DB, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return errors.New("no status fields to update")
	}
	for field := range updates {
		if !statusFields[field] {
			return fmt.Errorf("field %q is not a mutable status field: %w", field, utils.ErrorInvalidState)
		}
	}

	result := tx.WithContext(ctx).Model(&CondoPayment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment %s: %w", id, utils.ErrorRecordNotFound)
	}
	return nil
}

// DeleteCondoPayment removes a payment record. Only used to compensate a
// failed gateway checkout-session creation.
func DeleteCondoPayment(ctx context.Context, id string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&CondoPayment{}, "id = ?", id).Error
}

/* charge aggregation */

// CondoCharge is the amount a tenant owes for the derived billing period.
type CondoCharge struct {
	CondoId        string          `json:"condo_id"`
	TenantId       string          `json:"tenant_id"`
	BillingMonth   string          `json:"billing_month"`
	DueDate        time.Time       `json:"due_date"`
	RentCost       decimal.Decimal `json:"rent_cost"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

// ComputeCharge derives the billing period for the pair and prices it:
// the condo's rent plus tenant-responsibility maintenance completed inside
// the billing month's window.
func ComputeCharge(ctx context.Context, condoId string, userId string) (*CondoCharge, error) {
	period, err := ResolveBillingPeriod(ctx, condoId, userId)
	if err != nil {
		return nil, err
	}

	condo, err := GetCondo(ctx, condoId)
	if err != nil {
		return nil, err
	}

	start, end, err := BillingMonthWindow(period.BillingMonth)
	if err != nil {
		return nil, err
	}
	additional, err := SumTenantMaintenanceCost(ctx, condoId, start, end)
	if err != nil {
		return nil, err
	}

	tenantId := utils.DereferencePtr(condo.TenantId)
	if tenantId == "" {
		tenantId = userId
	}

	return &CondoCharge{
		CondoId:        condoId,
		TenantId:       tenantId,
		BillingMonth:   period.BillingMonth,
		DueDate:        period.DueDate,
		RentCost:       condo.RentAmount,
		AdditionalCost: additional,
		TotalCost:      condo.RentAmount.Add(additional),
	}, nil
}

/* landlord listing */

type CondoPaymentFilter struct {
	Search  string
	Status  string
	Channel string
	CondoId string
	Page    int
}

func filterLandlordPayments(ctx context.Context, ownerId string, filter CondoPaymentFilter) *gorm.DB {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&CondoPayment{}).
		Joins("JOIN condos ON condos.id = condo_payments.condo_id").
		Joins("JOIN users ON users.id = condo_payments.tenant_id").
		Where("condos.owner_id = ?", ownerId)

	if filter.CondoId != "" {
		dbCtx = dbCtx.Where("condo_payments.condo_id = ?", filter.CondoId)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where(
			"LOWER(users.name) LIKE ? OR LOWER(condos.name) LIKE ? OR LOWER(condo_payments.id) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" && filter.Status != "ALL" {
		dbCtx = dbCtx.Where("condo_payments.verification_status = ?", filter.Status)
	}
	if filter.Channel != "" && filter.Channel != "ALL" {
		dbCtx = dbCtx.Where("condo_payments.channel = ?", filter.Channel)
	}

	return dbCtx
}

// PaginateLandlordPayments lists payments across all of the owner's condos,
// most recent first.
func PaginateLandlordPayments(ctx context.Context, ownerId string, filter CondoPaymentFilter) (*OffsetPage[CondoPayment], error) {
	pageSize := config.PaymentsPageSize

	var count int64
	if err := filterLandlordPayments(ctx, ownerId, filter).Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*CondoPayment
	err := filterLandlordPayments(ctx, ownerId, filter).
		Preload("Condo").Preload("Tenant").
		Order("condo_payments.paid_at DESC").
		Limit(pageSize).
		Offset(PageOffset(filter.Page, pageSize)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return NewOffsetPage(rows, count, filter.Page, pageSize), nil
}

// ListLandlordPayments fetches every payment matching the filter (no
// paging). Feeds the excel export.
func ListLandlordPayments(ctx context.Context, ownerId string, filter CondoPaymentFilter) ([]*CondoPayment, error) {
	var rows []*CondoPayment
	err := filterLandlordPayments(ctx, ownerId, filter).
		Preload("Condo").Preload("Tenant").
		Order("condo_payments.paid_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PaginateTenantPayments lists the tenant's own payment history.
func PaginateTenantPayments(ctx context.Context, tenantId string, page int) (*OffsetPage[CondoPayment], error) {
	db := config.GetDB()
	pageSize := config.PaymentsPageSize

	filtered := func() *gorm.DB {
		return db.WithContext(ctx).Model(&CondoPayment{}).Where("tenant_id = ?", tenantId)
	}

	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, err
	}

	var rows []*CondoPayment
	err := filtered().Preload("Condo").
		Order("paid_at DESC").
		Limit(pageSize).
		Offset(PageOffset(page, pageSize)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return NewOffsetPage(rows, count, page, pageSize), nil
}
