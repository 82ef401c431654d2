package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/paygate"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("condopal-backend/workflow")

// GatewayClient is what this workflow needs from the payment gateway.
// *paygate.Client satisfies it; tests substitute fakes.
type GatewayClient interface {
	CreateCheckoutSession(ctx context.Context, description string, referenceId string, rentCost decimal.Decimal, additionalCost decimal.Decimal) (*paygate.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionId string) (*paygate.CheckoutSession, error)
}

// GatewayCheckout is returned to the tenant after opening a checkout
// session.
type GatewayCheckout struct {
	Payment     *models.CondoPayment `json:"payment"`
	CheckoutUrl string               `json:"checkout_url"`
}

// GatewayVerification is the result of polling a gateway payment.
type GatewayVerification struct {
	Payment     *models.CondoPayment `json:"payment"`
	Status      string               `json:"status"`
	Paid        bool                 `json:"paid"`
	CheckoutUrl string               `json:"checkout_url,omitempty"`
}

// createPaymentLocked runs the charge derivation and the insert under the
// per-(condo, tenant) billing lock, so two concurrent creators cannot both
// read the same "latest payment" and double-charge a billing month.
func createPaymentLocked(ctx context.Context, condoId string, tenantId string,
	build func(charge *models.CondoCharge) *models.NewCondoPayment, eventType string) (*models.CondoPayment, error) {

	ctx, span := tracer.Start(ctx, "createPaymentLocked")
	defer span.End()

	if redisLock := obtainBillingRedisLock(ctx, condoId, tenantId); redisLock != nil {
		defer func() { _ = redisLock.Release(ctx) }()
	}

	db := config.GetDB()
	var payment *models.CondoPayment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireBillingPairLock(tx.WithContext(ctx), condoId, tenantId); err != nil {
			return err
		}
		defer ReleaseBillingPairLock(tx.WithContext(ctx), condoId, tenantId)

		charge, err := models.ComputeCharge(ctx, condoId, tenantId)
		if err != nil {
			return err
		}

		payment, err = models.CreateCondoPayment(ctx, tx, build(charge))
		if err != nil {
			return err
		}

		if eventType != "" {
			if err := models.QueuePaymentEvent(ctx, tx, eventType, payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateManualPayment records a cash/bank-transfer payment the landlord
// collected outside the app. The record is settled on creation.
func CreateManualPayment(ctx context.Context, condoId string) (*models.CondoPayment, error) {
	landlordId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated user")
	}

	condo, err := models.GetOwnedCondo(ctx, landlordId, condoId)
	if err != nil {
		return nil, err
	}
	tenantId := utils.DereferencePtr(condo.TenantId)
	if tenantId == "" {
		return nil, fmt.Errorf("condo %s has no tenant: %w", condoId, utils.ErrorRecordNotFound)
	}

	return createPaymentLocked(ctx, condoId, tenantId, func(charge *models.CondoCharge) *models.NewCondoPayment {
		return &models.NewCondoPayment{
			CondoId:        condoId,
			TenantId:       tenantId,
			Channel:        models.CondoPaymentChannelManual,
			BillingMonth:   charge.BillingMonth,
			RentCost:       charge.RentCost,
			AdditionalCost: charge.AdditionalCost,
			DueDate:        charge.DueDate,
		}
	}, models.PaymentEventTypePaid)
}

// CreateReceiptPayment records a tenant-submitted proof of payment. The
// record stays unpaid and PENDING until the landlord verifies it.
func CreateReceiptPayment(ctx context.Context, receiptImageUrl string) (*models.CondoPayment, error) {
	tenantId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated user")
	}

	condo, err := models.GetTenantCondo(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	return createPaymentLocked(ctx, condo.ID, tenantId, func(charge *models.CondoCharge) *models.NewCondoPayment {
		return &models.NewCondoPayment{
			CondoId:         condo.ID,
			TenantId:        tenantId,
			Channel:         models.CondoPaymentChannelReceipt,
			BillingMonth:    charge.BillingMonth,
			RentCost:        charge.RentCost,
			AdditionalCost:  charge.AdditionalCost,
			DueDate:         charge.DueDate,
			ReceiptImageUrl: receiptImageUrl,
		}
	}, models.PaymentEventTypeReceiptSubmitted)
}

// VerifyReceiptPayment applies the landlord's decision on a pending
// receipt. APPROVED settles and verifies the record; REJECTED leaves it
// unpaid. Both are status-only mutations.
func VerifyReceiptPayment(ctx context.Context, paymentId string, decision models.ReceiptVerificationStatus) (*models.CondoPayment, error) {
	landlordId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated user")
	}

	if decision != models.ReceiptVerificationStatusApproved && decision != models.ReceiptVerificationStatusRejected {
		return nil, fmt.Errorf("decision must be APPROVED or REJECTED: %w", utils.ErrorInvalidState)
	}

	payment, err := models.GetCondoPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.Condo == nil || payment.Condo.OwnerId != landlordId {
		return nil, fmt.Errorf("payment %s: %w", paymentId, utils.ErrorRecordNotFound)
	}
	if payment.Channel != models.CondoPaymentChannelReceipt {
		return nil, fmt.Errorf("payment %s is not a receipt payment: %w", paymentId, utils.ErrorInvalidState)
	}

	approved := decision == models.ReceiptVerificationStatusApproved
	eventType := models.PaymentEventTypeReceiptApproved
	if !approved {
		eventType = models.PaymentEventTypeReceiptRejected
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	err = models.UpdateCondoPaymentStatus(ctx, tx, paymentId, map[string]interface{}{
		"is_paid":             approved,
		"is_verified":         approved,
		"verification_status": decision,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	payment.VerificationStatus = decision
	if approved {
		payment.IsPaid = utils.NewTrue()
		payment.IsVerified = utils.NewTrue()
	} else {
		payment.IsPaid = utils.NewFalse()
		payment.IsVerified = utils.NewFalse()
	}

	if err := models.QueuePaymentEvent(ctx, tx, eventType, payment); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateGatewayPayment creates the unpaid payment record first (committed,
// so the checkout session can reference its id), then opens the session.
// If the gateway call fails the record is deleted to compensate; an unpaid
// gateway row must always map to a session the tenant can still pay.
func CreateGatewayPayment(ctx context.Context, gateway GatewayClient) (*GatewayCheckout, error) {
	tenantId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated user")
	}

	condo, err := models.GetTenantCondo(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	payment, err := createPaymentLocked(ctx, condo.ID, tenantId, func(charge *models.CondoCharge) *models.NewCondoPayment {
		return &models.NewCondoPayment{
			CondoId:        condo.ID,
			TenantId:       tenantId,
			Channel:        models.CondoPaymentChannelGateway,
			BillingMonth:   charge.BillingMonth,
			RentCost:       charge.RentCost,
			AdditionalCost: charge.AdditionalCost,
			DueDate:        charge.DueDate,
		}
	}, "")
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Rent for %s (%s)", condo.Name, payment.BillingMonth)
	session, err := gateway.CreateCheckoutSession(ctx, description, payment.ID, payment.RentCost, payment.AdditionalCost)
	if err != nil {
		if delErr := models.DeleteCondoPayment(ctx, payment.ID); delErr != nil {
			config.LogError(config.GetLogger(), "workflow", "CreateGatewayPayment", "compensate failed session", payment.ID, delErr)
		}
		return nil, fmt.Errorf("create checkout session: %v: %w", err, utils.ErrorUpstreamFailure)
	}

	db := config.GetDB()
	err = models.UpdateCondoPaymentStatus(ctx, db, payment.ID, map[string]interface{}{
		"gateway_link_id": session.ID,
	})
	if err != nil {
		return nil, err
	}
	payment.GatewayLinkId = &session.ID

	return &GatewayCheckout{Payment: payment, CheckoutUrl: session.CheckoutUrl}, nil
}

// VerifyGatewayPayment polls the checkout session. Settling is guarded by
// `is_paid = 0`, so repeated polls (or races between them) emit the paid
// event exactly once.
func VerifyGatewayPayment(ctx context.Context, gateway GatewayClient, paymentId string) (*GatewayVerification, error) {
	ctx, span := tracer.Start(ctx, "VerifyGatewayPayment")
	defer span.End()

	payment, err := models.GetCondoPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.Channel != models.CondoPaymentChannelGateway {
		return nil, fmt.Errorf("payment %s is not a gateway payment: %w", paymentId, utils.ErrorInvalidState)
	}
	if payment.GatewayLinkId == nil {
		return nil, fmt.Errorf("payment %s has no checkout session: %w", paymentId, utils.ErrorInvalidState)
	}

	if utils.DereferencePtr(payment.IsPaid) {
		return &GatewayVerification{Payment: payment, Status: string(paygate.CheckoutSessionStatusPaid), Paid: true}, nil
	}

	session, err := gateway.GetCheckoutSession(ctx, *payment.GatewayLinkId)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %v: %w", err, utils.ErrorUpstreamFailure)
	}

	if session.Status != paygate.CheckoutSessionStatusPaid {
		return &GatewayVerification{
			Payment:     payment,
			Status:      string(session.Status),
			Paid:        false,
			CheckoutUrl: session.CheckoutUrl,
		}, nil
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	result := tx.Model(&models.CondoPayment{}).
		Where("id = ? AND is_paid = 0", paymentId).
		Update("is_paid", true)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}

	payment.IsPaid = utils.NewTrue()
	if result.RowsAffected == 1 {
		if err := models.QueuePaymentEvent(ctx, tx, models.PaymentEventTypePaid, payment); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &GatewayVerification{Payment: payment, Status: string(paygate.CheckoutSessionStatusPaid), Paid: true}, nil
}
