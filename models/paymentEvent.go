package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment event types published to the payment-events topic. The
// notification service fans these out to tenants/landlords.
const (
	PaymentEventTypePaid             = "payment.paid"
	PaymentEventTypeReceiptSubmitted = "payment.receipt_submitted"
	PaymentEventTypeReceiptApproved  = "payment.receipt_approved"
	PaymentEventTypeReceiptRejected  = "payment.receipt_rejected"
	PaymentEventTypeDueSoon          = "payment.due_soon"
)

// Outbox publish statuses for PaymentEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// PaymentEventRecord is a transactional outbox row. It is written in the
// same transaction as the payment mutation it describes; the dispatcher
// publishes it after commit.
type PaymentEventRecord struct {
	ID           int       `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	EventType    string    `gorm:"size:50;not null;index" json:"event_type"`
	PaymentId    string    `gorm:"size:36;index" json:"payment_id"`
	CondoId      string    `gorm:"size:36;not null;index" json:"condo_id"`
	TenantId     string    `gorm:"size:36;not null" json:"tenant_id"`
	BillingMonth string    `gorm:"size:7;not null" json:"billing_month"`
	OccurredAt   time.Time `gorm:"not null" json:"occurred_at"`
	Payload      []byte    `gorm:"type:blob" json:"payload"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;not null;default:'PENDING';index;index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToPaymentEventMessage(record PaymentEventRecord) config.PaymentEventMessage {
	return config.PaymentEventMessage{
		ID:            record.ID,
		EventType:     record.EventType,
		PaymentId:     record.PaymentId,
		CondoId:       record.CondoId,
		TenantId:      record.TenantId,
		BillingMonth:  record.BillingMonth,
		OccurredAt:    record.OccurredAt,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// QueuePaymentEvent stages an event for the given payment on the caller's
// transaction, so it commits (or rolls back) with the mutation itself.
func QueuePaymentEvent(ctx context.Context, tx *gorm.DB, eventType string, payment *CondoPayment) error {
	payload, err := json.Marshal(payment)
	if err != nil {
		return err
	}

	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = uuid.NewString()
	}

	record := PaymentEventRecord{
		EventType:     eventType,
		PaymentId:     payment.ID,
		CondoId:       payment.CondoId,
		TenantId:      payment.TenantId,
		BillingMonth:  payment.BillingMonth,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.WithContext(ctx).Create(&record).Error
}

// QueueDueSoonEvent stages a due-date reminder for a lease (no payment
// record exists yet).
func QueueDueSoonEvent(ctx context.Context, tx *gorm.DB, lease *LeaseAgreement, billingMonth string, dueDate time.Time) error {
	payload, err := json.Marshal(map[string]interface{}{
		"lease_id":      lease.ID,
		"condo_id":      lease.CondoId,
		"tenant_id":     lease.TenantId,
		"billing_month": billingMonth,
		"due_date":      dueDate,
	})
	if err != nil {
		return err
	}

	record := PaymentEventRecord{
		EventType:     PaymentEventTypeDueSoon,
		CondoId:       lease.CondoId,
		TenantId:      lease.TenantId,
		BillingMonth:  billingMonth,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: uuid.NewString(),
	}
	return tx.WithContext(ctx).Create(&record).Error
}
