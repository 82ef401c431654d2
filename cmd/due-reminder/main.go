// due-reminder is a scheduled job (Cloud Scheduler / cron) that queues a
// payment.due_soon event for every active lease whose next rent due date
// falls inside the reminder window. The outbox dispatcher in the API
// service publishes the queued events.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	leases, err := models.ListActiveLeases(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "due-reminder"}).Error("list active leases: " + err.Error())
		os.Exit(1)
	}

	leadDays := config.ReminderLeadDays()
	now := time.Now().UTC()
	windowEnd := now.AddDate(0, 0, leadDays)

	queued := 0
	for _, lease := range leases {
		period, err := models.ResolveBillingPeriod(ctx, lease.CondoId, lease.TenantId)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"field":     "due-reminder",
				"lease_id":  lease.ID,
				"condo_id":  lease.CondoId,
				"tenant_id": lease.TenantId,
			}).Warn("resolve billing period: " + err.Error())
			continue
		}
		if period.DueDate.Before(now) || period.DueDate.After(windowEnd) {
			continue
		}

		// One reminder per lease per billing month.
		var count int64
		err = db.WithContext(ctx).Model(&models.PaymentEventRecord{}).
			Where("event_type = ? AND condo_id = ? AND tenant_id = ? AND billing_month = ?",
				models.PaymentEventTypeDueSoon, lease.CondoId, lease.TenantId, period.BillingMonth).
			Count(&count).Error
		if err != nil || count > 0 {
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			return models.QueueDueSoonEvent(ctx, tx, lease, period.BillingMonth, period.DueDate)
		})
		if err != nil {
			logger.WithFields(logrus.Fields{
				"field":    "due-reminder",
				"lease_id": lease.ID,
			}).Error("queue due_soon event: " + err.Error())
			continue
		}
		queued++
	}

	logger.WithFields(logrus.Fields{
		"field":     "due-reminder",
		"leases":    len(leases),
		"queued":    queued,
		"lead_days": leadDays,
	}).Info("due reminder run complete")
}
