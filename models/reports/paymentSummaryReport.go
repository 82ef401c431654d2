package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"github.com/shopspring/decimal"
)

// settledCondition matches payments that count as realized income: settled
// manual and gateway payments plus approved receipts. The landlord summary
// deliberately does NOT use it; the dashboard totals every recorded payment
// row and reports the unverified receipt total separately.
const settledCondition = "(cp.is_paid = 1 OR cp.verification_status = 'APPROVED')"

type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// LandlordPaymentsSummary is the landlord dashboard header: collected
// totals plus the amount sitting in unverified receipts.
type LandlordPaymentsSummary struct {
	AllTime             decimal.Decimal `json:"all_time"`
	CurrentMonth        MonthTotal      `json:"current_month"`
	PreviousMonth       MonthTotal      `json:"previous_month"`
	PendingVerification decimal.Decimal `json:"pending_verification"`
}

// sumLandlordPayments totals cp.total_paid over the owner's payment rows.
// An empty condition sums every row.
func sumLandlordPayments(ctx context.Context, ownerId string, condition string, args ...interface{}) (decimal.Decimal, error) {
	db := config.GetDB()

	query := `
SELECT COALESCE(SUM(cp.total_paid), 0)
FROM condo_payments cp
JOIN condos ON condos.id = cp.condo_id
WHERE condos.owner_id = ?`
	if condition != "" {
		query += " AND " + condition
	}

	var total decimal.Decimal
	allArgs := append([]interface{}{ownerId}, args...)
	if err := db.WithContext(ctx).Raw(query, allArgs...).Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// GetLandlordPaymentsSummary aggregates recorded payments across all of
// the owner's condos: all-time, current billing month, previous billing
// month, and the pending receipt total awaiting verification. Period totals
// include unsettled rows; PendingVerification breaks that portion out.
func GetLandlordPaymentsSummary(ctx context.Context, ownerId string) (*LandlordPaymentsSummary, error) {
	started := time.Now()
	defer logSlowReport(ctx, "landlord_payments_summary", started, map[string]any{"owner_id": ownerId})

	cacheKey := fmt.Sprintf("report:paymentsSummary:%s", ownerId)
	if reportCacheEnabled() {
		var cached LandlordPaymentsSummary
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	now := time.Now().UTC()
	currentMonth := models.BillingMonthOfDate(now)
	previousMonth := models.BillingMonthOfDate(now.AddDate(0, -1, 0))

	allTime, err := sumLandlordPayments(ctx, ownerId, "")
	if err != nil {
		return nil, err
	}
	currentTotal, err := sumLandlordPayments(ctx, ownerId, "cp.billing_month = ?", currentMonth)
	if err != nil {
		return nil, err
	}
	previousTotal, err := sumLandlordPayments(ctx, ownerId, "cp.billing_month = ?", previousMonth)
	if err != nil {
		return nil, err
	}
	pending, err := sumLandlordPayments(ctx, ownerId, "cp.channel = ? AND cp.verification_status = ?",
		string(models.CondoPaymentChannelReceipt), string(models.ReceiptVerificationStatusPending))
	if err != nil {
		return nil, err
	}

	summary := &LandlordPaymentsSummary{
		AllTime:             allTime,
		CurrentMonth:        MonthTotal{Month: currentMonth, Total: currentTotal},
		PreviousMonth:       MonthTotal{Month: previousMonth, Total: previousTotal},
		PendingVerification: pending,
	}

	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, summary, reportCacheTTL())
	}
	return summary, nil
}

// CondoPaymentStatistic is one payment row of the per-condo statistic.
// AdditionalCost here is reporting-only: the stored tenant-side extra cost
// plus completed landlord-responsibility maintenance of the same billing
// month. The stored payment record is never modified.
type CondoPaymentStatistic struct {
	PaymentId      string          `json:"payment_id"`
	BillingMonth   string          `json:"billing_month"`
	Channel        string          `json:"channel"`
	RentCost       decimal.Decimal `json:"rent_cost"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PaidAt         time.Time       `json:"paid_at"`
}

func GetCondoPaymentStatistics(ctx context.Context, condoId string) ([]*CondoPaymentStatistic, error) {
	started := time.Now()
	defer logSlowReport(ctx, "condo_payment_statistics", started, map[string]any{"condo_id": condoId})

	db := config.GetDB()

	var payments []*models.CondoPayment
	err := db.WithContext(ctx).
		Where("condo_id = ?", condoId).
		Order("paid_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	landlordCosts, err := models.LandlordMaintenanceCostByMonth(ctx, condoId)
	if err != nil {
		return nil, err
	}

	stats := make([]*CondoPaymentStatistic, 0, len(payments))
	for _, p := range payments {
		additional := p.AdditionalCost.Add(landlordCosts[p.BillingMonth])
		stats = append(stats, &CondoPaymentStatistic{
			PaymentId:      p.ID,
			BillingMonth:   p.BillingMonth,
			Channel:        string(p.Channel),
			RentCost:       p.RentCost,
			AdditionalCost: additional,
			TotalPaid:      p.TotalPaid,
			PaidAt:         p.PaidAt,
		})
	}
	return stats, nil
}

// CondoIncomeSummary backs the condo detail view.
type CondoIncomeSummary struct {
	TotalIncome              decimal.Decimal `json:"total_income"`
	PaymentCount             int64           `json:"payment_count"`
	LandlordMaintenanceTotal decimal.Decimal `json:"landlord_maintenance_total"`
}

func GetCondoIncomeSummary(ctx context.Context, condoId string) (*CondoIncomeSummary, error) {
	db := config.GetDB()

	query := `
SELECT
    COALESCE(SUM(cp.total_paid), 0) AS total_income,
    COUNT(cp.id) AS payment_count
FROM condo_payments cp
WHERE cp.condo_id = ? AND ` + settledCondition

	var summary CondoIncomeSummary
	if err := db.WithContext(ctx).Raw(query, condoId).Scan(&summary).Error; err != nil {
		return nil, err
	}

	var maintenanceTotal decimal.Decimal
	err := db.WithContext(ctx).Model(&models.Maintenance{}).
		Where("condo_id = ?", condoId).
		Where("payment_responsibility = ?", models.PaymentResponsibilityLandlord).
		Where("current_status = ?", models.MaintenanceStatusCompleted).
		Select("COALESCE(SUM(total_cost), 0)").
		Scan(&maintenanceTotal).Error
	if err != nil {
		return nil, err
	}
	summary.LandlordMaintenanceTotal = maintenanceTotal

	return &summary, nil
}
