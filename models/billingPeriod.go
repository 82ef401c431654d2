package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"gorm.io/gorm"
)

// DueDayLastOfMonth is the lease due-day sentinel for "last calendar day
// of the month" (handles 29/30/31-day months and February).
const DueDayLastOfMonth = -1

// BillingPeriod is the derived billing cycle for a (condo, tenant) pair.
// BillingMonth is keyed "MM-YYYY".
type BillingPeriod struct {
	BillingMonth string    `json:"billing_month"`
	DueDate      time.Time `json:"due_date"`
}

// BillingMonthOfDate returns the "MM-YYYY" key of the month containing t.
func BillingMonthOfDate(t time.Time) string {
	return fmt.Sprintf("%02d-%d", int(t.Month()), t.Year())
}

// ParseBillingMonth splits a "MM-YYYY" key into month and year.
func ParseBillingMonth(key string) (month int, year int, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 4 {
		return 0, 0, fmt.Errorf("invalid billing month %q", key)
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid billing month %q", key)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("invalid billing month %q", key)
	}
	return month, year, nil
}

// NextBillingMonth advances a "MM-YYYY" key by one month, rolling the year
// at December.
func NextBillingMonth(key string) (string, error) {
	month, year, err := ParseBillingMonth(key)
	if err != nil {
		return "", err
	}
	month++
	if month > 12 {
		month = 1
		year++
	}
	return fmt.Sprintf("%02d-%d", month, year), nil
}

// BillingMonthWindow returns the inclusive bounds of a billing month:
// first day 00:00:00.000 through last day 23:59:59.999 (UTC).
func BillingMonthWindow(key string) (time.Time, time.Time, error) {
	month, year, err := ParseBillingMonth(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 0, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end, nil
}

// ResolveDueDate places a lease due day inside the given month, resolving
// the DueDayLastOfMonth sentinel to the month's last calendar day.
func ResolveDueDate(year int, month int, dueDay int) time.Time {
	if dueDay == DueDayLastOfMonth {
		// day 0 of the next month normalizes to the last day of this one
		return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.Month(month), dueDay, 0, 0, 0, 0, time.UTC)
}

// ResolveBillingPeriod derives the billing period the next payment of the
// (condo, tenant-or-owner) pair settles.
//
// With no prior payment the billing month is the month of the lease start,
// and the due date is placed in the CURRENT calendar month. With a prior
// payment the billing month is the month after the most recent payment's
// (paid_at DESC), and the due date is placed in that month.
func ResolveBillingPeriod(ctx context.Context, condoId string, userId string) (*BillingPeriod, error) {
	db := config.GetDB()

	lease, err := GetActiveLeaseForUser(ctx, condoId, userId)
	if err != nil {
		return nil, err
	}

	var latest struct {
		BillingMonth string
	}
	hasPrior := true
	err = db.WithContext(ctx).Model(&CondoPayment{}).
		Joins("JOIN condos ON condos.id = condo_payments.condo_id").
		Where("condo_payments.condo_id = ?", condoId).
		Where("condo_payments.tenant_id = ? OR condos.owner_id = ?", userId, userId).
		Order("condo_payments.paid_at DESC").
		Select("condo_payments.billing_month").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hasPrior = false
	} else if err != nil {
		return nil, err
	}

	if !hasPrior {
		now := time.Now().UTC()
		return &BillingPeriod{
			BillingMonth: BillingMonthOfDate(lease.LeaseStart),
			DueDate:      ResolveDueDate(now.Year(), int(now.Month()), lease.DueDay),
		}, nil
	}

	next, err := NextBillingMonth(latest.BillingMonth)
	if err != nil {
		return nil, fmt.Errorf("payment of condo %s: %w", condoId, err)
	}
	month, year, err := ParseBillingMonth(next)
	if err != nil {
		return nil, err
	}
	return &BillingPeriod{
		BillingMonth: next,
		DueDate:      ResolveDueDate(year, month, lease.DueDay),
	}, nil
}

// GetActiveLeaseForUser finds the condo's non-ended lease visible to the
// given user (its tenant or the condo owner).
func GetActiveLeaseForUser(ctx context.Context, condoId string, userId string) (*LeaseAgreement, error) {
	db := config.GetDB()

	var lease LeaseAgreement
	err := db.WithContext(ctx).Model(&LeaseAgreement{}).
		Joins("JOIN condos ON condos.id = lease_agreements.condo_id").
		Where("lease_agreements.condo_id = ?", condoId).
		Where("lease_agreements.is_lease_ended = ?", false).
		Where("lease_agreements.tenant_id = ? OR condos.owner_id = ?", userId, userId).
		First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active lease for condo %s: %w", condoId, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &lease, nil
}
