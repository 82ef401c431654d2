package config

import (
	"os"
	"strconv"
	"strings"
)

// ReceiptThumbnailsEnabled controls thumbnail generation for uploaded
// receipt and condo photos. Thumbnails are on by default.
//
// Set via env:
// - DISABLE_RECEIPT_THUMBNAILS=true
func ReceiptThumbnailsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DISABLE_RECEIPT_THUMBNAILS")))
	return !(v == "1" || v == "true" || v == "yes" || v == "y")
}

// ReminderLeadDays is how many days before the due date the due-reminder
// job publishes a reminder event.
//
// Set via env:
// - REMINDER_LEAD_DAYS=7
func ReminderLeadDays() int {
	v := strings.TrimSpace(os.Getenv("REMINDER_LEAD_DAYS"))
	if v == "" {
		return 7
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 7
	}
	return n
}
