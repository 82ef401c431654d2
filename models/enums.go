package models

import "fmt"

// CondoPaymentChannel tags how a payment entered the system.
type CondoPaymentChannel string

const (
	// CondoPaymentChannelManual is recorded directly by the landlord
	// (cash or bank transfer handled outside the app).
	CondoPaymentChannelManual CondoPaymentChannel = "MANUAL"
	// CondoPaymentChannelReceipt is submitted by the tenant with a
	// proof-of-payment image and awaits landlord verification.
	CondoPaymentChannelReceipt CondoPaymentChannel = "RECEIPT"
	// CondoPaymentChannelGateway goes through the hosted checkout of the
	// payment gateway.
	CondoPaymentChannelGateway CondoPaymentChannel = "GATEWAY"
)

func ParseCondoPaymentChannel(s string) (CondoPaymentChannel, error) {
	switch CondoPaymentChannel(s) {
	case CondoPaymentChannelManual, CondoPaymentChannelReceipt, CondoPaymentChannelGateway:
		return CondoPaymentChannel(s), nil
	}
	return "", fmt.Errorf("invalid payment channel %q", s)
}

// ReceiptVerificationStatus is the verification state of a receipt-channel
// payment. APPROVED and REJECTED are terminal.
type ReceiptVerificationStatus string

const (
	ReceiptVerificationStatusPending  ReceiptVerificationStatus = "PENDING"
	ReceiptVerificationStatusApproved ReceiptVerificationStatus = "APPROVED"
	ReceiptVerificationStatusRejected ReceiptVerificationStatus = "REJECTED"
)

type UserRole string

const (
	UserRoleLandlord UserRole = "LANDLORD"
	UserRoleTenant   UserRole = "TENANT"
)

// PaymentResponsibility says who shoulders a maintenance cost.
type PaymentResponsibility string

const (
	PaymentResponsibilityTenant   PaymentResponsibility = "TENANT"
	PaymentResponsibilityLandlord PaymentResponsibility = "LANDLORD"
)

type MaintenanceStatus string

const (
	MaintenanceStatusPending   MaintenanceStatus = "PENDING"
	MaintenanceStatusScheduled MaintenanceStatus = "SCHEDULED"
	MaintenanceStatusCompleted MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCanceled  MaintenanceStatus = "CANCELED"
)
