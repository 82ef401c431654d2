package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/shopspring/decimal"
)

func validPaymentInput(channel CondoPaymentChannel) *NewCondoPayment {
	input := &NewCondoPayment{
		CondoId:        "condo-1",
		TenantId:       "tenant-1",
		Channel:        channel,
		BillingMonth:   "05-2024",
		RentCost:       decimal.NewFromInt(15000),
		AdditionalCost: decimal.NewFromInt(1250),
		DueDate:        time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
	}
	if channel == CondoPaymentChannelReceipt {
		input.ReceiptImageUrl = "https://storage.example.com/tenant-1/receipts/r1.jpg"
	}
	return input
}

func TestNewCondoPayment_TotalIsRentPlusAdditional(t *testing.T) {
	payment, err := newCondoPayment(validPaymentInput(CondoPaymentChannelManual))
	if err != nil {
		t.Fatalf("newCondoPayment error: %v", err)
	}

	want := decimal.NewFromInt(16250)
	if !payment.TotalPaid.Equal(want) {
		t.Fatalf("totalPaid expected %s, got %s", want, payment.TotalPaid)
	}
	if !payment.TotalPaid.Equal(payment.RentCost.Add(payment.AdditionalCost)) {
		t.Fatalf("totalPaid must equal rentCost + additionalCost")
	}
}

func TestNewCondoPayment_ManualIsSettledOnCreation(t *testing.T) {
	payment, err := newCondoPayment(validPaymentInput(CondoPaymentChannelManual))
	if err != nil {
		t.Fatalf("newCondoPayment error: %v", err)
	}
	if !utils.DereferencePtr(payment.IsPaid) {
		t.Fatalf("manual payment must be paid on creation")
	}
	if payment.VerificationStatus != "" {
		t.Fatalf("manual payment must not enter the verification flow, got %q", payment.VerificationStatus)
	}
}

func TestNewCondoPayment_ReceiptStartsPendingAndUnpaid(t *testing.T) {
	payment, err := newCondoPayment(validPaymentInput(CondoPaymentChannelReceipt))
	if err != nil {
		t.Fatalf("newCondoPayment error: %v", err)
	}
	if utils.DereferencePtr(payment.IsPaid) {
		t.Fatalf("receipt payment must start unpaid")
	}
	if payment.VerificationStatus != ReceiptVerificationStatusPending {
		t.Fatalf("receipt payment expected PENDING, got %q", payment.VerificationStatus)
	}
	if payment.ReceiptImageUrl == nil {
		t.Fatalf("receipt payment must carry the receipt image url")
	}
}

func TestNewCondoPayment_ReceiptRequiresImage(t *testing.T) {
	input := validPaymentInput(CondoPaymentChannelReceipt)
	input.ReceiptImageUrl = ""
	if _, err := newCondoPayment(input); err == nil {
		t.Fatalf("receipt payment without image expected error, got nil")
	}
}

func TestNewCondoPayment_GatewayStartsUnpaidWithoutLink(t *testing.T) {
	payment, err := newCondoPayment(validPaymentInput(CondoPaymentChannelGateway))
	if err != nil {
		t.Fatalf("newCondoPayment error: %v", err)
	}
	if utils.DereferencePtr(payment.IsPaid) {
		t.Fatalf("gateway payment must start unpaid")
	}
	if payment.GatewayLinkId != nil {
		t.Fatalf("gateway link id is attached after session creation, not in the constructor")
	}
}

func TestNewCondoPayment_RejectsUnknownChannel(t *testing.T) {
	input := validPaymentInput(CondoPaymentChannelManual)
	input.Channel = CondoPaymentChannel("WIRE")
	if _, err := newCondoPayment(input); err == nil {
		t.Fatalf("unknown channel expected error, got nil")
	}
}

func TestNewCondoPayment_RejectsNegativeAmounts(t *testing.T) {
	input := validPaymentInput(CondoPaymentChannelManual)
	input.AdditionalCost = decimal.NewFromInt(-1)
	if _, err := newCondoPayment(input); err == nil {
		t.Fatalf("negative additional cost expected error, got nil")
	}
}

func TestNewCondoPayment_RejectsBadBillingMonth(t *testing.T) {
	input := validPaymentInput(CondoPaymentChannelManual)
	input.BillingMonth = "2024-05"
	if _, err := newCondoPayment(input); err == nil {
		t.Fatalf("malformed billing month expected error, got nil")
	}
}

func TestUpdateCondoPaymentStatus_RejectsFinancialFields(t *testing.T) {
	// The whitelist check runs before any query, so no DB is needed here.
	for _, field := range []string{"rent_cost", "additional_cost", "total_paid", "billing_month", "channel", "tenant_id"} {
		err := UpdateCondoPaymentStatus(context.Background(), nil, "payment-1", map[string]interface{}{field: "x"})
		if err == nil {
			t.Fatalf("update of %q expected error, got nil", field)
		}
		if !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("update of %q expected invalid-state error, got %v", field, err)
		}
	}
}

func TestUpdateCondoPaymentStatus_RejectsEmptyUpdate(t *testing.T) {
	if err := UpdateCondoPaymentStatus(context.Background(), nil, "payment-1", map[string]interface{}{}); err == nil {
		t.Fatalf("empty update expected error, got nil")
	}
}
