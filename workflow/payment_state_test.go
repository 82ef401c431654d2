package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the intended
// payment semantics:
// - creation is serialized per (condo, tenant) pair, so concurrent creators
//   derive distinct billing months instead of double-charging one
// - settling a gateway payment is guarded, so concurrent verifies emit the
//   paid event exactly once
//
// Full DB+gateway integration tests should be added in an environment that
// can run MySQL + a gateway stub.

type fakeBillingLedger struct {
	muByPair map[string]*sync.Mutex
	mu       sync.Mutex
	months   map[string][]string
}

func newFakeBillingLedger() *fakeBillingLedger {
	return &fakeBillingLedger{
		muByPair: map[string]*sync.Mutex{},
		months:   map[string][]string{},
	}
}

// createPayment mirrors createPaymentLocked: take the pair lock, read the
// latest billing month, derive the next one, append.
func (l *fakeBillingLedger) createPayment(condoId, tenantId string, next func(latest string) string) string {
	pair := condoId + "|" + tenantId

	l.mu.Lock()
	pm := l.muByPair[pair]
	if pm == nil {
		pm = &sync.Mutex{}
		l.muByPair[pair] = pm
	}
	l.mu.Unlock()

	pm.Lock()
	defer pm.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	latest := ""
	if months := l.months[pair]; len(months) > 0 {
		latest = months[len(months)-1]
	}
	month := next(latest)
	l.months[pair] = append(l.months[pair], month)
	return month
}

func nextMonthAfter(latest string) string {
	seq := []string{"01-2024", "02-2024", "03-2024", "04-2024", "05-2024"}
	if latest == "" {
		return seq[0]
	}
	for i, m := range seq[:len(seq)-1] {
		if m == latest {
			return seq[i+1]
		}
	}
	return seq[len(seq)-1]
}

func TestPairLock_ConcurrentCreatorsNeverDoubleCharge(t *testing.T) {
	for run := 0; run < 100; run++ {
		ledger := newFakeBillingLedger()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ledger.createPayment("condo-1", "tenant-1", nextMonthAfter)
			}()
		}
		wg.Wait()

		months := ledger.months["condo-1|tenant-1"]
		if len(months) != 4 {
			t.Fatalf("run=%d expected 4 payments, got %d", run, len(months))
		}
		seen := map[string]bool{}
		for _, m := range months {
			if seen[m] {
				t.Fatalf("run=%d billing month %q charged twice: %v", run, m, months)
			}
			seen[m] = true
		}
	}
}

func TestPairLock_DistinctPairsDoNotSerialize(t *testing.T) {
	ledger := newFakeBillingLedger()

	var wg sync.WaitGroup
	for _, pair := range []struct{ condo, tenant string }{
		{"condo-1", "tenant-1"},
		{"condo-2", "tenant-2"},
	} {
		wg.Add(1)
		go func(condo, tenant string) {
			defer wg.Done()
			ledger.createPayment(condo, tenant, nextMonthAfter)
		}(pair.condo, pair.tenant)
	}
	wg.Wait()

	for _, pair := range []string{"condo-1|tenant-1", "condo-2|tenant-2"} {
		if got := ledger.months[pair]; len(got) != 1 || got[0] != "01-2024" {
			t.Fatalf("pair %q expected first billing month, got %v", pair, got)
		}
	}
}

// fakeSettlement mirrors VerifyGatewayPayment's guarded update: only the
// caller that flips unpaid -> paid queues the event.
type fakeSettlement struct {
	mu     sync.Mutex
	paid   bool
	events int
}

func (s *fakeSettlement) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paid {
		return
	}
	s.paid = true
	s.events++
}

func TestGatewaySettle_ConcurrentVerifiesEmitOnePaidEvent(t *testing.T) {
	for run := 0; run < 100; run++ {
		s := &fakeSettlement{}

		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.settle()
			}()
		}
		wg.Wait()

		if s.events != 1 {
			t.Fatalf("run=%d expected exactly 1 paid event, got %d", run, s.events)
		}
		if !s.paid {
			t.Fatalf("run=%d payment must end up paid", run)
		}
	}
}

func TestVerifyReceiptPayment_RejectsUnknownDecision(t *testing.T) {
	// Decision validation runs before any record lookup, so no DB is needed.
	ctx := utils.SetUserIdInContext(context.Background(), "landlord-1")

	for _, bad := range []models.ReceiptVerificationStatus{"", "PENDING", "MAYBE"} {
		_, err := VerifyReceiptPayment(ctx, "payment-1", bad)
		if err == nil {
			t.Fatalf("decision %q expected error, got nil", bad)
		}
		if !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("decision %q expected invalid-state error, got %v", bad, err)
		}
	}
}

// applyReceiptDecision mirrors the status update VerifyReceiptPayment applies.
type receiptState struct {
	isPaid     bool
	isVerified bool
	status     models.ReceiptVerificationStatus
}

func applyReceiptDecision(decision models.ReceiptVerificationStatus) receiptState {
	approved := decision == models.ReceiptVerificationStatusApproved
	return receiptState{isPaid: approved, isVerified: approved, status: decision}
}

func TestReceiptDecision_ApproveSettlesRejectNeverPays(t *testing.T) {
	approved := applyReceiptDecision(models.ReceiptVerificationStatusApproved)
	if !approved.isPaid || !approved.isVerified {
		t.Fatalf("approved receipt must be paid and verified, got %+v", approved)
	}

	rejected := applyReceiptDecision(models.ReceiptVerificationStatusRejected)
	if rejected.isPaid || rejected.isVerified {
		t.Fatalf("rejected receipt must stay unpaid and unverified, got %+v", rejected)
	}
	if rejected.status != models.ReceiptVerificationStatusRejected {
		t.Fatalf("rejected receipt expected REJECTED, got %q", rejected.status)
	}
}

// matchesPaymentFilter mirrors the AND composition of the landlord listing
// query: every non-empty filter must hold at once.
func matchesPaymentFilter(filter models.CondoPaymentFilter, channel models.CondoPaymentChannel, status models.ReceiptVerificationStatus) bool {
	if filter.Status != "" && filter.Status != "ALL" && string(status) != filter.Status {
		return false
	}
	if filter.Channel != "" && filter.Channel != "ALL" && string(channel) != filter.Channel {
		return false
	}
	return true
}

func TestPaymentFilter_ComposesStatusAndChannel(t *testing.T) {
	rows := []struct {
		channel models.CondoPaymentChannel
		status  models.ReceiptVerificationStatus
	}{
		{models.CondoPaymentChannelGateway, ""},
		{models.CondoPaymentChannelGateway, ""},
		{models.CondoPaymentChannelGateway, ""},
		{models.CondoPaymentChannelManual, ""},
		{models.CondoPaymentChannelManual, ""},
		{models.CondoPaymentChannelReceipt, models.ReceiptVerificationStatusPending},
		{models.CondoPaymentChannelReceipt, models.ReceiptVerificationStatusPending},
	}

	count := func(filter models.CondoPaymentFilter) int {
		n := 0
		for _, r := range rows {
			if matchesPaymentFilter(filter, r.channel, r.status) {
				n++
			}
		}
		return n
	}

	// Gateway payments never carry PENDING; the conjunction must yield zero
	// even though each filter alone matches rows.
	if got := count(models.CondoPaymentFilter{Status: "PENDING", Channel: "GATEWAY"}); got != 0 {
		t.Fatalf("PENDING+GATEWAY expected 0 rows, got %d", got)
	}
	if got := count(models.CondoPaymentFilter{Status: "PENDING", Channel: "RECEIPT"}); got != 2 {
		t.Fatalf("PENDING+RECEIPT expected 2 rows, got %d", got)
	}
	if got := count(models.CondoPaymentFilter{Channel: "GATEWAY"}); got != 3 {
		t.Fatalf("GATEWAY expected 3 rows, got %d", got)
	}
	if got := count(models.CondoPaymentFilter{Status: "ALL", Channel: "ALL"}); got != len(rows) {
		t.Fatalf("ALL+ALL expected %d rows, got %d", len(rows), got)
	}
}
