package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/models/reports"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"bitbucket.org/mmdatafocus/condopal_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestBillingFlow_FirstPaymentChargeAndSummary(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "condopal_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	landlord, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Landlord",
		Email:    "landlord@billing.test",
		Password: "secret-pass-1",
		Role:     models.UserRoleLandlord,
	})
	if err != nil {
		t.Fatalf("CreateUser landlord: %v", err)
	}
	tenant, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Tenant",
		Email:    "tenant@billing.test",
		Password: "secret-pass-2",
		Role:     models.UserRoleTenant,
	})
	if err != nil {
		t.Fatalf("CreateUser tenant: %v", err)
	}

	landlordCtx := utils.SetUserIdInContext(ctx, landlord.ID)
	tenantCtx := utils.SetUserIdInContext(ctx, tenant.ID)

	condo, err := models.CreateCondo(landlordCtx, landlord.ID, &models.NewCondo{
		Name:       "Unit 2B",
		Address:    "1 Test Tower",
		RentAmount: decimal.NewFromInt(10000),
	})
	if err != nil {
		t.Fatalf("CreateCondo: %v", err)
	}

	if _, err := models.CreateLeaseAgreement(landlordCtx, landlord.ID, &models.NewLeaseAgreement{
		CondoId:    condo.ID,
		TenantId:   tenant.ID,
		LeaseStart: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		DueDay:     10,
	}); err != nil {
		t.Fatalf("CreateLeaseAgreement: %v", err)
	}

	// No prior payment: billing month is the lease-start month, and the due
	// date is placed in the current calendar month.
	period, err := models.ResolveBillingPeriod(tenantCtx, condo.ID, tenant.ID)
	if err != nil {
		t.Fatalf("ResolveBillingPeriod: %v", err)
	}
	if period.BillingMonth != "01-2024" {
		t.Fatalf("first-payment billing month expected 01-2024, got %q", period.BillingMonth)
	}
	now := time.Now().UTC()
	wantDue := time.Date(now.Year(), now.Month(), 10, 0, 0, 0, 0, time.UTC)
	if !period.DueDate.Equal(wantDue) {
		t.Fatalf("first-payment due date expected %v, got %v", wantDue, period.DueDate)
	}

	// Tenant-responsibility maintenance completed inside the billing window
	// joins the charge. Completion is stamped "now" on completion, so pin it
	// into January 2024 for the scenario.
	job, err := models.CreateMaintenance(landlordCtx, landlord.ID, &models.NewMaintenance{
		CondoId:               condo.ID,
		Title:                 "Broken faucet",
		PaymentResponsibility: models.PaymentResponsibilityTenant,
		TotalCost:             decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("CreateMaintenance: %v", err)
	}
	if _, err := models.CompleteMaintenance(landlordCtx, landlord.ID, job.ID, nil); err != nil {
		t.Fatalf("CompleteMaintenance: %v", err)
	}
	completed := time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)
	if err := db.Model(&models.Maintenance{}).Where("id = ?", job.ID).
		Update("completion_date", completed).Error; err != nil {
		t.Fatalf("pin completion date: %v", err)
	}

	charge, err := models.ComputeCharge(tenantCtx, condo.ID, tenant.ID)
	if err != nil {
		t.Fatalf("ComputeCharge: %v", err)
	}
	if !charge.RentCost.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("rent cost expected 10000, got %s", charge.RentCost)
	}
	if !charge.AdditionalCost.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("additional cost expected 1500, got %s", charge.AdditionalCost)
	}
	if !charge.TotalCost.Equal(decimal.NewFromInt(11500)) {
		t.Fatalf("total cost expected 11500, got %s", charge.TotalCost)
	}

	payment, err := workflow.CreateReceiptPayment(tenantCtx, "https://storage.example.com/"+tenant.ID+"/receipts/r1.jpg")
	if err != nil {
		t.Fatalf("CreateReceiptPayment: %v", err)
	}
	if payment.BillingMonth != "01-2024" {
		t.Fatalf("payment billing month expected 01-2024, got %q", payment.BillingMonth)
	}
	if !payment.TotalPaid.Equal(decimal.NewFromInt(11500)) {
		t.Fatalf("payment total expected 11500, got %s", payment.TotalPaid)
	}
	if payment.VerificationStatus != models.ReceiptVerificationStatusPending {
		t.Fatalf("receipt payment expected PENDING, got %q", payment.VerificationStatus)
	}

	// The dashboard counts every recorded payment row, settled or not; the
	// unverified receipt also shows up in the pending figure.
	summary, err := reports.GetLandlordPaymentsSummary(landlordCtx, landlord.ID)
	if err != nil {
		t.Fatalf("GetLandlordPaymentsSummary: %v", err)
	}
	if !summary.AllTime.Equal(decimal.NewFromInt(11500)) {
		t.Fatalf("all-time total expected 11500 including the pending receipt, got %s", summary.AllTime)
	}
	if !summary.PendingVerification.Equal(decimal.NewFromInt(11500)) {
		t.Fatalf("pending verification expected 11500, got %s", summary.PendingVerification)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("condopal-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("condopal-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=condopal_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
