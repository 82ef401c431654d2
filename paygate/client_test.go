package paygate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  "sk_test_123",
		currency:   "PHP",
		successUrl: "https://app.example.com/paid",
		cancelUrl:  "https://app.example.com/cancel",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestCreateCheckoutSession_SendsMinorUnitsAndAuth(t *testing.T) {
	var captured createSessionRequest
	var authHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout_sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(sessionEnvelope{Data: sessionData{
			ID: "cs_test_1",
			Attributes: sessionAttributes{
				CheckoutUrl:   "https://checkout.example.com/cs_test_1",
				PaymentStatus: CheckoutSessionStatusUnpaid,
			},
		}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	session, err := c.CreateCheckoutSession(context.Background(),
		"Rent for Unit 2B (05-2024)", "payment-1",
		decimal.RequireFromString("15000.50"), decimal.RequireFromString("1250"))
	if err != nil {
		t.Fatalf("CreateCheckoutSession error: %v", err)
	}

	if session.ID != "cs_test_1" || session.CheckoutUrl == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_123:"))
	if authHeader != wantAuth {
		t.Fatalf("auth header expected %q, got %q", wantAuth, authHeader)
	}

	items := captured.Data.Attributes.LineItems
	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	if items[0].Amount != 1500050 {
		t.Fatalf("rent amount expected 1500050 centavos, got %d", items[0].Amount)
	}
	if items[1].Amount != 125000 {
		t.Fatalf("additional amount expected 125000 centavos, got %d", items[1].Amount)
	}
	if captured.Data.Attributes.ReferenceNumber != "payment-1" {
		t.Fatalf("reference number expected payment id, got %q", captured.Data.Attributes.ReferenceNumber)
	}
}

func TestCreateCheckoutSession_OmitsZeroAdditionalCost(t *testing.T) {
	var captured createSessionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(sessionEnvelope{Data: sessionData{ID: "cs_test_2"}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.CreateCheckoutSession(context.Background(), "Rent", "payment-2",
		decimal.NewFromInt(20000), decimal.Zero); err != nil {
		t.Fatalf("CreateCheckoutSession error: %v", err)
	}

	if len(captured.Data.Attributes.LineItems) != 1 {
		t.Fatalf("zero additional cost must not produce a line item, got %d items", len(captured.Data.Attributes.LineItems))
	}
}

func TestGetCheckoutSession_ParsesPaidStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/cs_test_3") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(sessionEnvelope{Data: sessionData{
			ID: "cs_test_3",
			Attributes: sessionAttributes{
				PaymentStatus: CheckoutSessionStatusPaid,
				CheckoutUrl:   "https://checkout.example.com/cs_test_3",
			},
		}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	session, err := c.GetCheckoutSession(context.Background(), "cs_test_3")
	if err != nil {
		t.Fatalf("GetCheckoutSession error: %v", err)
	}
	if session.Status != CheckoutSessionStatusPaid {
		t.Fatalf("status expected paid, got %q", session.Status)
	}
}

func TestGetCheckoutSession_EmptyStatusDefaultsToUnpaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionEnvelope{Data: sessionData{ID: "cs_test_4"}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	session, err := c.GetCheckoutSession(context.Background(), "cs_test_4")
	if err != nil {
		t.Fatalf("GetCheckoutSession error: %v", err)
	}
	if session.Status != CheckoutSessionStatusUnpaid {
		t.Fatalf("missing status expected unpaid, got %q", session.Status)
	}
}

func TestDo_SurfacesGatewayErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errorEnvelope{Errors: []apiError{
			{Code: "authentication_error", Detail: "invalid api key"},
		}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetCheckoutSession(context.Background(), "cs_test_5")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid api key") || !strings.Contains(err.Error(), "authentication_error") {
		t.Fatalf("error must carry gateway detail and code, got: %v", err)
	}
}

func TestToMinorUnit_RoundsToNearestCentavo(t *testing.T) {
	cases := []struct {
		in       string
		expected int64
	}{
		{"100", 10000},
		{"99.99", 9999},
		{"0.005", 1},
		{"1234.567", 123457},
	}
	for _, tc := range cases {
		if got := toMinorUnit(decimal.RequireFromString(tc.in)); got != tc.expected {
			t.Fatalf("toMinorUnit(%s) expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}
