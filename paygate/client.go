// Package paygate talks to the hosted-checkout payment gateway. The
// backend creates one checkout session per gateway payment record and
// polls the session until the gateway reports it paid.
package paygate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	successUrl string
	cancelUrl  string
	httpClient *http.Client
}

// NewClient reads the gateway configuration from env:
// - PAYGATE_BASE_URL (default https://api.paymongo.com)
// - PAYGATE_SECRET_KEY (required)
// - PAYGATE_CURRENCY (default PHP)
// - PAYGATE_SUCCESS_URL / PAYGATE_CANCEL_URL (redirect targets)
func NewClient() (*Client, error) {
	secret := strings.TrimSpace(os.Getenv("PAYGATE_SECRET_KEY"))
	if secret == "" {
		return nil, errors.New("PAYGATE_SECRET_KEY is required")
	}

	base := strings.TrimSpace(os.Getenv("PAYGATE_BASE_URL"))
	if base == "" {
		base = "https://api.paymongo.com"
	}
	currency := strings.TrimSpace(os.Getenv("PAYGATE_CURRENCY"))
	if currency == "" {
		currency = "PHP"
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		secretKey:  secret,
		currency:   currency,
		successUrl: strings.TrimSpace(os.Getenv("PAYGATE_SUCCESS_URL")),
		cancelUrl:  strings.TrimSpace(os.Getenv("PAYGATE_CANCEL_URL")),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// CreateCheckoutSession opens a hosted checkout for one billing-month
// charge. Amounts are whole currency units; the gateway wants the minor
// unit (centavos).
func (c *Client) CreateCheckoutSession(ctx context.Context, description string, referenceId string, rentCost decimal.Decimal, additionalCost decimal.Decimal) (*CheckoutSession, error) {
	items := []lineItem{
		{
			Name:     "Monthly rent",
			Amount:   toMinorUnit(rentCost),
			Currency: c.currency,
			Quantity: 1,
		},
	}
	if additionalCost.IsPositive() {
		items = append(items, lineItem{
			Name:     "Maintenance and additional cost",
			Amount:   toMinorUnit(additionalCost),
			Currency: c.currency,
			Quantity: 1,
		})
	}

	var req createSessionRequest
	req.Data.Attributes = sessionAttributes{
		Description:        description,
		LineItems:          items,
		PaymentMethodTypes: []string{"card", "gcash", "paymaya"},
		ReferenceNumber:    referenceId,
		SuccessUrl:         c.successUrl,
		CancelUrl:          c.cancelUrl,
	}

	var env sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/v1/checkout_sessions", &req, &env); err != nil {
		return nil, err
	}
	return sessionFromData(env.Data), nil
}

// GetCheckoutSession polls a previously created session.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionId string) (*CheckoutSession, error) {
	if sessionId == "" {
		return nil, errors.New("session id is required")
	}

	var env sessionEnvelope
	path := "/v1/checkout_sessions/" + url.PathEscape(sessionId)
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return sessionFromData(env.Data), nil
}

func sessionFromData(data sessionData) *CheckoutSession {
	status := data.Attributes.PaymentStatus
	if status == "" {
		status = CheckoutSessionStatusUnpaid
	}
	return &CheckoutSession{
		ID:          data.ID,
		Status:      status,
		CheckoutUrl: data.Attributes.CheckoutUrl,
	}
}

func toMinorUnit(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.secretKey))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errEnv errorEnvelope
		if jsonErr := json.Unmarshal(data, &errEnv); jsonErr == nil && len(errEnv.Errors) > 0 {
			return fmt.Errorf("gateway %s %s: %s (%s)", method, path, errEnv.Errors[0].Detail, errEnv.Errors[0].Code)
		}
		return fmt.Errorf("gateway %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("gateway %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

func basicAuth(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}
