package paygate

// CheckoutSessionStatus values reported by the gateway.
type CheckoutSessionStatus string

const (
	CheckoutSessionStatusActive  CheckoutSessionStatus = "active"
	CheckoutSessionStatusPaid    CheckoutSessionStatus = "paid"
	CheckoutSessionStatusUnpaid  CheckoutSessionStatus = "unpaid"
	CheckoutSessionStatusExpired CheckoutSessionStatus = "expired"
)

// CheckoutSession is the subset of the gateway's session resource this
// backend cares about.
type CheckoutSession struct {
	ID          string                `json:"id"`
	Status      CheckoutSessionStatus `json:"status"`
	CheckoutUrl string                `json:"checkout_url"`
}

type lineItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type sessionAttributes struct {
	Description        string                `json:"description,omitempty"`
	LineItems          []lineItem            `json:"line_items,omitempty"`
	PaymentMethodTypes []string              `json:"payment_method_types,omitempty"`
	ReferenceNumber    string                `json:"reference_number,omitempty"`
	SuccessUrl         string                `json:"success_url,omitempty"`
	CancelUrl          string                `json:"cancel_url,omitempty"`
	CheckoutUrl        string                `json:"checkout_url,omitempty"`
	PaymentStatus      CheckoutSessionStatus `json:"payment_status,omitempty"`
}

type sessionData struct {
	ID         string            `json:"id"`
	Attributes sessionAttributes `json:"attributes"`
}

type sessionEnvelope struct {
	Data sessionData `json:"data"`
}

type createSessionRequest struct {
	Data struct {
		Attributes sessionAttributes `json:"attributes"`
	} `json:"data"`
}

type apiError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type errorEnvelope struct {
	Errors []apiError `json:"errors"`
}
