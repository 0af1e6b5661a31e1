package payment

import "context"

// LineItem is one entry in a hosted checkout page. UnitAmount is the
// tax-inclusive price in JPY, the smallest currency unit.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// SessionRequest describes the hosted payment session to open for an order.
type SessionRequest struct {
	OrderID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
}

// Session identifies a gateway-hosted payment flow.
type Session struct {
	ID  string
	URL string
}

// SessionStatus is the gateway's view of a session after the customer
// returned from the hosted page.
type SessionStatus struct {
	Paid            bool
	PaymentIntentID string
}

// WebhookEvent is a verified server-to-server notification.
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	OrderID         string
	PaymentIntentID string
	Paid            bool
}

// EventCheckoutCompleted is the event type fired when a hosted session
// collects payment.
const EventCheckoutCompleted = "checkout.session.completed"

// Gateway is the external payment processor. Implementations must verify
// webhook payloads cryptographically before returning an event.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*SessionStatus, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
