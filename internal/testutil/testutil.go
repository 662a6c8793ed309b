package testutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"emsforge/config"

	"github.com/stripe/stripe-go/v75"
)

// TestConfig returns a Config with deterministic secrets for handler tests.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "8080",
		JWTSecret:           "test-jwt-secret",
		StripeSecretKey:     "sk_test_fake",
		StripeWebhookSecret: "whsec_test_secret",
		AppURL:              "http://localhost:5173",
	}
}

// SignPayload produces a Stripe-Signature header the webhook package
// accepts: t=<unix>,v1=<hmac-sha256(secret, "<unix>.<payload>")>.
func SignPayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// CheckoutCompletedPayload builds a checkout.session.completed event body.
func CheckoutCompletedPayload(eventID, sessionID, customerID string, metadata map[string]string) []byte {
	event := map[string]interface{}{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       sessionID,
				"customer": customerID,
				"metadata": metadata,
			},
		},
	}
	payload, _ := json.Marshal(event)
	return payload
}

// SubscriptionEventPayload builds a customer.subscription.* event body.
func SubscriptionEventPayload(eventID, eventType, customerID, status string) []byte {
	event := map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "sub_" + customerID,
				"customer": customerID,
				"status":   status,
			},
		},
	}
	payload, _ := json.Marshal(event)
	return payload
}

// FakeStripe is a scripted stand-in for the stripeapi.Client interface.
type FakeStripe struct {
	Sessions  map[string]*stripe.CheckoutSession
	Customers map[string]*stripe.Customer
	Prices    []*stripe.Price

	CreateErr     error
	CreatedParams []*stripe.CheckoutSessionParams

	// Calls counts every API invocation, so tests can assert that
	// short-circuit paths never reach Stripe.
	Calls int
}

func NewFakeStripe() *FakeStripe {
	return &FakeStripe{
		Sessions:  make(map[string]*stripe.CheckoutSession),
		Customers: make(map[string]*stripe.Customer),
	}
}

func (f *FakeStripe) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.Calls++
	f.CreatedParams = append(f.CreatedParams, params)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	return &stripe.CheckoutSession{
		ID:  "cs_test_created123",
		URL: "https://checkout.stripe.com/pay/cs_test_created123",
	}, nil
}

func (f *FakeStripe) CheckoutSession(id string) (*stripe.CheckoutSession, error) {
	f.Calls++
	s, ok := f.Sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", id)
	}
	return s, nil
}

func (f *FakeStripe) Customer(id string) (*stripe.Customer, error) {
	f.Calls++
	c, ok := f.Customers[id]
	if !ok {
		return nil, fmt.Errorf("no such customer: %s", id)
	}
	return c, nil
}

func (f *FakeStripe) ActivePrices() ([]*stripe.Price, error) {
	f.Calls++
	return f.Prices, nil
}

// FakeNotifier records notifications and fails on demand.
type FakeNotifier struct {
	ConfirmErr error
	AlertErr   error

	Confirmations []string // recipient emails
	Alerts        []string
}

func (f *FakeNotifier) SendConfirmation(firstName, to, plan, loginToken string) error {
	if f.ConfirmErr != nil {
		return f.ConfirmErr
	}
	f.Confirmations = append(f.Confirmations, to)
	return nil
}

func (f *FakeNotifier) SendAlert(email, plan string) error {
	if f.AlertErr != nil {
		return f.AlertErr
	}
	f.Alerts = append(f.Alerts, email)
	return nil
}
