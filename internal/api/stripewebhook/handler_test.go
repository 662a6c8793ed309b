package stripewebhooks

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"emsforge/internal/domain/billing"
	"emsforge/internal/store"
	"emsforge/internal/subscriptions"
	"emsforge/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
)

type fixture struct {
	store    *store.MemoryStore
	stripe   *testutil.FakeStripe
	notifier *testutil.FakeNotifier
	router   *gin.Engine
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	fs := testutil.NewFakeStripe()
	fn := &testutil.FakeNotifier{}
	h := NewHandler(st, fs, subscriptions.New(st), fn, testutil.TestConfig())

	r := gin.New()
	r.POST("/webhook", h.HandleWebhook)
	return &fixture{store: st, stripe: fs, notifier: fn, router: r}
}

func (f *fixture) deliver(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) deliverSigned(payload []byte) *httptest.ResponseRecorder {
	return f.deliver(payload, testutil.SignPayload(testutil.TestConfig().StripeWebhookSecret, payload))
}

func seedCustomer(f *fixture, id, email string) {
	f.stripe.Customers[id] = &stripe.Customer{ID: id, Email: email}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	f := setup(t)
	payload := testutil.CheckoutCompletedPayload("evt_1", "cs_test_abc123", "cus_1", nil)

	w := f.deliver(payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errs, err := f.store.ListWebhookErrors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, billing.ErrContextVerification, errs[0].Context)
	assert.Equal(t, string(payload), errs[0].RawPayload)

	// never reached the synchronizer
	all, err := f.store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	events, err := f.store.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWebhookCheckoutCompletedProvisionsUser(t *testing.T) {
	f := setup(t)
	seedCustomer(f, "cus_1", "new@x.com")

	payload := testutil.CheckoutCompletedPayload("evt_1", "cs_test_abc123", "cus_1", map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"productId": "price_basic",
	})
	require.NoError(t, f.store.CreateCheckoutSession(context.Background(), &billing.CheckoutSession{
		SessionID: "cs_test_abc123",
		Email:     "new@x.com",
	}))

	w := f.deliverSigned(payload)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.store.UserByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.FirstName)
	assert.Equal(t, "price_basic", u.SubscriptionPlan)
	assert.Equal(t, "active", u.SubscriptionStatus)
	require.NotNil(t, u.StripeCustomerID)
	assert.Equal(t, "cus_1", *u.StripeCustomerID)

	cs, err := f.store.CheckoutSessionByID(context.Background(), "cs_test_abc123")
	require.NoError(t, err)
	assert.Equal(t, billing.SessionStatusCompleted, cs.Status)

	events, err := f.store.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].EventID)

	assert.Equal(t, []string{"new@x.com"}, f.notifier.Confirmations)
	assert.Equal(t, []string{"new@x.com"}, f.notifier.Alerts)
}

func TestWebhookReplayedEventIsDeduplicated(t *testing.T) {
	f := setup(t)
	seedCustomer(f, "cus_1", "new@x.com")
	payload := testutil.CheckoutCompletedPayload("evt_1", "cs_test_abc123", "cus_1", map[string]string{
		"firstName": "Jane", "lastName": "Doe", "productId": "price_basic",
	})

	for i := 0; i < 3; i++ {
		w := f.deliverSigned(payload)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	all, err := f.store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	events, err := f.store.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// only the first delivery notifies
	assert.Len(t, f.notifier.Confirmations, 1)
}

func TestWebhookSubscriptionUpdatedSetsStatus(t *testing.T) {
	f := setup(t)
	_, _, err := f.store.ActivateUser(context.Background(), store.ActivateParams{
		Email: "jane@x.com", CustomerID: "cus_1", Plan: "price_basic",
	})
	require.NoError(t, err)

	payload := testutil.SubscriptionEventPayload("evt_2", "customer.subscription.updated", "cus_1", "past_due")
	w := f.deliverSigned(payload)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.store.UserByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "past_due", u.SubscriptionStatus)
}

func TestWebhookSubscriptionDeletedSetsStatus(t *testing.T) {
	f := setup(t)
	_, _, err := f.store.ActivateUser(context.Background(), store.ActivateParams{
		Email: "jane@x.com", CustomerID: "cus_1", Plan: "price_basic",
	})
	require.NoError(t, err)

	payload := testutil.SubscriptionEventPayload("evt_3", "customer.subscription.deleted", "cus_1", "canceled")
	w := f.deliverSigned(payload)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.store.UserByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "canceled", u.SubscriptionStatus)
}

func TestWebhookStatusBeforeActivationIsAcknowledged(t *testing.T) {
	f := setup(t)

	payload := testutil.SubscriptionEventPayload("evt_4", "customer.subscription.updated", "cus_unknown", "past_due")
	w := f.deliverSigned(payload)
	assert.Equal(t, http.StatusOK, w.Code)

	errs, err := f.store.ListWebhookErrors(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestWebhookUnknownEventIsLedgerOnly(t *testing.T) {
	f := setup(t)

	payload := testutil.SubscriptionEventPayload("evt_5", "invoice.paid", "cus_1", "")
	w := f.deliverSigned(payload)
	assert.Equal(t, http.StatusOK, w.Code)

	events, err := f.store.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "invoice.paid", events[0].EventType)
}

func TestWebhookProcessingFailureIsSwallowedAndLedgered(t *testing.T) {
	f := setup(t)
	// no customer seeded: the customer lookup inside the branch fails

	payload := testutil.CheckoutCompletedPayload("evt_6", "cs_test_abc123", "cus_missing", nil)
	w := f.deliverSigned(payload)

	// the receiver-side failure is not surfaced to the provider
	assert.Equal(t, http.StatusOK, w.Code)

	errs, err := f.store.ListWebhookErrors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, billing.ErrContextMainHandler, errs[0].Context)
	assert.Equal(t, string(payload), errs[0].RawPayload)
}

func TestWebhookNotificationFailureDoesNotRevertActivation(t *testing.T) {
	f := setup(t)
	seedCustomer(f, "cus_1", "new@x.com")
	f.notifier.ConfirmErr = errors.New("smtp down")
	f.notifier.AlertErr = errors.New("discord down")

	payload := testutil.CheckoutCompletedPayload("evt_7", "cs_test_abc123", "cus_1", map[string]string{
		"firstName": "Jane", "lastName": "Doe", "productId": "price_basic",
	})
	w := f.deliverSigned(payload)
	require.Equal(t, http.StatusOK, w.Code)

	// activation stays committed
	u, err := f.store.UserByEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "active", u.SubscriptionStatus)

	// each channel failure is ledgered independently
	errs, err := f.store.ListWebhookErrors(context.Background(), 10)
	require.NoError(t, err)
	contexts := []string{}
	for _, e := range errs {
		contexts = append(contexts, e.Context)
	}
	assert.ElementsMatch(t, []string{billing.ErrContextEmailSend, billing.ErrContextDiscord}, contexts)
}
