package store

import (
	"context"
	"testing"

	"emsforge/internal/domain/billing"
	"emsforge/internal/domain/plans"
	"emsforge/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUserLifecycle(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	u := &users.User{FirstName: "Jane", LastName: "Doe", Email: "Jane@Example.COM"}
	require.NoError(t, st.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)

	// duplicate email, any casing
	err := st.CreateUser(ctx, &users.User{Email: "JANE@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := st.UserByEmail(ctx, "  jane@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = st.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreActivateUser(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	u, created, err := st.ActivateUser(ctx, ActivateParams{
		Email:      "new@x.com",
		CustomerID: "cus_1",
		Plan:       "price_basic",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "active", u.SubscriptionStatus)

	// second activation updates in place
	u2, created, err := st.ActivateUser(ctx, ActivateParams{
		Email:      "new@x.com",
		CustomerID: "cus_1",
		Plan:       "price_pro",
		Status:     "trialing",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, u2.ID)
	assert.Equal(t, "price_pro", u2.SubscriptionPlan)
	assert.Equal(t, "trialing", u2.SubscriptionStatus)
}

func TestMemoryStoreSetSubscriptionStatus(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, _, err := st.ActivateUser(ctx, ActivateParams{Email: "a@x.com", CustomerID: "cus_a", Plan: "p"})
	require.NoError(t, err)

	require.NoError(t, st.SetSubscriptionStatus(ctx, "cus_a", "canceled"))
	u, err := st.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "canceled", u.SubscriptionStatus)

	assert.ErrorIs(t, st.SetSubscriptionStatus(ctx, "cus_missing", "active"), ErrNotFound)
}

func TestMemoryStoreCheckoutSessions(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	cs := &billing.CheckoutSession{SessionID: "cs_test_1", Email: "a@x.com", ProductID: "price_basic"}
	require.NoError(t, st.CreateCheckoutSession(ctx, cs))
	assert.Equal(t, billing.SessionStatusCreated, cs.Status)

	assert.ErrorIs(t, st.CreateCheckoutSession(ctx, &billing.CheckoutSession{SessionID: "cs_test_1"}), ErrDuplicate)

	require.NoError(t, st.MarkSessionCompleted(ctx, "cs_test_1"))
	got, err := st.CheckoutSessionByID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, billing.SessionStatusCompleted, got.Status)

	assert.ErrorIs(t, st.MarkSessionCompleted(ctx, "cs_test_missing"), ErrNotFound)
}

func TestMemoryStoreWebhookLedger(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	e := &billing.WebhookEvent{EventID: "evt_1", EventType: "checkout.session.completed", Payload: "{}"}
	require.NoError(t, st.AppendWebhookEvent(ctx, e))
	assert.ErrorIs(t, st.AppendWebhookEvent(ctx, &billing.WebhookEvent{EventID: "evt_1"}), ErrDuplicate)

	require.NoError(t, st.AppendWebhookError(ctx, &billing.WebhookError{Context: billing.ErrContextVerification, Message: "bad sig"}))
	require.NoError(t, st.AppendWebhookError(ctx, &billing.WebhookError{Context: billing.ErrContextMainHandler, Message: "boom"}))

	errs, err := st.ListWebhookErrors(ctx, 1)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, billing.ErrContextMainHandler, errs[0].Context) // newest first

	byID, err := st.WebhookErrorByID(ctx, errs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", byID.Message)

	events, err := st.ListWebhookEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryStorePlans(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	p := &plans.Plan{Name: "Basic", StripePriceID: "price_basic", Price: 9.99, Active: true}
	created, err := st.UpsertPlan(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	p.Price = 12.99
	created, err = st.UpsertPlan(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := st.PlanByPriceID(ctx, "price_basic")
	require.NoError(t, err)
	assert.Equal(t, 12.99, got.Price)

	active, err := st.ActivePlans(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
