package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"emsforge/internal/domain/users"
	"emsforge/internal/store"
)

// A Fact is something a verified provider event establishes about a user.
// The webhook processor translates raw events into this closed set and the
// synchronizer applies them through one path.
type Fact interface {
	fact()
}

// Activation is derived from checkout.session.completed: the registrant
// identified by Email now owns CustomerID and is subscribed to Plan.
type Activation struct {
	FirstName  string
	LastName   string
	Email      string
	CustomerID string
	Plan       string
}

// StatusChange is derived from customer.subscription.updated/deleted.
type StatusChange struct {
	CustomerID string
	Status     string
}

func (Activation) fact()   {}
func (StatusChange) fact() {}

// Synchronizer translates provider-reported facts into local entitlement
// state. Both operations are idempotent: replaying the same fact leaves the
// same end state.
type Synchronizer struct {
	store store.Store
}

func New(st store.Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// Apply dispatches a fact to the matching operation. The admin replay path
// and tests drive the synchronizer through here.
func (s *Synchronizer) Apply(ctx context.Context, f Fact) error {
	switch f := f.(type) {
	case Activation:
		_, err := s.Activate(ctx, f)
		return err
	case StatusChange:
		return s.SetStatus(ctx, f)
	default:
		return fmt.Errorf("unknown fact type %T", f)
	}
}

// Activate creates the user for a first-time checkout or updates the
// customer reference and plan of an existing one. Safe to invoke more than
// once for the same checkout: re-invocation never creates a duplicate and
// never regresses applied fields.
func (s *Synchronizer) Activate(ctx context.Context, a Activation) (*users.User, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" {
		return nil, errors.New("activation missing email")
	}
	if a.CustomerID == "" {
		return nil, errors.New("activation missing customer id")
	}

	u, _, err := s.store.ActivateUser(ctx, store.ActivateParams{
		Email:      email,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		CustomerID: a.CustomerID,
		Plan:       a.Plan,
	})
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", email, err)
	}
	return u, nil
}

// SetStatus records the provider-reported status verbatim. An unknown
// customer is a no-op: a status event may legitimately arrive before the
// activating event.
func (s *Synchronizer) SetStatus(ctx context.Context, c StatusChange) error {
	if c.CustomerID == "" {
		return errors.New("status change missing customer id")
	}
	err := s.store.SetSubscriptionStatus(ctx, c.CustomerID, c.Status)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
