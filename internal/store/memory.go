package store

import (
	"context"
	"strings"
	"sync"

	"emsforge/internal/domain/billing"
	"emsforge/internal/domain/plans"
	"emsforge/internal/domain/users"
)

// MemoryStore keeps everything in maps behind one mutex. The mutex gives the
// same per-key update serialization the gorm store gets from row locks,
// which is what the synchronizer concurrency tests exercise.
type MemoryStore struct {
	mu sync.Mutex

	usersByEmail map[string]*users.User
	nextUserID   uint

	sessions map[string]*billing.CheckoutSession

	events      []billing.WebhookEvent
	eventIDs    map[string]bool
	nextEventID uint

	errors      []billing.WebhookError
	nextErrorID uint

	plans      map[string]*plans.Plan
	nextPlanID uint
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByEmail: make(map[string]*users.User),
		sessions:     make(map[string]*billing.CheckoutSession),
		eventIDs:     make(map[string]bool),
		plans:        make(map[string]*plans.Plan),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) CreateUser(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, ok := s.usersByEmail[email]; ok {
		return ErrDuplicate
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.Email = email
	cp := *u
	s.usersByEmail[email] = &cp
	return nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]users.User, 0, len(s.usersByEmail))
	for _, u := range s.usersByEmail {
		all = append(all, *u)
	}
	return all, nil
}

func (s *MemoryStore) ActivateUser(_ context.Context, p ActivateParams) (*users.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(p.Email)
	u, ok := s.usersByEmail[email]
	if !ok {
		status := p.Status
		if status == "" {
			status = "active"
		}
		customerID := p.CustomerID
		s.nextUserID++
		u = &users.User{
			ID:                 s.nextUserID,
			FirstName:          p.FirstName,
			LastName:           p.LastName,
			Email:              email,
			Role:               users.RoleStudent,
			StripeCustomerID:   &customerID,
			SubscriptionPlan:   p.Plan,
			SubscriptionStatus: status,
		}
		s.usersByEmail[email] = u
		cp := *u
		return &cp, true, nil
	}

	customerID := p.CustomerID
	u.StripeCustomerID = &customerID
	u.SubscriptionPlan = p.Plan
	if p.Status != "" {
		u.SubscriptionStatus = p.Status
	}
	cp := *u
	return &cp, false, nil
}

func (s *MemoryStore) SetSubscriptionStatus(_ context.Context, customerID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.usersByEmail {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			u.SubscriptionStatus = status
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateCheckoutSession(_ context.Context, cs *billing.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[cs.SessionID]; ok {
		return ErrDuplicate
	}
	cs.Email = normalizeEmail(cs.Email)
	if cs.Status == "" {
		cs.Status = billing.SessionStatusCreated
	}
	cp := *cs
	s.sessions[cs.SessionID] = &cp
	return nil
}

func (s *MemoryStore) CheckoutSessionByID(_ context.Context, sessionID string) (*billing.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cs
	return &cp, nil
}

func (s *MemoryStore) MarkSessionCompleted(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	cs.Status = billing.SessionStatusCompleted
	return nil
}

func (s *MemoryStore) AppendWebhookEvent(_ context.Context, e *billing.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventIDs[e.EventID] {
		return ErrDuplicate
	}
	s.nextEventID++
	e.ID = s.nextEventID
	s.eventIDs[e.EventID] = true
	s.events = append(s.events, *e)
	return nil
}

func (s *MemoryStore) ListWebhookEvents(_ context.Context, limit int) ([]billing.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]billing.WebhookEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *MemoryStore) AppendWebhookError(_ context.Context, e *billing.WebhookError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextErrorID++
	e.ID = s.nextErrorID
	s.errors = append(s.errors, *e)
	return nil
}

func (s *MemoryStore) ListWebhookErrors(_ context.Context, limit int) ([]billing.WebhookError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]billing.WebhookError, 0, limit)
	for i := len(s.errors) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.errors[i])
	}
	return out, nil
}

func (s *MemoryStore) WebhookErrorByID(_ context.Context, id uint) (*billing.WebhookError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.errors {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertPlan(_ context.Context, p *plans.Plan) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.plans[p.StripePriceID]
	if ok {
		p.ID = existing.ID
		cp := *p
		s.plans[p.StripePriceID] = &cp
		return false, nil
	}
	s.nextPlanID++
	p.ID = s.nextPlanID
	cp := *p
	s.plans[p.StripePriceID] = &cp
	return true, nil
}

func (s *MemoryStore) PlanByPriceID(_ context.Context, priceID string) (*plans.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[priceID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ActivePlans(_ context.Context) ([]plans.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []plans.Plan
	for _, p := range s.plans {
		if p.Active {
			all = append(all, *p)
		}
	}
	return all, nil
}
