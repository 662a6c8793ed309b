package store

import (
	"context"
	"errors"
	"strings"

	"emsforge/internal/domain/billing"
	"emsforge/internal/domain/plans"
	"emsforge/internal/domain/users"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed store. User mutations run inside a
// transaction holding a FOR UPDATE lock on the target row, so concurrent
// webhook deliveries for the same customer apply one at a time.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, u *users.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]users.User, error) {
	var all []users.User
	if err := s.db.WithContext(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}

func (s *GormStore) ActivateUser(ctx context.Context, p ActivateParams) (*users.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	var out users.User
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := lockUserByEmail(tx, email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if errors.Is(err, ErrNotFound) {
			status := p.Status
			if status == "" {
				status = "active"
			}
			fresh := users.User{
				FirstName:          p.FirstName,
				LastName:           p.LastName,
				Email:              email,
				Role:               users.RoleStudent,
				StripeCustomerID:   &p.CustomerID,
				SubscriptionPlan:   p.Plan,
				SubscriptionStatus: status,
			}
			cErr := tx.Create(&fresh).Error
			if cErr == nil {
				created = true
				out = fresh
				return nil
			}
			if !errors.Is(cErr, gorm.ErrDuplicatedKey) {
				return cErr
			}
			// A concurrent insert won the unique-index race; update instead.
			if u, err = lockUserByEmail(tx, email); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"stripe_customer_id": p.CustomerID,
			"subscription_plan":  p.Plan,
		}
		if p.Status != "" {
			updates["subscription_status"] = p.Status
		}
		if err := tx.Model(&users.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
			return err
		}

		out = *u
		out.StripeCustomerID = &p.CustomerID
		out.SubscriptionPlan = p.Plan
		if p.Status != "" {
			out.SubscriptionStatus = p.Status
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func (s *GormStore) SetSubscriptionStatus(ctx context.Context, customerID, status string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u users.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_customer_id = ?", customerID).
			First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return tx.Model(&users.User{}).
			Where("id = ?", u.ID).
			Update("subscription_status", status).Error
	})
}

func lockUserByEmail(tx *gorm.DB, email string) (*users.User, error) {
	var u users.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) CreateCheckoutSession(ctx context.Context, cs *billing.CheckoutSession) error {
	cs.Email = strings.ToLower(strings.TrimSpace(cs.Email))
	if cs.Status == "" {
		cs.Status = billing.SessionStatusCreated
	}
	if err := s.db.WithContext(ctx).Create(cs).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) CheckoutSessionByID(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
	var cs billing.CheckoutSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *GormStore) MarkSessionCompleted(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&billing.CheckoutSession{}).
		Where("session_id = ?", sessionID).
		Update("status", billing.SessionStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AppendWebhookEvent(ctx context.Context, e *billing.WebhookEvent) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) ListWebhookEvents(ctx context.Context, limit int) ([]billing.WebhookEvent, error) {
	var events []billing.WebhookEvent
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) AppendWebhookError(ctx context.Context, e *billing.WebhookError) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) ListWebhookErrors(ctx context.Context, limit int) ([]billing.WebhookError, error) {
	var errs []billing.WebhookError
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&errs).Error; err != nil {
		return nil, err
	}
	return errs, nil
}

func (s *GormStore) WebhookErrorByID(ctx context.Context, id uint) (*billing.WebhookError, error) {
	var e billing.WebhookError
	err := s.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *GormStore) UpsertPlan(ctx context.Context, p *plans.Plan) (bool, error) {
	var existing plans.Plan
	err := s.db.WithContext(ctx).Where("stripe_price_id = ?", p.StripePriceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}
	updates := map[string]interface{}{
		"name":     p.Name,
		"price":    p.Price,
		"currency": p.Currency,
		"interval": p.Interval,
		"active":   p.Active,
	}
	if err := s.db.WithContext(ctx).Model(&plans.Plan{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return false, err
	}
	p.ID = existing.ID
	return false, nil
}

func (s *GormStore) PlanByPriceID(ctx context.Context, priceID string) (*plans.Plan, error) {
	var p plans.Plan
	err := s.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ActivePlans(ctx context.Context) ([]plans.Plan, error) {
	var all []plans.Plan
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("price").Find(&all).Error; err != nil {
		return nil, err
	}
	return all, nil
}
