package plans

import "time"

type Plan struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string
	StripePriceID string `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id"`
	Price         float64
	Currency      string
	Interval      string // month/year
	Active        bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
