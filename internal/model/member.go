package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization represents one tenant of the cafeteria system. Its settings are
// carried for the admin surface; core logic only uses the ID for scoping.
type Organization struct {
	ID         string          `gorm:"primaryKey;size:64" json:"id"`
	Name       string          `gorm:"size:256;not null" json:"name"`
	MonthlyFee decimal.Decimal `gorm:"type:decimal(10,2)" json:"monthly_fee"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Member is a cafeteria member (student, faculty, staff or guest). The member
// directory is populated by the registration boundary; this service reads it and
// maintains only the rolling meal balance used by the token flow.
type Member struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string     `gorm:"index;size:64;not null" json:"organization_id"`
	Name           string     `gorm:"size:256;not null" json:"name"`
	MemberType     MemberType `gorm:"size:16;not null;index" json:"member_type"`
	Status         string     `gorm:"size:16;not null;default:active" json:"status"`
	Approved       bool       `gorm:"not null;default:false" json:"approved"`
	ValidUntil     *time.Time `json:"valid_until"`
	BalanceMeals   int        `gorm:"not null;default:0" json:"balance_meals"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsActive reports whether the member may be issued tokens.
func (m *Member) IsActive() bool {
	return m.Status == "active"
}
