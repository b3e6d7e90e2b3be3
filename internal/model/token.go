package model

import "time"

// MealToken is a single-use, sequentially numbered claim on one meal for one
// member on one date, independent of the package system. TokenNo restarts at 1
// each calendar day and is unique per organization and date.
type MealToken struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string      `gorm:"size:64;not null;uniqueIndex:idx_org_date_no" json:"organization_id"`
	TokenNo        int         `gorm:"not null;uniqueIndex:idx_org_date_no" json:"token_no"`
	MemberID       string      `gorm:"index;size:64;not null" json:"member_id"`
	MealType       MealType    `gorm:"size:16;not null" json:"meal_type"`
	TokenDate      time.Time   `gorm:"type:date;not null;index;uniqueIndex:idx_org_date_no" json:"token_date"`
	TokenTime      time.Time   `gorm:"not null" json:"token_time"`
	Status         TokenStatus `gorm:"size:16;not null;index" json:"status"`
	CollectedAt    *time.Time  `json:"collected_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// DailyTokenCounter assigns sequential token numbers for one calendar date,
// organization-wide. Exactly one row exists per (organization, date).
type DailyTokenCounter struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;uniqueIndex:idx_org_counter_date" json:"organization_id"`
	TokenDate      time.Time `gorm:"type:date;not null;uniqueIndex:idx_org_counter_date" json:"token_date"`
	LastTokenNo    int       `gorm:"not null;default:0" json:"last_token_no"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
