package model

import "time"

// MealSelection is a member's per-date opt-in/opt-out record. A missing row
// means every meal is needed; the booleans default to true accordingly.
type MealSelection struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;uniqueIndex:idx_org_member_date" json:"organization_id"`
	MemberID       string    `gorm:"size:64;not null;uniqueIndex:idx_org_member_date" json:"member_id"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:idx_org_member_date" json:"date"`

	BreakfastNeeded bool `gorm:"not null;default:true" json:"breakfast_needed"`
	LunchNeeded     bool `gorm:"not null;default:true" json:"lunch_needed"`
	DinnerNeeded    bool `gorm:"not null;default:true" json:"dinner_needed"`

	BreakfastOptionID *int64 `json:"breakfast_option_id,omitempty"`
	LunchOptionID     *int64 `json:"lunch_option_id,omitempty"`
	DinnerOptionID    *int64 `json:"dinner_option_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Needed reports whether the member opted in for the given meal.
func (s *MealSelection) Needed(m MealType) bool {
	switch m {
	case MealBreakfast:
		return s.BreakfastNeeded
	case MealLunch:
		return s.LunchNeeded
	case MealDinner:
		return s.DinnerNeeded
	}
	return false
}

// SetNeeded records the member's opt-in/opt-out for the given meal.
func (s *MealSelection) SetNeeded(m MealType, needed bool) {
	switch m {
	case MealBreakfast:
		s.BreakfastNeeded = needed
	case MealLunch:
		s.LunchNeeded = needed
	case MealDinner:
		s.DinnerNeeded = needed
	}
}

// SetOption attaches a chosen menu option for the given meal.
func (s *MealSelection) SetOption(m MealType, optionID *int64) {
	switch m {
	case MealBreakfast:
		s.BreakfastOptionID = optionID
	case MealLunch:
		s.LunchOptionID = optionID
	case MealDinner:
		s.DinnerOptionID = optionID
	}
}

// MenuItem is one entry in the menu catalog. The core only references catalog
// rows by ID; the admin CRUD surface lives outside this service.
type MenuItem struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string    `gorm:"index;size:64;not null" json:"organization_id"`
	Name           string    `gorm:"size:256;not null" json:"name"`
	MealType       MealType  `gorm:"size:16;not null" json:"meal_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MenuOption is a selectable variant of a menu item.
type MenuOption struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MenuItemID int64     `gorm:"index;not null" json:"menu_item_id"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`

	MenuItem MenuItem `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
