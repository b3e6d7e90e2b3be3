package store

import (
	"time"

	"github.com/shopspring/decimal"

	"cafeteria-backend/internal/model"
)

// MealSpec describes one meal slot of a package being created or renewed.
type MealSpec struct {
	Enabled bool            `json:"enabled"`
	Total   int             `json:"total"`
	Price   decimal.Decimal `json:"price"`
}

// CreatePackageInput carries everything needed to create a package.
type CreatePackageInput struct {
	MemberID    string            `json:"member_id"`
	MemberType  model.MemberType  `json:"member_type"`
	PackageType model.PackageType `json:"package_type"`

	Breakfast MealSpec `json:"breakfast"`
	Lunch     MealSpec `json:"lunch"`
	Dinner    MealSpec `json:"dinner"`

	// Balance is the initial deposit for daily_basis packages.
	Balance decimal.Decimal `json:"balance"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// DisabledDays and DisabledMeals apply to partial_full_time packages.
	DisabledDays  []time.Time                       `json:"disabled_days"`
	DisabledMeals map[string][]model.MealType       `json:"disabled_meals"`
}

// Meal returns the slot for one meal type.
func (in *CreatePackageInput) Meal(m model.MealType) MealSpec {
	switch m {
	case model.MealBreakfast:
		return in.Breakfast
	case model.MealLunch:
		return in.Lunch
	case model.MealDinner:
		return in.Dinner
	}
	return MealSpec{}
}

// RenewPackageInput carries the replacement package's fields. Zero-valued meal
// prices inherit the old package's prices.
type RenewPackageInput struct {
	CreatePackageInput
	CarryOver bool `json:"carry_over"`
}

// RenewResult reports the outcome of a renewal.
type RenewResult struct {
	Package      *model.MemberPackage     `json:"package"`
	OldPackageID int64                    `json:"old_package_id"`
	CarriedOver  map[model.MealType]int   `json:"carried_over"`
}

// ManualConfirmInput is the admin override marking a member as having taken a
// meal on a given date.
type ManualConfirmInput struct {
	MemberID     string         `json:"member_id"`
	Date         time.Time      `json:"date"`
	MealType     model.MealType `json:"meal_type"`
	MenuOptionID *int64         `json:"menu_option_id"`
	Notes        string         `json:"notes"`
}

// ManualConfirmResult reports what the override touched.
type ManualConfirmResult struct {
	Package   *model.MemberPackage `json:"package,omitempty"`
	Selection *model.MealSelection `json:"selection"`
	Deducted  decimal.Decimal      `json:"deducted"`
}

// MealCell is one member/date/meal cell of the meal-status report.
type MealCell struct {
	Status      model.MealStatus `json:"status"`
	TokenNo     *int             `json:"token_no,omitempty"`
	CollectedAt *time.Time       `json:"collected_at,omitempty"`
}

// ReportMember is one qualifying member's row in the report. Days maps a date
// (model.DateLayout) to per-meal cells.
type ReportMember struct {
	MemberID   string                                   `json:"member_id"`
	Name       string                                   `json:"name"`
	MemberType model.MemberType                         `json:"member_type"`
	PackageID  int64                                    `json:"package_id"`
	Days       map[string]map[model.MealType]MealCell   `json:"days"`
}

// ReportStats summarizes the most recent day of the report.
type ReportStats struct {
	TotalMembers int                    `json:"total_members"`
	Taking       int                    `json:"taking"`
	NotTaking    int                    `json:"not_taking"`
	PerMeal      map[model.MealType]int `json:"per_meal"`
}

// MealStatusReport is the read-only historical view across a date range.
// Dates are ordered newest first.
type MealStatusReport struct {
	Dates   []string       `json:"dates"`
	Members []ReportMember `json:"members"`
	Stats   ReportStats    `json:"stats"`
}
