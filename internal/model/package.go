package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and map-key format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly normalizes a timestamp to midnight UTC, the canonical form for all
// calendar-date columns and map keys.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MemberPackage is a member's meal entitlement. Exactly one package per member
// may be in a non-terminal status (active or deactivated) at any time.
type MemberPackage struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string        `gorm:"index;size:64;not null" json:"organization_id"`
	MemberID       string        `gorm:"index;size:64;not null" json:"member_id"`
	MemberType     MemberType    `gorm:"size:16;not null" json:"member_type"`
	PackageType    PackageType   `gorm:"size:24;not null" json:"package_type"`
	Status         PackageStatus `gorm:"size:16;not null;index" json:"status"`
	IsActive       bool          `gorm:"not null" json:"is_active"`

	BreakfastEnabled  bool            `gorm:"not null" json:"breakfast_enabled"`
	BreakfastTotal    int             `gorm:"not null;default:0" json:"breakfast_total"`
	BreakfastConsumed int             `gorm:"not null;default:0" json:"breakfast_consumed"`
	BreakfastPrice    decimal.Decimal `gorm:"type:decimal(10,2)" json:"breakfast_price"`

	LunchEnabled  bool            `gorm:"not null" json:"lunch_enabled"`
	LunchTotal    int             `gorm:"not null;default:0" json:"lunch_total"`
	LunchConsumed int             `gorm:"not null;default:0" json:"lunch_consumed"`
	LunchPrice    decimal.Decimal `gorm:"type:decimal(10,2)" json:"lunch_price"`

	DinnerEnabled  bool            `gorm:"not null" json:"dinner_enabled"`
	DinnerTotal    int             `gorm:"not null;default:0" json:"dinner_total"`
	DinnerConsumed int             `gorm:"not null;default:0" json:"dinner_consumed"`
	DinnerPrice    decimal.Decimal `gorm:"type:decimal(10,2)" json:"dinner_price"`

	// Balance applies to daily_basis packages only.
	Balance decimal.Decimal `gorm:"type:decimal(10,2)" json:"balance"`

	// StartDate/EndDate apply to date-ranged types; both inclusive.
	StartDate *time.Time `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date"`

	// DisabledMeals maps a date (DateLayout) to the meals not served that day,
	// for partial_full_time packages. Whole disabled days live in PackageDisabledDay.
	DisabledMeals map[string][]MealType `gorm:"serializer:json" json:"disabled_meals,omitempty"`

	CarriedOverFromPackageID *int64 `json:"carried_over_from_package_id,omitempty"`
	CarriedOverBreakfast     int    `gorm:"not null;default:0" json:"carried_over_breakfast"`
	CarriedOverLunch         int    `gorm:"not null;default:0" json:"carried_over_lunch"`
	CarriedOverDinner        int    `gorm:"not null;default:0" json:"carried_over_dinner"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DisabledDays []PackageDisabledDay `gorm:"foreignKey:PackageID" json:"disabled_days,omitempty"`
}

func (MemberPackage) TableName() string { return "member_packages" }

// MealCounters is the per-meal slice of a package's entitlement.
type MealCounters struct {
	Enabled  bool            `json:"enabled"`
	Total    int             `json:"total"`
	Consumed int             `json:"consumed"`
	Price    decimal.Decimal `json:"price"`
}

// Remaining is the unconsumed entitlement, floored at zero.
func (c MealCounters) Remaining() int {
	if c.Consumed >= c.Total {
		return 0
	}
	return c.Total - c.Consumed
}

// Meal returns the counters for one meal type.
func (p *MemberPackage) Meal(m MealType) MealCounters {
	switch m {
	case MealBreakfast:
		return MealCounters{p.BreakfastEnabled, p.BreakfastTotal, p.BreakfastConsumed, p.BreakfastPrice}
	case MealLunch:
		return MealCounters{p.LunchEnabled, p.LunchTotal, p.LunchConsumed, p.LunchPrice}
	case MealDinner:
		return MealCounters{p.DinnerEnabled, p.DinnerTotal, p.DinnerConsumed, p.DinnerPrice}
	}
	return MealCounters{}
}

// SetMeal replaces the counters for one meal type.
func (p *MemberPackage) SetMeal(m MealType, c MealCounters) {
	switch m {
	case MealBreakfast:
		p.BreakfastEnabled, p.BreakfastTotal, p.BreakfastConsumed, p.BreakfastPrice = c.Enabled, c.Total, c.Consumed, c.Price
	case MealLunch:
		p.LunchEnabled, p.LunchTotal, p.LunchConsumed, p.LunchPrice = c.Enabled, c.Total, c.Consumed, c.Price
	case MealDinner:
		p.DinnerEnabled, p.DinnerTotal, p.DinnerConsumed, p.DinnerPrice = c.Enabled, c.Total, c.Consumed, c.Price
	}
}

// CarriedOver returns the carry-over amount recorded for one meal type.
func (p *MemberPackage) CarriedOver(m MealType) int {
	switch m {
	case MealBreakfast:
		return p.CarriedOverBreakfast
	case MealLunch:
		return p.CarriedOverLunch
	case MealDinner:
		return p.CarriedOverDinner
	}
	return 0
}

// SetCarriedOver records the carry-over amount for one meal type.
func (p *MemberPackage) SetCarriedOver(m MealType, v int) {
	switch m {
	case MealBreakfast:
		p.CarriedOverBreakfast = v
	case MealLunch:
		p.CarriedOverLunch = v
	case MealDinner:
		p.CarriedOverDinner = v
	}
}

// CoversDate reports whether date falls inside the package's date window.
// Packages without a window cover every date.
func (p *MemberPackage) CoversDate(date time.Time) bool {
	d := DateOnly(date)
	if p.StartDate != nil && d.Before(DateOnly(*p.StartDate)) {
		return false
	}
	if p.EndDate != nil && d.After(DateOnly(*p.EndDate)) {
		return false
	}
	return true
}

// MealDisabledOn reports whether the given meal is explicitly disabled on date
// via the per-date disabled-meals map.
func (p *MemberPackage) MealDisabledOn(date time.Time, m MealType) bool {
	meals, ok := p.DisabledMeals[date.Format(DateLayout)]
	if !ok {
		return false
	}
	for _, dm := range meals {
		if dm == m {
			return true
		}
	}
	return false
}

// PackageDisabledDay is one calendar date on which a partial_full_time package
// serves no meals at all.
type PackageDisabledDay struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PackageID int64     `gorm:"index;not null;uniqueIndex:idx_pkg_disabled_day" json:"package_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_pkg_disabled_day" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// PackageHistory is the append-only audit trail of package lifecycle
// transitions. Rows are never updated; they are removed only when the package
// itself is hard-deleted.
type PackageHistory struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string        `gorm:"index;size:64;not null" json:"organization_id"`
	PackageID      int64         `gorm:"index;not null" json:"package_id"`
	MemberID       string        `gorm:"index;size:64;not null" json:"member_id"`
	Action         HistoryAction `gorm:"size:16;not null" json:"action"`
	PackageType    PackageType   `gorm:"size:24;not null" json:"package_type"`

	BreakfastTotal    int `json:"breakfast_total"`
	BreakfastConsumed int `json:"breakfast_consumed"`
	LunchTotal        int `json:"lunch_total"`
	LunchConsumed     int `json:"lunch_consumed"`
	DinnerTotal       int `json:"dinner_total"`
	DinnerConsumed    int `json:"dinner_consumed"`

	Balance   decimal.Decimal `gorm:"type:decimal(10,2)" json:"balance"`
	StartDate *time.Time      `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time      `gorm:"type:date" json:"end_date"`
	Notes     string          `gorm:"size:512" json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewPackageHistory snapshots a package's counters for one lifecycle action.
func NewPackageHistory(p *MemberPackage, action HistoryAction, notes string) PackageHistory {
	return PackageHistory{
		OrganizationID:    p.OrganizationID,
		PackageID:         p.ID,
		MemberID:          p.MemberID,
		Action:            action,
		PackageType:       p.PackageType,
		BreakfastTotal:    p.BreakfastTotal,
		BreakfastConsumed: p.BreakfastConsumed,
		LunchTotal:        p.LunchTotal,
		LunchConsumed:     p.LunchConsumed,
		DinnerTotal:       p.DinnerTotal,
		DinnerConsumed:    p.DinnerConsumed,
		Balance:           p.Balance,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		Notes:             notes,
	}
}
