package model

// MealType identifies one of the three daily meals.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// AllMeals lists every meal type in serving order.
var AllMeals = []MealType{MealBreakfast, MealLunch, MealDinner}

// IsValid reports whether m is a recognized meal type.
func (m MealType) IsValid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	}
	return false
}

// PackageType identifies how a package's entitlement is accounted.
type PackageType string

const (
	// PackageFullTime is a date-ranged package covering every day in range.
	PackageFullTime PackageType = "full_time"
	// PackagePartialFullTime is a date-ranged package with specific disabled days.
	PackagePartialFullTime PackageType = "partial_full_time"
	// PackagePartial is a fixed-count package (total/consumed per meal).
	PackagePartial PackageType = "partial"
	// PackageDailyBasis is a cash-balance package debited per meal at a set price.
	PackageDailyBasis PackageType = "daily_basis"
)

// IsValid reports whether t is a recognized package type.
func (t PackageType) IsValid() bool {
	switch t {
	case PackageFullTime, PackagePartialFullTime, PackagePartial, PackageDailyBasis:
		return true
	}
	return false
}

// IsDateRanged reports whether packages of this type carry a start/end date window.
func (t PackageType) IsDateRanged() bool {
	return t == PackageFullTime || t == PackagePartialFullTime
}

// PackageStatus is the lifecycle state of a package.
type PackageStatus string

const (
	StatusActive      PackageStatus = "active"
	StatusDeactivated PackageStatus = "deactivated"
	StatusExpired     PackageStatus = "expired" // terminal
	StatusRenewed     PackageStatus = "renewed" // terminal, superseded by a new package
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s PackageStatus) IsTerminal() bool {
	return s == StatusExpired || s == StatusRenewed
}

// HistoryAction labels one package lifecycle transition in the audit trail.
type HistoryAction string

const (
	ActionCreated     HistoryAction = "created"
	ActionDeactivated HistoryAction = "deactivated"
	ActionReactivated HistoryAction = "reactivated"
	ActionRenewed     HistoryAction = "renewed"
	ActionExpired     HistoryAction = "expired"
)

// TokenStatus is the state of a meal token.
type TokenStatus string

const (
	TokenPending   TokenStatus = "PENDING"
	TokenCollected TokenStatus = "COLLECTED"
	TokenCancelled TokenStatus = "CANCELLED"
	TokenExpired   TokenStatus = "EXPIRED"
)

// MemberType identifies the membership category.
type MemberType string

const (
	MemberStudent MemberType = "student"
	MemberFaculty MemberType = "faculty"
	MemberStaff   MemberType = "staff"
	MemberGuest   MemberType = "guest"
)

// IsValid reports whether t is a recognized member type.
func (t MemberType) IsValid() bool {
	switch t {
	case MemberStudent, MemberFaculty, MemberStaff, MemberGuest:
		return true
	}
	return false
}

// MealStatus classifies one member/date/meal cell in the meal-status report.
type MealStatus string

const (
	MealStatusCollected    MealStatus = "collected"
	MealStatusPending      MealStatus = "pending"
	MealStatusSkipped      MealStatus = "skipped"
	MealStatusMissed       MealStatus = "missed"
	MealStatusCancelled    MealStatus = "cancelled"
	MealStatusNotInPackage MealStatus = "not_in_package"
)
