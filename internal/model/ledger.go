package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTransactionType labels one daily-basis ledger entry.
type BalanceTransactionType string

const (
	TxDeposit       BalanceTransactionType = "deposit"
	TxMealDeduction BalanceTransactionType = "meal_deduction"
)

// BalanceTransaction is one ledger entry against a daily_basis package balance.
// BalanceAfter = BalanceBefore + Amount for deposits and BalanceBefore - Amount
// for deductions; the balance never goes negative.
type BalanceTransaction struct {
	ID             int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string                 `gorm:"index;size:64;not null" json:"organization_id"`
	PackageID      int64                  `gorm:"index;not null" json:"package_id"`
	MemberID       string                 `gorm:"size:64;not null" json:"member_id"`
	Type           BalanceTransactionType `gorm:"size:16;not null" json:"type"`
	MealType       *MealType              `gorm:"size:16" json:"meal_type,omitempty"`
	Amount         decimal.Decimal        `gorm:"type:decimal(10,2);not null" json:"amount"`
	BalanceBefore  decimal.Decimal        `gorm:"type:decimal(10,2);not null" json:"balance_before"`
	BalanceAfter   decimal.Decimal        `gorm:"type:decimal(10,2);not null" json:"balance_after"`
	Notes          string                 `gorm:"size:512" json:"notes"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (BalanceTransaction) TableName() string { return "daily_basis_transactions" }

// MealConsumption records one successful meal consumption against a package.
// Amount is the money deducted for daily_basis packages and zero for
// fixed-count packages (the implicit unit lives in the counters).
type MealConsumption struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string          `gorm:"index;size:64;not null" json:"organization_id"`
	PackageID      int64           `gorm:"index;not null" json:"package_id"`
	MemberID       string          `gorm:"index;size:64;not null" json:"member_id"`
	MealType       MealType        `gorm:"size:16;not null" json:"meal_type"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	// RemainingMeals / RemainingBalance capture the post-consumption state of
	// whichever counter the package type uses.
	RemainingMeals   int             `json:"remaining_meals"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(10,2)" json:"remaining_balance"`
	Notes            string          `gorm:"size:512" json:"notes"`
	ConsumedAt       time.Time       `gorm:"not null" json:"consumed_at"`
}

func (MealConsumption) TableName() string { return "meal_consumption_history" }

// TokenTransactionType labels one member meal-balance ledger entry.
type TokenTransactionType string

const (
	TokenTxDeduction TokenTransactionType = "DEDUCTION"
	TokenTxRefund    TokenTransactionType = "REFUND"
)

// TokenTransaction is one entry in the member's rolling meal-balance ledger,
// written alongside token issuance and cancellation.
type TokenTransaction struct {
	ID             int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID string               `gorm:"index;size:64;not null" json:"organization_id"`
	MemberID       string               `gorm:"index;size:64;not null" json:"member_id"`
	TokenID        string               `gorm:"index;size:36" json:"token_id"`
	Type           TokenTransactionType `gorm:"size:16;not null" json:"type"`
	Meals          int                  `gorm:"not null" json:"meals"`
	BalanceBefore  int                  `gorm:"not null" json:"balance_before"`
	BalanceAfter   int                  `gorm:"not null" json:"balance_after"`
	CreatedAt      time.Time            `json:"created_at"`
}
