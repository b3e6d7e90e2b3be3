package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cafeteria-backend/internal/db"
	"cafeteria-backend/internal/model"
)

const testOrg = "org-1"

// testToday is the fixed "current date" every store test runs under.
var testToday = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func testClock() time.Time {
	return time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
}

// newTestStore opens a private in-memory SQLite database, migrates it, and
// returns a store pinned to testToday.
func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return NewGormStoreWithClock(conn, testClock), conn
}

func seedMember(t *testing.T, conn *gorm.DB, id string, balance int) *model.Member {
	t.Helper()
	validUntil := testToday.AddDate(1, 0, 0)
	m := &model.Member{
		ID:             id,
		OrganizationID: testOrg,
		Name:           "Member " + id,
		MemberType:     model.MemberStudent,
		Status:         "active",
		Approved:       true,
		ValidUntil:     &validUntil,
		BalanceMeals:   balance,
	}
	require.NoError(t, conn.Create(m).Error)
	return m
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// fixedCountInput is a partial (fixed-count) package with all meals enabled.
func fixedCountInput(memberID string, total int) CreatePackageInput {
	return CreatePackageInput{
		MemberID:    memberID,
		MemberType:  model.MemberStudent,
		PackageType: model.PackagePartial,
		Breakfast:   MealSpec{Enabled: true, Total: total},
		Lunch:       MealSpec{Enabled: true, Total: total},
		Dinner:      MealSpec{Enabled: true, Total: total},
	}
}

func dailyBasisInput(memberID string, balance int64, lunchPrice int64) CreatePackageInput {
	return CreatePackageInput{
		MemberID:    memberID,
		MemberType:  model.MemberStudent,
		PackageType: model.PackageDailyBasis,
		Breakfast:   MealSpec{Enabled: true, Price: decimal.NewFromInt(30)},
		Lunch:       MealSpec{Enabled: true, Price: decimal.NewFromInt(lunchPrice)},
		Dinner:      MealSpec{Enabled: true, Price: decimal.NewFromInt(40)},
		Balance:     decimal.NewFromInt(balance),
	}
}

func fullTimeInput(memberID string, start, end *time.Time) CreatePackageInput {
	return CreatePackageInput{
		MemberID:    memberID,
		MemberType:  model.MemberStudent,
		PackageType: model.PackageFullTime,
		Breakfast:   MealSpec{Enabled: true},
		Lunch:       MealSpec{Enabled: true},
		Dinner:      MealSpec{Enabled: true},
		StartDate:   start,
		EndDate:     end,
	}
}

func ctx() context.Context { return context.Background() }

// requireCode asserts err is a domain error with the given code.
func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	e, ok := AsDomainError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, code, e.Code)
	return e
}
