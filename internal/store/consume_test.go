package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeteria-backend/internal/model"
)

func TestConsumeFixedCount(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	pkg, err := s.CreatePackage(ctx(), testOrg, fixedCountInput("m1", 10))
	require.NoError(t, err)

	got, err := s.Consume(ctx(), testOrg, pkg.ID, model.MealLunch, "counter 2")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LunchConsumed)
	assert.Equal(t, 0, got.BreakfastConsumed)

	var recs []model.MealConsumption
	require.NoError(t, conn.Where("package_id = ?", pkg.ID).Find(&recs).Error)
	require.Len(t, recs, 1)
	assert.Equal(t, model.MealLunch, recs[0].MealType)
	assert.Equal(t, 9, recs[0].RemainingMeals)
	assert.Equal(t, "counter 2", recs[0].Notes)
	assert.True(t, recs[0].ConsumedAt.Equal(testClock()), "consumed_at = %s", recs[0].ConsumedAt)
}

func TestConsumeFixedCountExhausted(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	pkg, err := s.CreatePackage(ctx(), testOrg, fixedCountInput("m1", 10))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = s.Consume(ctx(), testOrg, pkg.ID, model.MealLunch, "")
		require.NoError(t, err)
	}

	_, err = s.Consume(ctx(), testOrg, pkg.ID, model.MealLunch, "")
	e := requireCode(t, err, CodeMealsExhausted)
	assert.Equal(t, "No lunch meals remaining. Used: 10/10", e.Message)

	// Other meals are unaffected.
	_, err = s.Consume(ctx(), testOrg, pkg.ID, model.MealDinner, "")
	require.NoError(t, err)
}

func TestConsumeDailyBasis(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	pkg, err := s.CreatePackage(ctx(), testOrg, dailyBasisInput("m1", 100, 50))
	require.NoError(t, err)

	got, err := s.Consume(ctx(), testOrg, pkg.ID, model.MealLunch, "")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(50)), "balance = %s", got.Balance)

	txs, err := s.PackageTransactions(ctx(), testOrg, pkg.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2) // initial deposit + this deduction
	deduction := txs[0]
	assert.Equal(t, model.TxMealDeduction, deduction.Type)
	require.NotNil(t, deduction.MealType)
	assert.Equal(t, model.MealLunch, *deduction.MealType)
	assert.True(t, deduction.BalanceBefore.Equal(decimal.NewFromInt(100)))
	assert.True(t, deduction.BalanceAfter.Equal(decimal.NewFromInt(50)))
}

func TestConsumeDailyBasisInsufficientBalance(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	pkg, err := s.CreatePackage(ctx(), testOrg, dailyBasisInput("m1", 40, 50))
	require.NoError(t, err)

	_, err = s.Consume(ctx(), testOrg, pkg.ID, model.MealLunch, "")
	e := requireCode(t, err, CodeInsufficientBalance)
	assert.Equal(t, "Insufficient balance. Current: Rs. 40.00, Required: Rs. 50.00", e.Message)

	// Nothing was written: balance and ledger are untouched.
	got, err := s.GetPackage(ctx(), testOrg, pkg.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(40)))

	txs, err := s.PackageTransactions(ctx(), testOrg, pkg.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1) // only the initial deposit

	var n int64
	require.NoError(t, conn.Model(&model.MealConsumption{}).Where("package_id = ?", pkg.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestConsumeGuards(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)
	seedMember(t, conn, "m2", 0)
	seedMember(t, conn, "m3", 0)

	inactive, err := s.CreatePackage(ctx(), testOrg, fixedCountInput("m1", 10))
	require.NoError(t, err)
	_, err = s.DeactivatePackage(ctx(), testOrg, inactive.ID, "")
	require.NoError(t, err)

	noDinner, err := s.CreatePackage(ctx(), testOrg, CreatePackageInput{
		MemberID:    "m2",
		MemberType:  model.MemberStudent,
		PackageType: model.PackagePartial,
		Breakfast:   MealSpec{Enabled: true, Total: 10},
		Lunch:       MealSpec{Enabled: true, Total: 10},
	})
	require.NoError(t, err)

	future, err := s.CreatePackage(ctx(), testOrg, fullTimeInput("m3", datePtr(2024, 4, 1), datePtr(2024, 4, 30)))
	require.NoError(t, err)

	testCases := []struct {
		name string
		id   int64
		meal model.MealType
		code ErrorCode
	}{
		{"invalid meal", noDinner.ID, "brunch", CodeInvalidMealType},
		{"inactive package", inactive.ID, model.MealLunch, CodePackageInactive},
		{"meal not enabled", noDinner.ID, model.MealDinner, CodeMealNotEnabled},
		{"date out of range", future.ID, model.MealLunch, CodeDateOutOfRange},
		{"missing package", 9999, model.MealLunch, CodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Consume(ctx(), testOrg, tc.id, tc.meal, "")
			requireCode(t, err, tc.code)
		})
	}
}

func TestConsumeDisabledDay(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)
	seedMember(t, conn, "m2", 0)

	// Whole day disabled (today under the test clock).
	dayOff, err := s.CreatePackage(ctx(), testOrg, CreatePackageInput{
		MemberID:     "m1",
		MemberType:   model.MemberStudent,
		PackageType:  model.PackagePartialFullTime,
		Breakfast:    MealSpec{Enabled: true},
		Lunch:        MealSpec{Enabled: true},
		Dinner:       MealSpec{Enabled: true},
		StartDate:    datePtr(2024, 3, 1),
		EndDate:      datePtr(2024, 3, 31),
		DisabledDays: []time.Time{testToday},
	})
	require.NoError(t, err)

	_, err = s.Consume(ctx(), testOrg, dayOff.ID, model.MealLunch, "")
	requireCode(t, err, CodeDisabledDay)

	// Only dinner disabled today: lunch goes through, dinner does not.
	dinnerOff, err := s.CreatePackage(ctx(), testOrg, CreatePackageInput{
		MemberID:    "m2",
		MemberType:  model.MemberStudent,
		PackageType: model.PackagePartialFullTime,
		Breakfast:   MealSpec{Enabled: true},
		Lunch:       MealSpec{Enabled: true},
		Dinner:      MealSpec{Enabled: true},
		StartDate:   datePtr(2024, 3, 1),
		EndDate:     datePtr(2024, 3, 31),
		DisabledMeals: map[string][]model.MealType{
			testToday.Format(model.DateLayout): {model.MealDinner},
		},
	})
	require.NoError(t, err)

	_, err = s.Consume(ctx(), testOrg, dinnerOff.ID, model.MealLunch, "")
	require.NoError(t, err)
	_, err = s.Consume(ctx(), testOrg, dinnerOff.ID, model.MealDinner, "")
	requireCode(t, err, CodeDisabledDay)
}

func TestManualConfirmDailyBasis(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	_, err := s.CreatePackage(ctx(), testOrg, dailyBasisInput("m1", 100, 50))
	require.NoError(t, err)

	res, err := s.ManualConfirm(ctx(), testOrg, ManualConfirmInput{
		MemberID: "m1",
		Date:     testToday,
		MealType: model.MealLunch,
		Notes:    "confirmed at counter",
	})
	require.NoError(t, err)
	assert.True(t, res.Deducted.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, res.Package)
	assert.True(t, res.Package.Balance.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, res.Selection)
	assert.True(t, res.Selection.LunchNeeded)
}

func TestManualConfirmWithoutPackage(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	// No active package: the override still records the selection.
	optionID := int64(7)
	res, err := s.ManualConfirm(ctx(), testOrg, ManualConfirmInput{
		MemberID:     "m1",
		Date:         testToday,
		MealType:     model.MealDinner,
		MenuOptionID: &optionID,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Package)
	assert.True(t, res.Deducted.IsZero())
	require.NotNil(t, res.Selection.DinnerOptionID)
	assert.Equal(t, optionID, *res.Selection.DinnerOptionID)
}

func TestManualConfirmUpdatesExistingSelection(t *testing.T) {
	s, conn := newTestStore(t)
	seedMember(t, conn, "m1", 0)

	sel := model.MealSelection{
		OrganizationID:  testOrg,
		MemberID:        "m1",
		Date:            testToday,
		BreakfastNeeded: true,
		LunchNeeded:     false,
		DinnerNeeded:    true,
	}
	require.NoError(t, conn.Create(&sel).Error)

	res, err := s.ManualConfirm(ctx(), testOrg, ManualConfirmInput{
		MemberID: "m1",
		Date:     testToday,
		MealType: model.MealLunch,
	})
	require.NoError(t, err)
	assert.Equal(t, sel.ID, res.Selection.ID)
	assert.True(t, res.Selection.LunchNeeded)

	var n int64
	require.NoError(t, conn.Model(&model.MealSelection{}).Where("member_id = ?", "m1").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestManualConfirmUnknownMember(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.ManualConfirm(ctx(), testOrg, ManualConfirmInput{
		MemberID: "ghost",
		Date:     testToday,
		MealType: model.MealLunch,
	})
	assert.True(t, IsNotFound(err))
}
