package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafeteria-backend/internal/model"
)

// Consume deducts one meal from a package: a price deduction for daily_basis
// packages, a counter increment for fixed-count types. Every domain check runs
// before any mutation; the mutation itself is one transaction.
func (s *gormStore) Consume(ctx context.Context, org string, id int64, meal model.MealType, notes string) (*model.MemberPackage, error) {
	if !meal.IsValid() {
		return nil, newError(CodeInvalidMealType, "invalid meal type", "meal_type", meal)
	}
	pkg, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive || pkg.Status != model.StatusActive {
		return nil, newError(CodePackageInactive,
			fmt.Sprintf("package is %s", pkg.Status),
			"package_id", pkg.ID, "status", pkg.Status)
	}
	counters := pkg.Meal(meal)
	if !counters.Enabled {
		return nil, newError(CodeMealNotEnabled,
			fmt.Sprintf("%s is not enabled on this package", meal),
			"package_id", pkg.ID, "meal_type", meal)
	}

	today := s.today()
	if pkg.PackageType.IsDateRanged() {
		if !pkg.CoversDate(today) {
			return nil, newError(CodeDateOutOfRange,
				fmt.Sprintf("today is outside the package period (%s to %s)",
					pkg.StartDate.Format(model.DateLayout), pkg.EndDate.Format(model.DateLayout)),
				"start_date", pkg.StartDate.Format(model.DateLayout),
				"end_date", pkg.EndDate.Format(model.DateLayout))
		}
	}
	if pkg.PackageType == model.PackagePartialFullTime {
		var n int64
		err := s.db.WithContext(ctx).Model(&model.PackageDisabledDay{}).
			Where("package_id = ? AND date = ?", pkg.ID, today).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		if n > 0 || pkg.MealDisabledOn(today, meal) {
			return nil, newError(CodeDisabledDay,
				fmt.Sprintf("no meals are served on %s for this package", today.Format(model.DateLayout)),
				"date", today.Format(model.DateLayout))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch pkg.PackageType {
		case model.PackageDailyBasis:
			return s.consumeDailyBasis(tx, pkg, meal, notes)
		default:
			return s.consumeFixedCount(tx, pkg, meal, notes)
		}
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// consumeDailyBasis deducts the configured meal price from the balance and
// writes the meal_deduction ledger row plus the consumption record.
func (s *gormStore) consumeDailyBasis(tx *gorm.DB, pkg *model.MemberPackage, meal model.MealType, notes string) error {
	price := pkg.Meal(meal).Price
	before := pkg.Balance
	if before.LessThan(price) {
		return newError(CodeInsufficientBalance,
			fmt.Sprintf("Insufficient balance. Current: Rs. %s, Required: Rs. %s", before.StringFixed(2), price.StringFixed(2)),
			"current", before.StringFixed(2), "required", price.StringFixed(2))
	}
	after := before.Sub(price)
	if err := tx.Model(pkg).Update("balance", after).Error; err != nil {
		return err
	}
	pkg.Balance = after
	if err := writeBalanceTx(tx, pkg, model.TxMealDeduction, &meal, price, before, notes); err != nil {
		return err
	}
	rec := model.MealConsumption{
		OrganizationID:   pkg.OrganizationID,
		PackageID:        pkg.ID,
		MemberID:         pkg.MemberID,
		MealType:         meal,
		Amount:           price,
		RemainingBalance: after,
		Notes:            notes,
		ConsumedAt:       s.now(),
	}
	return tx.Create(&rec).Error
}

// consumeFixedCount increments the consumed counter for the meal, rejecting
// the call that would push consumed past total.
func (s *gormStore) consumeFixedCount(tx *gorm.DB, pkg *model.MemberPackage, meal model.MealType, notes string) error {
	c := pkg.Meal(meal)
	if c.Consumed >= c.Total {
		return newError(CodeMealsExhausted,
			fmt.Sprintf("No %s meals remaining. Used: %d/%d", meal, c.Consumed, c.Total),
			"used", c.Consumed, "total", c.Total, "meal_type", meal)
	}
	c.Consumed++
	column := string(meal) + "_consumed"
	if err := tx.Model(pkg).Update(column, c.Consumed).Error; err != nil {
		return err
	}
	pkg.SetMeal(meal, c)
	rec := model.MealConsumption{
		OrganizationID: pkg.OrganizationID,
		PackageID:      pkg.ID,
		MemberID:       pkg.MemberID,
		MealType:       meal,
		Amount:         decimal.Zero,
		RemainingMeals: c.Remaining(),
		Notes:          notes,
		ConsumedAt:     s.now(),
	}
	return tx.Create(&rec).Error
}

// ManualConfirm is the administrative override used by the meal-status screen
// to retroactively mark a member as having taken a meal. It deliberately skips
// the date-range, disabled-day and meal-enabled checks that Consume enforces;
// the operator is asserting the meal was served. For daily_basis packages it
// still performs the balance deduction.
func (s *gormStore) ManualConfirm(ctx context.Context, org string, in ManualConfirmInput) (*ManualConfirmResult, error) {
	if !in.MealType.IsValid() {
		return nil, newError(CodeInvalidMealType, "invalid meal type", "meal_type", in.MealType)
	}
	if _, err := s.GetMember(ctx, org, in.MemberID); err != nil {
		return nil, err
	}

	var pkg *model.MemberPackage
	var found model.MemberPackage
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND member_id = ? AND status = ? AND is_active = ?", org, in.MemberID, model.StatusActive, true).
		First(&found).Error
	if err == nil {
		pkg = &found
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	date := dateOnly(in.Date)
	result := &ManualConfirmResult{Deducted: decimal.Zero}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if pkg != nil && pkg.PackageType == model.PackageDailyBasis {
			if err := s.consumeDailyBasis(tx, pkg, in.MealType, in.Notes); err != nil {
				return err
			}
			result.Deducted = pkg.Meal(in.MealType).Price
		}

		var sel model.MealSelection
		err := tx.Where("organization_id = ? AND member_id = ? AND date = ?", org, in.MemberID, date).
			First(&sel).Error
		if err == gorm.ErrRecordNotFound {
			sel = model.MealSelection{
				OrganizationID:  org,
				MemberID:        in.MemberID,
				Date:            date,
				BreakfastNeeded: true,
				LunchNeeded:     true,
				DinnerNeeded:    true,
			}
		} else if err != nil {
			return err
		}
		sel.SetNeeded(in.MealType, true)
		if in.MenuOptionID != nil {
			sel.SetOption(in.MealType, in.MenuOptionID)
		}
		if err := tx.Save(&sel).Error; err != nil {
			return err
		}
		result.Selection = &sel
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Package = pkg
	return result, nil
}
