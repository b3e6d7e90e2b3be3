package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafeteria-backend/internal/model"
)

// validateCreateInput runs the synchronous field checks shared by create and
// renew. Date-ranged types need a valid inclusive window.
func validateCreateInput(in *CreatePackageInput) error {
	if in.MemberID == "" {
		return newError(CodeInvalidPackage, "member_id is required")
	}
	if !in.MemberType.IsValid() {
		return newError(CodeInvalidMemberType, "invalid member type", "member_type", in.MemberType)
	}
	if !in.PackageType.IsValid() {
		return newError(CodeInvalidPackage, "invalid package type", "package_type", in.PackageType)
	}
	if in.PackageType.IsDateRanged() {
		if in.StartDate == nil || in.EndDate == nil {
			return newError(CodeInvalidDateRange, "start_date and end_date are required for date-ranged packages")
		}
		if dateOnly(*in.StartDate).After(dateOnly(*in.EndDate)) {
			return newError(CodeInvalidDateRange, "start_date must not be after end_date",
				"start_date", in.StartDate.Format(model.DateLayout),
				"end_date", in.EndDate.Format(model.DateLayout))
		}
	}
	return nil
}

// validateOpeningBalance guards the daily_basis opening balance. A fresh
// package needs money to spend; a renewal may start at zero because the
// member can deposit later.
func validateOpeningBalance(in *CreatePackageInput, renewal bool) error {
	if in.PackageType != model.PackageDailyBasis {
		return nil
	}
	if renewal {
		if in.Balance.IsNegative() {
			return newError(CodeInvalidDeposit, "opening balance must not be negative",
				"balance", in.Balance.String())
		}
		return nil
	}
	if !in.Balance.IsPositive() {
		return newError(CodeInvalidDeposit, "daily_basis packages require an initial balance greater than zero",
			"balance", in.Balance.String())
	}
	return nil
}

// buildPackage materializes a MemberPackage from validated input.
func buildPackage(org string, in *CreatePackageInput) *model.MemberPackage {
	p := &model.MemberPackage{
		OrganizationID: org,
		MemberID:       in.MemberID,
		MemberType:     in.MemberType,
		PackageType:    in.PackageType,
		Status:         model.StatusActive,
		IsActive:       true,
	}
	for _, m := range model.AllMeals {
		spec := in.Meal(m)
		p.SetMeal(m, model.MealCounters{Enabled: spec.Enabled, Total: spec.Total, Price: spec.Price})
	}
	if in.PackageType.IsDateRanged() {
		start, end := dateOnly(*in.StartDate), dateOnly(*in.EndDate)
		p.StartDate, p.EndDate = &start, &end
	}
	if in.PackageType == model.PackageDailyBasis {
		p.Balance = in.Balance
	}
	if in.PackageType == model.PackagePartialFullTime {
		p.DisabledMeals = in.DisabledMeals
	}
	return p
}

// conflictingOverlap returns the first full_time/partial_full_time package of
// the member whose inclusive date window overlaps [start, end]. The check spans
// every status: expired windows also block date reuse. excludeID skips the
// package being renewed; activeOnly narrows the check for reactivation.
func conflictingOverlap(tx *gorm.DB, org, memberID string, start, end time.Time, excludeID int64, activeOnly bool) (*model.MemberPackage, error) {
	q := tx.Where("organization_id = ? AND member_id = ?", org, memberID).
		Where("package_type IN ?", []model.PackageType{model.PackageFullTime, model.PackagePartialFullTime}).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if activeOnly {
		q = q.Where("status = ?", model.StatusActive)
	}
	var existing model.MemberPackage
	err := q.First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func dateRangeConflict(existing *model.MemberPackage) *Error {
	return newError(CodeDateRangeConflict,
		fmt.Sprintf("date range overlaps existing %s package (%s to %s)",
			existing.PackageType,
			existing.StartDate.Format(model.DateLayout),
			existing.EndDate.Format(model.DateLayout)),
		"conflicting_package_id", existing.ID,
		"conflicting_start_date", existing.StartDate.Format(model.DateLayout),
		"conflicting_end_date", existing.EndDate.Format(model.DateLayout))
}

// expireDue transitions every due date-ranged package inside tx, writing one
// history record per package. memberID narrows the sweep to one member.
func (s *gormStore) expireDue(tx *gorm.DB, org, memberID string) (int64, error) {
	q := tx.Where("status = ? AND is_active = ?", model.StatusActive, true).
		Where("package_type IN ?", []model.PackageType{model.PackageFullTime, model.PackagePartialFullTime}).
		Where("end_date < ?", s.today())
	if org != "" {
		q = q.Where("organization_id = ?", org)
	}
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}

	var due []model.MemberPackage
	if err := q.Find(&due).Error; err != nil {
		return 0, err
	}
	for i := range due {
		p := &due[i]
		p.Status = model.StatusExpired
		p.IsActive = false
		if err := tx.Model(p).Updates(map[string]any{"status": model.StatusExpired, "is_active": false}).Error; err != nil {
			return 0, err
		}
		hist := model.NewPackageHistory(p, model.ActionExpired, "end date passed")
		if err := tx.Create(&hist).Error; err != nil {
			return 0, err
		}
	}
	return int64(len(due)), nil
}

// ExpireDuePackages runs the auto-expiry sweep. An empty org sweeps every
// organization (used by the background sweeper).
func (s *gormStore) ExpireDuePackages(ctx context.Context, org string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = s.expireDue(tx, org, "")
		return err
	})
	return n, err
}

func (s *gormStore) CreatePackage(ctx context.Context, org string, in CreatePackageInput) (*model.MemberPackage, error) {
	if err := validateCreateInput(&in); err != nil {
		return nil, err
	}
	if err := validateOpeningBalance(&in, false); err != nil {
		return nil, err
	}

	pkg := buildPackage(org, &in)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A stale expired package must never block creation.
		if _, err := s.expireDue(tx, org, in.MemberID); err != nil {
			return err
		}

		var existing model.MemberPackage
		err := tx.Where("organization_id = ? AND member_id = ? AND member_type = ?", org, in.MemberID, in.MemberType).
			Where("status IN ?", []model.PackageStatus{model.StatusActive, model.StatusDeactivated}).
			First(&existing).Error
		if err == nil {
			return newError(CodePackageConflict,
				fmt.Sprintf("member already has a %s package (%s); delete or renew it first", existing.Status, existing.PackageType),
				"existing_package_id", existing.ID,
				"existing_status", existing.Status,
				"existing_type", existing.PackageType)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if in.PackageType.IsDateRanged() {
			conflict, err := conflictingOverlap(tx, org, in.MemberID, *pkg.StartDate, *pkg.EndDate, 0, false)
			if err != nil {
				return err
			}
			if conflict != nil {
				return dateRangeConflict(conflict)
			}
		}

		if err := tx.Create(pkg).Error; err != nil {
			return err
		}
		if pkg.PackageType == model.PackagePartialFullTime {
			for _, d := range in.DisabledDays {
				day := model.PackageDisabledDay{PackageID: pkg.ID, Date: dateOnly(d)}
				if err := tx.Create(&day).Error; err != nil {
					return err
				}
			}
		}
		hist := model.NewPackageHistory(pkg, model.ActionCreated, "")
		if err := tx.Create(&hist).Error; err != nil {
			return err
		}
		if pkg.PackageType == model.PackageDailyBasis {
			if err := writeBalanceTx(tx, pkg, model.TxDeposit, nil, in.Balance, decimal.Zero, "initial deposit"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPackage(ctx, org, pkg.ID)
}

func (s *gormStore) GetPackage(ctx context.Context, org string, id int64) (*model.MemberPackage, error) {
	var pkg model.MemberPackage
	err := s.db.WithContext(ctx).Preload("DisabledDays").
		Where("organization_id = ? AND id = ?", org, id).
		First(&pkg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFound("package", id)
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *gormStore) ListPackages(ctx context.Context, org string, memberID string) ([]model.MemberPackage, error) {
	// Listing runs the sweep opportunistically so clients never see a stale
	// active package with a past end date.
	if _, err := s.ExpireDuePackages(ctx, org); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("DisabledDays").Where("organization_id = ?", org)
	if memberID != "" {
		q = q.Where("member_id = ?", memberID)
	}
	var pkgs []model.MemberPackage
	if err := q.Order("created_at DESC").Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (s *gormStore) RenewPackage(ctx context.Context, org string, id int64, in RenewPackageInput) (*RenewResult, error) {
	old, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if old.Status == model.StatusRenewed {
		return nil, newError(CodeInvalidTransition, "package has already been renewed",
			"package_id", old.ID, "status", old.Status)
	}

	if in.MemberID == "" {
		in.MemberID = old.MemberID
	}
	if in.MemberType == "" {
		in.MemberType = old.MemberType
	}
	if in.PackageType == "" {
		in.PackageType = old.PackageType
	}
	if err := validateCreateInput(&in.CreatePackageInput); err != nil {
		return nil, err
	}
	if err := validateOpeningBalance(&in.CreatePackageInput, true); err != nil {
		return nil, err
	}

	carried := make(map[model.MealType]int, len(model.AllMeals))
	for _, m := range model.AllMeals {
		if in.CarryOver {
			carried[m] = old.Meal(m).Remaining()
		} else {
			carried[m] = 0
		}
	}

	newPkg := buildPackage(org, &in.CreatePackageInput)
	newPkg.CarriedOverFromPackageID = &old.ID
	for _, m := range model.AllMeals {
		c := newPkg.Meal(m)
		c.Total += carried[m]
		// A renewal inherits the old package's per-meal price unless the
		// caller supplies one.
		if c.Price.IsZero() {
			c.Price = old.Meal(m).Price
		}
		c.Consumed = 0
		newPkg.SetMeal(m, c)
		newPkg.SetCarriedOver(m, carried[m])
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The old package is exempt from the single-slot rule, any other
		// non-terminal package of the member is not.
		var other model.MemberPackage
		err := tx.Where("organization_id = ? AND member_id = ? AND id <> ?", org, newPkg.MemberID, old.ID).
			Where("status IN ?", []model.PackageStatus{model.StatusActive, model.StatusDeactivated}).
			First(&other).Error
		if err == nil {
			return newError(CodePackageConflict,
				fmt.Sprintf("member already has a %s package (%s); delete or renew it first", other.Status, other.PackageType),
				"existing_package_id", other.ID,
				"existing_status", other.Status,
				"existing_type", other.PackageType)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if newPkg.PackageType.IsDateRanged() {
			conflict, err := conflictingOverlap(tx, org, newPkg.MemberID, *newPkg.StartDate, *newPkg.EndDate, old.ID, false)
			if err != nil {
				return err
			}
			if conflict != nil {
				return dateRangeConflict(conflict)
			}
		}

		renewedHist := model.NewPackageHistory(old, model.ActionRenewed, "superseded by renewal")
		if err := tx.Create(&renewedHist).Error; err != nil {
			return err
		}
		if err := tx.Model(old).Updates(map[string]any{"status": model.StatusRenewed, "is_active": false}).Error; err != nil {
			return err
		}

		if err := tx.Create(newPkg).Error; err != nil {
			return err
		}
		if newPkg.PackageType == model.PackagePartialFullTime {
			for _, d := range in.DisabledDays {
				day := model.PackageDisabledDay{PackageID: newPkg.ID, Date: dateOnly(d)}
				if err := tx.Create(&day).Error; err != nil {
					return err
				}
			}
		}
		createdHist := model.NewPackageHistory(newPkg, model.ActionCreated, fmt.Sprintf("renewed from package %d", old.ID))
		if err := tx.Create(&createdHist).Error; err != nil {
			return err
		}
		if newPkg.PackageType == model.PackageDailyBasis && in.Balance.IsPositive() {
			if err := writeBalanceTx(tx, newPkg, model.TxDeposit, nil, in.Balance, decimal.Zero, "initial deposit on renewal"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetPackage(ctx, org, newPkg.ID)
	if err != nil {
		return nil, err
	}
	return &RenewResult{Package: created, OldPackageID: old.ID, CarriedOver: carried}, nil
}

func (s *gormStore) DeactivatePackage(ctx context.Context, org string, id int64, reason string) (*model.MemberPackage, error) {
	pkg, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if pkg.Status != model.StatusActive {
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("only active packages can be deactivated; package is %s", pkg.Status),
			"package_id", pkg.ID, "status", pkg.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pkg).Updates(map[string]any{"status": model.StatusDeactivated, "is_active": false}).Error; err != nil {
			return err
		}
		pkg.Status = model.StatusDeactivated
		pkg.IsActive = false
		hist := model.NewPackageHistory(pkg, model.ActionDeactivated, reason)
		return tx.Create(&hist).Error
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *gormStore) ReactivatePackage(ctx context.Context, org string, id int64) (*model.MemberPackage, error) {
	pkg, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if pkg.Status != model.StatusDeactivated {
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("only deactivated packages can be reactivated; package is %s", pkg.Status),
			"package_id", pkg.ID, "status", pkg.Status)
	}
	if pkg.PackageType.IsDateRanged() && pkg.EndDate != nil && dateOnly(*pkg.EndDate).Before(s.today()) {
		return nil, newError(CodePackageExpired,
			fmt.Sprintf("package ended on %s; renew it instead", pkg.EndDate.Format(model.DateLayout)),
			"package_id", pkg.ID, "end_date", pkg.EndDate.Format(model.DateLayout))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var other model.MemberPackage
		err := tx.Where("organization_id = ? AND member_id = ? AND id <> ? AND status = ?", org, pkg.MemberID, pkg.ID, model.StatusActive).
			First(&other).Error
		if err == nil {
			return newError(CodePackageConflict,
				fmt.Sprintf("member already has an active %s package", other.PackageType),
				"existing_package_id", other.ID,
				"existing_type", other.PackageType)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if pkg.PackageType.IsDateRanged() {
			conflict, err := conflictingOverlap(tx, org, pkg.MemberID, *pkg.StartDate, *pkg.EndDate, pkg.ID, true)
			if err != nil {
				return err
			}
			if conflict != nil {
				return dateRangeConflict(conflict)
			}
		}

		if err := tx.Model(pkg).Updates(map[string]any{"status": model.StatusActive, "is_active": true}).Error; err != nil {
			return err
		}
		pkg.Status = model.StatusActive
		pkg.IsActive = true
		hist := model.NewPackageHistory(pkg, model.ActionReactivated, "")
		return tx.Create(&hist).Error
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *gormStore) DeletePackage(ctx context.Context, org string, id int64) error {
	pkg, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return err
	}
	// Hard delete: the package and everything hanging off it.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("package_id = ?", pkg.ID).Delete(&model.PackageDisabledDay{}).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", pkg.ID).Delete(&model.PackageHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", pkg.ID).Delete(&model.MealConsumption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", pkg.ID).Delete(&model.BalanceTransaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.MemberPackage{}, pkg.ID).Error
	})
}

// writeBalanceTx appends a balance ledger row inside the caller's transaction.
// before is the balance prior to this entry; the package row itself is updated
// by the caller. The ledger invariant balance_after = balance_before ± amount
// holds by construction and deductions may never go negative.
func writeBalanceTx(tx *gorm.DB, pkg *model.MemberPackage, txType model.BalanceTransactionType, meal *model.MealType, amount, before decimal.Decimal, notes string) error {
	var after decimal.Decimal
	switch txType {
	case model.TxDeposit:
		after = before.Add(amount)
	case model.TxMealDeduction:
		after = before.Sub(amount)
	}
	if after.IsNegative() {
		return newError(CodeInsufficientBalance,
			fmt.Sprintf("Insufficient balance. Current: Rs. %s, Required: Rs. %s", before.StringFixed(2), amount.StringFixed(2)),
			"current", before.StringFixed(2), "required", amount.StringFixed(2))
	}
	row := model.BalanceTransaction{
		OrganizationID: pkg.OrganizationID,
		PackageID:      pkg.ID,
		MemberID:       pkg.MemberID,
		Type:           txType,
		MealType:       meal,
		Amount:         amount,
		BalanceBefore:  before,
		BalanceAfter:   after,
		Notes:          notes,
	}
	return tx.Create(&row).Error
}

func (s *gormStore) Deposit(ctx context.Context, org string, id int64, amount decimal.Decimal, notes string) (*model.MemberPackage, *model.BalanceTransaction, error) {
	if !amount.IsPositive() {
		return nil, nil, newError(CodeInvalidDeposit, "deposit amount must be greater than zero", "amount", amount.String())
	}
	pkg, err := s.GetPackage(ctx, org, id)
	if err != nil {
		return nil, nil, err
	}
	if pkg.PackageType != model.PackageDailyBasis {
		return nil, nil, newError(CodeInvalidDeposit, "deposits apply to daily_basis packages only",
			"package_id", pkg.ID, "package_type", pkg.PackageType)
	}

	row := model.BalanceTransaction{
		OrganizationID: org,
		PackageID:      pkg.ID,
		MemberID:       pkg.MemberID,
		Type:           model.TxDeposit,
		Amount:         amount,
		BalanceBefore:  pkg.Balance,
		BalanceAfter:   pkg.Balance.Add(amount),
		Notes:          notes,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pkg).Update("balance", row.BalanceAfter).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, nil, err
	}
	pkg.Balance = row.BalanceAfter
	return pkg, &row, nil
}

func (s *gormStore) PackageHistory(ctx context.Context, org string, id int64) ([]model.PackageHistory, error) {
	if _, err := s.GetPackage(ctx, org, id); err != nil {
		return nil, err
	}
	var hist []model.PackageHistory
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND package_id = ?", org, id).
		Order("created_at DESC, id DESC").
		Find(&hist).Error
	return hist, err
}

func (s *gormStore) PackageTransactions(ctx context.Context, org string, id int64) ([]model.BalanceTransaction, error) {
	if _, err := s.GetPackage(ctx, org, id); err != nil {
		return nil, err
	}
	var txs []model.BalanceTransaction
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND package_id = ?", org, id).
		Order("created_at DESC, id DESC").
		Find(&txs).Error
	return txs, err
}
