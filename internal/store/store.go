package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cafeteria-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Package lifecycle
	CreatePackage(ctx context.Context, org string, in CreatePackageInput) (*model.MemberPackage, error)
	GetPackage(ctx context.Context, org string, id int64) (*model.MemberPackage, error)
	ListPackages(ctx context.Context, org string, memberID string) ([]model.MemberPackage, error)
	RenewPackage(ctx context.Context, org string, id int64, in RenewPackageInput) (*RenewResult, error)
	DeactivatePackage(ctx context.Context, org string, id int64, reason string) (*model.MemberPackage, error)
	ReactivatePackage(ctx context.Context, org string, id int64) (*model.MemberPackage, error)
	DeletePackage(ctx context.Context, org string, id int64) error
	Deposit(ctx context.Context, org string, id int64, amount decimal.Decimal, notes string) (*model.MemberPackage, *model.BalanceTransaction, error)
	ExpireDuePackages(ctx context.Context, org string) (int64, error)
	PackageHistory(ctx context.Context, org string, id int64) ([]model.PackageHistory, error)
	PackageTransactions(ctx context.Context, org string, id int64) ([]model.BalanceTransaction, error)

	// Consumption
	Consume(ctx context.Context, org string, id int64, meal model.MealType, notes string) (*model.MemberPackage, error)
	ManualConfirm(ctx context.Context, org string, in ManualConfirmInput) (*ManualConfirmResult, error)

	// Tokens
	IssueToken(ctx context.Context, org string, memberID string, meal model.MealType) (*model.MealToken, *model.Member, error)
	CollectToken(ctx context.Context, org string, tokenID string) (*model.MealToken, error)
	CancelToken(ctx context.Context, org string, tokenID string) (*model.MealToken, error)
	FindToken(ctx context.Context, org string, ref string) (*model.MealToken, error)

	// Reporting and directory reads
	MealStatusReport(ctx context.Context, org string, start, end time.Time, memberType model.MemberType) (*MealStatusReport, error)
	ListMembers(ctx context.Context, org string, memberType model.MemberType) ([]model.Member, error)
	GetMember(ctx context.Context, org string, id string) (*model.Member, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// NewGormStoreWithClock creates a store with an injected clock, for tests.
func NewGormStoreWithClock(db *gorm.DB, now func() time.Time) Store {
	return &gormStore{db: db, now: now}
}

// DB exposes the underlying handle for auxiliary reads (subscriptions, menus).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// dateOnly is shorthand for the canonical calendar-date form.
func dateOnly(t time.Time) time.Time {
	return model.DateOnly(t)
}

// today is the current calendar date under the store's clock.
func (s *gormStore) today() time.Time {
	return dateOnly(s.now())
}

func (s *gormStore) ListMembers(ctx context.Context, org string, memberType model.MemberType) ([]model.Member, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ?", org)
	if memberType != "" {
		if !memberType.IsValid() {
			return nil, newError(CodeInvalidMemberType, "invalid member type", "member_type", memberType)
		}
		q = q.Where("member_type = ?", memberType)
	}
	var members []model.Member
	if err := q.Order("name").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *gormStore) GetMember(ctx context.Context, org string, id string) (*model.Member, error) {
	var member model.Member
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", org, id).
		First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFound("member", id)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}
