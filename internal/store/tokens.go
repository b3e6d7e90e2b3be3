package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/parse"
)

// reserveTokenNo atomically assigns the next sequential token number for the
// date. The first issuance of the day races on the counter insert: the loser's
// insert hits the unique (organization, date) index and falls back to the
// increment path against the now-existing row.
func reserveTokenNo(tx *gorm.DB, org string, date time.Time) (int, error) {
	res := tx.Model(&model.DailyTokenCounter{}).
		Where("organization_id = ? AND token_date = ?", org, date).
		Update("last_token_no", gorm.Expr("last_token_no + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		counter := model.DailyTokenCounter{OrganizationID: org, TokenDate: date, LastTokenNo: 1}
		if err := tx.Create(&counter).Error; err == nil {
			return 1, nil
		}
		res = tx.Model(&model.DailyTokenCounter{}).
			Where("organization_id = ? AND token_date = ?", org, date).
			Update("last_token_no", gorm.Expr("last_token_no + 1"))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, fmt.Errorf("token counter for %s not reachable after conflict", date.Format(model.DateLayout))
		}
	}

	var counter model.DailyTokenCounter
	if err := tx.Where("organization_id = ? AND token_date = ?", org, date).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastTokenNo, nil
}

// IssueToken creates today's PENDING token for the member and meal, deducting
// one meal from the member's rolling balance. Token insert and balance
// deduction commit together or not at all.
func (s *gormStore) IssueToken(ctx context.Context, org string, memberID string, meal model.MealType) (*model.MealToken, *model.Member, error) {
	if !meal.IsValid() {
		return nil, nil, newError(CodeInvalidMealType, "invalid meal type", "meal_type", meal)
	}
	member, err := s.GetMember(ctx, org, memberID)
	if err != nil {
		return nil, nil, err
	}

	today := s.today()
	if !member.IsActive() {
		return nil, nil, newError(CodeMemberInactive,
			fmt.Sprintf("member is %s", member.Status),
			"member_id", member.ID, "status", member.Status)
	}
	if member.ValidUntil != nil && dateOnly(*member.ValidUntil).Before(today) {
		return nil, nil, newError(CodeCardExpired,
			fmt.Sprintf("membership card expired on %s", member.ValidUntil.Format(model.DateLayout)),
			"member_id", member.ID, "valid_until", member.ValidUntil.Format(model.DateLayout))
	}
	if member.BalanceMeals <= 0 {
		return nil, nil, newError(CodeInsufficientBalance,
			"no meals remaining on card",
			"member_id", member.ID, "balance_meals", member.BalanceMeals)
	}

	token := &model.MealToken{
		ID:             uuid.NewString(),
		OrganizationID: org,
		MemberID:       member.ID,
		MealType:       meal,
		TokenDate:      today,
		TokenTime:      s.now(),
		Status:         model.TokenPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dup model.MealToken
		err := tx.Where("organization_id = ? AND member_id = ? AND token_date = ? AND meal_type = ? AND status = ?",
			org, member.ID, today, meal, model.TokenPending).
			First(&dup).Error
		if err == nil {
			return newError(CodeDuplicateToken,
				fmt.Sprintf("a pending %s token already exists for today (#%d)", meal, dup.TokenNo),
				"token_id", dup.ID, "token_no", dup.TokenNo)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		no, err := reserveTokenNo(tx, org, today)
		if err != nil {
			return err
		}
		token.TokenNo = no
		if err := tx.Create(token).Error; err != nil {
			return err
		}

		before := member.BalanceMeals
		if err := tx.Model(member).Update("balance_meals", before-1).Error; err != nil {
			return err
		}
		member.BalanceMeals = before - 1
		ledger := model.TokenTransaction{
			OrganizationID: org,
			MemberID:       member.ID,
			TokenID:        token.ID,
			Type:           model.TokenTxDeduction,
			Meals:          1,
			BalanceBefore:  before,
			BalanceAfter:   before - 1,
		}
		return tx.Create(&ledger).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return token, member, nil
}

func (s *gormStore) getToken(ctx context.Context, org string, tokenID string) (*model.MealToken, error) {
	var token model.MealToken
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", org, tokenID).
		First(&token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, notFound("token", tokenID)
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// CollectToken marks a token as collected. Collection is one-way and only
// valid on the token's own date.
func (s *gormStore) CollectToken(ctx context.Context, org string, tokenID string) (*model.MealToken, error) {
	token, err := s.getToken(ctx, org, tokenID)
	if err != nil {
		return nil, err
	}
	if !dateOnly(token.TokenDate).Equal(s.today()) {
		return nil, newError(CodeTokenNotForToday,
			fmt.Sprintf("token #%d is for %s, not today", token.TokenNo, token.TokenDate.Format(model.DateLayout)),
			"token_id", token.ID, "token_date", token.TokenDate.Format(model.DateLayout))
	}
	if token.Status == model.TokenCollected {
		return nil, newError(CodeAlreadyCollected,
			fmt.Sprintf("token #%d was already collected", token.TokenNo),
			"token_id", token.ID, "token_no", token.TokenNo, "collected_at", token.CollectedAt)
	}
	if token.Status == model.TokenCancelled {
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("token #%d has been cancelled", token.TokenNo),
			"token_id", token.ID, "status", token.Status)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(token).
		Updates(map[string]any{"status": model.TokenCollected, "collected_at": now}).Error
	if err != nil {
		return nil, err
	}
	token.Status = model.TokenCollected
	token.CollectedAt = &now
	return token, nil
}

// CancelToken voids a pending token and refunds the member's meal balance.
func (s *gormStore) CancelToken(ctx context.Context, org string, tokenID string) (*model.MealToken, error) {
	token, err := s.getToken(ctx, org, tokenID)
	if err != nil {
		return nil, err
	}
	if token.Status != model.TokenPending {
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("only pending tokens can be cancelled; token #%d is %s", token.TokenNo, token.Status),
			"token_id", token.ID, "status", token.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(token).Update("status", model.TokenCancelled).Error; err != nil {
			return err
		}
		var member model.Member
		if err := tx.Where("organization_id = ? AND id = ?", org, token.MemberID).First(&member).Error; err != nil {
			return err
		}
		before := member.BalanceMeals
		if err := tx.Model(&member).Update("balance_meals", before+1).Error; err != nil {
			return err
		}
		ledger := model.TokenTransaction{
			OrganizationID: org,
			MemberID:       member.ID,
			TokenID:        token.ID,
			Type:           model.TokenTxRefund,
			Meals:          1,
			BalanceBefore:  before,
			BalanceAfter:   before + 1,
		}
		return tx.Create(&ledger).Error
	})
	if err != nil {
		return nil, err
	}
	token.Status = model.TokenCancelled
	return token, nil
}

// FindToken resolves a scanner input (a UUID, a bare sequential number, or a
// "#"-prefixed number) against today's tokens.
func (s *gormStore) FindToken(ctx context.Context, org string, ref string) (*model.MealToken, error) {
	parsed, err := parse.TokenRef(ref)
	if err != nil {
		return nil, newError(CodeInvalidTokenRef, err.Error(), "ref", ref)
	}

	q := s.db.WithContext(ctx).Where("organization_id = ? AND token_date = ?", org, s.today())
	if parsed.ID != "" {
		q = q.Where("id = ?", parsed.ID)
	} else {
		q = q.Where("token_no = ?", parsed.No)
	}
	var token model.MealToken
	if err := q.First(&token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("token", ref)
		}
		return nil, err
	}
	return &token, nil
}
