package store

import (
	"context"
	"time"

	"cafeteria-backend/internal/model"
)

// MealStatusReport builds the read-only historical view for [start, end].
// A member qualifies only while holding an active package whose end date (if
// any) reaches the end of the report window.
func (s *gormStore) MealStatusReport(ctx context.Context, org string, start, end time.Time, memberType model.MemberType) (*MealStatusReport, error) {
	start, end = dateOnly(start), dateOnly(end)
	if start.After(end) {
		return nil, newError(CodeInvalidDateRange, "start must not be after end",
			"start", start.Format(model.DateLayout), "end", end.Format(model.DateLayout))
	}
	if memberType != "" && !memberType.IsValid() {
		return nil, newError(CodeInvalidMemberType, "invalid member type", "member_type", memberType)
	}

	db := s.db.WithContext(ctx)

	var pkgs []model.MemberPackage
	err := db.Where("organization_id = ? AND status = ? AND is_active = ?", org, model.StatusActive, true).
		Where("end_date IS NULL OR end_date >= ?", end).
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}
	pkgByMember := make(map[string]*model.MemberPackage, len(pkgs))
	for i := range pkgs {
		pkgByMember[pkgs[i].MemberID] = &pkgs[i]
	}

	memberQuery := db.Where("organization_id = ? AND approved = ?", org, true)
	if memberType != "" {
		memberQuery = memberQuery.Where("member_type = ?", memberType)
	}
	var members []model.Member
	if err := memberQuery.Order("name").Find(&members).Error; err != nil {
		return nil, err
	}

	qualifying := members[:0]
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := pkgByMember[m.ID]; ok {
			qualifying = append(qualifying, m)
			memberIDs = append(memberIDs, m.ID)
		}
	}

	selections := make(map[string]map[string]*model.MealSelection) // member -> date -> row
	tokens := make(map[string]map[string][]model.MealToken)        // member -> date -> tokens
	if len(memberIDs) > 0 {
		var selRows []model.MealSelection
		err = db.Where("organization_id = ? AND member_id IN ? AND date BETWEEN ? AND ?", org, memberIDs, start, end).
			Find(&selRows).Error
		if err != nil {
			return nil, err
		}
		for i := range selRows {
			sel := &selRows[i]
			key := dateOnly(sel.Date).Format(model.DateLayout)
			if selections[sel.MemberID] == nil {
				selections[sel.MemberID] = make(map[string]*model.MealSelection)
			}
			selections[sel.MemberID][key] = sel
		}

		var tokenRows []model.MealToken
		err = db.Where("organization_id = ? AND member_id IN ? AND token_date BETWEEN ? AND ?", org, memberIDs, start, end).
			Find(&tokenRows).Error
		if err != nil {
			return nil, err
		}
		for _, tok := range tokenRows {
			key := dateOnly(tok.TokenDate).Format(model.DateLayout)
			if tokens[tok.MemberID] == nil {
				tokens[tok.MemberID] = make(map[string][]model.MealToken)
			}
			tokens[tok.MemberID][key] = append(tokens[tok.MemberID][key], tok)
		}
	}

	// Newest first.
	var dates []string
	for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
		dates = append(dates, d.Format(model.DateLayout))
	}

	today := s.today()
	report := &MealStatusReport{
		Dates:   dates,
		Members: make([]ReportMember, 0, len(qualifying)),
		Stats: ReportStats{
			TotalMembers: len(qualifying),
			PerMeal:      make(map[model.MealType]int, len(model.AllMeals)),
		},
	}

	for _, m := range qualifying {
		pkg := pkgByMember[m.ID]
		row := ReportMember{
			MemberID:   m.ID,
			Name:       m.Name,
			MemberType: m.MemberType,
			PackageID:  pkg.ID,
			Days:       make(map[string]map[model.MealType]MealCell, len(dates)),
		}
		for _, dateKey := range dates {
			date, _ := time.Parse(model.DateLayout, dateKey)
			cells := make(map[model.MealType]MealCell, len(model.AllMeals))
			for _, meal := range model.AllMeals {
				cells[meal] = classifyCell(pkg, selections[m.ID][dateKey], tokens[m.ID][dateKey], meal, date, today)
			}
			row.Days[dateKey] = cells
		}
		report.Members = append(report.Members, row)

		// Summary statistics reflect the most recent day only.
		latest := row.Days[dates[0]]
		taking := false
		for _, meal := range model.AllMeals {
			cell := latest[meal]
			if cell.Status == model.MealStatusCollected || cell.Status == model.MealStatusPending {
				report.Stats.PerMeal[meal]++
				taking = true
			}
		}
		if taking {
			report.Stats.Taking++
		} else {
			report.Stats.NotTaking++
		}
	}

	return report, nil
}

// classifyCell applies the report precedence: a meal excluded from the package
// beats an explicit opt-out, which beats token-derived status, which beats the
// past/future default.
func classifyCell(pkg *model.MemberPackage, sel *model.MealSelection, dayTokens []model.MealToken, meal model.MealType, date, today time.Time) MealCell {
	if !pkg.Meal(meal).Enabled {
		return MealCell{Status: model.MealStatusNotInPackage}
	}
	if sel != nil && !sel.Needed(meal) {
		return MealCell{Status: model.MealStatusSkipped}
	}

	if tok := pickToken(dayTokens, meal); tok != nil {
		no := tok.TokenNo
		switch tok.Status {
		case model.TokenCollected:
			return MealCell{Status: model.MealStatusCollected, TokenNo: &no, CollectedAt: tok.CollectedAt}
		case model.TokenPending:
			// A pending token whose date has passed was never collected;
			// it reads as missed (derived expiry, never written back).
			if date.Before(today) {
				return MealCell{Status: model.MealStatusMissed, TokenNo: &no}
			}
			return MealCell{Status: model.MealStatusPending, TokenNo: &no}
		case model.TokenExpired:
			return MealCell{Status: model.MealStatusMissed, TokenNo: &no}
		case model.TokenCancelled:
			return MealCell{Status: model.MealStatusCancelled, TokenNo: &no}
		}
	}

	if date.Before(today) {
		return MealCell{Status: model.MealStatusMissed}
	}
	return MealCell{Status: model.MealStatusPending}
}

// pickToken chooses the representative token for a member/date/meal when
// several exist: COLLECTED wins, then PENDING, then whatever remains.
func pickToken(dayTokens []model.MealToken, meal model.MealType) *model.MealToken {
	var pending, other *model.MealToken
	for i := range dayTokens {
		tok := &dayTokens[i]
		if tok.MealType != meal {
			continue
		}
		switch tok.Status {
		case model.TokenCollected:
			return tok
		case model.TokenPending:
			if pending == nil {
				pending = tok
			}
		default:
			if other == nil {
				other = tok
			}
		}
	}
	if pending != nil {
		return pending
	}
	return other
}
