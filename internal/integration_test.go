package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cafeteria-backend/internal/api"
	"cafeteria-backend/internal/db"
	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
	"cafeteria-backend/internal/notification"
	"cafeteria-backend/internal/store"
)

const org = "org-1"

func setupDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	return conn
}

// TestMemberJourney walks one member through the whole system: a package is
// created and consumed, a token is issued and collected, the report reflects
// the collection, and the package gets renewed with carry-over.
func TestMemberJourney(t *testing.T) {
	conn := setupDB(t, "journey")

	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	s := store.NewGormStoreWithClock(conn, func() time.Time {
		return today.Add(12 * time.Hour)
	})
	ctx := context.Background()

	validUntil := today.AddDate(1, 0, 0)
	require.NoError(t, conn.Create(&model.Member{
		ID:             "m1",
		OrganizationID: org,
		Name:           "Asha",
		MemberType:     model.MemberStudent,
		Status:         "active",
		Approved:       true,
		ValidUntil:     &validUntil,
		BalanceMeals:   2,
	}).Error)

	// --- Package created and partially consumed ---
	pkg, err := s.CreatePackage(ctx, org, store.CreatePackageInput{
		MemberID:    "m1",
		MemberType:  model.MemberStudent,
		PackageType: model.PackagePartial,
		Breakfast:   store.MealSpec{Enabled: true, Total: 10},
		Lunch:       store.MealSpec{Enabled: true, Total: 10},
		Dinner:      store.MealSpec{Enabled: true, Total: 10},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = s.Consume(ctx, org, pkg.ID, model.MealLunch, "")
		require.NoError(t, err)
	}

	// --- Token issued and collected ---
	token, member, err := s.IssueToken(ctx, org, "m1", model.MealLunch)
	require.NoError(t, err)
	assert.Equal(t, 1, token.TokenNo)
	assert.Equal(t, 1, member.BalanceMeals)

	collected, err := s.CollectToken(ctx, org, token.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TokenCollected, collected.Status)

	// --- The report shows the collection ---
	report, err := s.MealStatusReport(ctx, org, today.AddDate(0, 0, -6), today, "")
	require.NoError(t, err)
	require.Len(t, report.Members, 1)
	cell := report.Members[0].Days["2024-03-10"][model.MealLunch]
	assert.Equal(t, model.MealStatusCollected, cell.Status)
	require.NotNil(t, cell.TokenNo)
	assert.Equal(t, 1, *cell.TokenNo)
	assert.Equal(t, 1, report.Stats.Taking)

	// --- Renewal carries the remainder forward ---
	res, err := s.RenewPackage(ctx, org, pkg.ID, store.RenewPackageInput{
		CreatePackageInput: store.CreatePackageInput{
			MemberID:    "m1",
			MemberType:  model.MemberStudent,
			PackageType: model.PackagePartial,
			Breakfast:   store.MealSpec{Enabled: true, Total: 20},
			Lunch:       store.MealSpec{Enabled: true, Total: 20},
			Dinner:      store.MealSpec{Enabled: true, Total: 20},
		},
		CarryOver: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 27, res.Package.LunchTotal)
	assert.Equal(t, 0, res.Package.LunchConsumed)

	old, err := s.GetPackage(ctx, org, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRenewed, old.Status)

	// The renewed package occupies the member's single non-terminal slot.
	_, err = s.CreatePackage(ctx, org, store.CreatePackageInput{
		MemberID:    "m1",
		MemberType:  model.MemberStudent,
		PackageType: model.PackagePartial,
		Lunch:       store.MealSpec{Enabled: true, Total: 5},
	})
	require.Error(t, err)
}

// TestCollectDispatchesPush wires the real worker pool behind the API and
// verifies a collected token lands on the notification queue.
func TestCollectDispatchesPush(t *testing.T) {
	conn := setupDB(t, "dispatch")

	validUntil := time.Now().AddDate(1, 0, 0)
	require.NoError(t, conn.Create(&model.Member{
		ID:             "m1",
		OrganizationID: org,
		Name:           "Ravi",
		MemberType:     model.MemberStaff,
		Status:         "active",
		Approved:       true,
		ValidUntil:     &validUntil,
		BalanceMeals:   5,
	}).Error)

	s := store.NewGormStore(conn)
	wp := notification.NewWorkerPool(1, conn, &webpush.Options{})
	router := api.NewRouter(s, &webpush.Options{VAPIDPublicKey: "pk"}, wp, api.RouterOptions{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		ReportCacheTTL:  time.Minute,
	})

	body, _ := json.Marshal(map[string]string{"member_id": "m1", "meal_type": "dinner"})
	req, _ := http.NewRequest("POST", "/api/tokens", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mw.OrgHeader, org)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var issued struct {
		Token model.MealToken `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))

	req, _ = http.NewRequest("POST", "/api/tokens/"+issued.Token.ID+"/collect", nil)
	req.Header.Set(mw.OrgHeader, org)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The workers are not running, so the job must still be queued.
	select {
	case id := <-wp.Jobs():
		assert.Equal(t, issued.Token.ID, id)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the push dispatch")
	}
}
