package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cafeteria-backend/config"
	"cafeteria-backend/internal/db"
	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/store"
)

func TestSweepOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:sweeper?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(conn))

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	stale := model.MemberPackage{
		OrganizationID: "org-1",
		MemberID:       "m1",
		MemberType:     model.MemberStudent,
		PackageType:    model.PackageFullTime,
		Status:         model.StatusActive,
		IsActive:       true,
		StartDate:      &start,
		EndDate:        &end,
	}
	require.NoError(t, conn.Create(&stale).Error)

	cfg := &config.Config{}
	cfg.Sweeper.Enabled = true
	svc := NewService(cfg, store.NewGormStore(conn))

	svc.SweepOnce(context.Background())

	var got model.MemberPackage
	require.NoError(t, conn.First(&got, stale.ID).Error)
	assert.Equal(t, model.StatusExpired, got.Status)
	assert.False(t, got.IsActive)

	var hist model.PackageHistory
	require.NoError(t, conn.Where("package_id = ?", stale.ID).First(&hist).Error)
	assert.Equal(t, model.ActionExpired, hist.Action)
}

func TestRunDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sweeper.Enabled = false
	svc := NewService(cfg, nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when the sweeper is disabled")
	}
}
