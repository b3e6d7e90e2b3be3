package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Dispatch a job
	wp.Dispatch("token-123")

	// Check if the job is in the channel
	select {
	case job := <-wp.jobs:
		assert.Equal(t, "token-123", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// No workers are running; the second dispatch must not block.
	wp.Dispatch("token-1")
	wp.Dispatch("token-2")

	assert.Len(t, wp.jobs, 1)
	assert.Equal(t, "token-1", <-wp.jobs)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	tokenRows := func(id string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "organization_id", "token_no", "member_id", "meal_type", "status"}).
			AddRow(id, "org-1", 12, "m1", "lunch", "COLLECTED")
	}

	// --- Test Case: One subscription found, notification sent ---
	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		// Set up the mock sender
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Your lunch token #12 has been collected.", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		// Mock database queries
		mock.ExpectQuery(`SELECT .* FROM "meal_tokens" WHERE id = \$1`).
			WithArgs("tok-1", 1).
			WillReturnRows(tokenRows("tok-1"))

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE organization_id = \$1 AND member_id = \$2`).
			WithArgs("org-1", "m1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "organization_id", "member_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "org-1", "m1", "test_p256dh", "test_auth", time.Now()))

		wp.Dispatch("tok-1")
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// --- Test Case: Subscription expired, should be deleted ---
	t.Run("deletes expired subscription", func(t *testing.T) {
		// Set up the mock sender to return a 410 Gone status
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "meal_tokens" WHERE id = \$1`).
			WithArgs("tok-2", 1).
			WillReturnRows(tokenRows("tok-2"))

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE organization_id = \$1 AND member_id = \$2`).
			WithArgs("org-1", "m1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "organization_id", "member_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "org-1", "m1", "test_p256dh", "test_auth", time.Now()))

		// Expect the delete operation
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch("tok-2")

		// A short sleep to allow the worker to process the job
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// --- Test Case: No subscriptions, nothing sent ---
	t.Run("skips members without subscriptions", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("send should not be called")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "meal_tokens" WHERE id = \$1`).
			WithArgs("tok-3", 1).
			WillReturnRows(tokenRows("tok-3"))

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE organization_id = \$1 AND member_id = \$2`).
			WithArgs("org-1", "m1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "organization_id", "member_id", "p256dh", "auth", "created_at"}))

		wp.Dispatch("tok-3")
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
