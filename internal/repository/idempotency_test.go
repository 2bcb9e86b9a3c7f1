package repository

import (
	"context"
	"testing"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testIdempotencyRepository exercises behaviour every IdempotencyRepository must share
func testIdempotencyRepository(t *testing.T, newRepo func(t *testing.T) IdempotencyRepository) {
	t.Run("store and get", func(t *testing.T) {
		repo := newRepo(t)

		tests := []struct {
			name        string
			key         string
			requestPath string
			body        string
			status      int
		}{
			{
				name:        "store and retrieve simple key",
				key:         "test-key-1",
				requestPath: "/api/v1/payments",
				status:      201,
				body:        `{"transactionId":"txn_1"}`,
			},
			{
				name:        "store and retrieve different path",
				key:         "test-key-2",
				requestPath: "/api/v1/payouts",
				status:      201,
				body:        `{"transactionId":"txn_2"}`,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				idemKey := &models.IdempotencyKey{
					Key:            tt.key,
					RequestPath:    tt.requestPath,
					ResponseStatus: tt.status,
					ResponseBody:   tt.body,
				}

				err := repo.Store(context.Background(), idemKey)
				require.NoError(t, err, "failed to store idempotency key")

				retrieved, err := repo.Get(context.Background(), tt.key, tt.requestPath)
				require.NoError(t, err, "failed to get idempotency key")
				require.NotNil(t, retrieved, "expected idempotency key")

				assert.Equal(t, tt.key, retrieved.Key, "key mismatch")
				assert.Equal(t, tt.requestPath, retrieved.RequestPath, "request path mismatch")
				assert.Equal(t, tt.status, retrieved.ResponseStatus, "status mismatch")
				assert.Equal(t, tt.body, retrieved.ResponseBody, "body mismatch")
			})
		}
	})

	t.Run("get not found", func(t *testing.T) {
		repo := newRepo(t)

		result, err := repo.Get(context.Background(), "non-existent-key", "/api/v1/payments")
		require.NoError(t, err, "unexpected error")
		assert.Nil(t, result, "expected nil for non-existent key")
	})

	t.Run("first response wins", func(t *testing.T) {
		repo := newRepo(t)

		first := &models.IdempotencyKey{
			Key:            "duplicate-key",
			RequestPath:    "/api/v1/payments",
			ResponseStatus: 201,
			ResponseBody:   `{"first":"response"}`,
		}
		require.NoError(t, repo.Store(context.Background(), first))

		second := &models.IdempotencyKey{
			Key:            "duplicate-key",
			RequestPath:    "/api/v1/payments",
			ResponseStatus: 200,
			ResponseBody:   `{"second":"response"}`,
		}
		require.NoError(t, repo.Store(context.Background(), second))

		retrieved, err := repo.Get(context.Background(), "duplicate-key", "/api/v1/payments")
		require.NoError(t, err)
		assert.Equal(t, first.ResponseStatus, retrieved.ResponseStatus, "first response should win (status)")
		assert.Equal(t, first.ResponseBody, retrieved.ResponseBody, "first response should win (body)")
	})

	t.Run("same key different path", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Store(context.Background(), &models.IdempotencyKey{
			Key: "same-key", RequestPath: "/api/v1/payments", ResponseStatus: 201, ResponseBody: `{"payment":"response"}`,
		}))
		require.NoError(t, repo.Store(context.Background(), &models.IdempotencyKey{
			Key: "same-key", RequestPath: "/api/v1/payouts", ResponseStatus: 201, ResponseBody: `{"payout":"response"}`,
		}))

		payment, err := repo.Get(context.Background(), "same-key", "/api/v1/payments")
		require.NoError(t, err)
		assert.Equal(t, `{"payment":"response"}`, payment.ResponseBody)

		payout, err := repo.Get(context.Background(), "same-key", "/api/v1/payouts")
		require.NoError(t, err)
		assert.Equal(t, `{"payout":"response"}`, payout.ResponseBody)
	})

	t.Run("delete older than", func(t *testing.T) {
		repo := newRepo(t)
		now := time.Now()

		require.NoError(t, repo.Store(context.Background(), &models.IdempotencyKey{
			Key: "old-key", RequestPath: "/api/v1/payments", ResponseStatus: 201, ResponseBody: "old",
			CreatedAt: now.Add(-25 * time.Hour),
		}))
		require.NoError(t, repo.Store(context.Background(), &models.IdempotencyKey{
			Key: "recent-key", RequestPath: "/api/v1/payments", ResponseStatus: 201, ResponseBody: "recent",
			CreatedAt: now.Add(-1 * time.Hour),
		}))

		deleted, err := repo.DeleteOlderThan(context.Background(), now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted, "deleted count mismatch")

		old, err := repo.Get(context.Background(), "old-key", "/api/v1/payments")
		require.NoError(t, err)
		assert.Nil(t, old, "old key should have been deleted")

		recent, err := repo.Get(context.Background(), "recent-key", "/api/v1/payments")
		require.NoError(t, err)
		assert.NotNil(t, recent, "recent key should still exist")
	})
}

func TestMemoryIdempotencyRepository(t *testing.T) {
	testIdempotencyRepository(t, func(t *testing.T) IdempotencyRepository {
		return NewMemoryIdempotencyRepository()
	})
}

func TestIdempotencyRepository_Postgres(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	testIdempotencyRepository(t, func(t *testing.T) IdempotencyRepository {
		truncateTables(t, database)
		return NewIdempotencyRepository(database)
	})
}
