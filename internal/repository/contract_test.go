package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTransactionRepository exercises behaviour every TransactionRepository must share
func testTransactionRepository(t *testing.T, newRepo func(t *testing.T) TransactionRepository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		txn := newPayment("txn_create", "100.50")

		require.NoError(t, repo.Create(ctx, txn))
		assert.False(t, txn.CreatedAt.IsZero())

		found, err := repo.FindByID(ctx, "txn_create")
		require.NoError(t, err)
		assert.Equal(t, "txn_create", found.ID)
		assert.True(t, found.Amount.Equal(decimal.RequireFromString("100.5")))
		assert.Equal(t, models.TransactionStatusInitiated, found.Status)
		assert.Equal(t, models.FlowHosted, found.Details.Flow)
		assert.Equal(t, "order 42", found.Details.Reason)
		assert.Empty(t, found.WebhookLog)
	})

	t.Run("duplicate create leaves existing record untouched", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayment("txn_dup", "10")))

		err := repo.Create(ctx, newPayment("txn_dup", "99"))

		assert.ErrorIs(t, err, models.ErrDuplicateTransaction)
		found, err := repo.FindByID(ctx, "txn_dup")
		require.NoError(t, err)
		assert.True(t, found.Amount.Equal(decimal.RequireFromString("10")))
	})

	t.Run("find unknown", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, "txn_missing")

		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("bind third party id is write once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayment("txn_bind", "10")))

		require.NoError(t, repo.BindThirdPartyID(ctx, "txn_bind", "pp_bind"))
		require.NoError(t, repo.BindThirdPartyID(ctx, "txn_bind", "pp_bind"))
		assert.ErrorIs(t, repo.BindThirdPartyID(ctx, "txn_bind", "pp_other"), models.ErrThirdPartyIDConflict)
		assert.ErrorIs(t, repo.BindThirdPartyID(ctx, "txn_nobody", "pp_x"), models.ErrNotFound)

		found, err := repo.FindByID(ctx, "txn_bind")
		require.NoError(t, err)
		assert.Equal(t, "pp_bind", found.ThirdPartyID)
	})

	t.Run("notification by third party id transitions and logs", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayment("txn_1", "100.50")))
		require.NoError(t, repo.BindThirdPartyID(ctx, "txn_1", "pp_1"))

		result, err := repo.ApplyNotification(ctx, CorrelationKey{Kind: ByThirdPartyID, Value: "pp_1"}, StatusUpdate{
			Source:     models.NotificationSourceCollection,
			Status:     models.TransactionStatusSuccess,
			Amount:     amountPtr("100.50"),
			RawPayload: json.RawMessage(`{"thirdPartyId":"pp_1","Status":"SUCCESS"}`),
		})

		require.NoError(t, err)
		assert.True(t, result.Transitioned)
		assert.Equal(t, models.TransactionStatusInitiated, result.PreviousStatus)
		assert.Equal(t, models.TransactionStatusSuccess, result.Transaction.Status)
		assert.False(t, result.Entry.AmountMismatch)

		found, err := repo.FindByID(ctx, "txn_1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, found.Status)
		require.Len(t, found.WebhookLog, 1)
		assert.JSONEq(t, `{"thirdPartyId":"pp_1","Status":"SUCCESS"}`, string(found.WebhookLog[0].RawPayload))
	})

	t.Run("raw payload is kept byte for byte", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayout("txn_raw", "75")))
		payload := `{"transactionId": "txn_raw",  "status":"SUCCESS", "amount": 75.00, "amount": 75}`

		_, err := repo.ApplyNotification(ctx, CorrelationKey{Kind: ByTransactionID, Value: "txn_raw"}, StatusUpdate{
			Source:     models.NotificationSourcePayout,
			Status:     models.TransactionStatusSuccess,
			RawPayload: json.RawMessage(payload),
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, "txn_raw")
		require.NoError(t, err)
		require.Len(t, found.WebhookLog, 1)
		assert.Equal(t, payload, string(found.WebhookLog[0].RawPayload))
	})

	t.Run("terminal status is final but duplicates are logged", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayout("txn_2", "75")))
		key := CorrelationKey{Kind: ByTransactionID, Value: "txn_2"}

		first, err := repo.ApplyNotification(ctx, key, StatusUpdate{Source: models.NotificationSourcePayout, Status: models.TransactionStatusSuccess})
		require.NoError(t, err)
		second, err := repo.ApplyNotification(ctx, key, StatusUpdate{Source: models.NotificationSourcePayout, Status: models.TransactionStatusSuccess})
		require.NoError(t, err)
		third, err := repo.ApplyNotification(ctx, key, StatusUpdate{Source: models.NotificationSourcePayout, Status: models.TransactionStatusFailed})
		require.NoError(t, err)

		assert.True(t, first.Transitioned)
		assert.False(t, second.Transitioned)
		assert.False(t, third.Transitioned)
		assert.Equal(t, models.TransactionStatusSuccess, third.Transaction.Status)

		found, err := repo.FindByID(ctx, "txn_2")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, found.Status)
		assert.Len(t, found.WebhookLog, 3)
	})

	t.Run("correlation kinds do not cross", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayment("txn_3", "10")))
		require.NoError(t, repo.BindThirdPartyID(ctx, "txn_3", "pp_3"))

		_, err := repo.ApplyNotification(ctx, CorrelationKey{Kind: ByThirdPartyID, Value: "txn_3"}, StatusUpdate{Status: models.TransactionStatusSuccess})
		assert.ErrorIs(t, err, models.ErrNotFound)

		found, err := repo.FindByID(ctx, "txn_3")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusInitiated, found.Status)
		assert.Empty(t, found.WebhookLog)
	})

	t.Run("amount mismatch is flagged not applied", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayout("txn_4", "75")))

		result, err := repo.ApplyNotification(ctx, CorrelationKey{Kind: ByTransactionID, Value: "txn_4"}, StatusUpdate{
			Status: models.TransactionStatusSuccess,
			Amount: amountPtr("80"),
		})

		require.NoError(t, err)
		assert.True(t, result.Entry.AmountMismatch)
		assert.True(t, result.Transaction.Amount.Equal(decimal.RequireFromString("75")))

		found, err := repo.FindByID(ctx, "txn_4")
		require.NoError(t, err)
		require.Len(t, found.WebhookLog, 1)
		assert.True(t, found.WebhookLog[0].AmountMismatch)
	})

	t.Run("concurrent notifications transition once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newPayout("txn_5", "5")))
		key := CorrelationKey{Kind: ByTransactionID, Value: "txn_5"}

		const workers = 8
		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			transitioned int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := repo.ApplyNotification(ctx, key, StatusUpdate{Status: models.TransactionStatusSuccess})
				if !assert.NoError(t, err) {
					return
				}
				if result.Transitioned {
					mu.Lock()
					transitioned++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, transitioned)
		found, err := repo.FindByID(ctx, "txn_5")
		require.NoError(t, err)
		assert.Len(t, found.WebhookLog, workers)
	})
}
