package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/benx421/payment-gateway/merchant/internal/processor"
	processormocks "github.com/benx421/payment-gateway/merchant/internal/processor/mocks"
	"github.com/benx421/payment-gateway/merchant/internal/repository"
	"github.com/benx421/payment-gateway/merchant/internal/repository/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://shop.example"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPaymentService(repo repository.TransactionRepository, gateway processor.Gateway) *PaymentService {
	return NewPaymentService(repo, gateway, PaymentConfig{PublicBaseURL: testBaseURL, Currency: "ETB"}, testLogger())
}

func TestPaymentService_InitiateHostedPayment(t *testing.T) {
	t.Run("creates record before calling processor and binds processor id", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)
		ctx := context.Background()

		gateway.On("InitiateHostedPayment", ctx, mock.MatchedBy(func(req processor.HostedPaymentRequest) bool {
			stored, err := repo.FindByID(ctx, "txn_1")
			return err == nil &&
				stored.Status == models.TransactionStatusInitiated &&
				req.ID == "txn_1" &&
				req.Amount.Equal(decimal.NewFromInt(100)) &&
				req.NotifyURL == testBaseURL+"/api/v1/webhooks/payments" &&
				req.SuccessRedirectURL == testBaseURL+"/payment/success?transactionId=txn_1" &&
				req.FailureRedirectURL == testBaseURL+"/payment/failed?transactionId=txn_1" &&
				req.CancelRedirectURL == testBaseURL+"/payment/canceled?transactionId=txn_1" &&
				req.PhoneNumber == ""
		})).Return(&processor.HostedPayment{URL: "https://pay.example/checkout/abc", ProcessorTxnID: "pp_1"}, nil).Once()

		result, err := svc.InitiateHostedPayment(ctx, HostedPaymentInput{
			TransactionID: "txn_1",
			Amount:        decimal.NewFromInt(100),
			Reason:        "order 42",
			CustomerID:    "cust_1",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/checkout/abc", result.PaymentURL)
		assert.Equal(t, "pp_1", result.Transaction.ThirdPartyID)
		assert.Equal(t, models.FlowHosted, result.Transaction.Details.Flow)

		stored, err := repo.FindByID(ctx, "txn_1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusInitiated, stored.Status)
		assert.Equal(t, models.TransactionTypePayment, stored.Type)
		assert.Equal(t, "pp_1", stored.ThirdPartyID)
		assert.Equal(t, "ETB", stored.Currency)
	})

	t.Run("generates an id when none is given", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)

		gateway.On("InitiateHostedPayment", mock.Anything, mock.AnythingOfType("processor.HostedPaymentRequest")).
			Return(&processor.HostedPayment{URL: "https://pay.example/checkout/x"}, nil).Once()

		result, err := svc.InitiateHostedPayment(context.Background(), HostedPaymentInput{
			Amount: decimal.NewFromInt(5),
			Reason: "tip",
		})

		require.NoError(t, err)
		assert.Regexp(t, `^txn_[0-9a-f-]{36}$`, result.Transaction.ID)
		assert.Empty(t, result.Transaction.ThirdPartyID)
	})

	t.Run("duplicate id does not reach the processor", func(t *testing.T) {
		mockRepo := mocks.NewMockTransactionRepository(t)
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(mockRepo, gateway)

		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Transaction")).
			Return(models.ErrDuplicateTransaction).Once()

		result, err := svc.InitiateHostedPayment(context.Background(), HostedPaymentInput{
			TransactionID: "txn_1",
			Amount:        decimal.NewFromInt(100),
		})

		assert.Nil(t, result)
		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeDuplicateTransaction, svcErr.Code)
		}
		gateway.AssertNotCalled(t, "InitiateHostedPayment", mock.Anything, mock.Anything)
	})

	t.Run("rejection keeps record and processor body", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)
		rejection := &processor.RejectionError{Op: processor.OpInitiatePayment, StatusCode: 400, Body: json.RawMessage(`{"message":"invalid merchant"}`)}

		gateway.On("InitiateHostedPayment", mock.Anything, mock.Anything).Return(nil, rejection).Once()

		_, err := svc.InitiateHostedPayment(context.Background(), HostedPaymentInput{
			TransactionID: "txn_rejected",
			Amount:        decimal.NewFromInt(100),
		})

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeProcessorRejected, svcErr.Code)
		var got *processor.RejectionError
		require.ErrorAs(t, err, &got)
		assert.JSONEq(t, `{"message":"invalid merchant"}`, string(got.Body))

		stored, err := repo.FindByID(context.Background(), "txn_rejected")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusInitiated, stored.Status)
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name     string
			input    HostedPaymentInput
			wantCode string
		}{
			{
				name:     "zero amount",
				input:    HostedPaymentInput{TransactionID: "txn_1", Amount: decimal.Zero},
				wantCode: ErrCodeInvalidAmount,
			},
			{
				name:     "bad id",
				input:    HostedPaymentInput{TransactionID: "txn 1", Amount: decimal.NewFromInt(1)},
				wantCode: ErrCodeInvalidRequest,
			},
			{
				name:     "bad phone",
				input:    HostedPaymentInput{TransactionID: "txn_1", Amount: decimal.NewFromInt(1), PhoneNumber: "123"},
				wantCode: ErrCodeInvalidRequest,
			},
			{
				name:     "relative redirect",
				input:    HostedPaymentInput{TransactionID: "txn_1", Amount: decimal.NewFromInt(1), SuccessRedirectURL: "/ok"},
				wantCode: ErrCodeInvalidRequest,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockRepo := mocks.NewMockTransactionRepository(t)
				gateway := processormocks.NewMockGateway(t)
				svc := newTestPaymentService(mockRepo, gateway)

				_, err := svc.InitiateHostedPayment(context.Background(), tt.input)

				var svcErr *ServiceError
				if assert.ErrorAs(t, err, &svcErr) {
					assert.Equal(t, tt.wantCode, svcErr.Code)
				}
			})
		}
	})
}

func TestPaymentService_InitiateDirectPayment(t *testing.T) {
	t.Run("binds txnId from processor response", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)

		gateway.On("DirectPayment", mock.Anything, processor.DirectPaymentRequest{
			Amount:        decimal.RequireFromString("42.50"),
			ID:            "txn_direct",
			Reason:        "subscription",
			NotifyURL:     testBaseURL + "/api/v1/webhooks/payments",
			PhoneNumber:   "+251911000000",
			PaymentMethod: "Telebirr",
		}).Return(json.RawMessage(`{"txnId":"pp_direct","Status":"PENDING"}`), nil).Once()

		result, err := svc.InitiateDirectPayment(context.Background(), DirectPaymentInput{
			TransactionID: "txn_direct",
			Amount:        decimal.RequireFromString("42.50"),
			Reason:        "subscription",
			PhoneNumber:   "+251911000000",
			PaymentMethod: "Telebirr",
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"txnId":"pp_direct","Status":"PENDING"}`, string(result.ProcessorResponse))
		assert.Equal(t, "pp_direct", result.Transaction.ThirdPartyID)
		assert.Equal(t, models.FlowDirect, result.Transaction.Details.Flow)
	})

	t.Run("phone and method are required", func(t *testing.T) {
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(mocks.NewMockTransactionRepository(t), gateway)

		_, err := svc.InitiateDirectPayment(context.Background(), DirectPaymentInput{
			TransactionID: "txn_direct",
			Amount:        decimal.NewFromInt(10),
			PaymentMethod: "Telebirr",
		})

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeInvalidRequest, svcErr.Code)
		}
	})

	t.Run("transport failure is unavailable", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)

		gateway.On("DirectPayment", mock.Anything, mock.Anything).
			Return(nil, &processor.TransportError{Op: processor.OpDirectPayment, Err: context.DeadlineExceeded}).Once()

		_, err := svc.InitiateDirectPayment(context.Background(), DirectPaymentInput{
			TransactionID: "txn_timeout",
			Amount:        decimal.NewFromInt(10),
			PhoneNumber:   "+251911000000",
			PaymentMethod: "CBE Birr",
		})

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeProcessorUnavailable, svcErr.Code)
		}
		_, err = repo.FindByID(context.Background(), "txn_timeout")
		assert.NoError(t, err, "record must exist even when the call fails")
	})
}

func TestPaymentService_InitiatePayout(t *testing.T) {
	t.Run("sends payout and never binds a processor id", func(t *testing.T) {
		repo := repository.NewMemoryTransactionRepository()
		gateway := processormocks.NewMockGateway(t)
		svc := newTestPaymentService(repo, gateway)

		gateway.On("SendToCustomer", mock.Anything, mock.MatchedBy(func(req processor.PayoutRequest) bool {
			return req.ID == "txn_payout" && req.NotifyURL == testBaseURL+"/api/v1/webhooks/payouts"
		})).Return(json.RawMessage(`{"txnId":"pp_payout"}`), nil).Once()

		result, err := svc.InitiatePayout(context.Background(), PayoutInput{
			TransactionID: "txn_payout",
			Amount:        decimal.NewFromInt(75),
			Reason:        "prize",
			PhoneNumber:   "+251911000000",
			PaymentMethod: "Telebirr",
			CustomerID:    "cust_2",
		})

		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypePayout, result.Transaction.Type)
		assert.Empty(t, result.Transaction.ThirdPartyID)

		stored, err := repo.FindByID(context.Background(), "txn_payout")
		require.NoError(t, err)
		assert.Empty(t, stored.ThirdPartyID)
	})
}

func TestPaymentService_GetTransaction(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockRepo := mocks.NewMockTransactionRepository(t)
		svc := newTestPaymentService(mockRepo, nil)

		mockRepo.On("FindByID", mock.Anything, "txn_missing").Return(nil, models.ErrNotFound).Once()

		_, err := svc.GetTransaction(context.Background(), "txn_missing")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeTransactionNotFound, svcErr.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := mocks.NewMockTransactionRepository(t)
		svc := newTestPaymentService(mockRepo, nil)

		mockRepo.On("FindByID", mock.Anything, "txn_1").Return(nil, errors.New("connection reset")).Once()

		_, err := svc.GetTransaction(context.Background(), "txn_1")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeInternalError, svcErr.Code)
		}
	})
}

func TestPaymentService_BindRedirect(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*PaymentService, *repository.MemoryTransactionRepository) {
		repo := repository.NewMemoryTransactionRepository()
		require.NoError(t, repo.Create(ctx, &models.Transaction{
			ID:     "txn_1",
			Type:   models.TransactionTypePayment,
			Amount: decimal.NewFromInt(100),
			Status: models.TransactionStatusInitiated,
		}))
		return newTestPaymentService(repo, nil), repo
	}

	t.Run("binds the landing page txnId", func(t *testing.T) {
		svc, _ := setup(t)

		txn, err := svc.BindRedirect(ctx, "txn_1", "pp_1")

		require.NoError(t, err)
		assert.Equal(t, "pp_1", txn.ThirdPartyID)
	})

	t.Run("same id twice is fine", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.BindRedirect(ctx, "txn_1", "pp_1")
		require.NoError(t, err)
		_, err = svc.BindRedirect(ctx, "txn_1", "pp_1")
		assert.NoError(t, err)
	})

	t.Run("different id is a conflict", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.BindRedirect(ctx, "txn_1", "pp_1")
		require.NoError(t, err)
		_, err = svc.BindRedirect(ctx, "txn_1", "pp_2")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeThirdPartyIDConflict, svcErr.Code)
		}
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.BindRedirect(ctx, "txn_missing", "pp_1")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeTransactionNotFound, svcErr.Code)
		}
	})

	t.Run("without txnId only looks up", func(t *testing.T) {
		svc, _ := setup(t)

		txn, err := svc.BindRedirect(ctx, "txn_1", "")

		require.NoError(t, err)
		assert.Empty(t, txn.ThirdPartyID)
	})
}
