package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/benx421/payment-gateway/merchant/internal/processor"
	processormocks "github.com/benx421/payment-gateway/merchant/internal/processor/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusPoller_CheckStatus(t *testing.T) {
	t.Run("returns processor answer verbatim", func(t *testing.T) {
		gateway := processormocks.NewMockGateway(t)
		poller := NewStatusPoller(gateway, testLogger())

		gateway.On("CheckTransactionStatus", mock.Anything, "txn_1").
			Return(json.RawMessage(`{"id":"txn_1","status":"SUCCESS","amount":100}`), nil).Once()

		raw, err := poller.CheckStatus(context.Background(), "txn_1")

		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"txn_1","status":"SUCCESS","amount":100}`, string(raw))
	})

	t.Run("rejection", func(t *testing.T) {
		gateway := processormocks.NewMockGateway(t)
		poller := NewStatusPoller(gateway, testLogger())

		gateway.On("CheckTransactionStatus", mock.Anything, "txn_1").
			Return(nil, &processor.RejectionError{Op: processor.OpTransactionStatus, StatusCode: 404}).Once()

		_, err := poller.CheckStatus(context.Background(), "txn_1")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeProcessorRejected, svcErr.Code)
			assert.Contains(t, svcErr.Error(), "fetch transaction status failed")
		}
	})

	t.Run("invalid id never reaches processor", func(t *testing.T) {
		gateway := processormocks.NewMockGateway(t)
		poller := NewStatusPoller(gateway, testLogger())

		_, err := poller.CheckStatus(context.Background(), "")

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeInvalidRequest, svcErr.Code)
		}
	})
}
