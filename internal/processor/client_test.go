package processor

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/signer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	body map[string]any
	path string
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *ecdsa.PrivateKey) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	key, err := signer.GenerateKey()
	require.NoError(t, err)
	s, err := signer.New("merchant-1", key)
	require.NoError(t, err)

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, s, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return client, key
}

func capture(t *testing.T, into *capturedRequest, status int, response string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		assert.NoError(t, dec.Decode(&into.body))
		into.path = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func TestClient_InitiateHostedPayment(t *testing.T) {
	req := HostedPaymentRequest{
		ID:                 "txn_1",
		Amount:             decimal.RequireFromString("100.50"),
		Reason:             "order 42",
		SuccessRedirectURL: "https://shop.example/success",
		FailureRedirectURL: "https://shop.example/failed",
		CancelRedirectURL:  "https://shop.example/canceled",
		NotifyURL:          "https://shop.example/notify",
	}

	t.Run("returns checkout url and signs amount and reason", func(t *testing.T) {
		var got capturedRequest
		client, key := newTestClient(t, capture(t, &got, http.StatusOK, `{"url":"https://pay.example/checkout/1","txnId":"pp_1"}`))

		payment, err := client.InitiateHostedPayment(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/checkout/1", payment.URL)
		assert.Equal(t, "pp_1", payment.ProcessorTxnID)

		assert.Equal(t, "/initiate-payment", got.path)
		assert.Equal(t, "txn_1", got.body["id"])
		assert.Equal(t, json.Number("100.5"), got.body["amount"])
		assert.Equal(t, "order 42", got.body["reason"])
		assert.Equal(t, "merchant-1", got.body["merchantId"])
		assert.Equal(t, "https://shop.example/notify", got.body["notifyUrl"])
		assert.NotContains(t, got.body, "phoneNumber")

		claims, err := signer.Verify(got.body["signedToken"].(string), &key.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, json.Number("100.5"), claims["amount"])
		assert.Equal(t, "order 42", claims["paymentReason"])
		assert.Equal(t, "merchant-1", claims["merchantId"])
		assert.Contains(t, claims, "generated")
	})

	t.Run("includes phone number when present", func(t *testing.T) {
		var got capturedRequest
		client, _ := newTestClient(t, capture(t, &got, http.StatusOK, `{"url":"https://pay.example/checkout/2"}`))

		withPhone := req
		withPhone.PhoneNumber = "+251911000000"
		payment, err := client.InitiateHostedPayment(context.Background(), withPhone)

		require.NoError(t, err)
		assert.Empty(t, payment.ProcessorTxnID)
		assert.Equal(t, "+251911000000", got.body["phoneNumber"])
	})

	t.Run("rejection preserves processor body", func(t *testing.T) {
		var got capturedRequest
		client, _ := newTestClient(t, capture(t, &got, http.StatusBadRequest, `{"message":"invalid amount","code":"E42"}`))

		payment, err := client.InitiateHostedPayment(context.Background(), req)

		assert.Nil(t, payment)
		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, http.StatusBadRequest, rejection.StatusCode)
		assert.Equal(t, OpInitiatePayment, rejection.Op)
		assert.JSONEq(t, `{"message":"invalid amount","code":"E42"}`, string(rejection.Body))
	})

	t.Run("success without url is a rejection", func(t *testing.T) {
		var got capturedRequest
		client, _ := newTestClient(t, capture(t, &got, http.StatusOK, `{}`))

		_, err := client.InitiateHostedPayment(context.Background(), req)

		var rejection *RejectionError
		assert.ErrorAs(t, err, &rejection)
	})
}

func TestClient_DirectPayment(t *testing.T) {
	var got capturedRequest
	client, key := newTestClient(t, capture(t, &got, http.StatusOK, `{"txnId":"pp_9","status":"PENDING"}`))

	result, err := client.DirectPayment(context.Background(), DirectPaymentRequest{
		ID:            "txn_2",
		Amount:        decimal.NewFromInt(250),
		Reason:        "top up",
		NotifyURL:     "https://shop.example/notify",
		PhoneNumber:   "+251911000000",
		PaymentMethod: "Telebirr",
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"txnId":"pp_9","status":"PENDING"}`, string(result))
	assert.Equal(t, "pp_9", ProcessorTxnID(result))

	assert.Equal(t, "/direct-payment", got.path)
	assert.Equal(t, "Telebirr", got.body["paymentMethod"])
	assert.Equal(t, "+251911000000", got.body["phoneNumber"])

	claims, err := signer.Verify(got.body["signedToken"].(string), &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "Telebirr", claims["paymentMethod"])
	assert.Equal(t, "+251911000000", claims["phoneNumber"])
	assert.Equal(t, json.Number("250"), claims["amount"])
}

func TestClient_SendToCustomer(t *testing.T) {
	t.Run("client reference equals id", func(t *testing.T) {
		var got capturedRequest
		client, _ := newTestClient(t, capture(t, &got, http.StatusOK, `{"status":"PENDING"}`))

		_, err := client.SendToCustomer(context.Background(), PayoutRequest{
			ID:            "txn_3",
			Amount:        decimal.NewFromInt(75),
			Reason:        "prize",
			PhoneNumber:   "+251922000000",
			PaymentMethod: "CBE Birr",
			NotifyURL:     "https://shop.example/payouts",
		})

		require.NoError(t, err)
		assert.Equal(t, "/payout-transfer", got.path)
		assert.Equal(t, "txn_3", got.body["id"])
		assert.Equal(t, "txn_3", got.body["clientReference"])
		assert.Equal(t, "+251922000000", got.body["receiverAccountNumber"])
		assert.Equal(t, "CBE Birr", got.body["paymentMethod"])
	})

	t.Run("rejection without body uses operation message", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.SendToCustomer(context.Background(), PayoutRequest{ID: "txn_4", Amount: decimal.NewFromInt(1)})

		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Nil(t, rejection.Body)
		assert.Equal(t, "payout transfer failed", err.Error())
	})
}

func TestClient_CheckTransactionStatus(t *testing.T) {
	var got capturedRequest
	client, key := newTestClient(t, capture(t, &got, http.StatusOK, `{"id":"txn_1","status":"SUCCESS","amount":"100.50"}`))

	result, err := client.CheckTransactionStatus(context.Background(), "txn_1")

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"txn_1","status":"SUCCESS","amount":"100.50"}`, string(result))
	assert.Equal(t, "/fetch-transaction-status", got.path)
	assert.Equal(t, "txn_1", got.body["id"])
	assert.Equal(t, "merchant-1", got.body["merchantId"])

	claims, err := signer.Verify(got.body["signedToken"].(string), &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "merchant-1", claims["merId"])
	assert.Equal(t, "txn_1", claims["id"])
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("unreachable processor", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		key, err := signer.GenerateKey()
		require.NoError(t, err)
		s, err := signer.New("merchant-1", key)
		require.NoError(t, err)
		client, err := NewClient(Config{BaseURL: url, Timeout: time.Second}, s, nil, nil)
		require.NoError(t, err)

		_, err = client.CheckTransactionStatus(context.Background(), "txn_1")

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, OpTransactionStatus, transportErr.Op)
		assert.True(t, IsRetryable(err))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(server.Close)
		t.Cleanup(func() { close(release) })

		key, err := signer.GenerateKey()
		require.NoError(t, err)
		s, err := signer.New("merchant-1", key)
		require.NoError(t, err)
		client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, s, nil, nil)
		require.NoError(t, err)

		_, err = client.DirectPayment(context.Background(), DirectPaymentRequest{ID: "txn_1", Amount: decimal.NewFromInt(1)})

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.True(t, transportErr.Timeout())
	})
}

func TestNewClient(t *testing.T) {
	key, err := signer.GenerateKey()
	require.NoError(t, err)
	s, err := signer.New("merchant-1", key)
	require.NoError(t, err)

	_, err = NewClient(Config{}, s, nil, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: SandboxBaseURL}, nil, nil, nil)
	assert.Error(t, err)
}

func TestBaseURLFor(t *testing.T) {
	assert.Equal(t, SandboxBaseURL, BaseURLFor("sandbox"))
	assert.Equal(t, ProductionBaseURL, BaseURLFor("production"))
	assert.Equal(t, ProductionBaseURL, BaseURLFor("PRODUCTION"))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport", err: &TransportError{Op: OpDirectPayment, Err: errors.New("reset")}, want: true},
		{name: "rate limited", err: &RejectionError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "server error", err: &RejectionError{StatusCode: http.StatusBadGateway}, want: true},
		{name: "bad request", err: &RejectionError{StatusCode: http.StatusBadRequest}, want: false},
		{name: "signing", err: &signer.SigningError{Err: errors.New("bad key")}, want: false},
		{name: "cancelled", err: &TransportError{Op: OpDirectPayment, Err: context.Canceled}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
