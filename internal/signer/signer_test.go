package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func decodeSegment(t *testing.T, segment string) string {
	t.Helper()
	decoded, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)
	return string(decoded)
}

func newTestSigner(t *testing.T, now time.Time) (*Signer, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)

	s, err := New("merchant-1", key, WithClock(fixedClock(now)))
	require.NoError(t, err)
	return s, key
}

func TestSigner_Sign(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("embeds merchant id and generated timestamp", func(t *testing.T) {
		s, key := newTestSigner(t, now)

		token, err := s.Sign(Claims{
			"amount":        json.Number("100.50"),
			"paymentReason": "order 42",
		})
		require.NoError(t, err)

		claims, err := Verify(token, &key.PublicKey)
		require.NoError(t, err)

		assert.Equal(t, "merchant-1", claims[ClaimMerchantID])
		assert.Equal(t, json.Number("1700000000"), claims[ClaimGenerated])
		assert.Equal(t, json.Number("100.50"), claims["amount"])
		assert.Equal(t, "order 42", claims["paymentReason"])
	})

	t.Run("status query uses merId", func(t *testing.T) {
		s, key := newTestSigner(t, now)

		token, err := s.SignAs(Claims{"id": "txn_1"}, ClaimMerID)
		require.NoError(t, err)

		claims, err := Verify(token, &key.PublicKey)
		require.NoError(t, err)

		assert.Equal(t, "merchant-1", claims[ClaimMerID])
		assert.NotContains(t, claims, ClaimMerchantID)
		assert.Equal(t, "txn_1", claims["id"])
	})

	t.Run("uses ES256 header", func(t *testing.T) {
		s, _ := newTestSigner(t, now)

		token, err := s.Sign(Claims{"amount": json.Number("1")})
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		assert.Contains(t, decodeSegment(t, parts[0]), `"alg":"ES256"`)
	})

	t.Run("identical inputs produce identical payloads", func(t *testing.T) {
		s, _ := newTestSigner(t, now)

		first, err := s.Sign(Claims{"paymentReason": "x", "amount": json.Number("5")})
		require.NoError(t, err)
		second, err := s.Sign(Claims{"amount": json.Number("5"), "paymentReason": "x"})
		require.NoError(t, err)

		assert.Equal(t, strings.Split(first, ".")[1], strings.Split(second, ".")[1])
		assert.Equal(t,
			`{"amount":5,"generated":1700000000,"merchantId":"merchant-1","paymentReason":"x"}`,
			decodeSegment(t, strings.Split(first, ".")[1]))
	})

	t.Run("every call reads the clock", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)

		current := now
		s, err := New("merchant-1", key, WithClock(func() time.Time { return current }))
		require.NoError(t, err)

		first, err := s.Sign(Claims{"id": "a"})
		require.NoError(t, err)
		current = now.Add(3 * time.Second)
		second, err := s.Sign(Claims{"id": "a"})
		require.NoError(t, err)

		firstClaims, err := Verify(first, &key.PublicKey)
		require.NoError(t, err)
		secondClaims, err := Verify(second, &key.PublicKey)
		require.NoError(t, err)

		assert.Equal(t, json.Number("1700000000"), firstClaims[ClaimGenerated])
		assert.Equal(t, json.Number("1700000003"), secondClaims[ClaimGenerated])
	})

	t.Run("unserializable claim returns signing error", func(t *testing.T) {
		s, _ := newTestSigner(t, now)

		_, err := s.Sign(Claims{"bad": make(chan int)})

		var signErr *SigningError
		assert.ErrorAs(t, err, &signErr)
	})
}

func TestNew(t *testing.T) {
	t.Run("rejects empty merchant id", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)

		_, err = New("", key)
		var signErr *SigningError
		assert.ErrorAs(t, err, &signErr)
	})

	t.Run("rejects nil key", func(t *testing.T) {
		_, err := New("merchant-1", nil)
		var signErr *SigningError
		assert.ErrorAs(t, err, &signErr)
	})

	t.Run("rejects non P-256 key", func(t *testing.T) {
		key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		require.NoError(t, err)

		_, err = New("merchant-1", key)
		var signErr *SigningError
		if assert.ErrorAs(t, err, &signErr) {
			assert.Contains(t, err.Error(), "P-256")
		}
	})
}

func TestParsePrivateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	t.Run("SEC1 encoding", func(t *testing.T) {
		encoded, err := EncodePrivateKey(key)
		require.NoError(t, err)

		parsed, err := ParsePrivateKey(encoded)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("PKCS8 encoding", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		encoded := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		parsed, err := ParsePrivateKey(encoded)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := ParsePrivateKey("")
		var signErr *SigningError
		assert.ErrorAs(t, err, &signErr)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewFromPEM("merchant-1", "not a key")
		var signErr *SigningError
		assert.ErrorAs(t, err, &signErr)
	})
}

func TestVerify(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s, _ := newTestSigner(t, now)
	other, err := GenerateKey()
	require.NoError(t, err)

	token, err := s.Sign(Claims{"id": "txn_1"})
	require.NoError(t, err)

	t.Run("wrong key fails", func(t *testing.T) {
		_, err := Verify(token, &other.PublicKey)
		assert.Error(t, err)
	})

	t.Run("public key round trips through PEM", func(t *testing.T) {
		encoded, err := EncodePublicKey(&other.PublicKey)
		require.NoError(t, err)

		parsed, err := ParsePublicKey(encoded)
		require.NoError(t, err)
		assert.True(t, other.PublicKey.Equal(parsed))
	})
}
