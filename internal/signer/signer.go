// Package signer mints the ES256 tokens the payment processor uses to authenticate requests.
package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names shared by every signed payload
const (
	ClaimMerchantID = "merchantId"
	ClaimMerID      = "merId"
	ClaimGenerated  = "generated"
)

// Claims is the operation-specific part of a signed payload.
// Keys are serialized in lexicographic order, which makes the signed bytes canonical.
type Claims map[string]any

// SigningError reports a malformed key or a payload that cannot be serialized.
// It is never retryable.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *SigningError) Unwrap() error {
	return e.Err
}

// Signer produces a fresh token for every call; tokens are never cached.
type Signer struct {
	key        *ecdsa.PrivateKey
	now        func() time.Time
	merchantID string
}

// Option configures a Signer
type Option func(*Signer)

// WithClock replaces the wall clock used for the generated claim
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New creates a Signer for a merchant. The key must be on the P-256 curve.
func New(merchantID string, key *ecdsa.PrivateKey, opts ...Option) (*Signer, error) {
	if merchantID == "" {
		return nil, &SigningError{Err: errors.New("merchant id cannot be empty")}
	}
	if key == nil {
		return nil, &SigningError{Err: errors.New("private key is required")}
	}
	if key.Curve != elliptic.P256() {
		return nil, &SigningError{Err: fmt.Errorf("unsupported curve %s: ES256 requires P-256", key.Curve.Params().Name)}
	}

	s := &Signer{
		key:        key,
		now:        time.Now,
		merchantID: merchantID,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// NewFromPEM parses a PEM encoded key and creates a Signer
func NewFromPEM(merchantID, keyPEM string, opts ...Option) (*Signer, error) {
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}
	return New(merchantID, key, opts...)
}

// MerchantID returns the merchant identifier embedded in every token
func (s *Signer) MerchantID() string {
	return s.merchantID
}

// Sign embeds the merchant id and the current Unix time, then signs the claims with ES256.
func (s *Signer) Sign(claims Claims) (string, error) {
	return s.SignAs(claims, ClaimMerchantID)
}

// SignAs is Sign with a custom claim name for the merchant id. The status query
// endpoint expects "merId" instead of "merchantId".
func (s *Signer) SignAs(claims Claims, merchantClaim string) (string, error) {
	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	payload[merchantClaim] = s.merchantID
	payload[ClaimGenerated] = s.now().Unix()

	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, payload).SignedString(s.key)
	if err != nil {
		return "", &SigningError{Err: err}
	}

	return token, nil
}

// Verify checks an ES256 token against a public key and returns its claims.
// Numbers are decoded as json.Number.
func Verify(token string, pub *ecdsa.PublicKey) (Claims, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}), jwt.WithJSONNumber())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token: unexpected claims type %T", parsed.Claims)
	}

	return Claims(mapClaims), nil
}

// ParsePrivateKey decodes a SEC1 or PKCS#8 PEM encoded EC private key
func ParsePrivateKey(keyPEM string) (*ecdsa.PrivateKey, error) {
	if keyPEM == "" {
		return nil, &SigningError{Err: errors.New("private key is empty")}
	}

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(keyPEM))
	if err != nil {
		return nil, &SigningError{Err: fmt.Errorf("failed to parse private key: %w", err)}
	}

	return key, nil
}

// ParsePublicKey decodes a PKIX PEM encoded EC public key
func ParsePublicKey(keyPEM string) (*ecdsa.PublicKey, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// GenerateKey creates a new P-256 key pair
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// EncodePrivateKey returns the SEC1 PEM form of a private key
func EncodePrivateKey(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})), nil
}

// EncodePublicKey returns the PKIX PEM form of a public key
func EncodePublicKey(key *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
