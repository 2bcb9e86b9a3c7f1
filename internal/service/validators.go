package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const maxTransactionIDLength = 64

// ValidateAmount checks if amount is valid (positive)
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: must be greater than 0")
	}

	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("invalid amount: at most 2 decimal places allowed")
	}

	return nil
}

// ValidateTransactionID checks a caller-supplied transaction id
func ValidateTransactionID(id string) error {
	if id == "" {
		return fmt.Errorf("transaction id is required")
	}

	if len(id) > maxTransactionIDLength {
		return fmt.Errorf("transaction id must be at most %d characters", maxTransactionIDLength)
	}

	for _, r := range id {
		if !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-')) {
			return fmt.Errorf("transaction id may only contain letters, digits, '_' and '-'")
		}
	}

	return nil
}

// ValidatePhoneNumber checks for an optional leading '+' followed by 9 to 15 digits
func ValidatePhoneNumber(phone string) error {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 9 || len(digits) > 15 {
		return fmt.Errorf("invalid phone number: must be 9-15 digits")
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid phone number: must contain only digits")
		}
	}

	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL
func ValidateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid %s: must be an absolute http(s) URL", field)
	}

	return nil
}

// ValidatePaymentMethod checks that a wallet or bank name was given
func ValidatePaymentMethod(method string) error {
	if strings.TrimSpace(method) == "" {
		return fmt.Errorf("payment method is required")
	}

	return nil
}
