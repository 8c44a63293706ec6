package compensation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ROUTING ID (RIP) - 20-digit identifier derived from a postal account (CCP)
// =============================================================================
//
// Layout: institution prefix (8) + zero-padded account (10) + check key (2).
//
// Check key, mod 97:
//   k = (account * 100) mod 97
//   k = k + 85, minus 97 when k >= 97
//   key = 97 - k, zero-padded to 2 digits

const (
	// RoutingPrefix identifies the postal institution.
	RoutingPrefix = "00799999"

	// RoutingIDLength is the length of every valid routing id.
	RoutingIDLength = 20

	accountWidth = 10
)

// DeriveRoutingID computes the RIP of a raw CCP account number.
// The result is either exactly 20 ASCII digits or an *AccountError.
func DeriveRoutingID(raw string) (RoutingID, error) {
	account := strings.TrimSpace(raw)
	if account == "" {
		return "", &AccountError{Account: raw, Err: ErrEmptyAccount}
	}
	if !isDigits(account) {
		return "", &AccountError{Account: raw, Err: ErrInvalidFormat}
	}

	padded := account
	if len(padded) < accountWidth {
		padded = strings.Repeat("0", accountWidth-len(padded)) + padded
	}

	k := mod97(account) * 100 % 97
	k += 85
	if k >= 97 {
		k -= 97
	}
	key := fmt.Sprintf("%02d", 97-k)

	rip := RoutingPrefix + padded + key
	if len(rip) != RoutingIDLength {
		return "", &AccountError{Account: raw, Err: ErrInternalLength}
	}
	return RoutingID(rip), nil
}

// RoutingIDText returns the RIP, or a short description of why there is none.
// Reports show this text in place of the identifier.
func RoutingIDText(raw string) string {
	rip, err := DeriveRoutingID(raw)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyAccount):
			return "CCP فارغ"
		case errors.Is(err, ErrInvalidFormat):
			return "رقم CCP غير صالح"
		default:
			return "خطأ في الطول"
		}
	}
	return rip.String()
}

// mod97 reduces a decimal digit string modulo 97 without overflowing.
func mod97(digits string) int {
	r := 0
	for i := 0; i < len(digits); i++ {
		r = (r*10 + int(digits[i]-'0')) % 97
	}
	return r
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
