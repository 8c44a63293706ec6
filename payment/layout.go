// Package payment encodes compensation records into the fixed-width
// treasury payment batch.
package payment

import (
	"fmt"
	"strings"
)

// =============================================================================
// FIXED-WIDTH LAYOUT
// =============================================================================
//
// Header (62):
//   '*' | treasury RIP (20) | total cents (13) | count (7) | month (2)
//       | year (4) | order no (8) | transfer no (6) | '0'
//
// Detail (62):
//   '*' | RIP (20) | net cents (13) | name (27, space padded) | '1'

const (
	// LineLength is the length of every header and detail line.
	LineLength = 62

	lineStart     = "*"
	headerEnd     = "0"
	detailEnd     = "1"
	centsWidth    = 13
	countWidth    = 7
	monthWidth    = 2
	yearWidth     = 4
	orderWidth    = 8
	transferWidth = 6
	nameWidth     = 27
)

// numericField left-pads digits with zeros to width. Overflow and non-digit
// input are errors: a numeric field is never truncated.
func numericField(name, value string, width int) (string, error) {
	value = strings.TrimSpace(value)
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return "", fmt.Errorf("%s %q: not a number", name, value)
		}
	}
	if len(value) > width {
		return "", fmt.Errorf("%s %q: exceeds %d digits", name, value, width)
	}
	return padLeft(value, width, '0'), nil
}

// textField right-pads with spaces, truncating to width.
func textField(value string, width int) string {
	if len(value) > width {
		return value[:width]
	}
	return padRight(value, width, ' ')
}

// padLeft pads a string on the left to reach the specified length.
func padLeft(s string, length int, pad byte) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(pad), length-len(s)) + s
}

// padRight pads a string on the right to reach the specified length.
func padRight(s string, length int, pad byte) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(string(pad), length-len(s))
}
