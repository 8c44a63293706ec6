package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ARABIC AMOUNT IN WORDS
// =============================================================================
//
// The amount is rounded to cents, then split into groups of three digits.
// Each group is written hundreds, then units before tens ("واحد و عشرون"),
// and followed by its scale word. Dinars and centimes are joined by " و ".
//
//   1250.50 -> واحد ألف و مائتان و خمسون دينار و خمسون سنتيم

var (
	onesWords = []string{"", "واحد", "اثنان", "ثلاثة", "أربعة", "خمسة", "ستة", "سبعة", "ثمانية", "تسعة", "عشرة",
		"أحد عشر", "اثنا عشر", "ثلاثة عشر", "أربعة عشر", "خمسة عشر", "ستة عشر", "سبعة عشر", "ثمانية عشر", "تسعة عشر"}
	tensWords     = []string{"", "", "عشرون", "ثلاثون", "أربعون", "خمسون", "ستون", "سبعون", "ثمانون", "تسعون"}
	hundredsWords = []string{"", "مائة", "مائتان", "ثلاثمائة", "أربعمائة", "خمسمائة", "ستمائة", "سبعمائة", "ثمانمائة", "تسعمائة"}
)

// scale is a power of one thousand with its singular, dual and plural words.
type scale struct {
	value          int64
	one, two, many string
}

var scales = []scale{
	{1_000_000_000, " مليار", " ملياران", " ملايير"},
	{1_000_000, " مليون", " مليونان", " ملايين"},
	{1_000, " ألف", " ألفان", " آلاف"},
}

const (
	and         = " و "
	zeroWords   = "صفر دينار"
	dinarWord   = " دينار"
	centimeWord = " سنتيم"
	minusWord   = "سالب "
)

var hundred = decimal.NewFromInt(100)

// Words writes an amount of dinars in Arabic words.
func Words(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	if rounded.IsZero() {
		return zeroWords
	}

	prefix := ""
	if rounded.IsNegative() {
		prefix = minusWord
		rounded = rounded.Neg()
	}

	dinars := rounded.IntPart()
	centimes := rounded.Sub(decimal.NewFromInt(dinars)).Mul(hundred).IntPart()

	var parts []string
	if dinars > 0 {
		parts = append(parts, integerWords(dinars)+dinarWord)
	}
	if centimes > 0 {
		parts = append(parts, threeDigits(int(centimes))+centimeWord)
	}
	return prefix + strings.Join(parts, and)
}

// integerWords writes a positive integer group by group.
func integerWords(n int64) string {
	var groups []string
	for _, s := range scales {
		count := n / s.value
		if count == 0 {
			continue
		}
		n %= s.value
		var word string
		switch count {
		case 1:
			word = s.one
		case 2:
			word = s.two
		default:
			word = s.many
		}
		groups = append(groups, integerWords(count)+word)
	}
	if n > 0 {
		groups = append(groups, threeDigits(int(n)))
	}
	return strings.Join(groups, and)
}

// threeDigits writes 1..999; zero yields "".
func threeDigits(n int) string {
	if n <= 0 {
		return ""
	}
	h, rem := n/100, n%100

	var sb strings.Builder
	if h > 0 {
		sb.WriteString(hundredsWords[h])
		if rem > 0 {
			sb.WriteString(and)
		}
	}
	switch {
	case rem > 0 && rem < 20:
		sb.WriteString(onesWords[rem])
	case rem >= 20:
		if ones := rem % 10; ones > 0 {
			sb.WriteString(onesWords[ones])
			sb.WriteString(and)
		}
		sb.WriteString(tensWords[rem/10])
	}
	return sb.String()
}
