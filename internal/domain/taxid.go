package domain

import (
	"fmt"
	"strings"
)

// NormalizeTaxID strips a tax ID down to its digits. This is the canonical
// form used for comparison; an empty input normalizes to empty.
func NormalizeTaxID(taxID string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, taxID)
}

// FormatTaxID returns the display form of a tax ID. Only 14-digit CNPJs are
// reformatted (NN.NNN.NNN/NNNN-NN); CPFs and partial input are returned as
// given, matching the lenient behavior users expect from the form.
func FormatTaxID(taxID string) string {
	digits := NormalizeTaxID(taxID)
	if len(digits) != 14 {
		return taxID
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s",
		digits[:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
}

// ValidTaxIDDigits reports whether digits looks like a plausible CNPJ:
// exactly 14 digits and not a single repeated digit.
func ValidTaxIDDigits(digits string) bool {
	if len(digits) != 14 {
		return false
	}
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return true
		}
	}
	return false
}

// FormatPhone returns a human-readable version of a Brazilian phone number.
func FormatPhone(value string) string {
	digits := NormalizeTaxID(value)
	switch len(digits) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:11])
	case 13: // +55...
		return fmt.Sprintf("+%s (%s) %s-%s", digits[:2], digits[2:4], digits[4:9], digits[9:13])
	}
	return value
}
