package domain

import (
	"strconv"
	"strings"
)

// RatingKind classifies the outcome of normalizing one raw answer.
type RatingKind int

const (
	// RatingAccepted means the raw answer was a plain integer rating.
	RatingAccepted RatingKind = iota

	// RatingBlank means the field was absent, empty, or whitespace-only.
	RatingBlank

	// RatingNotRating means the field carried a non-numeric sentinel such
	// as "N.A.", "N.O.", or "Bonus", or a decorated number ("3.5", "04",
	// "3pts") that does not round-trip to a plain integer.
	RatingNotRating
)

// RatingOutcome is the result of normalizing one raw answer. Blank and
// not-a-rating outcomes are both excluded from every average, but the
// distinction is preserved for future use.
type RatingOutcome struct {
	Kind  RatingKind
	Value int
}

// Accepted reports whether the outcome carries a usable rating value.
func (o RatingOutcome) Accepted() bool { return o.Kind == RatingAccepted }

// ParseRating extracts an integer rating from a raw answer value.
//
// The parse is deliberately two-staged to reproduce the behavior of the
// loose leading-prefix integer parse the submission format grew up with:
// first the longest leading signed-digit run is parsed, then the value is
// accepted only if its decimal string equals the trimmed input. The
// round-trip check rejects decorated numbers ("3.5"), zero-padded numbers
// ("04"), and trailing text ("3pts") while the prefix stage discards
// sentinel codes with no leading digits. Negative integers pass; no range
// clamp is applied.
func ParseRating(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}

	prefix := numericPrefix(trimmed)
	if prefix == "" {
		return 0, false
	}

	value, err := strconv.Atoi(prefix)
	if err != nil {
		// Digit run too long for an int.
		return 0, false
	}

	if strconv.Itoa(value) != trimmed {
		return 0, false
	}
	return value, true
}

// numericPrefix returns the longest leading run of an optional sign
// followed by decimal digits, or "" when the string has no leading digits.
func numericPrefix(s string) string {
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i = 1
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return ""
	}
	return s[:j]
}

// NormalizeAnswer normalizes the raw answer for one field of a sheet.
// An absent field and a blank answer both yield RatingBlank; present but
// non-integer text yields RatingNotRating.
func NormalizeAnswer(sheet AnswerSheet, id FieldID) RatingOutcome {
	raw, answered := sheet.Answer(id)
	if !answered || strings.TrimSpace(raw) == "" {
		return RatingOutcome{Kind: RatingBlank}
	}
	value, ok := ParseRating(raw)
	if !ok {
		return RatingOutcome{Kind: RatingNotRating}
	}
	return RatingOutcome{Kind: RatingAccepted, Value: value}
}
