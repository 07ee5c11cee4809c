package utils

import "strings"

// RegionRule describes how bare national numbers of one region are turned
// into dialable identifiers with a country code.
type RegionRule struct {
	Name           string
	CountryCode    string
	NationalLength int    // digits in a national number without trunk prefix
	MobileLeading  string // allowed first digits of a bare national number
	TrunkPrefix    string // domestic dialing prefix replaced by the country code
	MinLength      int    // anything shorter is rejected
}

// India is the default rule set: 10-digit mobiles starting 6-9, trunk prefix 0.
var India = RegionRule{
	Name:           "IN",
	CountryCode:    "91",
	NationalLength: 10,
	MobileLeading:  "6789",
	TrunkPrefix:    "0",
	MinLength:      10,
}

// Normalizer canonicalizes raw phone text for a single region.
type Normalizer struct {
	rule RegionRule
}

// NewNormalizer creates a normalizer for the given region rule
func NewNormalizer(rule RegionRule) Normalizer {
	return Normalizer{rule: rule}
}

// Normalize strips everything but digits and applies the region rule.
// It returns false when the input cannot be a dialable number.
func (n Normalizer) Normalize(raw string) (string, bool) {
	digits := digitsOnly(raw)
	if digits == "" {
		return "", false
	}

	r := n.rule
	if len(digits) == r.NationalLength && strings.ContainsRune(r.MobileLeading, rune(digits[0])) {
		digits = r.CountryCode + digits
	}
	if r.TrunkPrefix != "" &&
		len(digits) == len(r.TrunkPrefix)+r.NationalLength &&
		strings.HasPrefix(digits, r.TrunkPrefix) {
		digits = r.CountryCode + digits[len(r.TrunkPrefix):]
	}
	if len(digits) < r.MinLength {
		return "", false
	}

	return digits, true
}

// ParseNumbers splits a raw blob on newlines, commas and semicolons, normalizes
// every token and returns the unique results in first-seen order.
func (n Normalizer) ParseNumbers(raw string) []string {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	})

	seen := make(map[string]struct{}, len(tokens))
	numbers := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		phone, ok := n.Normalize(token)
		if !ok {
			continue
		}
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		numbers = append(numbers, phone)
	}

	return numbers
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
