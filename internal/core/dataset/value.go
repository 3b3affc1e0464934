package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the tag of a cell value
type Kind string

const (
	KindNull     Kind = "null"
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindCurrency Kind = "currency"
	KindPercent  Kind = "percent"
)

// Value is a single tagged cell. Raw always keeps the trimmed source text.
type Value struct {
	Kind Kind      `json:"kind"`
	Raw  string    `json:"raw"`
	Num  float64   `json:"num,omitempty"`
	Time time.Time `json:"time,omitempty"`
}

// IsNull reports whether the cell carries no value
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsNumeric reports whether the cell holds a number, currency or percent
func (v Value) IsNumeric() bool {
	return v.Kind == KindNumber || v.Kind == KindCurrency || v.Kind == KindPercent
}

// Null is the empty cell
var Null = Value{Kind: KindNull}

// DateLayouts are the formats a cell is tried against, in order.
// A bare year is deliberately absent so integer columns stay numeric.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

var nullMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nil":  true,
	"none": true,
	"-":    true,
	"--":   true,
	"nan":  true,
	"#n/a": true,
}

var (
	percentPattern   = regexp.MustCompile(`^[-+]?\d+(\.\d+)?\s*%$`)
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	plainPattern     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	currencySymbols  = []string{"Rp", "$", "€", "£", "¥"}
)

// ParseCell classifies raw text into a tagged value
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if nullMarkers[strings.ToLower(s)] {
		return Value{Kind: KindNull, Raw: s}
	}

	if t, ok := ParseDate(s); ok {
		return Value{Kind: KindDate, Raw: s, Time: t}
	}

	if percentPattern.MatchString(s) {
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err == nil {
			return Value{Kind: KindPercent, Raw: s, Num: n}
		}
	}

	if n, ok := parseCurrency(s); ok {
		return Value{Kind: KindCurrency, Raw: s, Num: n}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return Value{Kind: KindNumber, Raw: s, Num: n}
	}

	return Value{Kind: KindString, Raw: s}
}

// ParseDate tries every layout in DateLayouts
func ParseDate(s string) (time.Time, bool) {
	// cheap reject: every layout contains a digit and is at least 7 chars
	if len(s) < 7 || !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseCurrency accepts an optional sign or accounting parentheses around
// a symbol-prefixed/suffixed amount or a thousands-separated amount.
func parseCurrency(s string) (float64, bool) {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}

	hasSymbol := false
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			s, hasSymbol = strings.TrimSpace(strings.TrimPrefix(s, sym)), true
			break
		}
		if strings.HasSuffix(s, sym) {
			s, hasSymbol = strings.TrimSpace(strings.TrimSuffix(s, sym)), true
			break
		}
	}
	// "-$5" and "$-5" both mean minus five
	if hasSymbol && strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}

	switch {
	case thousandsPattern.MatchString(s):
	case hasSymbol && plainPattern.MatchString(s):
	default:
		return 0, false
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}
