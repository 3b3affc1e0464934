package render

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/spec"
)

// Display formatting is fixed to US English so a report renders the same
// wherever it is generated.
var printer = message.NewPrinter(language.AmericanEnglish)

// FormatNumber groups thousands; whole numbers drop the decimals
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// FormatCurrency renders dollars with two decimals, -$5.00 for negatives
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + printer.Sprintf("%.2f", v)
}

// FormatPercent renders percentage points with one decimal
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f", v) + "%"
}

// FormatValue dispatches on a spec format. fraction marks values stored
// on a 0..1 scale, which are shown as percentages.
func FormatValue(v float64, f spec.Format, fraction bool) string {
	switch f {
	case spec.FormatCurrency:
		return FormatCurrency(v)
	case spec.FormatPercent:
		if fraction {
			v *= 100
		}
		return FormatPercent(v)
	}
	return FormatNumber(v)
}
