package summary

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	million  = decimal.New(1, 6)
	billion  = decimal.New(1, 9)
	trillion = decimal.New(1, 12)
)

// FormatGDP renders a GDP figure as "$1,234.568B": scaled by T, B or M,
// grouped in thousands, at most three fraction digits. Absent values print as $0.
func FormatGDP(v decimal.NullDecimal) string {
	d := decimal.Zero
	if v.Valid {
		d = v.Decimal
	}

	suffix := ""
	switch {
	case d.GreaterThanOrEqual(trillion):
		d, suffix = d.Div(trillion), "T"
	case d.GreaterThanOrEqual(billion):
		d, suffix = d.Div(billion), "B"
	case d.GreaterThanOrEqual(million):
		d, suffix = d.Div(million), "M"
	}

	return "$" + groupThousands(d.RoundBank(3)) + suffix
}

func groupThousands(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	out := p.Sprintf("%d", d.IntPart())

	if _, frac, ok := strings.Cut(d.String(), "."); ok {
		out += "." + frac
	}
	return out
}
