package summary

import (
	"image/color"

	"country-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Canvas geometry.
const (
	Width  = 900
	Height = 700

	barX         = 100
	BarAreaWidth = Width - 200
	barStartY    = 300
	barSpacing   = 75
	barHeight    = 40
)

// Palette lightens with rank. Rows past the end reuse the last colour.
var Palette = []color.RGBA{
	{R: 37, G: 99, B: 235, A: 255},
	{R: 59, G: 130, B: 246, A: 255},
	{R: 96, G: 165, B: 250, A: 255},
	{R: 147, G: 197, B: 253, A: 255},
	{R: 191, G: 219, B: 254, A: 255},
}

// Row is one ranked line of the bar chart.
type Row struct {
	Rank     int
	Name     string
	Label    string
	Y        int
	BarWidth int
	Color    color.RGBA
}

// Layout places rows in the given order. Bars scale against the largest value;
// when that is zero or every value is absent all bars have zero length.
func Layout(top []domain.CountryGDP) []Row {
	peak := decimal.Zero
	for _, c := range top {
		if v := gdpValue(c.EstimatedGDP); v.GreaterThan(peak) {
			peak = v
		}
	}

	area := decimal.NewFromInt(BarAreaWidth)
	rows := make([]Row, 0, len(top))
	for i, c := range top {
		width := 0
		if peak.IsPositive() {
			width = int(gdpValue(c.EstimatedGDP).Mul(area).Div(peak).IntPart())
		}
		rows = append(rows, Row{
			Rank:     i + 1,
			Name:     c.Name,
			Label:    FormatGDP(c.EstimatedGDP),
			Y:        barStartY + i*barSpacing,
			BarWidth: width,
			Color:    paletteAt(i),
		})
	}
	return rows
}

func gdpValue(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid || v.Decimal.IsNegative() {
		return decimal.Zero
	}
	return v.Decimal
}

func paletteAt(i int) color.RGBA {
	if i >= len(Palette) {
		return Palette[len(Palette)-1]
	}
	return Palette[i]
}
