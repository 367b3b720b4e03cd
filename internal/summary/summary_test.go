package summary

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"country-service/internal/artifact"
	"country-service/internal/domain"
	xerrors "country-service/pkg/xerrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gdp(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestLayoutScalesAgainstLargest(t *testing.T) {
	rows := Layout([]domain.CountryGDP{
		{Name: "A", EstimatedGDP: gdp(2_000_000)},
		{Name: "B", EstimatedGDP: gdp(1_000_000)},
		{Name: "C", EstimatedGDP: decimal.NullDecimal{}},
	})
	require.Len(t, rows, 3)

	assert.Equal(t, BarAreaWidth, rows[0].BarWidth)
	assert.Equal(t, BarAreaWidth/2, rows[1].BarWidth)
	assert.Equal(t, 0, rows[2].BarWidth)

	for i, r := range rows {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, 300+75*i, r.Y)
	}
	assert.Equal(t, "$2M", rows[0].Label)
	assert.Equal(t, "$0", rows[2].Label)
}

func TestLayoutZeroMax(t *testing.T) {
	for name, top := range map[string][]domain.CountryGDP{
		"all zero":   {{Name: "A", EstimatedGDP: gdp(0)}, {Name: "B", EstimatedGDP: gdp(0)}},
		"all absent": {{Name: "A"}, {Name: "B"}},
	} {
		t.Run(name, func(t *testing.T) {
			rows := Layout(top)
			require.Len(t, rows, 2)
			for _, r := range rows {
				assert.Zero(t, r.BarWidth)
				assert.NotEmpty(t, r.Name)
				assert.Equal(t, "$0", r.Label)
			}
		})
	}
}

func TestPaletteLightens(t *testing.T) {
	lum := func(c color.RGBA) int { return int(c.R) + int(c.G) + int(c.B) }
	for i := 1; i < len(Palette); i++ {
		assert.Greater(t, lum(Palette[i]), lum(Palette[i-1]))
	}

	rows := Layout(make([]domain.CountryGDP, 7))
	assert.Equal(t, Palette[len(Palette)-1], rows[6].Color)
}

func TestFormatGDP(t *testing.T) {
	tests := []struct {
		in   decimal.NullDecimal
		want string
	}{
		{decimal.NullDecimal{}, "$0"},
		{gdp(0), "$0"},
		{gdp(999_999), "$999,999"},
		{decimal.NewNullDecimal(decimal.RequireFromString("12345.6789")), "$12,345.679"},
		{gdp(2_500_000), "$2.5M"},
		{gdp(1_500_000_000), "$1.5B"},
		{gdp(1_234_567_890_123), "$1.235T"},
		{gdp(1_000_000_000_000_000_000), "$1,000,000T"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatGDP(tt.in))
		})
	}
}

func near(t *testing.T, want, got color.RGBA) {
	t.Helper()
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	assert.LessOrEqual(t, diff(want.R, got.R)+diff(want.G, got.G)+diff(want.B, got.B), 6, "want %v got %v", want, got)
}

func TestRenderBars(t *testing.T) {
	img, err := Render(Data{
		TotalCountries: 250,
		LastRefreshed:  time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC),
		Rows: Layout([]domain.CountryGDP{
			{Name: "Full", EstimatedGDP: gdp(100)},
			{Name: "Empty", EstimatedGDP: gdp(0)},
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())

	full := img.RGBAAt(400, 335)
	assert.NotEqual(t, track, full)
	assert.Greater(t, full.B, full.R, "filled bar is blue")

	near(t, track, img.RGBAAt(400, 335+barSpacing))
}

func TestRenderZeroMaxLeavesTracksEmpty(t *testing.T) {
	img, err := Render(Data{Rows: Layout([]domain.CountryGDP{{Name: "A"}, {Name: "B"}})})
	require.NoError(t, err)

	near(t, track, img.RGBAAt(400, 335))
	near(t, track, img.RGBAAt(400, 335+barSpacing))
}

type failingSink struct{ artifact.Sink }

func (failingSink) Write(context.Context, []byte) error { return errors.New("disk full") }
func (failingSink) Ref() string { return "broken" }

func TestGeneratorRoundTrip(t *testing.T) {
	ctx := context.Background()
	sink := artifact.NewFileSink(filepath.Join(t.TempDir(), "summary.png"))
	g := NewGenerator(sink, zap.NewNop())

	_, err := g.Fetch(ctx)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	ref, err := g.Generate(ctx, 3, []domain.CountryGDP{{Name: "Nigeria", EstimatedGDP: gdp(5_000_000_000)}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, sink.Ref(), ref)

	data, err := g.Fetch(ctx)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Width, decoded.Bounds().Dx())
	assert.Equal(t, Height, decoded.Bounds().Dy())
}

func TestGeneratorSinkFailure(t *testing.T) {
	g := NewGenerator(failingSink{}, zap.NewNop())

	_, err := g.Generate(context.Background(), 0, nil, time.Time{})
	assert.ErrorIs(t, err, xerrors.ErrRender)
	assert.ErrorContains(t, err, "disk full")
}
