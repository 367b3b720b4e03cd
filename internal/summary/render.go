package summary

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const footerText = "Generated automatically by country-service"

var (
	ink       = color.RGBA{R: 15, G: 23, B: 42, A: 255}
	muted     = color.RGBA{R: 100, G: 116, B: 139, A: 255}
	nameInk   = color.RGBA{R: 30, G: 41, B: 59, A: 255}
	valueInk  = color.RGBA{R: 71, G: 85, B: 105, A: 255}
	footerInk = color.RGBA{R: 148, G: 163, B: 184, A: 255}
	accent    = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	divider   = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	track     = color.RGBA{R: 241, G: 245, B: 249, A: 255}
	bgTop     = color.RGBA{R: 250, G: 251, B: 252, A: 255}
	bgBottom  = color.RGBA{R: 244, G: 246, B: 248, A: 255}
	shadow    = color.NRGBA{A: 8}
	highlight = color.NRGBA{R: 255, G: 255, B: 255, A: 40}
)

var loadFonts = sync.OnceValues(func() (fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse bold font: %w", err)
	}
	return fontSet{regular: regular, bold: bold}, nil
})

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// faces are not safe for concurrent use, so every render builds its own.
type faces struct {
	title, subtitle, meta, rank, name, value, footer font.Face
}

func newFaces() (*faces, error) {
	fs, err := loadFonts()
	if err != nil {
		return nil, err
	}

	var firstErr error
	face := func(f *opentype.Font, size float64) font.Face {
		ff, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("build face: %w", err)
		}
		return ff
	}

	out := &faces{
		title:    face(fs.bold, 36),
		subtitle: face(fs.bold, 24),
		meta:     face(fs.regular, 16),
		rank:     face(fs.bold, 18),
		name:     face(fs.bold, 17),
		value:    face(fs.bold, 16),
		footer:   face(fs.regular, 13),
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (f *faces) Close() {
	for _, face := range []font.Face{f.title, f.subtitle, f.meta, f.rank, f.name, f.value, f.footer} {
		_ = face.Close()
	}
}

// Data is everything drawn on the summary image.
type Data struct {
	TotalCountries int64
	LastRefreshed  time.Time
	Rows           []Row
}

// Render draws the summary card.
func Render(d Data) (*image.RGBA, error) {
	ff, err := newFaces()
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), gradient{top: 0, bottom: Height, from: bgTop, to: bgBottom}, image.Point{}, draw.Src)
	fillRect(img, image.Rect(0, 0, Width, 8), accent)

	drawText(img, ff.title, ink, 50, 80, "Country Summary")

	refreshed := "never"
	if !d.LastRefreshed.IsZero() {
		refreshed = d.LastRefreshed.UTC().Format(time.RFC3339Nano)
	}
	fillCircle(img, 52, 112, 2, muted)
	drawText(img, ff.meta, muted, 65, 120, "Last Refreshed: "+refreshed)
	fillCircle(img, 52, 142, 2, muted)
	drawText(img, ff.meta, muted, 65, 150, fmt.Sprintf("Total Countries: %d", d.TotalCountries))

	fillRoundRect(img, 30, 190, Width-60, 450, 10, image.NewUniform(color.White))
	fillRoundRect(img, 32, 192, Width-64, 450, 10, image.NewUniform(shadow))

	drawText(img, ff.subtitle, ink, 50, 235, fmt.Sprintf("Top %d Countries by Estimated GDP", len(d.Rows)))
	fillRect(img, image.Rect(50, 250, Width-50, 252), divider)

	for _, row := range d.Rows {
		drawRow(img, ff, row)
	}

	footerWidth := font.MeasureString(ff.footer, footerText).Round()
	drawText(img, ff.footer, footerInk, (Width-footerWidth)/2, Height-35, footerText)

	return img, nil
}

func drawRow(img *image.RGBA, ff *faces, row Row) {
	y := row.Y

	fillCircle(img, 50+17.5, float32(y-25)+17.5, 17.5, track)
	rank := fmt.Sprintf("%d", row.Rank)
	m := ff.rank.Metrics()
	rankW := font.MeasureString(ff.rank, rank).Round()
	rankX := 50 + (35-rankW)/2
	rankY := y - 25 + (35-m.Height.Round())/2 + m.Ascent.Round()
	drawText(img, ff.rank, row.Color, rankX, rankY, rank)

	drawText(img, ff.name, nameInk, barX, y-5, row.Name)

	valueW := font.MeasureString(ff.value, row.Label).Round()
	drawText(img, ff.value, valueInk, Width-80-valueW, y-5, row.Label)

	top := float32(y + 5)
	fillRoundRect(img, barX, top, BarAreaWidth, barHeight, barHeight/2, image.NewUniform(track))
	if row.BarWidth <= 0 {
		return
	}

	w := float32(row.BarWidth)
	fill := gradient{top: y + 5, bottom: y + 5 + barHeight, from: row.Color, to: darken(row.Color)}
	fillRoundRect(img, barX, top, w, barHeight, barHeight/2, fill)
	fillRoundRect(img, barX, top, w, barHeight/2, barHeight/2, image.NewUniform(highlight))
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func fillRoundRect(dst draw.Image, x, y, w, h, r float32, src image.Image) {
	if w <= 0 || h <= 0 {
		return
	}
	r = min(r, w/2, h/2)

	z := vector.NewRasterizer(Width, Height)
	z.MoveTo(x+r, y)
	z.LineTo(x+w-r, y)
	z.QuadTo(x+w, y, x+w, y+r)
	z.LineTo(x+w, y+h-r)
	z.QuadTo(x+w, y+h, x+w-r, y+h)
	z.LineTo(x+r, y+h)
	z.QuadTo(x, y+h, x, y+h-r)
	z.LineTo(x, y+r)
	z.QuadTo(x, y, x+r, y)
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), src, image.Point{})
}

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847

func fillCircle(dst draw.Image, cx, cy, r float32, c color.Color) {
	k := r * kappa

	z := vector.NewRasterizer(Width, Height)
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func darken(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float32(c.R) * 0.85),
		G: uint8(float32(c.G) * 0.85),
		B: uint8(float32(c.B) * 0.85),
		A: c.A,
	}
}

// gradient is an unbounded vertical gradient between rows top and bottom.
type gradient struct {
	top, bottom int
	from, to    color.RGBA
}

func (g gradient) ColorModel() color.Model { return color.RGBAModel }

func (g gradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g gradient) At(_, y int) color.Color {
	span := g.bottom - g.top
	if span <= 0 || y <= g.top {
		return g.from
	}
	if y >= g.bottom {
		return g.to
	}
	t := float64(y-g.top) / float64(span)
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return color.RGBA{
		R: lerp(g.from.R, g.to.R),
		G: lerp(g.from.G, g.to.G),
		B: lerp(g.from.B, g.to.B),
		A: lerp(g.from.A, g.to.A),
	}
}

// EncodePNG encodes the rendered card.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
