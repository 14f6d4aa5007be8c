package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkHeight = 5
	pixelsPerLabel = 120.0

	defaultMinWidth  = 512
	defaultMinHeight = 400

	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 40
	defaultRightBorder  = 40
)

// ErrEmptyHeatmap is returned when rendering a heatmap without cells.
var ErrEmptyHeatmap = errors.New("render: heatmap has no cells")

// BorderConfig defines the sizes of white space around the heatmap.
type BorderConfig struct {
	Top    int // Space for the X scale
	Left   int // Space for the Y scale
	Bottom int // Space for the information bar
	Right  int // Right padding
}

// RenderConfig holds the heatmap visualization options.
type RenderConfig struct {
	FontSize     float64    // Font size in points
	ColorTheme   ColorTheme // Color scheme for power values
	ColorMapSize int        // Number of colors in gradient (0 for default)

	// Cells are stretched so the heatmap area covers at least this many
	// pixels in each direction.
	MinWidth  int
	MinHeight int

	NoAnnotations bool

	BorderConfig BorderConfig
}

// HeatmapRenderer draws a Heatmap into an annotated image.
type HeatmapRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

// NewHeatmapRenderer creates a renderer, filling zero config values with
// defaults.
func NewHeatmapRenderer(config RenderConfig) (*HeatmapRenderer, error) {
	if config.ColorTheme == "" {
		config.ColorTheme = DefaultTheme
	}
	if _, ok := validColorThemes[config.ColorTheme]; !ok {
		return nil, fmt.Errorf("render.RenderConfig: unknown theme '%s'", config.ColorTheme)
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.MinWidth == 0 {
		config.MinWidth = defaultMinWidth
	}
	if config.MinHeight == 0 {
		config.MinHeight = defaultMinHeight
	}
	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
	} else {
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &HeatmapRenderer{config: config}, nil
}

// scale returns the pixel size of one cell.
func (r *HeatmapRenderer) scale(hm *Heatmap) (sx, sy int) {
	sx = max(1, int(math.Ceil(float64(r.config.MinWidth)/float64(hm.Width()))))
	sy = max(1, int(math.Ceil(float64(r.config.MinHeight)/float64(hm.Height()))))
	return sx, sy
}

// Render creates an image of the heatmap with annotations.
func (r *HeatmapRenderer) Render(hm *Heatmap) (*image.RGBA, error) {
	if hm.Width() == 0 || hm.Height() == 0 {
		return nil, ErrEmptyHeatmap
	}

	sx, sy := r.scale(hm)
	width, height := hm.Width()*sx, hm.Height()*sy
	borders := r.config.BorderConfig

	img := image.NewRGBA(image.Rect(0, 0, width+borders.Left+borders.Right, height+borders.Top+borders.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(borders.Left, borders.Top, borders.Left+width, borders.Top+height)

	bounds := hm.Bounds()
	if r.colorMap == nil {
		r.colorMap = NewColorMapper(r.config.ColorMapSize, r.config.ColorTheme, bounds)
	} else {
		r.colorMap.UpdateBounds(bounds)
	}

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(r.config.FontSize, borders)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, hm, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderCells(img, area, hm, sx, sy)
	return img, nil
}

func (r *HeatmapRenderer) renderCells(img *image.RGBA, area image.Rectangle, hm *Heatmap, sx, sy int) {
	for y, row := range hm.Rows {
		for x := 0; x < hm.Width(); x++ {
			var c color.RGBA
			if x < len(row) {
				c = r.colorMap.Color(row[x])
			} else {
				c = InvalidPowerColor
			}
			cell := image.Rect(area.Min.X+x*sx, area.Min.Y+y*sy, area.Min.X+(x+1)*sx, area.Min.Y+(y+1)*sy)
			draw.Draw(img, cell, &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}
}

type annotator struct {
	context  *freetype.Context
	borders  BorderConfig
	fontFace font.Face
}

func newAnnotator(size float64, borders BorderConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		borders: borders,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, hm *Heatmap, bounds PowerBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing X scale", func() error { return a.drawXScale(img, area, hm.X) }},
		{"drawing Y scale", func() error { return a.drawYScale(img, area, hm.Y) }},
		{"drawing info bar", func() error { return a.drawInfoBar(img, area, hm, bounds) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawXScale(img *image.RGBA, area image.Rectangle, axis Axis) error {
	width := area.Dx()
	textY := a.borders.Top - a.fontHeight()/2

	for _, v := range ticks(axis, width) {
		x := area.Min.X + int((v-axis.Min)/axis.Span()*float64(width-1))

		for y := a.borders.Top - tickMarkHeight; y < a.borders.Top; y++ {
			img.Set(x, y, color.Black)
		}

		label := FormatSI(v, axis.Unit)
		w := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-w.Round()/2, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing label %s: %w", label, err)
		}
	}
	return nil
}

func (a *annotator) drawYScale(img *image.RGBA, area image.Rectangle, axis Axis) error {
	height := area.Dy()
	metrics := a.fontFace.Metrics()

	for _, v := range ticks(axis, height) {
		y := area.Min.Y + int((v-axis.Min)/axis.Span()*float64(height-1))

		for x := a.borders.Left - tickMarkHeight; x < a.borders.Left; x++ {
			img.Set(x, y, color.Black)
		}

		label := FormatSI(v, axis.Unit)
		textY := y + a.fontHeight()/2 - metrics.Descent.Round()
		w := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(a.borders.Left-tickMarkHeight-3-w.Round(), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing label %s: %w", label, err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, area image.Rectangle, hm *Heatmap, bounds PowerBounds) error {
	var sb strings.Builder

	if hm.Title != "" {
		sb.WriteString(hm.Title)
		sb.WriteString("; ")
	}
	fmt.Fprintf(&sb, "%s: %s - %s", hm.X.Label, FormatSI(hm.X.Min, hm.X.Unit), FormatSI(hm.X.Max, hm.X.Unit))
	sb.WriteString("; ")
	fmt.Fprintf(&sb, "%s: %s - %s", hm.Y.Label, FormatSI(hm.Y.Min, hm.Y.Unit), FormatSI(hm.Y.Max, hm.Y.Unit))
	sb.WriteString("; ")
	fmt.Fprintf(&sb, "Power: %.1f to %.1f dB", bounds.Min, bounds.Max)

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - (a.borders.Bottom-a.fontHeight())/2 - metrics.Descent.Round()

	pt := freetype.Pt(area.Min.X, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// ticks returns round axis values about pixelsPerLabel apart.
func ticks(axis Axis, pixels int) []float64 {
	span := axis.Span()
	if span <= 0 || pixels <= 0 {
		return []float64{axis.Min}
	}

	step := niceStep(span / math.Max(1, float64(pixels)/pixelsPerLabel))
	first := math.Ceil(axis.Min/step) * step

	var out []float64
	for v := first; v <= axis.Max+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// niceStep rounds a rough step up to 1, 2 or 5 times a power of ten.
func niceStep(rough float64) float64 {
	exp := math.Pow(10, math.Floor(math.Log10(rough)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= rough {
			return m * exp
		}
	}
	return 10 * exp
}

// FormatSI formats a value with an SI prefix, e.g. 0.25 s as "250 ms".
func FormatSI(v float64, unit string) string {
	if math.Abs(v) < 1e-12 {
		return "0 " + unit
	}
	return humanize.SIWithDigits(v, 2, unit)
}
