package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	maxChartAxisCells = 200
	chartPaletteSize  = 10
)

// ChartConfig holds the interactive heatmap options.
type ChartConfig struct {
	ColorTheme ColorTheme
	Width      string // CSS width, e.g. "1000px"
	Height     string // CSS height
	AssetsHost string // Optional mirror of the echarts assets
}

// Chart builds an interactive heatmap. Axes longer than 200 cells are
// decimated by taking the strongest cell of every block.
func Chart(hm *Heatmap, config ChartConfig) (*charts.HeatMap, error) {
	if hm.Width() == 0 || hm.Height() == 0 {
		return nil, ErrEmptyHeatmap
	}
	if config.ColorTheme == "" {
		config.ColorTheme = DefaultTheme
	}
	if config.Width == "" {
		config.Width = "1000px"
	}
	if config.Height == "" {
		config.Height = "700px"
	}

	xStride := max(1, (hm.Width()+maxChartAxisCells-1)/maxChartAxisCells)
	yStride := max(1, (hm.Height()+maxChartAxisCells-1)/maxChartAxisCells)
	cols := (hm.Width() + xStride - 1) / xStride
	rows := (hm.Height() + yStride - 1) / yStride

	xLabels := make([]string, cols)
	for i := range xLabels {
		xLabels[i] = FormatSI(hm.X.Value(i*xStride, hm.Width()), hm.X.Unit)
	}
	yLabels := make([]string, rows)
	for i := range yLabels {
		yLabels[i] = FormatSI(hm.Y.Value(i*yStride, hm.Height()), hm.Y.Unit)
	}

	data := make([]opts.HeatMapData, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if v := hm.blockMax(x*xStride, y*yStride, xStride, yStride); v != nil {
				data = append(data, opts.HeatMapData{Value: [3]interface{}{x, y, *v}})
			}
		}
	}

	bounds := hm.Bounds()
	palette := NewColorMapper(chartPaletteSize*4, config.ColorTheme, bounds).Palette(chartPaletteSize)
	colors := make([]string, len(palette))
	for i, c := range palette {
		colors[i] = Hex(c)
	}

	chart := charts.NewHeatMap()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: hm.Title, Width: config.Width, Height: config.Height, AssetsHost: config.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: hm.Title, Subtitle: fmt.Sprintf("%d x %d cells", hm.Width(), hm.Height())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels, Name: axisName(hm.X), NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: axisName(hm.Y), NameLocation: "middle", NameGap: 60, Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(bounds.Min),
			Max:        float32(bounds.Max),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: colors},
		}),
	)
	chart.SetXAxis(xLabels).AddSeries("power (dB)", data)

	return chart, nil
}

// WriteChart renders the interactive heatmap as an HTML page into w.
func WriteChart(w io.Writer, hm *Heatmap, config ChartConfig) error {
	chart, err := Chart(hm, config)
	if err != nil {
		return err
	}
	if err = chart.Render(w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func axisName(a Axis) string {
	return fmt.Sprintf("%s (%s)", a.Label, a.Unit)
}

// blockMax returns the strongest cell of a w x h block starting at (x, y).
func (h *Heatmap) blockMax(x, y, w, hgt int) *float64 {
	var best *float64
	for r := y; r < min(y+hgt, len(h.Rows)); r++ {
		row := h.Rows[r]
		for c := x; c < min(x+w, len(row)); c++ {
			if v := row[c]; v != nil && (best == nil || *v > *best) {
				best = v
			}
		}
	}
	return best
}
