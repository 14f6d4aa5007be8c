package render

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/roman-kulish/gait-radar/internal/body"
	"github.com/roman-kulish/gait-radar/internal/gait"
)

const (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)

	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)

	p.Add(plotter.NewGrid())
}

// RangePlot draws the radar range of every included part over time.
func RangePlot(traj *gait.Trajectory, parts []body.Part) (*plot.Plot, error) {
	if len(parts) == 0 {
		parts = traj.Parts()
	}

	p := plot.New()
	p.Title.Text = "Range to radar"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Range (m)"
	stylePlot(p)

	for i, part := range parts {
		positions, ok := traj.Positions(part)
		if !ok {
			return nil, fmt.Errorf("%w: trajectory has no %s", body.ErrMissingBodyPart, part)
		}

		pts := make(plotter.XYs, len(positions))
		for k, pos := range positions {
			pts[k].X = traj.Time(k)
			pts[k].Y = r3.Norm(r3.Sub(pos, traj.RadarLocation))
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plotting %s: %w", part, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(part.String(), line)
	}

	p.Legend.Top = true
	return p, nil
}

// SkeletonPlot draws side views (X forward, Z up) of the figure at the given
// samples. Without samples, the first pose is drawn.
func SkeletonPlot(s *gait.Skeleton, samples ...int) (*plot.Plot, error) {
	if len(samples) == 0 {
		samples = []int{0}
	}

	p := plot.New()
	p.Title.Text = "Walking figure"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"
	stylePlot(p)

	for i, k := range samples {
		if k < 0 || k >= s.Samples() {
			return nil, body.NewParameterError("sample", float64(k), fmt.Sprintf("must be in [0, %d)", s.Samples()))
		}
		pose := s.Pose(k)
		c := plotutil.Color(i)

		var first *plotter.Line
		for _, bone := range gait.Bones {
			a, b := pose[bone[0]], pose[bone[1]]
			line, err := plotter.NewLine(plotter.XYs{{X: a.X, Y: a.Z}, {X: b.X, Y: b.Z}})
			if err != nil {
				return nil, fmt.Errorf("plotting %s-%s: %w", bone[0], bone[1], err)
			}
			line.Color = c
			line.Width = vg.Points(2)
			p.Add(line)
			if first == nil {
				first = line
			}
		}

		joints := make(plotter.XYs, len(pose))
		for j, pos := range pose {
			joints[j].X, joints[j].Y = pos.X, pos.Z
		}
		scatter, err := plotter.NewScatter(joints)
		if err != nil {
			return nil, fmt.Errorf("plotting joints: %w", err)
		}
		scatter.Color = c
		p.Add(scatter)

		p.Legend.Add(fmt.Sprintf("t = %s", FormatSI(s.Time(k), "s")), first)
	}

	equalAspect(p)
	return p, nil
}

// equalAspect widens the shorter axis so one meter spans the same length on
// both axes of a PlotWidth x PlotHeight canvas.
func equalAspect(p *plot.Plot) {
	xSpan, ySpan := p.X.Max-p.X.Min, p.Y.Max-p.Y.Min
	ratio := float64(PlotWidth / PlotHeight)
	if xSpan/ySpan < ratio {
		pad := (ySpan*ratio - xSpan) / 2
		p.X.Min, p.X.Max = p.X.Min-pad, p.X.Max+pad
	} else {
		pad := (xSpan/ratio - ySpan) / 2
		p.Y.Min, p.Y.Max = p.Y.Min-pad, p.Y.Max+pad
	}
}

// WritePlot encodes a plot as PNG into w.
func WritePlot(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return fmt.Errorf("creating plot canvas: %w", err)
	}
	if _, err = wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing plot: %w", err)
	}
	return nil
}

// SavePlot saves a plot to path; the extension selects the format.
func SavePlot(p *plot.Plot, path string) error {
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
