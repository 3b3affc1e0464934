package export

import (
	"math"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

// chart geometry is computed once in a unit box, origin top-left, and
// scaled by each writer to its own units.

type point struct{ X, Y float64 }

type shapeKind int

const (
	shapeFill shapeKind = iota // closed, filled polygon
	shapeLine                  // open stroked path
	shapeDot
)

type shape struct {
	Kind   shapeKind
	Color  int // palette index, -1 for axis lines
	Points []point
}

type tick struct {
	Pos   float64
	Label string
}

type chartLayout struct {
	Shapes   []shape
	Baseline float64 // y of the zero line; unused when Square
	Ticks    []tick
	Legend   []string
	Square   bool // pie and radar need equal x and y scale
	Empty    bool
}

const maxTicks = 12

func layoutChart(c *render.ChartBlock) chartLayout {
	if len(c.Labels) == 0 || len(c.Series) == 0 {
		return chartLayout{Empty: true}
	}
	switch c.Type {
	case "pie":
		return layoutPie(c)
	case "radar":
		return layoutRadar(c)
	}

	lo, hi := valueRange(c.Series)
	scaleY := func(v float64) float64 { return 1 - (v-lo)/(hi-lo) }
	out := chartLayout{Baseline: scaleY(0)}
	for _, s := range c.Series {
		out.Legend = append(out.Legend, s.Name)
	}

	n := len(c.Labels)
	slot := 1 / float64(n)
	center := func(i int) float64 { return (float64(i) + 0.5) * slot }

	switch c.Type {
	case "bar":
		width := slot * 0.8 / float64(len(c.Series))
		for si, s := range c.Series {
			for i, v := range s.Values {
				x := float64(i)*slot + slot*0.1 + float64(si)*width
				top, bottom := scaleY(math.Max(v, 0)), scaleY(math.Min(v, 0))
				out.Shapes = append(out.Shapes, shape{Kind: shapeFill, Color: si, Points: []point{
					{x, top}, {x + width, top}, {x + width, bottom}, {x, bottom},
				}})
			}
		}
	case "scatter":
		for si, s := range c.Series {
			for i, v := range s.Values {
				out.Shapes = append(out.Shapes, shape{Kind: shapeDot, Color: si, Points: []point{{center(i), scaleY(v)}}})
			}
		}
	default: // line, area
		for si, s := range c.Series {
			pts := make([]point, len(s.Values))
			for i, v := range s.Values {
				pts[i] = point{center(i), scaleY(v)}
			}
			if c.Type == "area" {
				fill := append([]point{{pts[0].X, out.Baseline}}, pts...)
				fill = append(fill, point{pts[len(pts)-1].X, out.Baseline})
				out.Shapes = append(out.Shapes, shape{Kind: shapeFill, Color: si, Points: fill})
			}
			out.Shapes = append(out.Shapes, shape{Kind: shapeLine, Color: si, Points: pts})
		}
	}

	step := (n + maxTicks - 1) / maxTicks
	for i := 0; i < n; i += step {
		out.Ticks = append(out.Ticks, tick{Pos: center(i), Label: c.Labels[i]})
	}
	return out
}

func valueRange(series []render.ChartSeries) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// layoutPie draws the first series; negative values count as zero
func layoutPie(c *render.ChartBlock) chartLayout {
	out := chartLayout{Square: true, Legend: c.Labels}
	values := c.Series[0].Values
	total := 0.0
	for _, v := range values {
		total += math.Max(v, 0)
	}
	if total == 0 {
		out.Empty = true
		return out
	}

	angle := -math.Pi / 2
	for i, v := range values {
		sweep := 2 * math.Pi * math.Max(v, 0) / total
		if sweep == 0 {
			continue
		}
		pts := []point{{0.5, 0.5}}
		steps := int(math.Ceil(sweep / (math.Pi / 36)))
		for k := 0; k <= steps; k++ {
			a := angle + sweep*float64(k)/float64(steps)
			pts = append(pts, point{0.5 + 0.45*math.Cos(a), 0.5 + 0.45*math.Sin(a)})
		}
		out.Shapes = append(out.Shapes, shape{Kind: shapeFill, Color: i, Points: pts})
		angle += sweep
	}
	return out
}

func layoutRadar(c *render.ChartBlock) chartLayout {
	out := chartLayout{Square: true}
	_, hi := valueRange(c.Series)
	if hi <= 0 {
		hi = 1
	}
	n := len(c.Labels)
	at := func(i int, r float64) point {
		a := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		return point{0.5 + r*math.Cos(a), 0.5 + r*math.Sin(a)}
	}

	for i := 0; i < n; i++ {
		out.Shapes = append(out.Shapes, shape{Kind: shapeLine, Color: -1, Points: []point{{0.5, 0.5}, at(i, 0.45)}})
		out.Ticks = append(out.Ticks, tick{Pos: float64(i), Label: c.Labels[i]})
	}
	for si, s := range c.Series {
		out.Legend = append(out.Legend, s.Name)
		pts := make([]point, 0, n+1)
		for i, v := range s.Values {
			pts = append(pts, at(i, 0.45*math.Max(v, 0)/hi))
		}
		pts = append(pts, pts[0])
		out.Shapes = append(out.Shapes, shape{Kind: shapeLine, Color: si, Points: pts})
	}
	return out
}
