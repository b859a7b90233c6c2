package explore

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	plotWidth  = 12 * vg.Inch
	plotHeight = 5 * vg.Inch

	histogramBins = 30
)

// Histogram renders the distribution of charges to a PNG at path.
func Histogram(charges []float64, path string) error {
	if len(charges) == 0 {
		return fmt.Errorf("histogram: no values")
	}
	p := plot.New()
	p.Title.Text = "Distribution of charges"
	p.X.Label.Text = "charges"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(charges), histogramBins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(h)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// BoxPlot renders a box-and-whisker summary of charges to a PNG at path.
func BoxPlot(charges []float64, path string) error {
	if len(charges) == 0 {
		return fmt.Errorf("box plot: no values")
	}
	p := plot.New()
	p.Title.Text = "Charges"
	p.Y.Label.Text = "charges"

	b, err := plotter.NewBoxPlot(vg.Points(80), 0, plotter.Values(charges))
	if err != nil {
		return fmt.Errorf("box plot: %w", err)
	}
	p.Add(b)
	p.NominalX("charges")

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// YearPoint is one patient in the charges-by-year scatter.
type YearPoint struct {
	Year    int
	Charges float64
	Gender  int
}

var genderColors = map[int]color.Color{
	0: color.RGBA{R: 220, G: 80, B: 60, A: 255},
	1: color.RGBA{R: 40, G: 110, B: 200, A: 255},
}

const jitterWidth = 0.35

// ScatterByYear renders charges against birth year, one colour per gender.
// Points sharing a year are spread across the column in a deterministic
// swarm so dense years stay readable.
func ScatterByYear(points []YearPoint, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("scatter: no values")
	}

	perYear := make(map[int]int)
	for _, pt := range points {
		perYear[pt.Year]++
	}
	seen := make(map[int]int)

	groups := make(map[int]plotter.XYs)
	for _, pt := range points {
		i, n := seen[pt.Year], perYear[pt.Year]
		seen[pt.Year]++
		offset := 0.0
		if n > 1 {
			offset = jitterWidth * (2*float64(i)/float64(n-1) - 1)
		}
		groups[pt.Gender] = append(groups[pt.Gender], plotter.XY{
			X: float64(pt.Year) + offset,
			Y: pt.Charges,
		})
	}

	p := plot.New()
	p.Title.Text = "Charges by year of birth"
	p.X.Label.Text = "year"
	p.Y.Label.Text = "charges"
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Marker = yearTicks{}

	genders := make([]int, 0, len(groups))
	for g := range groups {
		genders = append(genders, g)
	}
	sort.Ints(genders)

	for _, g := range genders {
		s, err := plotter.NewScatter(groups[g])
		if err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		if c, ok := genderColors[g]; ok {
			s.GlyphStyle.Color = c
		}
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("gender %d", g), s)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// yearTicks labels every whole year in the axis range.
type yearTicks struct{}

func (yearTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(min); y <= max; y++ {
		ticks = append(ticks, plot.Tick{Value: y, Label: fmt.Sprintf("%.0f", y)})
	}
	return ticks
}
