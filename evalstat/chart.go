// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package evalstat

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	barWidth = 12 // points
	boxWidth = 14 // points
)

// CostChart plots costs as grouped bars, one group per model, comparing
// the LP optimum, the ILP optimum and the rounded LP solution.
func CostChart(costs []Cost) (*plot.Plot, error) {
	if len(costs) == 0 {
		return nil, errors.New("no models to plot")
	}
	groups := []struct {
		name string
		get  func(Cost) float64
	}{
		{"LP Opt", func(c Cost) float64 { return c.LPOpt }},
		{"ILP Opt", func(c Cost) float64 { return c.ILPOpt }},
		{"Rounded", func(c Cost) float64 { return c.Rounded }},
	}

	pl := plot.New()
	pl.Title.Text = "Extracted program cost"
	pl.Y.Label.Text = "cost / input cost"
	pl.Legend.Top = true

	w := vg.Points(barWidth)
	var names []string
	for _, c := range costs {
		names = append(names, c.Model)
	}
	for i, g := range groups {
		vs := make(plotter.Values, len(costs))
		for j, c := range costs {
			v := g.get(c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("model %s: %s cost is undefined", c.Model, g.name)
			}
			vs[j] = v
		}
		bars, err := plotter.NewBarChart(vs, w)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = w * vg.Length(i-len(groups)/2)
		pl.Add(bars)
		pl.Legend.Add(g.name, bars)
	}
	pl.NominalX(names...)
	if pl.Y.Min > 0 {
		pl.Y.Min = 0
	}
	return pl, nil
}

// RuntimeChart plots the solve-time distributions of both extractors
// as box plots, LP on the left of each model and ILP on the right.
//
// The y axis is logarithmic when every plotted time is positive.
// Extractors without observations are left out.
func RuntimeChart(rs []Runtime) (*plot.Plot, error) {
	if len(rs) == 0 {
		return nil, errors.New("no models to plot")
	}
	pl := plot.New()
	pl.Title.Text = "Solve time"
	pl.Y.Label.Text = "solve time (ms)"
	pl.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	w := vg.Points(boxWidth)
	legend := [...]string{"LP", "ILP"}
	var labeled [2]bool
	positive := true
	plotted := 0
	var names []string
	for i, r := range rs {
		names = append(names, r.Model)
		for j, d := range []Dist{r.LP, r.ILP} {
			if len(d.Values) == 0 {
				continue
			}
			if d.Min <= 0 {
				positive = false
			}
			loc := float64(i) - 0.2 + 0.4*float64(j)
			b, err := plotter.NewBoxPlot(w, loc, plotter.Values(d.Values))
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", r.Model, err)
			}
			b.BoxStyle.Color = color.Black
			b.FillColor = plotutil.Color(j)
			pl.Add(b)
			if !labeled[j] {
				pl.Legend.Add(legend[j], b)
				labeled[j] = true
			}
			plotted++
		}
	}
	if plotted == 0 {
		return nil, errors.New("no solve times to plot")
	}
	pl.NominalX(names...)
	if positive {
		pl.Y.Scale = plot.LogScale{}
		pl.Y.Tick.Marker = plot.LogTicks{}
	}
	return pl, nil
}

// WritePNG renders pl as a PNG image of the given size in centimeters
// and writes it to file.
func WritePNG(pl *plot.Plot, file string, width, height float64) error {
	const dpi = 300
	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Centimeter, vg.Length(height)*vg.Centimeter),
		vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(can))

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := can.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ChartSize returns a width and height in centimeters suited to a
// chart of n models.
func ChartSize(n int) (width, height float64) {
	width = 3 * float64(2+n)
	height = width / 2
	if height < 8 {
		height = 8
	}
	return width, height
}
