package chart

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/surfsim/internal/sim"
)

const (
	pngWidth  = 8 * vg.Inch
	pngHeight = 5 * vg.Inch
	pngDPI    = 150
)

// Plot lays the figure out as a gonum plot with one line per series.
func (f Figure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = f.YLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, s := range f.Series {
		pts := make(plotter.XYs, len(f.Times))
		for j := range f.Times {
			pts[j].X = f.Times[j]
			pts[j].Y = s.Y[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	return p, nil
}

// WritePNG renders the figure to w.
func (f Figure) WritePNG(w io.Writer) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	c := vgimg.NewWith(vgimg.UseWH(pngWidth, pngHeight), vgimg.UseDPI(pngDPI))
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SavePNGs writes one <kind>.png per requested figure into dir and returns
// the file paths.
func SavePNGs(dir string, samples []sim.Sample, kinds ...string) ([]string, error) {
	if len(kinds) == 0 {
		kinds = Kinds()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}

	paths := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		fig, err := Build(kind, samples)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, kind+".png")
		if err := savePNG(fig, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func savePNG(fig Figure, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()
	return fig.WritePNG(f)
}
