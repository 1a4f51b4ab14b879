package chart

import (
	"github.com/guptarohit/asciigraph"
)

// Text renders the figure as a terminal graph.
func (f Figure) Text(width, height int) string {
	data := make([][]float64, 0, len(f.Series))
	colors := make([]asciigraph.AnsiColor, 0, len(f.Series))
	for i, s := range f.Series {
		data = append(data, s.Y)
		colors = append(colors, palette[i%len(palette)])
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(f.Title+" ["+f.YLabel+"]"),
		asciigraph.SeriesColors(colors...),
	)
}

var palette = []asciigraph.AnsiColor{
	asciigraph.Default,
	asciigraph.Green,
	asciigraph.Blue,
	asciigraph.Yellow,
	asciigraph.Red,
}
