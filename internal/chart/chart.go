// Package chart renders recorded samples as PNG figures and terminal graphs.
package chart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/surfsim/internal/sim"
	"github.com/san-kum/surfsim/internal/units"
)

var ErrNoData = errors.New("chart: no samples")

// Series is one named line of a figure.
type Series struct {
	Name string
	Y    []float64
}

// Figure is a set of series sharing a time axis.
type Figure struct {
	Title  string
	YLabel string
	Times  []float64
	Series []Series
}

var figures = map[string]func([]sim.Sample) Figure{
	"position": positionFigure,
	"angle":    angleFigure,
	"force":    forceFigure,
	"flow":     flowFigure,
	"volume":   volumeFigure,
}

// Kinds lists the figures Build understands.
func Kinds() []string {
	out := make([]string, 0, len(figures))
	for k := range figures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build extracts the named figure from samples.
func Build(kind string, samples []sim.Sample) (Figure, error) {
	fn, ok := figures[kind]
	if !ok {
		return Figure{}, fmt.Errorf("chart: unknown figure %q (available: %v)", kind, Kinds())
	}
	if len(samples) == 0 {
		return Figure{}, ErrNoData
	}
	return fn(samples), nil
}

func times(samples []sim.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Time
	}
	return out
}

func surface(samples []sim.Sample, name string, f func(*sim.Sample) float64) Series {
	y := make([]float64, len(samples))
	for i := range samples {
		y[i] = f(&samples[i])
	}
	return Series{Name: name, Y: y}
}

func perActuator(samples []sim.Sample, name string, f func(*sim.ActuatorSample) float64) []Series {
	n := len(samples[0].Actuators)
	out := make([]Series, n)
	for a := 0; a < n; a++ {
		y := make([]float64, len(samples))
		for i := range samples {
			if a < len(samples[i].Actuators) {
				y[i] = f(&samples[i].Actuators[a])
			}
		}
		out[a] = Series{Name: fmt.Sprintf("%s #%d", name, a), Y: y}
	}
	return out
}

func positionFigure(samples []sim.Sample) Figure {
	series := []Series{surface(samples, "surface", func(s *sim.Sample) float64 { return s.Position })}
	series = append(series, perActuator(samples, "actuator", func(a *sim.ActuatorSample) float64 { return a.Position })...)
	return Figure{Title: "Normalized position", YLabel: "position", Times: times(samples), Series: series}
}

func angleFigure(samples []sim.Sample) Figure {
	return Figure{
		Title:  "Surface angle",
		YLabel: "angle (deg)",
		Times:  times(samples),
		Series: []Series{surface(samples, "angle", func(s *sim.Sample) float64 { return units.ToDeg(s.Angle) })},
	}
}

func forceFigure(samples []sim.Sample) Figure {
	return Figure{
		Title:  "Actuator force",
		YLabel: "force (N)",
		Times:  times(samples),
		Series: perActuator(samples, "force", func(a *sim.ActuatorSample) float64 { return a.Force }),
	}
}

func flowFigure(samples []sim.Sample) Figure {
	return Figure{
		Title:  "Actuator flow",
		YLabel: "flow (gpm)",
		Times:  times(samples),
		Series: perActuator(samples, "flow", func(a *sim.ActuatorSample) float64 { return units.ToGpm(a.Flow) }),
	}
}

func volumeFigure(samples []sim.Sample) Figure {
	return Figure{
		Title:  "Fluid exchanged",
		YLabel: "volume (L)",
		Times:  times(samples),
		Series: []Series{
			surface(samples, "drawn", func(s *sim.Sample) float64 { return s.Drawn * 1000 }),
			surface(samples, "returned", func(s *sim.Sample) float64 { return s.Returned * 1000 }),
		},
	}
}
