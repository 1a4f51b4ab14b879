package chart

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/sim"
)

func ramp(n int) []sim.Sample {
	out := make([]sim.Sample, n)
	for i := range out {
		x := float64(i) / float64(n-1)
		out[i] = sim.Sample{
			Time:     x,
			Position: x,
			Angle:    x * math.Pi / 4,
			Drawn:    x * 1e-3,
			Actuators: []sim.ActuatorSample{
				{Mode: actuator.PositionControl, Position: x, Force: 1000 * x, Flow: 1e-4},
				{Mode: actuator.ActiveDamping, Position: x, Force: -200 * x},
			},
		}
	}
	return out
}

func TestBuild(t *testing.T) {
	samples := ramp(11)
	tests := []struct {
		kind   string
		series int
		last   float64
	}{
		{"position", 3, 1},
		{"angle", 1, 45},
		{"force", 2, 1000},
		{"volume", 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			fig, err := Build(tt.kind, samples)
			if err != nil {
				t.Fatal(err)
			}
			if len(fig.Series) != tt.series {
				t.Fatalf("expected %d series, got %d", tt.series, len(fig.Series))
			}
			y := fig.Series[0].Y
			if math.Abs(y[len(y)-1]-tt.last) > 1e-9 {
				t.Errorf("expected last value %v, got %v", tt.last, y[len(y)-1])
			}
			if len(fig.Times) != len(samples) {
				t.Errorf("expected %d times, got %d", len(samples), len(fig.Times))
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build("pressure", ramp(3)); err == nil {
		t.Error("expected error for unknown figure")
	}
	if _, err := Build("force", nil); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestWritePNG(t *testing.T) {
	fig, err := Build("position", ramp(50))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := fig.WritePNG(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("output is not a png: %v", err)
	}
}

func TestSavePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	paths, err := SavePNGs(dir, ramp(20), "position", "force")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %v", paths)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s missing or empty", p)
		}
	}
}

func TestText(t *testing.T) {
	fig, err := Build("force", ramp(30))
	if err != nil {
		t.Fatal(err)
	}
	out := fig.Text(40, 6)
	if !strings.Contains(out, "Actuator force") {
		t.Errorf("caption missing from graph:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines < 6 {
		t.Errorf("expected at least 6 lines, got %d", lines)
	}
}
