// Package units converts the human units used in scenario files and presets
// into the SI values the simulation works with.
package units

import "math"

const (
	// PascalPerPsi is one pound-force per square inch in pascals.
	PascalPerPsi = 6894.757293168

	// StandardGravity in m/s².
	StandardGravity = 9.80665

	// CubicMetrePerGallon is one US gallon in m³.
	CubicMetrePerGallon = 0.003785411784
)

func Psi(p float64) float64 { return p * PascalPerPsi }

func ToPsi(pa float64) float64 { return pa / PascalPerPsi }

func Deg(a float64) float64 { return a * math.Pi / 180 }

func ToDeg(rad float64) float64 { return rad * 180 / math.Pi }

func ToGallons(m3 float64) float64 { return m3 / CubicMetrePerGallon }

// Gpm converts US gallons per minute to m³/s.
func Gpm(gpm float64) float64 { return gpm * CubicMetrePerGallon / 60 }

func ToGpm(m3s float64) float64 { return m3s * 60 / CubicMetrePerGallon }

// DegPerSecond converts deg/s to rad/s.
func DegPerSecond(dps float64) float64 { return Deg(dps) }

// CircleArea returns the area of a circle of the given diameter.
func CircleArea(diameter float64) float64 {
	r := diameter / 2
	return math.Pi * r * r
}
