package control

import "math"

// LowPass is a first-order filter with a time constant in seconds. A zero
// time constant passes the input straight through.
type LowPass struct {
	TimeConstant float64
	output       float64
}

func NewLowPass(timeConstant, initial float64) LowPass {
	return LowPass{TimeConstant: timeConstant, output: initial}
}

func (f *LowPass) Update(input, dt float64) float64 {
	if f.TimeConstant <= 0 {
		f.output = input
		return f.output
	}
	f.output += (input - f.output) * (1 - math.Exp(-dt/f.TimeConstant))
	return f.output
}

func (f *LowPass) Reset(value float64) { f.output = value }

func (f *LowPass) Output() float64 { return f.output }
