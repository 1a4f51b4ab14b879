package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/sim"
)

var surfaceColumns = []string{
	"time", "position", "angle", "angular_speed", "reaction_torque",
	"locked", "soft_locked", "drawn", "returned",
}

var actuatorColumns = []string{
	"mode", "requested", "position", "length", "speed", "flow", "force",
	"backup_active", "backup_power", "accumulator_pressure",
}

// WriteSamples encodes samples as CSV, one row per sample, with a group of
// columns per actuator prefixed a0_, a1_, ...
func WriteSamples(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)

	actuators := 0
	if len(samples) > 0 {
		actuators = len(samples[0].Actuators)
	}
	header := append([]string(nil), surfaceColumns...)
	for i := 0; i < actuators; i++ {
		for _, c := range actuatorColumns {
			header = append(header, fmt.Sprintf("a%d_%s", i, c))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{
			formatFloat(s.Time), formatFloat(s.Position), formatFloat(s.Angle),
			formatFloat(s.AngularSpeed), formatFloat(s.ReactionTorque),
			strconv.FormatBool(s.Locked), strconv.FormatBool(s.SoftLocked),
			formatFloat(s.Drawn), formatFloat(s.Returned),
		}
		for _, a := range s.Actuators {
			row = append(row,
				a.Mode.String(), formatFloat(a.Requested), formatFloat(a.Position),
				formatFloat(a.Length), formatFloat(a.Speed), formatFloat(a.Flow),
				formatFloat(a.Force), strconv.FormatBool(a.BackupActive),
				formatFloat(a.BackupPower), formatFloat(a.AccumulatorPressure),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadSamples decodes the output of WriteSamples.
func ReadSamples(in io.Reader) ([]sim.Sample, error) {
	r := csv.NewReader(in)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	extra := len(records[0]) - len(surfaceColumns)
	if extra < 0 || extra%len(actuatorColumns) != 0 {
		return nil, fmt.Errorf("storage: unexpected header with %d columns", len(records[0]))
	}
	actuators := extra / len(actuatorColumns)

	samples := make([]sim.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		p := parser{record: record}
		s := sim.Sample{
			Time:           p.float(),
			Position:       p.float(),
			Angle:          p.float(),
			AngularSpeed:   p.float(),
			ReactionTorque: p.float(),
			Locked:         p.bool(),
			SoftLocked:     p.bool(),
			Drawn:          p.float(),
			Returned:       p.float(),
			Actuators:      make([]sim.ActuatorSample, actuators),
		}
		for i := range s.Actuators {
			s.Actuators[i] = sim.ActuatorSample{
				Mode:                p.mode(),
				Requested:           p.float(),
				Position:            p.float(),
				Length:              p.float(),
				Speed:               p.float(),
				Flow:                p.float(),
				Force:               p.float(),
				BackupActive:        p.bool(),
				BackupPower:         p.float(),
				AccumulatorPressure: p.float(),
			}
		}
		if p.err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", line+1, p.err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

type parser struct {
	record []string
	i      int
	err    error
}

func (p *parser) next() string {
	v := p.record[p.i]
	p.i++
	return v
}

func (p *parser) float() float64 {
	v, err := strconv.ParseFloat(p.next(), 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) bool() bool {
	v, err := strconv.ParseBool(p.next())
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) mode() actuator.Mode {
	m, err := actuator.ParseMode(p.next())
	if err != nil && p.err == nil {
		p.err = err
	}
	return m
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type ExportData struct {
	Scenario string              `json:"scenario"`
	Dt       float64             `json:"dt"`
	Duration float64             `json:"duration"`
	Steps    int                 `json:"steps"`
	Samples  []sim.Sample        `json:"samples"`
	Metrics  map[string]float64  `json:"metrics"`
	Circuits []sim.CircuitTotals `json:"circuits"`
}

func ExportJSON(out io.Writer, scenario string, cfg sim.Config, result *sim.Result) error {
	data := ExportData{
		Scenario: scenario,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Steps:    result.StepsTaken,
		Samples:  result.Samples,
		Metrics:  result.Metrics,
		Circuits: result.Circuits,
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
