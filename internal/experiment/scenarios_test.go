package experiment

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/sim"
)

func runPreset(name string, observers ...sim.Observer) *sim.Result {
	cfg := config.GetPreset(name)
	Expect(cfg).NotTo(BeNil())
	Expect(cfg.Resolve()).To(Succeed())

	e := New(cfg, nil)
	Expect(e.Setup(NewRegistry().DefaultMetrics(cfg))).To(Succeed())
	for _, o := range observers {
		e.GetSimulator().AddObserver(o)
	}
	res, err := e.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return res
}

type watch func(*sim.Sample)

func (w watch) OnStep(s *sim.Sample) { w(s) }

var _ = Describe("Preset scenarios", func() {
	It("opens the cargo door at nominal pressure", func() {
		res := runPreset("door_open")
		Expect(res.Final().Position).To(BeNumerically(">", 0.9))
		Expect(res.Final().Locked).To(BeFalse())
		Expect(res.Metrics["fluid_drawn_l"]).To(BeNumerically(">", 0))
	})

	It("keeps the door closed without pressure", func() {
		res := runPreset("door_unpressurized")
		Expect(res.Final().Position).To(BeNumerically("<", 0.3))
		Expect(res.Metrics["fluid_drawn_l"]).To(BeNumerically("~", 0, 1e-9))
	})

	It("stops the door when the circuit is lost", func() {
		var atLoss, peak float64
		res := runPreset("door_pressure_loss", watch(func(s *sim.Sample) {
			switch {
			case s.Time <= 4+1e-9:
				atLoss = s.Position
				peak = s.Position
			default:
				peak = math.Max(peak, s.Position)
			}
		}))
		Expect(atLoss).To(BeNumerically(">", 0.1))
		Expect(peak).To(BeNumerically("<=", atLoss+0.01))
		Expect(res.Circuits[0].Drawn).To(BeNumerically(">", 0))
	})

	It("steps the aileron and settles", func() {
		res := runPreset("aileron_step")
		Expect(res.Final().Position).To(BeNumerically("~", 0.8, 0.03))
		Expect(res.Metrics["settling_time"]).To(BeNumerically(">", 1))
		Expect(res.Circuits).To(HaveLen(2))
	})

	It("locks the aileron where the damping actuator asks", func() {
		res := runPreset("aileron_lock")
		Expect(res.Final().Locked).To(BeTrue())
		Expect(res.Final().Position).To(BeNumerically("~", 0.9, 1e-9))
		Expect(res.Final().AngularSpeed).To(BeZero())
	})

	It("extends the spoiler on backup power alone", func() {
		var at08, drawnPowered float64
		res := runPreset("spoiler_backup", watch(func(s *sim.Sample) {
			if math.Abs(s.Time-0.8) < 1e-9 {
				at08 = s.Position
			}
			if s.Time < 1.2 {
				drawnPowered = s.Drawn
				Expect(s.Actuators[0].BackupActive).To(BeTrue())
			}
		}))
		Expect(at08).To(BeNumerically(">", 0.8))
		Expect(drawnPowered).To(BeNumerically("~", 0, 1e-12))
		Expect(res.Metrics["backup_energy_j"]).To(BeNumerically(">", 0))
		Expect(res.Final().Actuators[0].BackupActive).To(BeFalse())
		Expect(res.Final().Position).To(BeNumerically("<", 0.5))
	})

	It("holds the spoiler on its soft lock, then releases it upward", func() {
		var held float64
		res := runPreset("spoiler_soft_lock", watch(func(s *sim.Sample) {
			if math.Abs(s.Time-2) < 1e-9 {
				held = s.Position
			}
		}))
		Expect(held).To(BeNumerically("~", 0.5, 1e-6))
		Expect(res.Final().Position).To(BeNumerically(">", held+0.1))
	})

	It("rides out the elevator gust", func() {
		res := runPreset("elevator_gust")
		for _, s := range res.Samples {
			Expect(s.IsValid()).To(BeTrue())
		}
		Expect(res.Metrics).To(HaveKey("peak_force"))
		Expect(res.Final().Position).To(BeNumerically("<", 30.0/47.0))
	})
})
