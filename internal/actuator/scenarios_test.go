package actuator

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("Assembly scenarios", func() {
	Describe("cargo door", func() {
		var r *rig

		BeforeEach(func() {
			var err error
			r, err = newRig(doorBody(), doorActuator())
			Expect(err).NotTo(HaveOccurred())
			Expect(r.asm.Body().IsLocked()).To(BeTrue())

			r.demands[0].Mode = PositionControl
			r.demands[0].Position = 1.1
		})

		It("opens once unlocked at nominal pressure", func() {
			r.run(25, nil)
			Expect(r.position()).To(BeNumerically(">", 0.9))
			Expect(r.asm.Actuator(0).Mode()).To(Equal(PositionControl))
		})

		It("stays closed without pressure", func() {
			r.setPressure(0)
			r.run(25, nil)
			Expect(r.position()).To(BeNumerically("<", 0.3))
			Expect(r.asm.Actuator(0).UsedVolume()).To(BeNumerically("~", 0, 1e-9))
		})

		It("does not keep opening after pressure loss", func() {
			r.run(4, nil)
			atLoss := r.position()
			r.setPressure(0)

			peak := atLoss
			r.run(10, func() {
				if p := r.position(); p > peak {
					peak = p
				}
			})
			Expect(peak).To(BeNumerically("<=", atLoss+0.01))
		})
	})

	Describe("spoiler with electro-hydrostatic backup", func() {
		var r *rig

		BeforeEach(func() {
			var err error
			r, err = newRig(spoilerBody(), spoilerActuator())
			Expect(err).NotTo(HaveOccurred())
			r.setPressure(0)
		})

		It("extends on backup power without drawing circuit fluid", func() {
			r.demands[0].Mode = PositionControl
			r.demands[0].Position = 1
			r.demands[0].ElectricMode = true

			used := 0.0
			r.run(0.8, func() {
				used += r.asm.Actuator(0).UsedVolume()
				r.asm.ResetVolumes()
			})

			Expect(r.position()).To(BeNumerically(">", 0.8))
			Expect(used).To(BeNumerically("~", 0, 1e-12))
			backup := r.asm.Actuator(0).Backup()
			Expect(backup.IsActive()).To(BeTrue())
			Expect(backup.ConsumedPower()).To(BeNumerically(">", 0))
		})

		It("stays down when backup power is off", func() {
			r.demands[0].Mode = PositionControl
			r.demands[0].Position = 1
			r.demands[0].ElectricMode = true
			r.supplies[0].Powered = false

			r.run(0.8, nil)
			Expect(r.position()).To(BeNumerically("<", 0.05))
		})
	})

	Describe("soft lock", func() {
		var r *rig

		BeforeEach(func() {
			cfg := spoilerBody()
			cfg.InitialPosition = 0.5
			var err error
			r, err = newRig(cfg, spoilerActuator())
			Expect(err).NotTo(HaveOccurred())
			r.asm.Body().ApplyAeroForces(r3.Vec{Y: -2000})

			r.demands[0].Mode = ActiveDamping
			r.demands[0].SoftLock = true
		})

		It("holds position against aerodynamic load with a zero band", func() {
			start := r.position()
			r.run(5, nil)
			Expect(r.position()).To(BeNumerically("~", start, 1e-9))
		})

		It("still allows commanded motion out of the locked direction", func() {
			r.run(1, nil)
			held := r.position()

			r.demands[0].Mode = PositionControl
			r.demands[0].Position = 1
			r.demands[0].SoftLockMax = 5
			r.run(4, nil)
			Expect(r.position()).To(BeNumerically(">", held+0.1))
		})
	})
})
