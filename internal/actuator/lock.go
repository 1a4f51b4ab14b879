package actuator

import "math"

// firstLockRequest scans controllers in order and returns the lock position
// of the first one asking for a hard lock.
func firstLockRequest(controllers []Controller) (float64, bool) {
	for _, c := range controllers {
		if c.ShouldLock() {
			return c.LockPosition(), true
		}
	}
	return 0, false
}

// intersectSoftLocks combines the speed bands requested by controllers and
// by the actuators themselves. The result may be empty (min > max); the body
// then clamps to max.
func intersectSoftLocks(controllers []Controller, actuators []*LinearActuator) (min, max float64, ok bool) {
	min, max = math.Inf(-1), math.Inf(1)
	merge := func(lo, hi float64) {
		min = math.Max(min, lo)
		max = math.Min(max, hi)
		ok = true
	}
	for _, c := range controllers {
		if lo, hi, requested := c.SoftLockBand(); requested {
			merge(lo, hi)
		}
	}
	for _, a := range actuators {
		if lo, hi, locked := a.SoftLockBand(); locked {
			merge(lo, hi)
		}
	}
	return min, max, ok
}
