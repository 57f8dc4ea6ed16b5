package sim

import "math"

// Pacer converts a speed multiplier into whole integration steps per frame.
// Fractional speeds accumulate across frames, so 0.5 steps on every second
// frame rather than every frame or never.
type Pacer struct {
	carry float64
}

// Next returns the number of steps to take this frame.
func (p *Pacer) Next(speed float64) int {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return 0
	}
	p.carry += speed
	n := math.Floor(p.carry)
	p.carry -= n
	return int(n)
}

func (p *Pacer) Reset() { p.carry = 0 }
