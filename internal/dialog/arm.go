package dialog

import (
	"math/rand/v2"
	"sync"
	"time"
)

// ArmPicker chooses the arm of a new cycle.
type ArmPicker interface {
	Pick() Arm
}

// RandomPicker draws RuleBased or GenerativeArm with equal probability.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker seeds the source; seed 0 uses the current time.
func NewRandomPicker(seed uint64) *RandomPicker {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPicker) Pick() Arm {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rng.IntN(2) == 0 {
		return RuleBased
	}
	return GenerativeArm
}

// FixedPicker always returns the same arm.
type FixedPicker Arm

func (f FixedPicker) Pick() Arm {
	return Arm(f)
}
