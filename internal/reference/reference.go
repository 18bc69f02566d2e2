// Package reference implements the zero-latency software model the pipeline
// is verified against. It goes through the same fixed-point blend as the
// hardware path, so the only permitted difference between the two streams is
// the pipeline's register delay.
package reference

import (
	"github.com/mlvaux/tickpipe/internal/ema"
	"github.com/mlvaux/tickpipe/internal/models"
)

// Model folds ticks into a fast and a slow accumulator with no registration:
// the signal for tick i is observable at position i.
type Model struct {
	fast  ema.Accumulator
	slow  ema.Accumulator
	cycle int
}

// New builds a model with both accumulators unseeded.
func New(fastShift, slowShift uint) *Model {
	return &Model{
		fast: ema.NewAccumulator(fastShift),
		slow: ema.NewAccumulator(slowShift),
	}
}

// Observe consumes one tick and returns its same-cycle output. An invalid
// tick yields an invalid output and leaves both averages untouched.
func (m *Model) Observe(t models.Tick) models.Output {
	out := models.Output{Cycle: m.cycle}
	m.cycle++

	if !t.Valid {
		return out
	}

	f := m.fast.Update(t.Price)
	s := m.slow.Update(t.Price)
	out.Valid = true
	out.Fast = f
	out.Slow = s
	out.Signal = models.CompareSignal(f, s)
	return out
}

// Run observes every tick in order.
func (m *Model) Run(ticks []models.Tick) []models.Output {
	outs := make([]models.Output, 0, len(ticks))
	for _, t := range ticks {
		outs = append(outs, m.Observe(t))
	}
	return outs
}

// Reset returns both accumulators and the cycle counter to power-on state.
func (m *Model) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.cycle = 0
}
