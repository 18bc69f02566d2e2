// Package pipeline models the registered dual-EMA crossover datapath cycle
// by cycle: two engines, a stage latch, and a registered comparator, with
// the same observable timing as the RTL.
package pipeline

import (
	"github.com/mlvaux/tickpipe/internal/ema"
	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/models"
)

// Per-stage register depths. Each stage contributes exactly one cycle.
const (
	engineCycles  = 1
	latchCycles   = 1
	compareCycles = 1
)

// Latency is the fixed cycle count between presenting a tick and its signal
// becoming observable. The correspondence checker aligns streams with this
// constant; it is never re-derived at run time.
const Latency = engineCycles + latchCycles + compareCycles

// Config fixes the two smoothing shifts at construction time.
type Config struct {
	FastShift uint
	SlowShift uint
}

// DefaultConfig returns the shifts the RTL ships with: 1/2 smoothing for the
// fast average, 1/64 for the slow.
func DefaultConfig() Config {
	return Config{FastShift: 1, SlowShift: 6}
}

// stageReg holds the most recently latched both-valid average pair.
type stageReg struct {
	fast  fixed.Point
	slow  fixed.Point
	valid bool
}

// outReg is the comparator's output register: the signal plus the pair it
// was computed from.
type outReg struct {
	signal models.Signal
	fast   fixed.Point
	slow   fixed.Point
	valid  bool
}

// Pipeline is the synchronous datapath. It is single-clock and
// single-threaded; one Step call is one rising edge.
type Pipeline struct {
	fast *ema.Engine
	slow *ema.Engine

	stage stageReg
	out   outReg

	cycle int
}

// New builds a pipeline with unseeded engines.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		fast: ema.NewEngine(cfg.FastShift),
		slow: ema.NewEngine(cfg.SlowShift),
	}
}

// Step advances the datapath one clock cycle with t as this cycle's input
// and returns the output observable during this cycle, i.e. the comparator
// register as latched at the previous boundary. Stages commit
// downstream-first so each one reads its producer's previous-cycle output,
// which is what keeps the register semantics honest without a snapshot.
func (p *Pipeline) Step(t models.Tick) models.Output {
	visible := models.Output{
		Cycle:  p.cycle,
		Valid:  p.out.valid,
		Signal: p.out.signal,
		Fast:   p.out.fast,
		Slow:   p.out.slow,
	}
	p.cycle++

	// Comparator register consumes the stage latch. Data holds when the
	// latch carries nothing new; only the valid strobe propagates.
	if p.stage.valid {
		p.out = outReg{
			signal: models.CompareSignal(p.stage.fast, p.stage.slow),
			fast:   p.stage.fast,
			slow:   p.stage.slow,
			valid:  true,
		}
	} else {
		p.out.valid = false
	}

	// Engines return their previous-boundary outputs, which is exactly what
	// the stage latch samples on this edge.
	fastOut := p.fast.Step(t.Price, t.Valid)
	slowOut := p.slow.Step(t.Price, t.Valid)

	if fastOut.Valid && slowOut.Valid {
		p.stage = stageReg{fast: fastOut.Average, slow: slowOut.Average, valid: true}
	} else {
		p.stage.valid = false
	}

	return visible
}

// Drain drives Latency extra cycles with the valid flag deasserted so the
// signals for the final ticks reach the output register, and returns those
// outputs in order. Skipping the drain silently loses the last Latency
// signals.
func (p *Pipeline) Drain() []models.Output {
	outs := make([]models.Output, 0, Latency)
	for i := 0; i < Latency; i++ {
		outs = append(outs, p.Step(models.Tick{Index: -1, Valid: false}))
	}
	return outs
}

// Run steps every tick in order and then drains, returning all
// len(ticks)+Latency observable outputs.
func (p *Pipeline) Run(ticks []models.Tick) []models.Output {
	outs := make([]models.Output, 0, len(ticks)+Latency)
	for _, t := range ticks {
		outs = append(outs, p.Step(t))
	}
	return append(outs, p.Drain()...)
}

// Reset clears every register to its power-on state: engines unseeded,
// latches empty, cycle counter zero. There is no partial reset; averaging
// history is gone.
func (p *Pipeline) Reset() {
	p.fast.Reset()
	p.slow.Reset()
	p.stage = stageReg{}
	p.out = outReg{}
	p.cycle = 0
}

// Cycle returns the number of cycles stepped since construction or reset.
func (p *Pipeline) Cycle() int { return p.cycle }
