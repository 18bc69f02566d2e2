// Package ema implements the exponential-average state machines driving the
// crossover datapath: a raw accumulator shared with the reference model, and
// an engine that adds the one-cycle output registration of the RTL.
package ema

import (
	"github.com/mlvaux/tickpipe/internal/fixed"
)

// Accumulator is the smoothing state itself: a Q16.16 running average and a
// seeded flag. The first sample is adopted verbatim; every later sample
// moves the average by (sample - average) >> shift. It has no notion of
// clocking or validity; callers gate what reaches Update.
type Accumulator struct {
	shift   uint
	average fixed.Point
	seeded  bool
}

// NewAccumulator returns an unseeded accumulator with the given smoothing
// shift. The shift is fixed for the accumulator's lifetime.
func NewAccumulator(shift uint) Accumulator {
	return Accumulator{shift: shift}
}

// Update folds one sample into the average and returns the new average.
func (a *Accumulator) Update(sample fixed.Point) fixed.Point {
	if !a.seeded {
		a.average = sample
		a.seeded = true
		return a.average
	}
	a.average = fixed.Blend(a.average, sample, a.shift)
	return a.average
}

// Average returns the current average. Zero until seeded.
func (a *Accumulator) Average() fixed.Point { return a.average }

// Seeded reports whether the first sample has been adopted.
func (a *Accumulator) Seeded() bool { return a.seeded }

// Shift returns the smoothing shift.
func (a *Accumulator) Shift() uint { return a.shift }

// Reset returns the accumulator to its unseeded power-on state.
func (a *Accumulator) Reset() {
	a.average = 0
	a.seeded = false
}

// Out is one engine observation: the registered average and its valid
// strobe.
type Out struct {
	Average fixed.Point
	Valid   bool
}

// Engine wraps an Accumulator behind one cycle of output registration, the
// way the RTL's always-block latches the new average before the next stage
// can see it. Step must be called exactly once per clock cycle.
type Engine struct {
	acc Accumulator
	out Out
}

// NewEngine returns an engine with an unseeded accumulator.
func NewEngine(shift uint) *Engine {
	return &Engine{acc: NewAccumulator(shift)}
}

// Step presents one cycle's input and returns the output registered at the
// previous cycle boundary, so a tick's average becomes observable exactly
// one call later. On an invalid cycle the average register holds its value
// and only the valid strobe drops.
func (e *Engine) Step(price fixed.Point, valid bool) Out {
	visible := e.out
	if valid {
		e.out = Out{Average: e.acc.Update(price), Valid: true}
	} else {
		e.out.Valid = false
	}
	return visible
}

// Shift returns the engine's smoothing shift.
func (e *Engine) Shift() uint { return e.acc.shift }

// Reset clears the accumulator and the output register to power-on state.
func (e *Engine) Reset() {
	e.acc.Reset()
	e.out = Out{}
}
