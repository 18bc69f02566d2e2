package ema

import (
	"reflect"
	"testing"

	"github.com/mlvaux/tickpipe/internal/fixed"
)

func TestAccumulatorSeeding(t *testing.T) {
	acc := NewAccumulator(6)
	if acc.Seeded() {
		t.Fatal("fresh accumulator reports seeded")
	}

	const price fixed.Point = 6553600 // 100.0
	if got := acc.Update(price); got != price {
		t.Errorf("first update = %d, want the sample %d adopted verbatim", got, price)
	}
	if !acc.Seeded() {
		t.Error("accumulator not seeded after first update")
	}
}

func TestAccumulatorConstantPrice(t *testing.T) {
	const price fixed.Point = 6553600
	acc := NewAccumulator(1)
	acc.Update(price)
	for i := 0; i < 50; i++ {
		if got := acc.Update(price); got != price {
			t.Fatalf("update %d drifted to %d, want %d", i, got, price)
		}
	}
}

func TestAccumulatorNegativeDeltas(t *testing.T) {
	tests := []struct {
		name   string
		shift  uint
		seed   fixed.Point
		sample fixed.Point
		want   fixed.Point
	}{
		{name: "minus one real unit halves to minus half", shift: 1, seed: 0, sample: -65536, want: -32768},
		{name: "odd delta floors", shift: 1, seed: 0, sample: -65537, want: -32769},
		{name: "tiny negative delta floors to one count", shift: 1, seed: 0, sample: -1, want: -1},
		{name: "tiny positive delta floors to zero", shift: 1, seed: 0, sample: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(tt.shift)
			acc.Update(tt.seed)
			if got := acc.Update(tt.sample); got != tt.want {
				t.Errorf("after seed %d, update(%d) = %d, want %d",
					tt.seed, tt.sample, got, tt.want)
			}
		})
	}
}

func TestAccumulatorKnownSequence(t *testing.T) {
	// Prices 100.0, 100.0, 102.0, 101.0, 99.0, 95.0 scaled by 2^16. The two
	// final slow values only come out right with a floor-style shift on the
	// negative deltas.
	prices := []fixed.Point{6553600, 6553600, 6684672, 6619136, 6488064, 6225920}

	tests := []struct {
		name  string
		shift uint
		want  []fixed.Point
	}{
		{
			name:  "fast shift 1",
			shift: 1,
			want:  []fixed.Point{6553600, 6553600, 6619136, 6619136, 6553600, 6389760},
		},
		{
			name:  "slow shift 6",
			shift: 6,
			want:  []fixed.Point{6553600, 6553600, 6555648, 6556640, 6555568, 6550417},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator(tt.shift)
			for i, p := range prices {
				if got := acc.Update(p); got != tt.want[i] {
					t.Errorf("step %d: average = %d, want %d", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestEngineRegistration(t *testing.T) {
	e := NewEngine(1)

	// The output for a tick is observable one Step later.
	out := e.Step(6553600, true)
	if out.Valid {
		t.Fatalf("first step already valid: %+v", out)
	}
	out = e.Step(6684672, true)
	if !out.Valid || out.Average != 6553600 {
		t.Fatalf("second step = %+v, want the seeded 6553600", out)
	}
	out = e.Step(6684672, true)
	if !out.Valid || out.Average != 6619136 {
		t.Fatalf("third step = %+v, want the blended 6619136", out)
	}
}

func TestEngineInvalidCycle(t *testing.T) {
	e := NewEngine(1)

	e.Step(6553600, true)

	// The invalid cycle itself still observes the previous tick's output.
	out := e.Step(0, false)
	if !out.Valid || out.Average != 6553600 {
		t.Fatalf("step after seed = %+v, want valid 6553600", out)
	}

	// One cycle later the bubble shows: average held, strobe down.
	out = e.Step(6684672, true)
	if out.Valid {
		t.Fatalf("bubble cycle reported valid: %+v", out)
	}
	if out.Average != 6553600 {
		t.Errorf("average register did not hold through invalid cycle: %d", out.Average)
	}

	// The held state, not the invalid cycle's price, feeds the next blend.
	out = e.Step(6684672, true)
	if !out.Valid || out.Average != 6619136 {
		t.Fatalf("post-bubble step = %+v, want valid 6619136", out)
	}
}

func TestEngineReset(t *testing.T) {
	e := NewEngine(6)
	for _, p := range []fixed.Point{6553600, 6684672, 6488064} {
		e.Step(p, true)
	}

	e.Reset()
	if !reflect.DeepEqual(e, NewEngine(6)) {
		t.Errorf("reset engine differs from a fresh one: %+v", e)
	}
}
