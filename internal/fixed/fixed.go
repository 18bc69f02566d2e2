// Package fixed implements the Q16.16 arithmetic contract shared by the
// crossover pipeline and its reference model.
package fixed

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Point is a signed Q16.16 fixed-point number: a real value stored as a
// 32-bit integer scaled by 2^16. Ordering and equality on Point are the
// ordering and equality of the underlying integer, so comparisons need no
// helpers.
type Point int32

const (
	// FracBits is the number of fractional bits.
	FracBits = 16
	// Scale converts between real values and stored integers.
	Scale = 1 << FracBits

	// Max and Min bound the representable range, roughly ±32768 in real
	// units.
	Max Point = math.MaxInt32
	Min Point = math.MinInt32
)

var (
	scaleDec = decimal.NewFromInt(Scale)
	maxDec   = decimal.NewFromInt(math.MaxInt32)
	minDec   = decimal.NewFromInt(math.MinInt32)
)

// FromFloat converts a real value, rounding half away from zero.
func FromFloat(f float64) (Point, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite value: %v", f)
	}
	scaled := math.Round(f * Scale)
	if scaled > math.MaxInt32 || scaled < math.MinInt32 {
		return 0, fmt.Errorf("value %v outside Q16.16 range", f)
	}
	return Point(scaled), nil
}

// FromDecimal converts an exact decimal, rounding half away from zero. The
// scaling happens in decimal arithmetic, so prices parsed from text convert
// without any float rounding along the way.
func FromDecimal(d decimal.Decimal) (Point, error) {
	scaled := d.Mul(scaleDec).Round(0)
	if scaled.GreaterThan(maxDec) || scaled.LessThan(minDec) {
		return 0, fmt.Errorf("value %s outside Q16.16 range", d)
	}
	return Point(scaled.IntPart()), nil
}

// Float returns the real value of p. Every Point is exactly representable
// in a float64.
func (p Point) Float() float64 {
	return float64(p) / Scale
}

// Decimal returns the real value of p as an exact decimal.
func (p Point) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(scaleDec)
}

// String renders the shortest exact decimal form, e.g. "100.03125".
func (p Point) String() string {
	return strconv.FormatFloat(p.Float(), 'f', -1, 64)
}

// Blend applies one smoothing update, avg + ((sample - avg) >> shift), with
// all intermediates held in int64. Go's right shift on a signed integer is
// arithmetic: it replicates the sign bit, so a negative delta floors toward
// negative infinity instead of truncating toward zero, exactly like the
// sign-replicating shifter in the RTL this models. The sum is truncated back
// to 32 bits without saturation, as the 32-bit average register does; inputs
// are assumed to keep the result within Q16.16 range.
func Blend(avg, sample Point, shift uint) Point {
	delta := int64(sample) - int64(avg)
	next := int64(avg) + (delta >> shift)
	return Point(next)
}
