// Package fixed implements the 16.16 fixed point numbers and binary angles
// used throughout the renderer, along with the trigonometric lookup tables
// that go with them.
package fixed

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Fixed is a signed 16.16 fixed point number.
type Fixed int32

const (
	FracBits = 16
	FracUnit = Fixed(1 << FracBits)
)

const (
	MaxInt = math.MaxInt32
	MinInt = math.MinInt32
)

// Mul multiplies two fixed point numbers.
func Mul(a, b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> FracBits)
}

// Div divides a by b, saturating to MinInt or MaxInt when the quotient would
// overflow 16.16.
func Div(a, b Fixed) Fixed {
	if Abs(a)>>14 >= Abs(b) {
		if (a ^ b) < 0 {
			return MinInt
		}
		return MaxInt
	}
	return Fixed((int64(a) << FracBits) / int64(b))
}

// FromInt converts an integer to fixed point.
func FromInt[T constraints.Integer](i T) Fixed {
	return Fixed(i) << FracBits
}

// FromFloat converts a float to fixed point, truncating toward zero.
func FromFloat[T constraints.Float](f T) Fixed {
	return Fixed(f * T(FracUnit))
}

// Int returns the integer part of f, rounding toward negative infinity.
func (f Fixed) Int() int {
	return int(f >> FracBits)
}

func (f Fixed) Float() float64 {
	return float64(f) / float64(FracUnit)
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
