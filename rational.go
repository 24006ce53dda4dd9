package av

import "math/big"

// Rational is an exact num/den pair, used for time bases, sample aspect
// ratios, and frame rates (spec.md §3). Rescale computes its intermediate
// product with math/big, so it cannot overflow for the timestamp ranges
// FFmpeg containers actually use.
type Rational struct {
	Num int64
	Den int64
}

// NewRational constructs a Rational, as a small convenience over the
// struct literal — mirrors how Eyevinn-avpipe's StreamInfo builds
// *big.Rat values from raw num/den pairs coming out of cgo.
func NewRational(num, den int64) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 returns the rational as a float64, for display/logging only —
// never for a computation whose result feeds back into a timestamp.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsZero reports whether this is the zero-value Rational (an
// uninitialized time base), distinct from a Rational with Num == 0 (a
// valid "zero point in time" timestamp time base like 0/1 is never
// produced by this module, so IsZero only tests Den == 0).
func (r Rational) IsZero() bool {
	return r.Den == 0
}

// Equal reports exact equality after reducing both sides, so 1/2 and 2/4
// compare equal.
func (r Rational) Equal(o Rational) bool {
	a, b := r.reduced(), o.reduced()
	return a.Num == b.Num && a.Den == b.Den
}

func (r Rational) reduced() Rational {
	if r.Num == 0 {
		return Rational{0, 1}
	}
	g := gcd(abs64(r.Num), abs64(r.Den))
	if g == 0 {
		return r
	}
	num, den := r.Num/g, r.Den/g
	if den < 0 {
		num, den = -num, -den
	}
	return Rational{num, den}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Rescale maps an integer timestamp from one time base to another,
// preserving the represented moment as closely as possible (spec.md
// Glossary "Rescaling"). It rounds to nearest (ties away from zero),
// matching libavutil's av_rescale_q semantics. The intermediate product is
// computed with math/big rather than raw int64 multiplication: spec.md §3
// requires exact rescaling, and a 90kHz-timebase pts several hours into a
// stream already multiplies into territory where naive int64 arithmetic
// silently overflows.
func Rescale(ts int64, from, to Rational) int64 {
	if from.IsZero() || to.IsZero() || from.Equal(to) {
		return ts
	}
	return divRoundBig(ts, from.Num, to.Den, from.Den, to.Num)
}

func divRoundBig(ts, fromNum, toDen, fromDen, toNum int64) int64 {
	num := big.NewInt(ts)
	num.Mul(num, big.NewInt(fromNum))
	num.Mul(num, big.NewInt(toDen))

	den := big.NewInt(fromDen)
	den.Mul(den, big.NewInt(toNum))

	if den.Sign() == 0 {
		return ts
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}

	half := new(big.Int).Div(den, big.NewInt(2))

	neg := num.Sign() < 0
	if neg {
		num.Neg(num)
	}
	num.Add(num, half)
	q := new(big.Int).Div(num, den)
	if neg {
		q.Neg(q)
	}
	return q.Int64()
}
