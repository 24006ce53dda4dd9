package av

import "testing"

func TestRescaleIdentity(t *testing.T) {
	tb := NewRational(1, 90000)
	if got := Rescale(12345, tb, tb); got != 12345 {
		t.Fatalf("identity rescale: got %d, want 12345", got)
	}
}

func TestRescaleHalvesDenominator(t *testing.T) {
	from := NewRational(1, 90000)
	to := NewRational(1, 45000)
	if got := Rescale(90000, from, to); got != 45000 {
		t.Fatalf("got %d, want 45000", got)
	}
}

func TestRescaleRoundsToNearest(t *testing.T) {
	from := NewRational(1, 3)
	to := NewRational(1, 1)
	// 1/3 second at ts=1 rescaled into whole seconds rounds to 0.
	if got := Rescale(1, from, to); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	// 2/3 second rounds to 1.
	if got := Rescale(2, from, to); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestRescaleLargeTimestampsNoOverflow(t *testing.T) {
	from := NewRational(1, 90000)
	to := NewRational(1, 48000)
	// ~3 hours into a stream at a 90kHz clock.
	ts := int64(3 * 3600 * 90000)
	got := Rescale(ts, from, to)
	want := int64(3 * 3600 * 48000)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestRationalEqualAfterReduction(t *testing.T) {
	a := NewRational(1, 2)
	b := NewRational(2, 4)
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
}

func TestRationalIsZero(t *testing.T) {
	var r Rational
	if !r.IsZero() {
		t.Fatal("zero-value Rational should report IsZero")
	}
	if NewRational(0, 1).IsZero() {
		t.Fatal("0/1 is a valid rational, not IsZero")
	}
}
