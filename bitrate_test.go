package av

import (
	"errors"
	"testing"
)

func TestParseBitrate(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"128000", 128000},
		{"192k", 192000},
		{"192K", 192000},
		{"2M", 2000000},
		{"1.5M", 1500000},
		{"1G", 1000000000},
		{"  2M  ", 2000000},
		{"0.5k", 500},
	}
	for _, c := range cases {
		got, err := ParseBitrate(c.in)
		if err != nil {
			t.Errorf("ParseBitrate(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseBitrate(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseBitrateInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "k", "1.2.3M"} {
		_, err := ParseBitrate(in)
		if err == nil {
			t.Errorf("ParseBitrate(%q) expected error, got nil", in)
			continue
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseBitrate(%q) error kind = %v, want InvalidArgument", in, err)
		}
	}
}
