package av

import (
	"strconv"
	"strings"
)

// ParseBitrate accepts a bare integer (bits/sec), or a decimal number
// followed by k/K (×10³), m/M (×10⁶), or g/G (×10⁹), with optional
// surrounding whitespace and fractional values (spec.md §6). This is a
// small pure function, exactly the kind of helper spec.md §9's design
// notes call out as "not a stage concern" — no logging, no state.
func ParseBitrate(s string) (int64, error) {
	const op = "ParseBitrate"
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, newErr(KindInvalidArgument, op, "empty bitrate string", nil)
	}

	suffix := trimmed[len(trimmed)-1]
	var multiplier float64 = 1
	numPart := trimmed

	switch suffix {
	case 'k', 'K':
		multiplier = 1e3
		numPart = strings.TrimSpace(trimmed[:len(trimmed)-1])
	case 'm', 'M':
		multiplier = 1e6
		numPart = strings.TrimSpace(trimmed[:len(trimmed)-1])
	case 'g', 'G':
		multiplier = 1e9
		numPart = strings.TrimSpace(trimmed[:len(trimmed)-1])
	}

	if numPart == "" {
		return 0, newErr(KindInvalidArgument, op, "missing numeric value: "+s, nil)
	}

	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, newErr(KindInvalidArgument, op, "invalid bitrate: "+s, err)
	}

	return int64(f * multiplier), nil
}
