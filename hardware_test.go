package av

import (
	"errors"
	"testing"
)

func TestNewHardwareContextUnknownType(t *testing.T) {
	_, err := NewHardwareContext("not-a-real-hw-type", "", nil)
	if err == nil {
		t.Fatal("expected error for unknown hardware device type")
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestAutoDetectHardwareContextNoneAvailable(t *testing.T) {
	// On a machine with no working hardware encoder, every platform
	// candidate should fail to construct or fail its viability test.
	_, err := AutoDetectHardwareContext("", nil)
	if err == nil {
		t.Skip("a hardware device type is actually usable on this host")
	}
}

func TestHardwareContextCloseIdempotent(t *testing.T) {
	var h *HardwareContext
	h.Close()
	h.Close()
}

func TestGetEncoderCodecUnknownBaseName(t *testing.T) {
	h := &HardwareContext{deviceType: 0} // whatever TypeName() resolves to, "nope" is never a mapped baseName
	if _, ok := h.getEncoderCodec("nope"); ok {
		t.Fatal("expected no mapping for an unrecognized base codec name")
	}
}

func TestHWAutoPreferenceIsNonEmpty(t *testing.T) {
	if len(hwAutoPreference()) == 0 {
		t.Fatal("expected a non-empty platform preference list")
	}
}
