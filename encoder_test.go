package av

import (
	"errors"
	"testing"
	"unsafe"
)

func TestEncoderSendRejectsWhenClosed(t *testing.T) {
	e := &Encoder{closed: true}
	if err := e.Send(&Frame{}); err == nil {
		t.Fatal("expected error sending to closed encoder")
	}
	if err := e.SendEOF(); err == nil {
		t.Fatal("expected error flushing closed encoder")
	}
}

func TestNewVideoEncoderUnknownCodec(t *testing.T) {
	_, err := NewVideoEncoder(VideoEncoderParams{CodecName: "not-a-real-codec"})
	if err == nil {
		t.Fatal("expected error for unknown codec name")
	}
}

func TestNewAudioEncoderUnknownCodec(t *testing.T) {
	_, err := NewAudioEncoder(AudioEncoderParams{CodecName: "not-a-real-codec"})
	if err == nil {
		t.Fatal("expected error for unknown codec name")
	}
}

func TestEncoderRejectsMismatchedHardwareFrameAfterOpen(t *testing.T) {
	var adopted, other int
	e := &Encoder{
		mediaType:   MediaTypeVideo,
		opened:      true,
		hwFramesCtx: unsafe.Pointer(&adopted),
	}
	err := e.Send(&Frame{MediaType: MediaTypeVideo, HWFramesCtx: unsafe.Pointer(&other)})
	if err == nil {
		t.Fatal("expected error sending a frame with a mismatched hardware-frames context")
	}
	if !errors.Is(err, ErrHardwareIncompatible) {
		t.Fatalf("got %v, want ErrHardwareIncompatible", err)
	}
}

func TestEncoderParametersUnavailableBeforeOpen(t *testing.T) {
	e := &Encoder{}
	if p := e.Parameters(); p != nil {
		t.Fatal("expected nil parameters before the encoder has opened")
	}
}

func TestEncoderSendEOFNoopBeforeOpen(t *testing.T) {
	e := &Encoder{}
	if err := e.SendEOF(); err != nil {
		t.Fatalf("unexpected error flushing an encoder that never opened: %v", err)
	}
}
