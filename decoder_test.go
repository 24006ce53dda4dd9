package av

import (
	"testing"
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

func TestFrameFromRawVideo(t *testing.T) {
	rf := &native.RawFrame{
		Pts: 4096, Width: 640, Height: 480, PixFmt: 0,
		Data: [][]byte{{1, 2, 3}},
	}
	f := frameFromRaw(rf, MediaTypeVideo, NewRational(1, 25))
	if f.MediaType != MediaTypeVideo || f.Width != 640 || f.Height != 480 {
		t.Fatalf("got %+v", f)
	}
	if f.Pts != 4096 || !f.TimeBase.Equal(NewRational(1, 25)) {
		t.Fatalf("got pts=%d tb=%v", f.Pts, f.TimeBase)
	}
}

func TestFrameFromRawAudio(t *testing.T) {
	rf := &native.RawFrame{
		Pts: 1024, SampleRate: 48000, Channels: 2, NumSamples: 1024,
		Data: [][]byte{make([]byte, 4096)},
	}
	f := frameFromRaw(rf, MediaTypeAudio, NewRational(1, 48000))
	if f.MediaType != MediaTypeAudio || f.SampleRate != 48000 || f.Channels != 2 {
		t.Fatalf("got %+v", f)
	}
}

func TestFrameToRawRoundTrip(t *testing.T) {
	f := &Frame{Pts: 10, Width: 16, Height: 16, PixelFormat: 0, Planes: [][]byte{{1, 2}}}
	rf := frameToRaw(f)
	if rf.Pts != 10 || rf.Width != 16 || rf.Height != 16 {
		t.Fatalf("got %+v", rf)
	}
	if len(rf.Data) != 1 || len(rf.Data[0]) != 2 {
		t.Fatalf("got planes %+v", rf.Data)
	}
}

func TestFrameFromRawCarriesHWFramesCtx(t *testing.T) {
	var token int
	rf := &native.RawFrame{Pts: 1, HWFramesCtx: unsafe.Pointer(&token)}
	f := frameFromRaw(rf, MediaTypeVideo, NewRational(1, 25))
	if f.HWFramesCtx != rf.HWFramesCtx {
		t.Fatal("frameFromRaw must preserve the hardware-frames-context reference")
	}
}

func TestFrameToRawCarriesHWFramesCtx(t *testing.T) {
	var token int
	f := &Frame{HWFramesCtx: unsafe.Pointer(&token)}
	rf := frameToRaw(f)
	if rf.HWFramesCtx != f.HWFramesCtx {
		t.Fatal("frameToRaw must preserve the hardware-frames-context reference")
	}
}

func TestDecoderSendRejectsWhenClosed(t *testing.T) {
	d := &Decoder{closed: true}
	if err := d.Send(&Packet{}); err == nil {
		t.Fatal("expected error sending to closed decoder")
	}
	if err := d.SendEOF(); err == nil {
		t.Fatal("expected error flushing closed decoder")
	}
}
