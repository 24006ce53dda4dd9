package av

import (
	"testing"
	"unsafe"
)

func TestFrameCloneIndependentPlanes(t *testing.T) {
	f := &Frame{
		MediaType: MediaTypeVideo,
		Width:     2, Height: 2,
		Planes:    [][]byte{{1, 2, 3, 4}},
		Linesizes: []int{2},
	}
	clone := f.Clone()
	clone.Planes[0][0] = 0xff
	if f.Planes[0][0] == 0xff {
		t.Fatal("clone shares plane backing array with original")
	}
}

func TestFrameReleaseIdempotent(t *testing.T) {
	f := &Frame{Planes: [][]byte{{1}}}
	f.Release()
	f.Release()
	if f.Planes != nil {
		t.Fatal("released frame should drop its planes")
	}
}

func TestFrameCloneCarriesHWFramesCtx(t *testing.T) {
	var token int
	f := &Frame{MediaType: MediaTypeVideo, HWFramesCtx: unsafe.Pointer(&token)}
	clone := f.Clone()
	if clone.HWFramesCtx != f.HWFramesCtx {
		t.Fatal("clone must preserve the original's hardware-frames-context reference")
	}
}

func TestFrameRescaledDoesNotMutateReceiver(t *testing.T) {
	f := &Frame{Pts: 48000, TimeBase: NewRational(1, 48000)}
	out := f.Rescaled(NewRational(1, 1000))
	if out.Pts != 1000 {
		t.Fatalf("got %d, want 1000", out.Pts)
	}
	if f.Pts != 48000 {
		t.Fatal("Rescaled must not mutate the receiver")
	}
}
