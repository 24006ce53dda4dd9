package av

import "unsafe"

// PictureType mirrors AVPictureType for frames decoded from a video stream.
type PictureType int

const (
	PictureTypeNone PictureType = iota
	PictureTypeI
	PictureTypeP
	PictureTypeB
	PictureTypeS
	PictureTypeSI
	PictureTypeSP
	PictureTypeBI
)

// Frame is an uncompressed, timestamped unit of audio or video (spec.md
// §3): a decoded video frame, a resampled/filtered audio block, or a raw
// frame about to be sent to an encoder. Like Packet, a Frame is uniquely
// owned by whichever stage currently holds it and must be released
// exactly once on every path.
type Frame struct {
	MediaType MediaType
	Pts       int64
	TimeBase  Rational

	// Video fields; zero-valued for audio frames.
	Width        int
	Height       int
	PixelFormat  int
	SampleAspect Rational
	PictureType  PictureType
	KeyFrame     bool

	// Audio fields; zero-valued for video frames.
	SampleRate    int
	SampleFormat  int
	ChannelLayout uint64
	Channels      int
	NumSamples    int

	// Planes holds one []byte per data plane. Packed audio and RGB video
	// use a single plane; planar audio and YUV video use several.
	Planes    [][]byte
	Linesizes []int

	// HWFramesCtx is non-nil when this frame's Planes are a host-side
	// placeholder and the real pixel data lives in device memory
	// referenced by this AVHWFramesContext (spec.md §3: "copying such a
	// frame between stages must preserve that reference"). Stages that
	// forward a hardware frame as-is must carry this field through
	// unchanged rather than only copying Planes.
	HWFramesCtx unsafe.Pointer

	released bool
}

// MediaType distinguishes audio and video frames/streams.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
)

// Clone copies a frame, including its plane data, so the clone can be
// released independently — used when a filter graph or pipeline fan-out
// needs to hand the same logical frame to more than one encoder.
func (f *Frame) Clone() *Frame {
	planes := make([][]byte, len(f.Planes))
	for i, p := range f.Planes {
		cp := make([]byte, len(p))
		copy(cp, p)
		planes[i] = cp
	}
	linesizes := make([]int, len(f.Linesizes))
	copy(linesizes, f.Linesizes)

	out := *f
	out.Planes = planes
	out.Linesizes = linesizes
	out.released = false
	return &out
}

// Release returns the frame's resources. Idempotent.
func (f *Frame) Release() {
	if f == nil || f.released {
		return
	}
	f.released = true
	f.Planes = nil
	f.Linesizes = nil
}

// Rescaled returns a copy of f with its presentation timestamp rescaled
// into the target time base.
func (f *Frame) Rescaled(to Rational) *Frame {
	out := f.Clone()
	out.Pts = Rescale(f.Pts, f.TimeBase, to)
	out.TimeBase = to
	return out
}
