package av

import (
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

// VideoFilterParams configures NewVideoFilter.
type VideoFilterParams struct {
	Width        int
	Height       int
	PixelFormat  int
	TimeBase     Rational
	FrameRate    Rational
	SampleAspect Rational
	// HWFramesCtx binds a hardware-frames context to the buffer source,
	// for filtering frames produced by a hardware decoder in place.
	HWFramesCtx unsafe.Pointer
}

// AudioFilterParams configures NewAudioFilter.
type AudioFilterParams struct {
	TimeBase      Rational
	SampleRate    int
	SampleFormat  int
	ChannelLayout uint64
	Channels      int
}

// Filter wraps one libavfilter graph with a single buffer source and
// buffer sink (spec.md §4.5). Video graphs defer full configuration until
// the first Push so a hardware-frames context discovered from the
// upstream decoder can still be attached; audio graphs configure eagerly
// since there is no comparable hardware concern on that path.
type Filter struct {
	graph     *native.FilterGraph
	mediaType MediaType
	inTB      Rational
	outTB     Rational
	closed    bool
}

// NewVideoFilter parses description (an avfilter graph description
// string, e.g. "scale=1280:720,format=yuv420p") and instantiates the
// buffer source/sink pair. Configuration completes lazily on first Push.
func NewVideoFilter(description string, p VideoFilterParams) (*Filter, error) {
	const op = "NewVideoFilter"
	g, err := native.ParseVideo(description, native.VideoBufferSourceParams{
		Width: p.Width, Height: p.Height, PixFmt: p.PixelFormat,
		TimeBase:     native.Rational{Num: p.TimeBase.Num, Den: p.TimeBase.Den},
		FrameRate:    native.Rational{Num: p.FrameRate.Num, Den: p.FrameRate.Den},
		SampleAspect: native.Rational{Num: p.SampleAspect.Num, Den: p.SampleAspect.Den},
		HWFramesCtx:  p.HWFramesCtx,
	})
	if err != nil {
		logError(op, "description", description, "error", err)
		return nil, wrapNative(KindFilterFailed, op, err)
	}
	logInfo(op, "description", description)
	return &Filter{graph: g, mediaType: MediaTypeVideo, inTB: p.TimeBase, outTB: p.TimeBase}, nil
}

// NewAudioFilter parses description and eagerly configures an audio
// filter graph.
func NewAudioFilter(description string, p AudioFilterParams) (*Filter, error) {
	const op = "NewAudioFilter"
	g, err := native.ParseAudio(description, native.AudioBufferSourceParams{
		TimeBase:      native.Rational{Num: p.TimeBase.Num, Den: p.TimeBase.Den},
		SampleRate:    p.SampleRate,
		SampleFmt:     p.SampleFormat,
		ChannelLayout: p.ChannelLayout,
		Channels:      p.Channels,
	})
	if err != nil {
		logError(op, "description", description, "error", err)
		return nil, wrapNative(KindFilterConfigFailed, op, err)
	}
	logInfo(op, "description", description)
	return &Filter{graph: g, mediaType: MediaTypeAudio, inTB: p.TimeBase, outTB: p.TimeBase}, nil
}

// IsConfigured reports whether avfilter_graph_config has completed. Video
// filters return false until the first Push; audio filters are always
// true.
func (f *Filter) IsConfigured() bool {
	return f.graph.IsReady()
}

// Push feeds one frame into the buffer source, configuring the graph
// first if this is a video filter and configuration is still pending.
func (f *Filter) Push(frame *Frame) error {
	const op = "Filter.Push"
	if f.closed {
		return newErr(KindInvalidState, op, "filter is closed", nil)
	}
	if !f.graph.IsReady() {
		if err := f.graph.Configure(); err != nil {
			return wrapNative(KindFilterConfigFailed, op, err)
		}
	}
	if err := f.graph.Push(frameToRaw(frame)); err != nil {
		return wrapNative(KindFilterFailed, op, err)
	}
	return nil
}

// PushEOF signals end-of-stream to the buffer source.
func (f *Filter) PushEOF() error {
	const op = "Filter.PushEOF"
	if err := f.graph.PushEOF(); err != nil {
		return wrapNative(KindFilterFailed, op, err)
	}
	return nil
}

// Receive pulls the next available frame from the buffer sink. ok is
// false with err == nil when the graph needs another Push, or when it
// has finished draining after PushEOF.
func (f *Filter) Receive() (*Frame, bool, error) {
	const op = "Filter.Receive"
	rf, err := f.graph.Pull()
	if err != nil {
		if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
			return nil, false, nil
		}
		return nil, false, wrapNative(KindFilterFailed, op, err)
	}
	return frameFromRaw(rf, f.mediaType, f.outTB), true, nil
}

// Sequence returns a FrameSequence pulling from this filter's sink.
func (f *Filter) Sequence() FrameSequence {
	return FrameSequenceFunc(f.Receive)
}

// SendCommand issues a runtime parameter change against a named filter
// instance inside the graph (spec.md §4.5: dynamic reconfiguration via
// avfilter_graph_send_command).
func (f *Filter) SendCommand(target, cmd, arg string) (string, error) {
	const op = "Filter.SendCommand"
	res, err := f.graph.SendCommand(target, cmd, arg, 0)
	if err != nil {
		return "", wrapNative(KindFilterFailed, op, err)
	}
	return res, nil
}

// QueueCommand schedules a parameter change at a future timestamp
// (seconds, in the filter graph's internal clock).
func (f *Filter) QueueCommand(target, cmd, arg string, ts float64) error {
	const op = "Filter.QueueCommand"
	if err := f.graph.QueueCommand(target, cmd, arg, ts, 0); err != nil {
		return wrapNative(KindFilterFailed, op, err)
	}
	return nil
}

// Close releases the filter graph. Idempotent.
func (f *Filter) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.graph.Free()
	logDebug("Filter.Close")
}
