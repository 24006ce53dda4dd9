package native

// #include <libavfilter/avfilter.h>
// #include <libavfilter/buffersink.h>
// #include <libavfilter/buffersrc.h>
// #include <libavutil/opt.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"
)

// FilterGraph is an opaque libavfilter graph with exactly one buffer
// source and one buffer sink, matching spec.md §4.5's Filter component
// (one description string, one input, one output).
type FilterGraph struct {
	graph *C.AVFilterGraph
	src   *C.AVFilterContext
	sink  *C.AVFilterContext
	ready bool
}

// VideoBufferSourceParams configures the video buffer source filter.
type VideoBufferSourceParams struct {
	Width, Height int
	PixFmt        int
	TimeBase      Rational
	FrameRate     Rational
	SampleAspect  Rational
	HWFramesCtx   unsafe.Pointer
}

// AudioBufferSourceParams configures the audio buffer source filter.
type AudioBufferSourceParams struct {
	TimeBase      Rational
	SampleRate    int
	SampleFmt     int
	ChannelLayout uint64
	Channels      int
}

// ParseVideo parses a filter-graph description string and instantiates the
// buffersrc/buffersink pair, but (per spec.md §4.5) defers
// avfilter_graph_config until the first frame, since a hardware-frames
// context may still need to be attached to the source.
func ParseVideo(description string, p VideoBufferSourceParams) (*FilterGraph, error) {
	g := &FilterGraph{graph: C.avfilter_graph_alloc()}
	if g.graph == nil {
		return nil, &NativeError{msg: "avfilter_graph_alloc failed"}
	}

	bufferSrc := C.avfilter_get_by_name(C.CString("buffer"))
	bufferSink := C.avfilter_get_by_name(C.CString("buffersink"))

	args := cSprintfVideoArgs(p)
	cargs := C.CString(args)
	defer C.free(unsafe.Pointer(cargs))

	var src, sink *C.AVFilterContext
	ret := C.avfilter_graph_create_filter(&src, bufferSrc, C.CString("in"), cargs, nil, g.graph)
	if ret < 0 {
		return nil, Code(ret).Err()
	}
	ret = C.avfilter_graph_create_filter(&sink, bufferSink, C.CString("out"), nil, nil, g.graph)
	if ret < 0 {
		return nil, Code(ret).Err()
	}

	if p.HWFramesCtx != nil {
		buffersrcCtx := (*C.AVBufferSrcParameters)(unsafe.Pointer(C.av_buffersrc_parameters_alloc()))
		buffersrcCtx.hw_frames_ctx = (*C.AVBufferRef)(p.HWFramesCtx)
		C.av_buffersrc_parameters_set(src, buffersrcCtx)
		C.av_free(unsafe.Pointer(buffersrcCtx))
	}

	if err := linkDescription(g.graph, description, src, sink); err != nil {
		return nil, err
	}

	g.src, g.sink = src, sink
	return g, nil
}

// ParseAudio parses and eagerly configures an audio filter graph (spec.md
// §4.5: "For audio, full configuration is eager" — there is no
// hardware-frames concern on the audio path).
func ParseAudio(description string, p AudioBufferSourceParams) (*FilterGraph, error) {
	g := &FilterGraph{graph: C.avfilter_graph_alloc()}
	if g.graph == nil {
		return nil, &NativeError{msg: "avfilter_graph_alloc failed"}
	}

	bufferSrc := C.avfilter_get_by_name(C.CString("abuffer"))
	bufferSink := C.avfilter_get_by_name(C.CString("abuffersink"))

	args := cSprintfAudioArgs(p)
	cargs := C.CString(args)
	defer C.free(unsafe.Pointer(cargs))

	var src, sink *C.AVFilterContext
	ret := C.avfilter_graph_create_filter(&src, bufferSrc, C.CString("in"), cargs, nil, g.graph)
	if ret < 0 {
		return nil, Code(ret).Err()
	}
	ret = C.avfilter_graph_create_filter(&sink, bufferSink, C.CString("out"), nil, nil, g.graph)
	if ret < 0 {
		return nil, Code(ret).Err()
	}

	if err := linkDescription(g.graph, description, src, sink); err != nil {
		return nil, err
	}
	if ret := C.avfilter_graph_config(g.graph, nil); ret < 0 {
		return nil, Code(ret).Err()
	}

	g.src, g.sink = src, sink
	g.ready = true
	return g, nil
}

func linkDescription(graph *C.AVFilterGraph, description string, src, sink *C.AVFilterContext) error {
	outputs := C.avfilter_inout_alloc()
	inputs := C.avfilter_inout_alloc()

	outputs.name = C.av_strdup(C.CString("in"))
	outputs.filter_ctx = src
	outputs.pad_idx = 0
	outputs.next = nil

	inputs.name = C.av_strdup(C.CString("out"))
	inputs.filter_ctx = sink
	inputs.pad_idx = 0
	inputs.next = nil

	cdesc := C.CString(description)
	defer C.free(unsafe.Pointer(cdesc))

	ret := C.avfilter_graph_parse_ptr(graph, cdesc, &inputs, &outputs, nil)
	C.avfilter_inout_free(&inputs)
	C.avfilter_inout_free(&outputs)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// Configure runs avfilter_graph_config, completing a video graph's
// deferred setup once the first frame's hardware-frames context (if any)
// is known.
func (g *FilterGraph) Configure() error {
	if g.ready {
		return nil
	}
	if ret := C.avfilter_graph_config(g.graph, nil); ret < 0 {
		return Code(ret).Err()
	}
	g.ready = true
	return nil
}

func (g *FilterGraph) IsReady() bool { return g.ready }

// Push feeds one frame into the buffer source.
func (g *FilterGraph) Push(f *RawFrame) error {
	frame := frameToC(f)
	defer C.av_frame_free(&frame)
	ret := C.av_buffersrc_add_frame_flags(g.src, frame, C.AV_BUFFERSRC_FLAG_KEEP_REF)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// PushEOF signals end-of-stream to the buffer source.
func (g *FilterGraph) PushEOF() error {
	ret := C.av_buffersrc_add_frame_flags(g.src, nil, 0)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// Pull polls the buffer sink for one output frame.
func (g *FilterGraph) Pull() (*RawFrame, error) {
	frame := C.av_frame_alloc()
	ret := C.av_buffersink_get_frame(g.sink, frame)
	if ret < 0 {
		C.av_frame_free(&frame)
		code := Code(ret)
		if code.IsAgain() || code.IsEOF() {
			return nil, code
		}
		return nil, code.Err()
	}
	rf := frameFromC(frame)
	C.av_frame_free(&frame)
	return rf, nil
}

// SendCommand issues avfilter_graph_send_command against a named filter
// instance inside the graph.
func (g *FilterGraph) SendCommand(target, cmd, arg string, flags int) (string, error) {
	ct, cc, ca := C.CString(target), C.CString(cmd), C.CString(arg)
	defer C.free(unsafe.Pointer(ct))
	defer C.free(unsafe.Pointer(cc))
	defer C.free(unsafe.Pointer(ca))

	resBuf := make([]byte, 1024)
	ret := C.avfilter_graph_send_command(g.graph, ct, cc, ca,
		(*C.char)(unsafe.Pointer(&resBuf[0])), C.int(len(resBuf)), C.int(flags))
	if ret < 0 {
		return "", Code(ret).Err()
	}
	n := 0
	for n < len(resBuf) && resBuf[n] != 0 {
		n++
	}
	return string(resBuf[:n]), nil
}

// QueueCommand schedules a command change at a future timestamp.
func (g *FilterGraph) QueueCommand(target, cmd, arg string, ts float64, flags int) error {
	ct, cc, ca := C.CString(target), C.CString(cmd), C.CString(arg)
	defer C.free(unsafe.Pointer(ct))
	defer C.free(unsafe.Pointer(cc))
	defer C.free(unsafe.Pointer(ca))
	ret := C.avfilter_graph_queue_command(g.graph, ct, cc, ca, C.int(flags), C.double(ts))
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// Description is a placeholder for the graph's textual representation;
// avfilter_graph_dump is not bound, so it always returns "".
func (g *FilterGraph) Description() string {
	return ""
}

// Free releases the filter graph and both endpoints.
func (g *FilterGraph) Free() {
	if g.graph != nil {
		C.avfilter_graph_free(&g.graph)
	}
}

func cSprintfVideoArgs(p VideoBufferSourceParams) string {
	sar := p.SampleAspect
	if sar.Den == 0 {
		sar = Rational{1, 1}
	}
	return sprintf("video_size=%dx%d:pix_fmt=%d:time_base=%d/%d:pixel_aspect=%d/%d:frame_rate=%d/%d",
		p.Width, p.Height, p.PixFmt, p.TimeBase.Num, p.TimeBase.Den, sar.Num, sar.Den, p.FrameRate.Num, maxInt(p.FrameRate.Den, 1))
}

func cSprintfAudioArgs(p AudioBufferSourceParams) string {
	return sprintf("time_base=%d/%d:sample_rate=%d:sample_fmt=%d:channels=%d",
		p.TimeBase.Num, p.TimeBase.Den, p.SampleRate, p.SampleFmt, p.Channels)
}

func maxInt(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
