package native

// #include <libavcodec/avcodec.h>
// #include <libavutil/dict.h>
// #include <libavutil/opt.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"
)

// CodecContext is an opaque AVCodecContext, used for both decode and
// encode directions — the send/receive pump is symmetric in libavcodec
// and this module mirrors that symmetry (spec.md §4.3/§4.4).
type CodecContext unsafe.Pointer

// AVMEDIA_TYPE_* values this module cares about, re-exported so the root
// package never needs its own copy of the enum.
const (
	MediaTypeVideo = 0
	MediaTypeAudio = 1
)

// CodecName returns the short codec name for a codec ID (e.g. "h264"),
// used for StreamInfo.CodecName and log lines; for an unknown ID it
// returns libav's placeholder name rather than "".
func CodecName(codecID int) string {
	return C.GoString(C.avcodec_get_name(C.enum_AVCodecID(codecID)))
}

// FindDecoder locates a decoder by codec ID, optionally constrained to a
// specific implementation name (used for hardware decoders, e.g.
// "h264_cuvid").
func FindDecoder(codecID int, name string) (unsafe.Pointer, bool) {
	if name != "" {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		c := C.avcodec_find_decoder_by_name(cname)
		return unsafe.Pointer(c), c != nil
	}
	c := C.avcodec_find_decoder(C.enum_AVCodecID(codecID))
	return unsafe.Pointer(c), c != nil
}

// FindEncoder locates an encoder by name (preferred, since encoder
// selection in this module is always by name/id per spec.md §4.4) or by
// codec ID.
func FindEncoder(codecID int, name string) (unsafe.Pointer, bool) {
	if name != "" {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		c := C.avcodec_find_encoder_by_name(cname)
		return unsafe.Pointer(c), c != nil
	}
	c := C.avcodec_find_encoder(C.enum_AVCodecID(codecID))
	return unsafe.Pointer(c), c != nil
}

// CodecOpenOptions configures avcodec_open2.
type CodecOpenOptions struct {
	Threads     int
	Dict        map[string]string
	HWDeviceCtx unsafe.Pointer // *C.AVBufferRef, non-nil requests hardware decode
}

// OpenDecoderFromParams allocates a decoder context from a demuxed
// stream's codec parameters and opens it. When opts.HWDeviceCtx is set,
// the decoder's hw_device_ctx is bound before avcodec_open2 so libav
// selects a hardware-backed get_format implementation for the codec
// (spec.md §4.7's decode-side hardware acceleration path).
func OpenDecoderFromParams(codec unsafe.Pointer, params unsafe.Pointer, tb Rational, opts CodecOpenOptions) (CodecContext, error) {
	ctx := C.avcodec_alloc_context3((*C.AVCodec)(codec))
	if ctx == nil {
		return nil, (&NativeError{msg: "avcodec_alloc_context3 failed"})
	}
	if ret := C.avcodec_parameters_to_context(ctx, (*C.AVCodecParameters)(params)); ret < 0 {
		C.avcodec_free_context(&ctx)
		return nil, Code(ret).Err()
	}
	ctx.pkt_timebase = tb.c()
	if opts.Threads > 0 {
		ctx.thread_count = C.int(opts.Threads)
	}
	if opts.HWDeviceCtx != nil {
		ctx.hw_device_ctx = C.av_buffer_ref((*C.AVBufferRef)(opts.HWDeviceCtx))
	}

	dict := dictFromMap(opts.Dict)
	defer freeDict(dict)

	if ret := C.avcodec_open2(ctx, (*C.AVCodec)(codec), dict); ret < 0 {
		C.avcodec_free_context(&ctx)
		return nil, Code(ret).Err()
	}
	return CodecContext(ctx), nil
}

// EncoderParams configures an encoder's AVCodecContext before avcodec_open2.
type EncoderParams struct {
	MediaType     int
	Width, Height int
	PixFmt        int
	SampleAspect  Rational
	FrameRate     Rational
	TimeBase      Rational
	SampleRate    int
	SampleFmt     int
	ChannelLayout uint64
	Channels      int
	BitRate       int64
	GopSize       int
	MaxBFrames    int
	Threads       int
	HWFramesCtx   unsafe.Pointer // *C.AVBufferRef, nil for software
	HWPixFmt      int
}

// OpenEncoder allocates and opens an encoder context for the given codec
// and parameters. When HWFramesCtx is set the context's hw_frames_ctx is
// bound before avcodec_open2, matching spec.md §4.4's "adopts that
// hardware-frames context before opening".
func OpenEncoder(codec unsafe.Pointer, p EncoderParams, dict map[string]string) (CodecContext, error) {
	ctx := C.avcodec_alloc_context3((*C.AVCodec)(codec))
	if ctx == nil {
		return nil, (&NativeError{msg: "avcodec_alloc_context3 failed"})
	}
	ctx.codec_type = C.enum_AVMediaType(p.MediaType)
	ctx.time_base = p.TimeBase.c()

	if p.MediaType == 0 { // AVMEDIA_TYPE_VIDEO
		ctx.width = C.int(p.Width)
		ctx.height = C.int(p.Height)
		ctx.pix_fmt = C.enum_AVPixelFormat(p.PixFmt)
		ctx.sample_aspect_ratio = p.SampleAspect.c()
		ctx.framerate = p.FrameRate.c()
		ctx.gop_size = C.int(p.GopSize)
		ctx.max_b_frames = C.int(p.MaxBFrames)
		if p.HWFramesCtx != nil {
			ctx.hw_frames_ctx = C.av_buffer_ref((*C.AVBufferRef)(p.HWFramesCtx))
			ctx.pix_fmt = C.enum_AVPixelFormat(p.HWPixFmt)
		}
	} else {
		ctx.sample_rate = C.int(p.SampleRate)
		ctx.sample_fmt = C.enum_AVSampleFormat(p.SampleFmt)
		C.av_channel_layout_default(&ctx.ch_layout, C.int(p.Channels))
	}
	if p.BitRate > 0 {
		ctx.bit_rate = C.int64_t(p.BitRate)
	}
	if p.Threads > 0 {
		ctx.thread_count = C.int(p.Threads)
	}

	cdict := dictFromMap(dict)
	defer freeDict(cdict)

	if ret := C.avcodec_open2(ctx, (*C.AVCodec)(codec), cdict); ret < 0 {
		C.avcodec_free_context(&ctx)
		return nil, Code(ret).Err()
	}
	return CodecContext(ctx), nil
}

// OutputTimeBase returns the time base an opened encoder context settled
// on (libavcodec may adjust it during avcodec_open2).
func OutputTimeBase(ctx CodecContext) Rational {
	return fromCRational((*C.AVCodecContext)(ctx).time_base)
}

// ExtractParameters copies an opened codec context's parameters back into
// a fresh AVCodecParameters, used when MediaOutput.addStream is given an
// Encoder as its source.
func ExtractParameters(ctx CodecContext) unsafe.Pointer {
	params := C.avcodec_parameters_alloc()
	C.avcodec_parameters_from_context(params, (*C.AVCodecContext)(ctx))
	return unsafe.Pointer(params)
}

// RawFrame is the plain-data projection of an AVFrame used across this
// package's API boundary.
type RawFrame struct {
	Pts           int64
	Width, Height int
	PixFmt        int
	SampleAspect  Rational
	SampleRate    int
	SampleFmt     int
	Channels      int
	NumSamples    int
	Data          [][]byte // per-plane data, copied out of the AVFrame
	HWFramesCtx   unsafe.Pointer
	frame         unsafe.Pointer // underlying *C.AVFrame, kept for zero-copy hw paths
}

// SendPacketInput is the plain-data projection of an AVPacket handed into
// avcodec_send_packet. Flush is signalled by passing a nil
// *SendPacketInput (avcodec_send_packet(ctx, NULL)).
type SendPacketInput struct {
	Data     []byte
	Pts, Dts int64
	Duration int64
	Flags    int
}

// SendPacket pushes one packet (or nil to start draining) into a decoder.
func SendPacket(ctx CodecContext, in *SendPacketInput) error {
	c := (*C.AVCodecContext)(ctx)
	if in == nil {
		ret := C.avcodec_send_packet(c, nil)
		return codecSendErr(ret)
	}
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)
	if len(in.Data) > 0 {
		if ret := C.av_new_packet(pkt, C.int(len(in.Data))); ret < 0 {
			return Code(ret).Err()
		}
		C.memcpy(unsafe.Pointer(pkt.data), unsafe.Pointer(&in.Data[0]), C.size_t(len(in.Data)))
	}
	pkt.pts = C.int64_t(in.Pts)
	pkt.dts = C.int64_t(in.Dts)
	pkt.duration = C.int64_t(in.Duration)
	pkt.flags = C.int(in.Flags)
	ret := C.avcodec_send_packet(c, pkt)
	return codecSendErr(ret)
}

func codecSendErr(ret C.int) error {
	if ret >= 0 {
		return nil
	}
	code := Code(ret)
	if code.IsAgain() || code.IsEOF() {
		return code // sentinel, caller checks IsAgain/IsEOF
	}
	return code.Err()
}

// ReceiveFrame polls a decoder for one output frame.
func ReceiveFrame(ctx CodecContext) (*RawFrame, error) {
	c := (*C.AVCodecContext)(ctx)
	frame := C.av_frame_alloc()
	ret := C.avcodec_receive_frame(c, frame)
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

// SendFrame pushes one frame (or nil to start draining) into an encoder.
func SendFrame(ctx CodecContext, f *RawFrame) error {
	c := (*C.AVCodecContext)(ctx)
	if f == nil {
		ret := C.avcodec_send_frame(c, nil)
		return codecSendErr(ret)
	}
	frame := frameToC(f)
	defer C.av_frame_free(&frame)
	ret := C.avcodec_send_frame(c, frame)
	return codecSendErr(ret)
}

// ReceivePacket polls an encoder for one output packet.
func ReceivePacket(ctx CodecContext) (*ReadPacketResult, error) {
	c := (*C.AVCodecContext)(ctx)
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)
	ret := C.avcodec_receive_packet(c, pkt)
	if ret < 0 {
		code := Code(ret)
		if code.IsAgain() || code.IsEOF() {
			return nil, code
		}
		return nil, code.Err()
	}
	return &ReadPacketResult{
		Pts:      int64(pkt.pts),
		Dts:      int64(pkt.dts),
		Duration: int64(pkt.duration),
		Flags:    int(pkt.flags),
		Data:     goBytes(unsafe.Pointer(pkt.data), pkt.size),
	}, nil
}

// FlushBuffers resets a codec context's internal state, used by
// Decoder.Flush for re-seek handling.
func FlushBuffers(ctx CodecContext) {
	C.avcodec_flush_buffers((*C.AVCodecContext)(ctx))
}

// CloseCodec frees the codec context. It never touches a hw_frames_ctx or
// hw_device_ctx reference owned by a HardwareContext — only the
// AVCodecContext itself.
func CloseCodec(ctx CodecContext) {
	c := (*C.AVCodecContext)(ctx)
	C.avcodec_free_context(&c)
}

func frameFromC(f *C.AVFrame) *RawFrame {
	rf := &RawFrame{
		Pts:          int64(f.pts),
		Width:        int(f.width),
		Height:       int(f.height),
		PixFmt:       int(f.format),
		SampleAspect: fromCRational(f.sample_aspect_ratio),
		SampleRate:   int(f.sample_rate),
		SampleFmt:    int(f.format),
		Channels:     int(f.ch_layout.nb_channels),
		NumSamples:   int(f.nb_samples),
	}
	if f.hw_frames_ctx != nil {
		rf.HWFramesCtx = unsafe.Pointer(C.av_buffer_ref(f.hw_frames_ctx))
	} else {
		planes := 0
		for i := 0; i < 8; i++ {
			if f.data[i] == nil {
				break
			}
			planes++
		}
		rf.Data = make([][]byte, planes)
		for i := 0; i < planes; i++ {
			sz := int(f.linesize[i])
			if rf.Height > 0 && i == 0 {
				sz = sz * rf.Height
			}
			rf.Data[i] = goBytes(unsafe.Pointer(f.data[i]), C.int(sz))
		}
	}
	return rf
}

func frameToC(rf *RawFrame) *C.AVFrame {
	f := C.av_frame_alloc()
	f.pts = C.int64_t(rf.Pts)
	f.width = C.int(rf.Width)
	f.height = C.int(rf.Height)
	f.format = C.int(rf.PixFmt)
	f.sample_aspect_ratio = rf.SampleAspect.c()
	f.sample_rate = C.int(rf.SampleRate)
	f.nb_samples = C.int(rf.NumSamples)
	if rf.HWFramesCtx != nil {
		f.hw_frames_ctx = C.av_buffer_ref((*C.AVBufferRef)(rf.HWFramesCtx))
		return f
	}
	C.av_frame_get_buffer(f, 32)
	for i, plane := range rf.Data {
		if i >= 8 || len(plane) == 0 {
			continue
		}
		C.memcpy(unsafe.Pointer(f.data[i]), unsafe.Pointer(&plane[0]), C.size_t(len(plane)))
	}
	return f
}

func dictFromMap(m map[string]string) *C.AVDictionary {
	var dict *C.AVDictionary
	for k, v := range m {
		ck, cv := C.CString(k), C.CString(v)
		C.av_dict_set(&dict, ck, cv, 0)
		C.free(unsafe.Pointer(ck))
		C.free(unsafe.Pointer(cv))
	}
	return dict
}

func freeDict(d *C.AVDictionary) {
	if d != nil {
		C.av_dict_free(&d)
	}
}
