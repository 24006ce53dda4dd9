package native

// #include <libavformat/avformat.h>
// #include <libavutil/dict.h>
// #include <libavutil/opt.h>
// #include <stdlib.h>
import "C"

import (
	"unsafe"
)

// FormatContext is an opaque AVFormatContext used for both demuxing and
// muxing, following avpipe.go's single ioHandler-per-URL model. The same
// handle type serves both directions; the demux functions (OpenInput,
// ReadPacket, Seek, CloseInput) and mux functions (OpenOutput,
// WritePacket, WriteTrailer, CloseOutput) are kept apart by name, and the
// public MediaInput/MediaOutput stages never share one context.
type FormatContext unsafe.Pointer

// StreamDescriptor is the subset of AVStream/AVCodecParameters this module
// needs to configure a Decoder, Encoder, or BitstreamFilter, or to add a
// MediaOutput stream from an input stream (stream copy).
type StreamDescriptor struct {
	Index         int
	MediaType     int // AVMEDIA_TYPE_*
	CodecID       int
	TimeBase      Rational
	Width, Height int
	PixFmt        int
	FrameRate     Rational
	SampleAspect  Rational
	SampleRate    int
	SampleFmt     int
	ChannelLayout uint64
	Channels      int
	ExtraData     []byte
	BitRate       int64
	codecParams   unsafe.Pointer // *C.AVCodecParameters, owned by the AVStream
}

// ProbeResult carries what av_probe_input_format3 determined about a
// source, before any stream is opened.
type ProbeResult struct {
	FormatName string
	LongName   string
	MimeType   string
	Extensions string
	Confidence int
	Matched    bool
}

// OpenInputOptions configures OpenInput.
type OpenInputOptions struct {
	URL       string
	Format    string // forced input format name, empty = autodetect
	Dict      map[string]string
	IOContext IOContext // non-nil for buffer/callback sources
	RawFormat string    // e.g. "rawvideo", "s16le" for raw-data descriptors
}

// OpenInput opens a demuxer, probing the format if one was not forced.
// Mirrors avformat_open_input + avformat_find_stream_info, which is the
// same two-call sequence Eyevinn-avpipe's probe() helper drives from C.
func OpenInput(opts OpenInputOptions) (FormatContext, []StreamDescriptor, error) {
	fctx := C.avformat_alloc_context()
	if fctx == nil {
		return nil, nil, Code(C.AVERROR(C.ENOMEM)).Err()
	}

	if opts.IOContext != nil {
		fctx.pb = (*C.AVIOContext)(opts.IOContext)
		fctx.flags |= C.AVFMT_FLAG_CUSTOM_IO
	}

	var inputFormat *C.AVInputFormat
	formatName := opts.Format
	if formatName == "" {
		formatName = opts.RawFormat
	}
	if formatName != "" {
		cname := C.CString(formatName)
		defer C.free(unsafe.Pointer(cname))
		inputFormat = C.av_find_input_format(cname)
		if inputFormat == nil {
			C.avformat_free_context(fctx)
			return nil, nil, &NativeError{msg: "input format not recognized: " + formatName}
		}
	}

	var dict *C.AVDictionary
	for k, v := range opts.Dict {
		ck, cv := C.CString(k), C.CString(v)
		C.av_dict_set(&dict, ck, cv, 0)
		C.free(unsafe.Pointer(ck))
		C.free(unsafe.Pointer(cv))
	}
	defer func() {
		if dict != nil {
			C.av_dict_free(&dict)
		}
	}()

	var curl *C.char
	if opts.URL != "" {
		curl = C.CString(opts.URL)
		defer C.free(unsafe.Pointer(curl))
	}

	ret := C.avformat_open_input(&fctx, curl, inputFormat, &dict)
	if ret < 0 {
		return nil, nil, Code(ret).Err()
	}

	if ret = C.avformat_find_stream_info(fctx, nil); ret < 0 {
		C.avformat_close_input(&fctx)
		return nil, nil, Code(ret).Err()
	}

	streams := streamDescriptorsFromContext(fctx)
	return FormatContext(fctx), streams, nil
}

func streamDescriptorsFromContext(fctx *C.AVFormatContext) []StreamDescriptor {
	n := int(fctx.nb_streams)
	out := make([]StreamDescriptor, n)
	cstreams := (*[1 << 16]*C.AVStream)(unsafe.Pointer(fctx.streams))[:n:n]
	for i, st := range cstreams {
		p := st.codecpar
		out[i] = StreamDescriptor{
			Index:        i,
			MediaType:    int(p.codec_type),
			CodecID:      int(p.codec_id),
			TimeBase:     fromCRational(st.time_base),
			Width:        int(p.width),
			Height:       int(p.height),
			PixFmt:       int(p.format),
			FrameRate:    fromCRational(st.r_frame_rate),
			SampleAspect: fromCRational(p.sample_aspect_ratio),
			SampleRate:   int(p.sample_rate),
			SampleFmt:    int(p.format),
			Channels:     int(p.ch_layout.nb_channels),
			BitRate:      int64(p.bit_rate),
			codecParams:  unsafe.Pointer(p),
		}
	}
	return out
}

// ProbeFormat is the non-destructive probe path (spec.md §4.1 probeFormat),
// distinct from OpenInput because it must not consume the source.
func ProbeFormat(buf []byte, filename string) (ProbeResult, bool) {
	var pd C.AVProbeData
	if len(buf) > 0 {
		pd.buf = (*C.uchar)(unsafe.Pointer(&buf[0]))
		pd.buf_size = C.int(len(buf))
	}
	if filename != "" {
		cf := C.CString(filename)
		defer C.free(unsafe.Pointer(cf))
		pd.filename = cf
	}
	var score C.int
	fmt := C.av_probe_input_format3(&pd, C.int(cbool(len(buf) > 0)), &score)
	if fmt == nil {
		return ProbeResult{}, false
	}
	return ProbeResult{
		FormatName: C.GoString(fmt.name),
		LongName:   C.GoString(fmt.long_name),
		MimeType:   C.GoString(fmt.mime_type),
		Extensions: C.GoString(fmt.extensions),
		Confidence: int(score),
		Matched:    true,
	}, true
}

// ReadPacketResult is the raw result of one av_read_frame call.
type ReadPacketResult struct {
	StreamIndex int
	Pts, Dts    int64
	Duration    int64
	Flags       int
	Data        []byte
	TimeBase    Rational
}

// ReadPacket pulls the next packet from the demuxer, or returns ok=false at
// EOF. Errors other than EOF are returned via err.
func ReadPacket(fctx FormatContext) (ReadPacketResult, bool, error) {
	c := (*C.AVFormatContext)(fctx)
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)

	ret := C.av_read_frame(c, pkt)
	if ret < 0 {
		if Code(ret).IsEOF() {
			return ReadPacketResult{}, false, nil
		}
		return ReadPacketResult{}, false, Code(ret).Err()
	}

	idx := int(pkt.stream_index)
	tb := Rational{1, 1}
	n := int(c.nb_streams)
	if idx >= 0 && idx < n {
		streams := (*[1 << 16]*C.AVStream)(unsafe.Pointer(c.streams))[:n:n]
		tb = fromCRational(streams[idx].time_base)
	}

	res := ReadPacketResult{
		StreamIndex: idx,
		Pts:         int64(pkt.pts),
		Dts:         int64(pkt.dts),
		Duration:    int64(pkt.duration),
		Flags:       int(pkt.flags),
		Data:        goBytes(unsafe.Pointer(pkt.data), pkt.size),
		TimeBase:    tb,
	}
	return res, true, nil
}

// Seek issues av_seek_frame on the given stream (or the format's default
// stream when streamIndex < 0).
func Seek(fctx FormatContext, streamIndex int, timestamp int64, flags int) error {
	c := (*C.AVFormatContext)(fctx)
	ret := C.av_seek_frame(c, C.int(streamIndex), C.int64_t(timestamp), C.int(flags))
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// CloseInput releases the demuxer's format context and any I/O context it
// owns (but not a caller-supplied custom IOContext, whose lifetime is the
// caller's responsibility — mirroring avpipe.go's InCloser indirection).
func CloseInput(fctx FormatContext, ownsIO bool) {
	c := (*C.AVFormatContext)(fctx)
	if c == nil {
		return
	}
	if !ownsIO {
		c.pb = nil
	}
	C.avformat_close_input(&c)
}

// --- Muxer side ---

// OpenOutputOptions configures OpenOutput.
type OpenOutputOptions struct {
	URL       string
	Format    string // required for callback sinks
	IOContext IOContext
}

// OpenOutput allocates an output format context. The format name is
// required when IOContext is set (spec.md §4.2: "required explicitly for
// callback sinks") since there is no path/extension to infer it from.
func OpenOutput(opts OpenOutputOptions) (FormatContext, error) {
	var fctx *C.AVFormatContext
	var curl, cformat *C.char
	if opts.URL != "" {
		curl = C.CString(opts.URL)
		defer C.free(unsafe.Pointer(curl))
	}
	if opts.Format != "" {
		cformat = C.CString(opts.Format)
		defer C.free(unsafe.Pointer(cformat))
	}

	ret := C.avformat_alloc_output_context2(&fctx, nil, cformat, curl)
	if ret < 0 || fctx == nil {
		if ret >= 0 {
			ret = C.int(C.AVERROR(C.EINVAL))
		}
		return nil, Code(ret).Err()
	}

	if opts.IOContext != nil {
		fctx.pb = (*C.AVIOContext)(opts.IOContext)
		fctx.flags |= C.AVFMT_FLAG_CUSTOM_IO
	} else if fctx.oformat.flags&C.AVFMT_NOFILE == 0 {
		ret = C.avio_open(&fctx.pb, curl, C.AVIO_FLAG_WRITE)
		if ret < 0 {
			C.avformat_free_context(fctx)
			return nil, Code(ret).Err()
		}
	}

	return FormatContext(fctx), nil
}

// AddOutputStreamFromParams creates a new AVStream in the muxer and copies
// codec parameters + time base from an upstream encoder or input stream.
func AddOutputStreamFromParams(fctx FormatContext, srcParams unsafe.Pointer, tb Rational) (int, error) {
	c := (*C.AVFormatContext)(fctx)
	st := C.avformat_new_stream(c, nil)
	if st == nil {
		return -1, (&NativeError{msg: "avformat_new_stream failed"})
	}
	ret := C.avcodec_parameters_copy(st.codecpar, (*C.AVCodecParameters)(srcParams))
	if ret < 0 {
		return -1, Code(ret).Err()
	}
	st.codecpar.codec_tag = 0
	st.time_base = tb.c()
	return int(st.index), nil
}

// WriteHeader writes the muxer header.
func WriteHeader(fctx FormatContext) error {
	c := (*C.AVFormatContext)(fctx)
	ret := C.avformat_write_header(c, nil)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// WritePacketInput is the rescaled, stream-indexed packet handed to the
// interleaved writer.
type WritePacketInput struct {
	StreamIndex int
	Pts, Dts    int64
	Duration    int64
	Flags       int
	Data        []byte
}

// WritePacket rescales timestamps are assumed already applied by the
// caller (root package owns rescale(), since it has both source and
// destination time bases); this just builds the AVPacket and calls
// av_interleaved_write_frame.
func WritePacket(fctx FormatContext, in WritePacketInput) error {
	c := (*C.AVFormatContext)(fctx)
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)

	if len(in.Data) > 0 {
		if ret := C.av_new_packet(pkt, C.int(len(in.Data))); ret < 0 {
			return Code(ret).Err()
		}
		C.memcpy(unsafe.Pointer(pkt.data), unsafe.Pointer(&in.Data[0]), C.size_t(len(in.Data)))
	}
	pkt.stream_index = C.int(in.StreamIndex)
	pkt.pts = C.int64_t(in.Pts)
	pkt.dts = C.int64_t(in.Dts)
	pkt.duration = C.int64_t(in.Duration)
	pkt.flags = C.int(in.Flags)

	ret := C.av_interleaved_write_frame(c, pkt)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// WriteTrailer flushes and writes the trailer.
func WriteTrailer(fctx FormatContext) error {
	c := (*C.AVFormatContext)(fctx)
	ret := C.av_write_trailer(c)
	if ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// CloseOutput releases the muxer's format context and, if it owns its I/O
// context (opened from a path rather than a caller-supplied IOContext),
// that too.
func CloseOutput(fctx FormatContext, ownsIO bool) {
	c := (*C.AVFormatContext)(fctx)
	if c == nil {
		return
	}
	if ownsIO && c.pb != nil && c.oformat.flags&C.AVFMT_NOFILE == 0 {
		C.avio_closep(&c.pb)
	}
	if !ownsIO {
		c.pb = nil
	}
	C.avformat_free_context(c)
}

// CodecParamsPointer exposes the opaque AVCodecParameters pointer embedded
// in a StreamDescriptor, for AddOutputStreamFromParams and for configuring
// a Decoder/BitstreamFilter from it.
func (s StreamDescriptor) CodecParamsPointer() unsafe.Pointer {
	return s.codecParams
}
