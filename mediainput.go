package av

import (
	"io"

	"github.com/seydx/av-sub014/internal/iobuf"
	"github.com/seydx/av-sub014/internal/native"
)

// MediaInputOptions configures OpenMediaInput/OpenMediaInputCallbacks.
type MediaInputOptions struct {
	// Format forces a specific demuxer by name; empty autodetects.
	// OpenMediaInputCallbacks takes its format as a separate argument and
	// ignores this field.
	Format string
	Dict   map[string]string
	// BufferSize sizes the AVIOContext buffer for callback sources;
	// zero picks a 32 KiB default.
	BufferSize int
	// OnStat, when set, is invoked for every StatBytesRead and (once)
	// StatDecodingStartPts event (spec.md §4.1 supplemented from
	// avpipe.go's IOHandler.Stat instrumentation; see SPEC_FULL.md).
	OnStat StatFunc
}

// MediaInput demuxes one container into Packets for each of its
// elementary streams (spec.md §4.1). It is opened from a path or, via
// OpenMediaInputCallbacks, from an arbitrary io.ReadSeeker so a caller
// can demux from memory, a pipe, or a live source fed through a
// RingBuffer.
type MediaInput struct {
	fctx        native.FormatContext
	streams     []StreamInfo
	ioContext   native.IOContext
	ownsIO      bool
	closer      io.Closer
	closed      bool
	onStat      StatFunc
	sawFirstPts bool
}

// ProbeFormat is the non-destructive probe path (spec.md §4.1
// probeFormat): it inspects a leading chunk of bytes (and optionally a
// filename hint) without opening or consuming the source.
func ProbeFormat(buf []byte, filename string) (ContainerInfo, bool) {
	res, ok := native.ProbeFormat(buf, filename)
	if !ok {
		return ContainerInfo{}, false
	}
	return containerInfoFromProbe(res), true
}

// OpenMediaInput opens a demuxer against a path or URL libavformat's
// protocol layer understands directly (file, http, rtmp, udp, ...).
func OpenMediaInput(url string, opts MediaInputOptions) (*MediaInput, error) {
	const op = "OpenMediaInput"
	fctx, descs, err := native.OpenInput(native.OpenInputOptions{
		URL: url, Format: opts.Format, Dict: opts.Dict,
	})
	if err != nil {
		logError(op, "url", url, "error", err)
		return nil, wrapNative(classifyOpenInputError(err), op, err)
	}
	logInfo(op, "url", url, "streams", len(descs))
	return &MediaInput{fctx: fctx, streams: streamInfosFromDescriptors(descs), onStat: opts.OnStat}, nil
}

// OpenMediaInputCallbacks opens a demuxer against an arbitrary
// io.ReadSeeker, bridging it through a custom AVIOContext (spec.md §4.1:
// "constructed from a ReadSeeker callback source"). format forces a
// demuxer by name, since there is no path/extension to infer one from;
// pass "" to let libavformat probe the stream's content.
func OpenMediaInputCallbacks(r io.ReadSeeker, format string, opts MediaInputOptions) (*MediaInput, error) {
	const op = "OpenMediaInputCallbacks"
	bridge := &readSeekCloser{ReadSeeker: r}
	ioctx := native.NewReaderIOContext(bridge, opts.BufferSize)

	fctx, descs, err := native.OpenInput(native.OpenInputOptions{
		Format: format, Dict: opts.Dict, IOContext: ioctx,
	})
	if err != nil {
		native.FreeIOContext(ioctx)
		return nil, wrapNative(classifyOpenInputError(err), op, err)
	}
	return &MediaInput{
		fctx: fctx, streams: streamInfosFromDescriptors(descs),
		ioContext: ioctx, ownsIO: true, onStat: opts.OnStat,
	}, nil
}

// OpenMediaInputRingBuffer opens a demuxer reading from a RingBuffer,
// the backpressure-bounded byte bridge this module uses for live/push
// sources (spec.md §4.1 + §4.8, supplementing the distilled spec with
// the live-source handling Eyevinn-avpipe's live package target).
// Callers write into rb from their own producer goroutine (a UDP reader,
// an upstream HTTP body, ...) and call rb.Close with iobuf.WriteClosed
// once the source is exhausted.
func OpenMediaInputRingBuffer(rb *iobuf.RingBuffer, format string, opts MediaInputOptions) (*MediaInput, error) {
	return OpenMediaInputCallbacks(ringBufferReadSeeker{rb}, format, opts)
}

func classifyOpenInputError(err error) Kind {
	if ne, ok := err.(*native.NativeError); ok {
		if ne.Code.IsEOF() {
			return KindSourceUnavailable
		}
	}
	return KindFormatNotRecognized
}

// Streams returns the demuxed container's elementary streams, as
// determined by avformat_find_stream_info at open time.
func (m *MediaInput) Streams() []StreamInfo {
	return m.streams
}

// ReadPacket pulls the next packet from any stream. ok is false with
// err == nil at end of stream.
func (m *MediaInput) ReadPacket() (*Packet, bool, error) {
	const op = "MediaInput.ReadPacket"
	if m.closed {
		return nil, false, newErr(KindInvalidState, op, "media input is closed", nil)
	}
	res, ok, err := native.ReadPacket(m.fctx)
	if err != nil {
		return nil, false, wrapNative(KindReadFailed, op, err)
	}
	if !ok {
		return nil, false, nil
	}
	if m.onStat != nil {
		m.onStat(StatBytesRead, int64(len(res.Data)))
		if !m.sawFirstPts {
			m.sawFirstPts = true
			m.onStat(StatDecodingStartPts, res.Pts)
		}
	}
	return &Packet{
		StreamIndex: res.StreamIndex, Pts: res.Pts, Dts: res.Dts,
		Duration: res.Duration, Flags: PacketFlag(res.Flags),
		TimeBase: NewRational(res.TimeBase.Num, res.TimeBase.Den), Data: res.Data,
	}, true, nil
}

// Sequence returns a PacketSequence pulling from this MediaInput.
func (m *MediaInput) Sequence() PacketSequence {
	return PacketSequenceFunc(m.ReadPacket)
}

// Seek repositions the demuxer. streamIndex < 0 seeks on the format
// context's default stream.
func (m *MediaInput) Seek(streamIndex int, timestamp int64, flags int) error {
	const op = "MediaInput.Seek"
	if err := native.Seek(m.fctx, streamIndex, timestamp, flags); err != nil {
		return wrapNative(KindSeekFailed, op, err)
	}
	return nil
}

// streamDescriptor exposes the underlying native descriptor for a stream
// index, for MediaOutput.AddStreamCopy.
func (m *MediaInput) streamDescriptor(index int) (StreamInfo, bool) {
	for _, s := range m.streams {
		if s.Index == index {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// Close releases the demuxer and, if this MediaInput owns its I/O
// context (opened via OpenMediaInputCallbacks/OpenMediaInputRingBuffer),
// that too. Idempotent.
func (m *MediaInput) Close() {
	if m.closed {
		return
	}
	m.closed = true
	native.CloseInput(m.fctx, m.ownsIO)
	if m.ownsIO {
		native.FreeIOContext(m.ioContext)
	}
	if m.closer != nil {
		m.closer.Close()
	}
	logDebug("MediaInput.Close")
}

// readSeekCloser adapts an io.ReadSeeker without a Close method to the
// native.IOReader contract, which also requires io.Closer.
type readSeekCloser struct {
	io.ReadSeeker
}

func (readSeekCloser) Close() error { return nil }

// ringBufferReadSeeker adapts a RingBuffer (Read/Write but no Seek) to
// native.IOReader; RingBuffer-backed sources are forward-only streams,
// matching spec.md §4.1's "Size() == -1, unseekable" raw-descriptor
// tolerance.
type ringBufferReadSeeker struct {
	rb *iobuf.RingBuffer
}

func (r ringBufferReadSeeker) Read(p []byte) (int, error) { return r.rb.Read(p) }

func (r ringBufferReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return 0, newErr(KindInvalidArgument, "MediaInput.Seek", "ring-buffer source is not seekable", nil)
}

func (r ringBufferReadSeeker) Close() error {
	return r.rb.Close(iobuf.ReadClosed)
}
