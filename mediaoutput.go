package av

import (
	"io"
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

// MediaOutputOptions configures CreateMediaOutput.
type MediaOutputOptions struct {
	// Format is required when writing to a callback sink, since there is
	// no path/extension to infer a muxer from (spec.md §4.2).
	Format     string
	BufferSize int
	// OnStat, when set, is invoked for every StatBytesWritten and
	// StatEncodingEndPts event (spec.md §4.2 supplemented from
	// avpipe.go's IOHandler.Stat instrumentation; see SPEC_FULL.md).
	OnStat StatFunc
}

// MediaOutput muxes Packets from one or more elementary streams into a
// container (spec.md §4.2). Streams must be added (AddStreamCopy or
// AddStreamFromEncoder) before WriteHeader, and WriteHeader must
// complete before any WritePacket call — this module does not attempt to
// replicate libavformat's header-rewrite-on-first-packet leniency.
type MediaOutput struct {
	fctx        native.FormatContext
	streamTBs   []Rational
	ioContext   native.IOContext
	ownsIO      bool
	headerDone  bool
	trailerDone bool
	closed      bool
	onStat      StatFunc
}

// CreateMediaOutput creates a muxer writing to a path or URL.
func CreateMediaOutput(url string, opts MediaOutputOptions) (*MediaOutput, error) {
	const op = "CreateMediaOutput"
	fctx, err := native.OpenOutput(native.OpenOutputOptions{URL: url, Format: opts.Format})
	if err != nil {
		logError(op, "url", url, "error", err)
		return nil, wrapNative(KindWriteFailed, op, err)
	}
	logInfo(op, "url", url, "format", opts.Format)
	return &MediaOutput{fctx: fctx, ownsIO: true, onStat: opts.OnStat}, nil
}

// CreateMediaOutputCallbacks creates a muxer writing through an
// arbitrary io.WriteSeeker.
func CreateMediaOutputCallbacks(w io.WriteSeeker, opts MediaOutputOptions) (*MediaOutput, error) {
	const op = "CreateMediaOutputCallbacks"
	if opts.Format == "" {
		return nil, newErr(KindInvalidArgument, op, "Format is required for callback sinks", nil)
	}
	bridge := &writeSeekCloser{WriteSeeker: w}
	ioctx := native.NewWriterIOContext(bridge, opts.BufferSize)

	fctx, err := native.OpenOutput(native.OpenOutputOptions{Format: opts.Format, IOContext: ioctx})
	if err != nil {
		native.FreeIOContext(ioctx)
		return nil, wrapNative(KindWriteFailed, op, err)
	}
	return &MediaOutput{fctx: fctx, ioContext: ioctx, ownsIO: true, onStat: opts.OnStat}, nil
}

// AddStreamCopy adds a new output stream copying codec parameters and
// time base from an input stream, for pass-through (no decode/encode)
// pipelines.
func (m *MediaOutput) AddStreamCopy(stream StreamInfo) (int, error) {
	const op = "MediaOutput.AddStreamCopy"
	if m.headerDone {
		return -1, newErr(KindInvalidState, op, "header already written, streams can no longer be added", nil)
	}
	idx, err := native.AddOutputStreamFromParams(m.fctx, stream.raw.CodecParamsPointer(), native.Rational{Num: stream.TimeBase.Num, Den: stream.TimeBase.Den})
	if err != nil {
		return -1, wrapNative(KindWriteFailed, op, err)
	}
	m.growStreamTBs(idx, stream.TimeBase)
	return idx, nil
}

// AddStreamFromEncoder adds a new output stream from an opened Encoder's
// settled parameters and time base.
func (m *MediaOutput) AddStreamFromEncoder(enc *Encoder) (int, error) {
	const op = "MediaOutput.AddStreamFromEncoder"
	if m.headerDone {
		return -1, newErr(KindInvalidState, op, "header already written, streams can no longer be added", nil)
	}
	params := enc.Parameters()
	tb := enc.TimeBase()
	idx, err := native.AddOutputStreamFromParams(m.fctx, unsafe.Pointer(params), native.Rational{Num: tb.Num, Den: tb.Den})
	if err != nil {
		return -1, wrapNative(KindWriteFailed, op, err)
	}
	m.growStreamTBs(idx, tb)
	return idx, nil
}

func (m *MediaOutput) growStreamTBs(idx int, tb Rational) {
	for len(m.streamTBs) <= idx {
		m.streamTBs = append(m.streamTBs, Rational{})
	}
	m.streamTBs[idx] = tb
}

// WriteHeader writes the container header. Must be called exactly once,
// after every stream has been added.
func (m *MediaOutput) WriteHeader() error {
	const op = "MediaOutput.WriteHeader"
	if m.headerDone {
		return newErr(KindInvalidState, op, "header already written", nil)
	}
	if len(m.streamTBs) == 0 {
		return newErr(KindInvalidState, op, "no streams added before WriteHeader", nil)
	}
	if err := native.WriteHeader(m.fctx); err != nil {
		return wrapNative(KindWriteFailed, op, err)
	}
	m.headerDone = true
	return nil
}

// WritePacket rescales p's timestamps into its destination stream's time
// base and writes it via the interleaving writer.
func (m *MediaOutput) WritePacket(p *Packet) error {
	const op = "MediaOutput.WritePacket"
	if !m.headerDone {
		return newErr(KindInvalidState, op, "WriteHeader has not been called", nil)
	}
	if p.StreamIndex < 0 || p.StreamIndex >= len(m.streamTBs) {
		return newErr(KindInvalidArgument, op, "packet references an unknown output stream", nil)
	}
	rescaled := p.Rescaled(m.streamTBs[p.StreamIndex])
	err := native.WritePacket(m.fctx, native.WritePacketInput{
		StreamIndex: rescaled.StreamIndex, Pts: rescaled.Pts, Dts: rescaled.Dts,
		Duration: rescaled.Duration, Flags: int(rescaled.Flags), Data: rescaled.Data,
	})
	dataLen := len(rescaled.Data)
	pts := rescaled.Pts
	rescaled.Release()
	if err != nil {
		return wrapNative(KindWriteFailed, op, err)
	}
	if m.onStat != nil {
		m.onStat(StatBytesWritten, int64(dataLen))
		m.onStat(StatEncodingEndPts, pts)
	}
	return nil
}

// WriteTrailer flushes and writes the container trailer. Must be called
// exactly once, after every packet has been written.
func (m *MediaOutput) WriteTrailer() error {
	const op = "MediaOutput.WriteTrailer"
	if !m.headerDone {
		return newErr(KindInvalidState, op, "WriteHeader has not been called", nil)
	}
	if m.trailerDone {
		return newErr(KindInvalidState, op, "trailer already written", nil)
	}
	if err := native.WriteTrailer(m.fctx); err != nil {
		return wrapNative(KindWriteFailed, op, err)
	}
	m.trailerDone = true
	return nil
}

// Close releases the muxer and, if owned, its I/O context. Idempotent.
// If a header was written but no trailer, Close flushes the trailer first
// (spec.md §4.2: close "from any state writes the trailer if a header was
// written and a trailer was not").
func (m *MediaOutput) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.headerDone && !m.trailerDone {
		if err := native.WriteTrailer(m.fctx); err != nil {
			logWarn("MediaOutput.Close", "error", err)
		} else {
			m.trailerDone = true
		}
	}
	native.CloseOutput(m.fctx, m.ownsIO)
	if m.ownsIO {
		native.FreeIOContext(m.ioContext)
	}
	logDebug("MediaOutput.Close")
}

type writeSeekCloser struct {
	io.WriteSeeker
}

func (writeSeekCloser) Close() error { return nil }
