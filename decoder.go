package av

import (
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

// DecoderOptions configures NewDecoder.
type DecoderOptions struct {
	// CodecName forces a specific decoder implementation (e.g.
	// "h264_cuvid"); empty selects libav's default decoder for the
	// stream's codec ID.
	CodecName string
	Threads   int
	Dict      map[string]string
	// Hardware binds the decoder to a device context so its output
	// frames carry a hw_frames_ctx instead of plain software planes.
	Hardware *HardwareContext
}

// Decoder turns compressed Packets from one stream into uncompressed
// Frames (spec.md §4.3). It holds the send/receive pump state internally:
// a packet that is accepted by sendPacket may still have zero, one, or
// many frames pending across subsequent receiveFrame calls, and a decoder
// that returns "needs more input" must be fed again before it will yield
// anything further.
type Decoder struct {
	ctx       native.CodecContext
	mediaType MediaType
	timeBase  Rational
	flushing  bool
	closed    bool
}

// NewDecoder opens a decoder for the given stream, as returned by
// MediaInput.Streams().
func NewDecoder(stream StreamInfo, opts DecoderOptions) (*Decoder, error) {
	const op = "NewDecoder"
	codec, ok := native.FindDecoder(stream.raw.CodecID, opts.CodecName)
	if !ok {
		return nil, newErr(KindCodecNotFound, op, "decoder not found for stream "+stream.CodecName, nil)
	}

	openOpts := native.CodecOpenOptions{Threads: opts.Threads, Dict: opts.Dict}
	if opts.Hardware != nil {
		openOpts.HWDeviceCtx = unsafe.Pointer(opts.Hardware.devicePointer())
	}
	ctx, err := native.OpenDecoderFromParams(codec, stream.raw.CodecParamsPointer(), stream.raw.TimeBase, openOpts)
	if err != nil {
		logError(op, "codec", stream.CodecName, "error", err)
		return nil, wrapNative(KindCodecOpenFailed, op, err)
	}
	logInfo(op, "codec", stream.CodecName, "stream", stream.Index, "hardware", opts.Hardware != nil)

	return &Decoder{
		ctx:       ctx,
		mediaType: stream.MediaType,
		timeBase:  stream.TimeBase,
	}, nil
}

// TimeBase returns the time base frames emitted by this decoder are
// stamped in (the stream's time base, unchanged by decoding).
func (d *Decoder) TimeBase() Rational {
	return d.timeBase
}

// Send pushes one compressed packet into the decoder. It does not itself
// produce a Frame — call Receive (directly or via Sequence) until it
// reports "needs more input" before calling Send again, per the
// send/receive pump spec.md §4.3 describes.
func (d *Decoder) Send(p *Packet) error {
	const op = "Decoder.Send"
	if d.closed {
		return newErr(KindInvalidState, op, "decoder is closed", nil)
	}
	in := &native.SendPacketInput{Pts: p.Pts, Dts: p.Dts, Duration: p.Duration, Flags: int(p.Flags), Data: p.Data}
	err := native.SendPacket(d.ctx, in)
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && code.IsAgain() {
		return newErr(KindInvalidState, op, "decoder needs its output drained before accepting more input", err)
	}
	return wrapNative(KindDecodeFailed, op, err)
}

// SendEOF signals end-of-stream to the decoder so it starts draining any
// frames it has buffered internally (e.g. B-frame reordering).
func (d *Decoder) SendEOF() error {
	const op = "Decoder.SendEOF"
	if d.closed {
		return newErr(KindInvalidState, op, "decoder is closed", nil)
	}
	d.flushing = true
	err := native.SendPacket(d.ctx, nil)
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
		return nil
	}
	return wrapNative(KindDecodeFailed, op, err)
}

// Receive pulls the next available frame. ok is false with err == nil
// when the decoder needs more input (call Send again) or, after
// SendEOF, when draining has completed.
func (d *Decoder) Receive() (*Frame, bool, error) {
	const op = "Decoder.Receive"
	rf, err := native.ReceiveFrame(d.ctx)
	if err != nil {
		if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
			return nil, false, nil
		}
		return nil, false, wrapNative(KindDecodeFailed, op, err)
	}
	return frameFromRaw(rf, d.mediaType, d.timeBase), true, nil
}

// Sequence returns a FrameSequence pulling from this decoder. Packets
// must be fed to Send (and SendEOF at end of input) from the same
// goroutine that drives the sequence, since a Decoder is not safe for
// concurrent use (spec.md §5).
func (d *Decoder) Sequence() FrameSequence {
	return FrameSequenceFunc(d.Receive)
}

// Flush resets the decoder's internal buffering, discarding any
// in-flight state, for use across a discontinuous seek.
func (d *Decoder) Flush() {
	native.FlushBuffers(d.ctx)
	d.flushing = false
}

// Close releases the decoder context. Idempotent.
func (d *Decoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	native.CloseCodec(d.ctx)
	logDebug("Decoder.Close")
}

func frameFromRaw(rf *native.RawFrame, mt MediaType, tb Rational) *Frame {
	return &Frame{
		MediaType:    mt,
		Pts:          rf.Pts,
		TimeBase:     tb,
		Width:        rf.Width,
		Height:       rf.Height,
		PixelFormat:  rf.PixFmt,
		SampleAspect: NewRational(rf.SampleAspect.Num, rf.SampleAspect.Den),
		SampleRate:   rf.SampleRate,
		SampleFormat: rf.SampleFmt,
		Channels:     rf.Channels,
		NumSamples:   rf.NumSamples,
		Planes:       rf.Data,
		HWFramesCtx:  rf.HWFramesCtx,
	}
}

func frameToRaw(f *Frame) *native.RawFrame {
	return &native.RawFrame{
		Pts:          f.Pts,
		Width:        f.Width,
		Height:       f.Height,
		PixFmt:       f.PixelFormat,
		SampleAspect: native.Rational{Num: f.SampleAspect.Num, Den: f.SampleAspect.Den},
		SampleRate:   f.SampleRate,
		SampleFmt:    f.SampleFormat,
		Channels:     f.Channels,
		NumSamples:   f.NumSamples,
		Data:         f.Planes,
		HWFramesCtx:  f.HWFramesCtx,
	}
}
