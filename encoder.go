package av

import (
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

// VideoEncoderParams configures NewVideoEncoder.
type VideoEncoderParams struct {
	CodecName    string
	Width        int
	Height       int
	PixelFormat  int
	SampleAspect Rational
	FrameRate    Rational
	TimeBase     Rational
	BitRate      int64
	GopSize      int
	MaxBFrames   int
	Threads      int
	Dict         map[string]string
}

// AudioEncoderParams configures NewAudioEncoder.
type AudioEncoderParams struct {
	CodecName     string
	SampleRate    int
	SampleFormat  int
	ChannelLayout uint64
	Channels      int
	BitRate       int64
	Threads       int
	Dict          map[string]string
}

// Encoder turns uncompressed Frames into compressed Packets for one
// elementary stream (spec.md §4.4). Like Decoder, it holds send/receive
// pump state: Send may need draining via Receive before it accepts
// another frame.
//
// Encoder moves through Configured → Open → Closed. NewVideoEncoder and
// NewAudioEncoder only resolve and validate the named codec; the
// avcodec_open2 call is deferred to the first Send, so that a video
// encoder can detect hardware acceleration from that first frame's
// hw-frames-ctx reference rather than from an explicit constructor option
// (spec.md §4.4). Once open, every subsequent frame must carry the same
// hw-frames-ctx (or, for software encoders, none at all).
type Encoder struct {
	codec     unsafe.Pointer
	mediaType MediaType
	codecName string

	video *VideoEncoderParams
	audio *AudioEncoderParams

	ctx         native.CodecContext
	outTB       Rational
	opened      bool
	hwFramesCtx unsafe.Pointer
	closed      bool
}

// NewVideoEncoder resolves a video encoder by name. Opening is deferred
// to the first Send.
func NewVideoEncoder(p VideoEncoderParams) (*Encoder, error) {
	const op = "NewVideoEncoder"
	codec, ok := native.FindEncoder(0, p.CodecName)
	if !ok {
		return nil, newErr(KindCodecNotFound, op, "encoder not found: "+p.CodecName, nil)
	}
	logInfo(op, "codec", p.CodecName, "width", p.Width, "height", p.Height)
	params := p
	return &Encoder{codec: codec, mediaType: MediaTypeVideo, codecName: p.CodecName, video: &params}, nil
}

// NewAudioEncoder resolves an audio encoder by name. Opening is deferred
// to the first Send.
func NewAudioEncoder(p AudioEncoderParams) (*Encoder, error) {
	const op = "NewAudioEncoder"
	codec, ok := native.FindEncoder(0, p.CodecName)
	if !ok {
		return nil, newErr(KindCodecNotFound, op, "encoder not found: "+p.CodecName, nil)
	}
	logInfo(op, "codec", p.CodecName, "sample_rate", p.SampleRate, "channels", p.Channels)
	params := p
	return &Encoder{codec: codec, mediaType: MediaTypeAudio, codecName: p.CodecName, audio: &params}, nil
}

// IsHardware reports whether the encoder adopted a hardware-frames
// context from its first frame. Meaningless before the encoder has
// opened.
func (e *Encoder) IsHardware() bool {
	return e.hwFramesCtx != nil
}

// TimeBase returns the time base an opened encoder settled on; libav may
// adjust the requested time base during open. Zero before the encoder has
// opened.
func (e *Encoder) TimeBase() Rational {
	return e.outTB
}

// open performs the deferred avcodec_open2 call, adopting f's
// hw-frames-ctx (spec.md §4.4: "if the first frame is a hardware frame,
// the encoder adopts that hardware-frames context before opening;
// otherwise it opens as software").
func (e *Encoder) open(f *Frame) error {
	const op = "Encoder.Send"
	var params native.EncoderParams
	switch {
	case e.video != nil:
		p := e.video
		params = native.EncoderParams{
			MediaType:    native.MediaTypeVideo,
			Width:        p.Width,
			Height:       p.Height,
			PixFmt:       p.PixelFormat,
			SampleAspect: native.Rational{Num: p.SampleAspect.Num, Den: p.SampleAspect.Den},
			FrameRate:    native.Rational{Num: p.FrameRate.Num, Den: p.FrameRate.Den},
			TimeBase:     native.Rational{Num: p.TimeBase.Num, Den: p.TimeBase.Den},
			BitRate:      p.BitRate,
			GopSize:      p.GopSize,
			MaxBFrames:   p.MaxBFrames,
			Threads:      p.Threads,
		}
		if f.HWFramesCtx != nil {
			params.HWFramesCtx = f.HWFramesCtx
			params.HWPixFmt = f.PixelFormat
		}
	case e.audio != nil:
		p := e.audio
		params = native.EncoderParams{
			MediaType:     native.MediaTypeAudio,
			SampleRate:    p.SampleRate,
			SampleFmt:     p.SampleFormat,
			ChannelLayout: p.ChannelLayout,
			Channels:      p.Channels,
			BitRate:       p.BitRate,
			Threads:       p.Threads,
		}
	default:
		return newErr(KindInvalidState, op, "encoder has no configuration", nil)
	}

	var dictMap map[string]string
	if e.video != nil {
		dictMap = e.video.Dict
	} else {
		dictMap = e.audio.Dict
	}

	ctx, err := native.OpenEncoder(e.codec, params, dictMap)
	if err != nil {
		logError(op, "codec", e.codecName, "error", err)
		return wrapNative(KindCodecOpenFailed, op, err)
	}
	e.ctx = ctx
	e.opened = true
	e.hwFramesCtx = f.HWFramesCtx
	e.outTB = rationalFromNative(native.OutputTimeBase(ctx))
	logInfo(op, "codec", e.codecName, "hardware", e.hwFramesCtx != nil)
	return nil
}

// Send pushes one frame into the encoder, performing the deferred open on
// the first call.
func (e *Encoder) Send(f *Frame) error {
	const op = "Encoder.Send"
	if e.closed {
		return newErr(KindInvalidState, op, "encoder is closed", nil)
	}
	if !e.opened {
		if err := e.open(f); err != nil {
			return err
		}
	} else if e.mediaType == MediaTypeVideo && f.HWFramesCtx != e.hwFramesCtx {
		return newErr(KindHardwareIncompatible, op, "frame's hardware-frames context does not match the one adopted at open", nil)
	}

	err := native.SendFrame(e.ctx, frameToRaw(f))
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && code.IsAgain() {
		return newErr(KindInvalidState, op, "encoder needs its output drained before accepting more input", err)
	}
	return wrapNative(KindEncodeFailed, op, err)
}

// SendEOF signals end-of-stream, starting the encoder's flush. An encoder
// that never received a frame has nothing to flush.
func (e *Encoder) SendEOF() error {
	const op = "Encoder.SendEOF"
	if e.closed {
		return newErr(KindInvalidState, op, "encoder is closed", nil)
	}
	if !e.opened {
		return nil
	}
	err := native.SendFrame(e.ctx, nil)
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
		return nil
	}
	return wrapNative(KindEncodeFailed, op, err)
}

// Receive pulls the next available packet. ok is false with err == nil
// when the encoder needs more input, or when draining has completed.
func (e *Encoder) Receive() (*Packet, bool, error) {
	const op = "Encoder.Receive"
	if !e.opened {
		return nil, false, nil
	}
	res, err := native.ReceivePacket(e.ctx)
	if err != nil {
		if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
			return nil, false, nil
		}
		return nil, false, wrapNative(KindEncodeFailed, op, err)
	}
	return &Packet{
		Pts: res.Pts, Dts: res.Dts, Duration: res.Duration,
		Flags: PacketFlag(res.Flags), TimeBase: e.outTB, Data: res.Data,
	}, true, nil
}

// Sequence returns a PacketSequence pulling from this encoder.
func (e *Encoder) Sequence() PacketSequence {
	return PacketSequenceFunc(e.Receive)
}

// Parameters extracts the opened encoder's codec parameters, for use by
// MediaOutput.AddStreamFromEncoder. Only valid once the encoder has
// opened (after its first Send).
func (e *Encoder) Parameters() unsafe.Pointer {
	if !e.opened {
		return nil
	}
	return native.ExtractParameters(e.ctx)
}

// Close releases the encoder context. Never releases the hardware
// context a frame's hw-frames-ctx pointed into — that belongs to whoever
// created it. Idempotent and safe to call on an encoder that never
// opened.
func (e *Encoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.opened {
		native.CloseCodec(e.ctx)
	}
	logDebug("Encoder.Close")
}

func rationalFromNative(r native.Rational) Rational {
	return NewRational(r.Num, r.Den)
}
