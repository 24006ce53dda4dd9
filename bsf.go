package av

import "github.com/seydx/av-sub014/internal/native"

// BitstreamFilter rewrites compressed packets without touching pixel or
// sample data (spec.md §4.6) — e.g. "h264_mp4toannexb" when muxing into a
// raw Annex B container, or "extract_extradata" when the caller needs
// out-of-band headers inline. Constructed by name against a source
// stream, whose codec parameters and time base it copies in at open time.
type BitstreamFilter struct {
	ctx    native.BSFContext
	tb     Rational
	closed bool
}

// NewBitstreamFilter opens a bitstream filter by name, configured from
// the given stream's codec parameters, as returned by
// MediaInput.Streams().
func NewBitstreamFilter(name string, stream StreamInfo) (*BitstreamFilter, error) {
	const op = "NewBitstreamFilter"
	ctx, err := native.OpenBSF(name, stream.raw.CodecParamsPointer(), stream.raw.TimeBase)
	if err != nil {
		logError(op, "name", name, "error", err)
		return nil, wrapNative(KindBsfFailed, op, err)
	}
	logInfo(op, "name", name, "stream", stream.Index)
	return &BitstreamFilter{ctx: ctx, tb: rationalFromNative(native.OutputTimeBaseBSF(ctx))}, nil
}

// TimeBase returns the filter's output time base.
func (b *BitstreamFilter) TimeBase() Rational {
	return b.tb
}

// Send pushes one packet into the filter.
func (b *BitstreamFilter) Send(p *Packet) error {
	const op = "BitstreamFilter.Send"
	if b.closed {
		return newErr(KindInvalidState, op, "bitstream filter is closed", nil)
	}
	in := &native.SendPacketInput{Pts: p.Pts, Dts: p.Dts, Duration: p.Duration, Flags: int(p.Flags), Data: p.Data}
	err := native.SendBSFPacket(b.ctx, in)
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && code.IsAgain() {
		return newErr(KindInvalidState, op, "bitstream filter needs its output drained before accepting more input", err)
	}
	return wrapNative(KindBsfFailed, op, err)
}

// SendEOF signals end-of-stream to the filter.
func (b *BitstreamFilter) SendEOF() error {
	const op = "BitstreamFilter.SendEOF"
	err := native.SendBSFPacket(b.ctx, nil)
	if err == nil {
		return nil
	}
	if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
		return nil
	}
	return wrapNative(KindBsfFailed, op, err)
}

// Receive pulls the next of potentially many output packets (spec.md
// §4.6: "zero, one, or many outputs" per input packet — e.g.
// extract_extradata can emit a synthetic extra packet ahead of the
// rewritten one). ok is false with err == nil when the filter needs
// another Send, or has finished draining.
func (b *BitstreamFilter) Receive() (*Packet, bool, error) {
	const op = "BitstreamFilter.Receive"
	res, err := native.ReceiveBSFPacket(b.ctx)
	if err != nil {
		if code, ok := err.(native.Code); ok && (code.IsAgain() || code.IsEOF()) {
			return nil, false, nil
		}
		return nil, false, wrapNative(KindBsfFailed, op, err)
	}
	return &Packet{
		Pts: res.Pts, Dts: res.Dts, Duration: res.Duration,
		Flags: PacketFlag(res.Flags), TimeBase: b.tb, Data: res.Data,
	}, true, nil
}

// Sequence returns a PacketSequence pulling from this filter.
func (b *BitstreamFilter) Sequence() PacketSequence {
	return PacketSequenceFunc(b.Receive)
}

// Reset returns the filter to its post-construction state (spec.md §8:
// reset() is idempotent and safe to call at any time, including
// immediately after construction).
func (b *BitstreamFilter) Reset() error {
	const op = "BitstreamFilter.Reset"
	if b.closed {
		return newErr(KindInvalidState, op, "bitstream filter is closed", nil)
	}
	if err := native.ResetBSF(b.ctx); err != nil {
		return wrapNative(KindBsfFailed, op, err)
	}
	return nil
}

// Close releases the filter context. Idempotent.
func (b *BitstreamFilter) Close() {
	if b.closed {
		return
	}
	b.closed = true
	native.FreeBSF(b.ctx)
	logDebug("BitstreamFilter.Close")
}
