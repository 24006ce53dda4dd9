package av

// PacketFlag mirrors the subset of AVPacket flags this module's callers
// need to observe.
type PacketFlag int

const (
	PacketFlagKey PacketFlag = 1 << iota
	PacketFlagCorrupt
	PacketFlagDiscard
)

// Packet is a compressed, timestamped unit of one elementary stream
// (spec.md §3). A Packet is uniquely owned by whichever stage currently
// holds it; Release must be called exactly once on every path, including
// error paths — callers that hand a Packet to another stage transfer that
// ownership and must not call Release themselves afterward.
type Packet struct {
	StreamIndex int
	Pts         int64
	Dts         int64
	Duration    int64
	Flags       PacketFlag
	TimeBase    Rational
	Data        []byte

	released bool
}

// IsKeyframe reports whether the keyframe flag is set.
func (p *Packet) IsKeyframe() bool {
	return p.Flags&PacketFlagKey != 0
}

// Clone makes an independent copy of the packet, including its backing
// buffer, so the clone can be released independently of the original —
// used when a BitstreamFilter or pipeline fan-out needs to hand the same
// logical packet to more than one downstream consumer.
func (p *Packet) Clone() *Packet {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return &Packet{
		StreamIndex: p.StreamIndex,
		Pts:         p.Pts,
		Dts:         p.Dts,
		Duration:    p.Duration,
		Flags:       p.Flags,
		TimeBase:    p.TimeBase,
		Data:        data,
	}
}

// Release returns the packet's resources. Idempotent: a second Release is
// a silent no-op, the same tolerance spec.md asks of close() on every
// component.
func (p *Packet) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.Data = nil
}

// Rescaled returns a copy of p with timestamps rescaled into the target
// time base, used by MediaOutput.WritePacket (spec.md §4.2 invariant #3 in
// §8).
func (p *Packet) Rescaled(to Rational) *Packet {
	out := p.Clone()
	out.Pts = Rescale(p.Pts, p.TimeBase, to)
	out.Dts = Rescale(p.Dts, p.TimeBase, to)
	out.Duration = Rescale(p.Duration, p.TimeBase, to)
	out.TimeBase = to
	return out
}
