package av

// PacketSequence and FrameSequence are the pull-based lazy sequence
// abstraction spec.md §9's design notes ask for in place of replicating
// a generator/coroutine construct from the original implementation: each
// stage exposes a Next method returning (element, ok, error) instead of
// pushing into a channel or callback, so a caller controls backpressure
// simply by not calling Next again.
//
// ok is false with err == nil at end of stream; ok is false with err !=
// nil on failure. Exactly one of element/ok/err is meaningful per spec.md
// §8's "never both ok and a non-nil error."
type PacketSequence interface {
	Next() (*Packet, bool, error)
}

// FrameSequence is the Frame analogue of PacketSequence.
type FrameSequence interface {
	Next() (*Frame, bool, error)
}

// PacketSequenceFunc adapts a plain function to PacketSequence.
type PacketSequenceFunc func() (*Packet, bool, error)

// Next implements PacketSequence.
func (f PacketSequenceFunc) Next() (*Packet, bool, error) { return f() }

// FrameSequenceFunc adapts a plain function to FrameSequence.
type FrameSequenceFunc func() (*Frame, bool, error)

// Next implements FrameSequence.
func (f FrameSequenceFunc) Next() (*Frame, bool, error) { return f() }

// DrainPackets pulls every remaining element from seq, releasing each
// packet after fn returns. It stops at the first error or end of stream.
// Used by tests and by PipelineCopy (pipeline.go).
func DrainPackets(seq PacketSequence, fn func(*Packet) error) error {
	for {
		pkt, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		err = fn(pkt)
		pkt.Release()
		if err != nil {
			return err
		}
	}
}

// DrainFrames is the Frame analogue of DrainPackets.
func DrainFrames(seq FrameSequence, fn func(*Frame) error) error {
	for {
		f, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		err = fn(f)
		f.Release()
		if err != nil {
			return err
		}
	}
}
