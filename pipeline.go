package av

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// This module does not offer a single generic "connect anything to
// anything" pipeline function. spec.md §9's design notes reject
// replicating the original implementation's dynamic overload resolution
// (deciding at runtime whether two stages are packet-compatible or
// frame-compatible); instead each legal coupling gets its own named,
// statically typed function, so a caller's type errors surface at
// compile time instead of as a runtime "incompatible stages" error.

// PacketReader is the read side of a MediaInput, narrowed so pipeline
// functions can be exercised against a fake in tests without opening a
// real container.
type PacketReader interface {
	ReadPacket() (*Packet, bool, error)
}

// PacketWriter is the write side of a MediaOutput.
type PacketWriter interface {
	WritePacket(*Packet) error
}

func packetSequenceOf(r PacketReader) PacketSequence {
	return PacketSequenceFunc(r.ReadPacket)
}

// PipelineCopy drains every packet from in and writes it to out, doing
// no decoding, filtering, or encoding — a pure stream-copy pipeline.
// streamMap translates an input stream index to the output stream index
// it was added under (via MediaOutput.AddStreamCopy); packets for
// indices absent from streamMap are silently dropped.
func PipelineCopy(in PacketReader, out PacketWriter, streamMap map[int]int) error {
	return DrainPackets(packetSequenceOf(in), func(p *Packet) error {
		dstIdx, ok := streamMap[p.StreamIndex]
		if !ok {
			return nil
		}
		cp := p.Clone()
		cp.StreamIndex = dstIdx
		err := out.WritePacket(cp)
		cp.Release()
		return err
	})
}

// PipelineTranscode drains packets for one input stream through a
// Decoder, an optional Filter, and an Encoder, writing the resulting
// packets to out under dstStreamIndex (added via
// MediaOutput.AddStreamFromEncoder). filter may be nil to skip filtering.
func PipelineTranscode(in PacketReader, srcStreamIndex int, dec *Decoder, filter *Filter, enc *Encoder, out PacketWriter, dstStreamIndex int) error {
	drainEncoder := func() error {
		for {
			pkt, ok, err := enc.Receive()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			pkt.StreamIndex = dstStreamIndex
			err = out.WritePacket(pkt)
			pkt.Release()
			if err != nil {
				return err
			}
		}
	}

	pushFrame := func(f *Frame) error {
		if filter == nil {
			return pushToEncoder(enc, f, drainEncoder)
		}
		if err := filter.Push(f); err != nil {
			return err
		}
		return DrainFrames(filter.Sequence(), func(ff *Frame) error {
			return pushToEncoder(enc, ff, drainEncoder)
		})
	}

	for {
		pkt, ok, err := in.ReadPacket()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if pkt.StreamIndex != srcStreamIndex {
			pkt.Release()
			continue
		}
		if err := dec.Send(pkt); err != nil {
			pkt.Release()
			return err
		}
		pkt.Release()
		if err := DrainFrames(dec.Sequence(), pushFrame); err != nil {
			return err
		}
	}

	if err := dec.SendEOF(); err != nil {
		return err
	}
	if err := DrainFrames(dec.Sequence(), pushFrame); err != nil {
		return err
	}
	if filter != nil {
		if err := filter.PushEOF(); err != nil {
			return err
		}
		if err := DrainFrames(filter.Sequence(), func(ff *Frame) error {
			return pushToEncoder(enc, ff, drainEncoder)
		}); err != nil {
			return err
		}
	}
	if err := enc.SendEOF(); err != nil {
		return err
	}
	return drainEncoder()
}

func pushToEncoder(enc *Encoder, f *Frame, drain func() error) error {
	if err := enc.Send(f); err != nil {
		return err
	}
	return drain()
}

// PipelinePartialFrames runs a Decoder through an optional Filter and
// hands every resulting Frame to sink instead of an Encoder, for callers
// that want decoded/filtered frames directly (thumbnailing, analysis).
func PipelinePartialFrames(in PacketReader, srcStreamIndex int, dec *Decoder, filter *Filter, sink func(*Frame) error) error {
	handle := func(f *Frame) error {
		if filter == nil {
			return sink(f)
		}
		if err := filter.Push(f); err != nil {
			return err
		}
		return DrainFrames(filter.Sequence(), sink)
	}

	for {
		pkt, ok, err := in.ReadPacket()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if pkt.StreamIndex != srcStreamIndex {
			pkt.Release()
			continue
		}
		if err := dec.Send(pkt); err != nil {
			pkt.Release()
			return err
		}
		pkt.Release()
		if err := DrainFrames(dec.Sequence(), handle); err != nil {
			return err
		}
	}
	if err := dec.SendEOF(); err != nil {
		return err
	}
	if err := DrainFrames(dec.Sequence(), handle); err != nil {
		return err
	}
	if filter != nil {
		if err := filter.PushEOF(); err != nil {
			return err
		}
		return DrainFrames(filter.Sequence(), sink)
	}
	return nil
}

// PipelinePartialPackets drains raw demuxed packets for one stream
// through a BitstreamFilter and hands the rewritten packets to sink,
// without decoding — for BSF-only pipelines (spec.md §4.6).
func PipelinePartialPackets(in PacketReader, srcStreamIndex int, bsf *BitstreamFilter, sink func(*Packet) error) error {
	for {
		pkt, ok, err := in.ReadPacket()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if pkt.StreamIndex != srcStreamIndex {
			pkt.Release()
			continue
		}
		if err := bsf.Send(pkt); err != nil {
			pkt.Release()
			return err
		}
		pkt.Release()
		if err := DrainPackets(bsf.Sequence(), sink); err != nil {
			return err
		}
	}
	if err := bsf.SendEOF(); err != nil {
		return err
	}
	return DrainPackets(bsf.Sequence(), sink)
}

// PipelineStage is one leg of a PipelineNamed run: a single
// srcStreamIndex-to-dstStreamIndex transcode, sharing the named
// pipeline's MediaInput and MediaOutput.
type PipelineStage struct {
	Name           string
	SrcStreamIndex int
	Decoder        *Decoder
	Filter         *Filter
	Encoder        *Encoder
	DstStreamIndex int
}

// PipelineControl is the caller-observable handle for a PipelineNamed run
// (spec.md §4.8: "a control handle with a completion promise and a
// cancellation signal"). ID is a per-run correlation identifier, surfaced
// so a caller can correlate this run's log lines and metrics across
// goroutines. Stop requests cancellation; Completion reports the run's
// final error (nil on success) exactly once, after every stage goroutine
// has exited.
type PipelineControl struct {
	ID string

	cancel context.CancelFunc
	done   chan error
}

// Stop cancels every in-flight stage goroutine. Cancellation is
// cooperative: each stage observes ctx.Done() at its next suspension
// point (channel receive or send) and unwinds from there, so Stop settles
// within a bounded number of suspension points rather than instantly
// (spec.md invariant 7). Stop is idempotent and safe to call more than
// once or after the run has already completed.
func (c *PipelineControl) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Completion returns a channel that receives the run's final error (nil
// on success) exactly once, when every stage goroutine has exited.
func (c *PipelineControl) Completion() <-chan error {
	return c.done
}

// PipelineNamed launches every stage of a multi-stream transcode
// concurrently, one goroutine per stage, sharing a single MediaInput and
// MediaOutput — demuxing happens once, on its own goroutine, and each
// stage only processes packets routed to it by SrcStreamIndex. It uses
// errgroup.WithContext so that the first stage (or the demuxer) to
// return an error cancels every other goroutine's send/receive, rather
// than leaving them blocked forever on a channel nobody drains anymore.
// PipelineNamed itself returns immediately, before any stage has run;
// use the returned PipelineControl's Completion channel to wait for the
// run to finish and Stop to cancel it early. WriteHeader/WriteTrailer are
// the caller's responsibility around this call.
func PipelineNamed(in PacketReader, out PacketWriter, stages []PipelineStage) *PipelineControl {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := &PipelineControl{ID: uuid.NewString(), cancel: cancel, done: make(chan error, 1)}
	logInfo("PipelineNamed", "id", ctrl.ID, "stages", len(stages))

	demuxed := make([]chan *Packet, len(stages))
	for i := range demuxed {
		demuxed[i] = make(chan *Packet, 16)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() {
			for _, ch := range demuxed {
				close(ch)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			pkt, ok, err := in.ReadPacket()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			routed := false
			for i, st := range stages {
				if st.SrcStreamIndex == pkt.StreamIndex {
					select {
					case demuxed[i] <- pkt:
					case <-ctx.Done():
						pkt.Release()
						return ctx.Err()
					}
					routed = true
					break
				}
			}
			if !routed {
				pkt.Release()
			}
		}
	})

	for i, st := range stages {
		i, st := i, st
		g.Go(func() error {
			for {
				var pkt *Packet
				var open bool
				select {
				case pkt, open = <-demuxed[i]:
				case <-ctx.Done():
					return ctx.Err()
				}
				if !open {
					return finishStage(st, out)
				}
				if err := st.Decoder.Send(pkt); err != nil {
					pkt.Release()
					return err
				}
				pkt.Release()
				if err := drainStageFrames(st, out); err != nil {
					return err
				}
			}
		})
	}

	go func() {
		err := g.Wait()
		cancel()
		if err != nil {
			logError("PipelineNamed", "id", ctrl.ID, "error", err)
		} else {
			logInfo("PipelineNamed done", "id", ctrl.ID)
		}
		ctrl.done <- err
	}()

	return ctrl
}

func drainStageFrames(st PipelineStage, out PacketWriter) error {
	handle := func(f *Frame) error {
		return st.Encoder.Send(f)
	}
	push := handle
	if st.Filter != nil {
		push = func(f *Frame) error {
			if err := st.Filter.Push(f); err != nil {
				return err
			}
			return DrainFrames(st.Filter.Sequence(), handle)
		}
	}
	if err := DrainFrames(st.Decoder.Sequence(), push); err != nil {
		return err
	}
	return DrainPackets(st.Encoder.Sequence(), func(p *Packet) error {
		p.StreamIndex = st.DstStreamIndex
		return out.WritePacket(p)
	})
}

func finishStage(st PipelineStage, out PacketWriter) error {
	if err := st.Decoder.SendEOF(); err != nil {
		return err
	}
	if err := drainStageFrames(st, out); err != nil {
		return err
	}
	if st.Filter != nil {
		if err := st.Filter.PushEOF(); err != nil {
			return err
		}
		if err := DrainFrames(st.Filter.Sequence(), st.Encoder.Send); err != nil {
			return err
		}
	}
	if err := st.Encoder.SendEOF(); err != nil {
		return err
	}
	return DrainPackets(st.Encoder.Sequence(), func(p *Packet) error {
		p.StreamIndex = st.DstStreamIndex
		return out.WritePacket(p)
	})
}
