package av

import (
	"errors"
	"testing"
)

type fakePacketReader struct {
	packets []*Packet
	i       int
}

func (r *fakePacketReader) ReadPacket() (*Packet, bool, error) {
	if r.i >= len(r.packets) {
		return nil, false, nil
	}
	p := r.packets[r.i]
	r.i++
	return p, true, nil
}

type fakePacketWriter struct {
	written []*Packet
}

func (w *fakePacketWriter) WritePacket(p *Packet) error {
	w.written = append(w.written, p.Clone())
	return nil
}

func TestPipelineCopyMapsStreamsAndDropsUnmapped(t *testing.T) {
	in := &fakePacketReader{packets: []*Packet{
		{StreamIndex: 0, Data: []byte{1}},
		{StreamIndex: 1, Data: []byte{2}}, // unmapped, dropped
		{StreamIndex: 0, Data: []byte{3}},
	}}
	out := &fakePacketWriter{}

	if err := PipelineCopy(in, out, map[int]int{0: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.written) != 2 {
		t.Fatalf("got %d packets written, want 2", len(out.written))
	}
	for _, p := range out.written {
		if p.StreamIndex != 5 {
			t.Fatalf("got stream index %d, want 5", p.StreamIndex)
		}
	}
}

func TestPipelineCopyPropagatesWriteError(t *testing.T) {
	in := &fakePacketReader{packets: []*Packet{{StreamIndex: 0}}}
	wantErr := errors.New("disk full")
	out := writerFunc(func(*Packet) error { return wantErr })

	if err := PipelineCopy(in, out, map[int]int{0: 0}); err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

type writerFunc func(*Packet) error

func (f writerFunc) WritePacket(p *Packet) error { return f(p) }

func TestPipelineNamedCompletesWithNoStages(t *testing.T) {
	in := &fakePacketReader{packets: []*Packet{{StreamIndex: 0}}}
	out := &fakePacketWriter{}

	ctrl := PipelineNamed(in, out, nil)
	if ctrl.ID == "" {
		t.Fatal("expected a non-empty run ID")
	}
	if err := <-ctrl.Completion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Stop after completion must not hang or panic.
	ctrl.Stop()
}

func TestPipelineNamedStopCancelsRun(t *testing.T) {
	in := &unboundedPacketReader{started: make(chan struct{})}
	out := &fakePacketWriter{}

	// No stages: every packet goes unrouted, so the only way this run
	// ever finishes is the demux loop observing ctx.Done().
	ctrl := PipelineNamed(in, out, nil)
	<-in.started
	ctrl.Stop()

	if err := <-ctrl.Completion(); err == nil {
		t.Fatal("expected a cancellation error")
	}
}

// unboundedPacketReader hands back an endless stream of packets so the
// only way PipelineNamed's demux goroutine exits is by observing
// cancellation rather than end-of-stream.
type unboundedPacketReader struct {
	started chan struct{}
	once    bool
}

func (r *unboundedPacketReader) ReadPacket() (*Packet, bool, error) {
	if !r.once {
		r.once = true
		close(r.started)
	}
	return &Packet{StreamIndex: 0}, true, nil
}
