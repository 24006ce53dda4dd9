package av

import (
	"errors"
	"testing"
)

func TestDrainPacketsStopsAtEndOfStream(t *testing.T) {
	remaining := []*Packet{{StreamIndex: 0}, {StreamIndex: 1}}
	seq := PacketSequenceFunc(func() (*Packet, bool, error) {
		if len(remaining) == 0 {
			return nil, false, nil
		}
		p := remaining[0]
		remaining = remaining[1:]
		return p, true, nil
	})

	var got []int
	err := DrainPackets(seq, func(p *Packet) error {
		got = append(got, p.StreamIndex)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("got %v, want [0 1]", got)
	}
}

func TestDrainPacketsPropagatesSequenceError(t *testing.T) {
	wantErr := errors.New("boom")
	seq := PacketSequenceFunc(func() (*Packet, bool, error) {
		return nil, false, wantErr
	})
	if err := DrainPackets(seq, func(*Packet) error { return nil }); err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestDrainPacketsPropagatesCallbackError(t *testing.T) {
	calls := 0
	seq := PacketSequenceFunc(func() (*Packet, bool, error) {
		calls++
		if calls > 1 {
			return nil, false, nil
		}
		return &Packet{}, true, nil
	})
	wantErr := errors.New("callback failed")
	err := DrainPackets(seq, func(*Packet) error { return wantErr })
	if err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestDrainFramesReleasesAfterCallback(t *testing.T) {
	released := 0
	f := &Frame{Planes: [][]byte{{1}}}
	calls := 0
	seq := FrameSequenceFunc(func() (*Frame, bool, error) {
		calls++
		if calls > 1 {
			return nil, false, nil
		}
		return f, true, nil
	})
	err := DrainFrames(seq, func(fr *Frame) error {
		released++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Fatalf("callback called %d times, want 1", released)
	}
	if f.Planes != nil {
		t.Fatal("frame should have been released")
	}
}
