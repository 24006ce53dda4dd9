package av

import "testing"

func TestPacketCloneIndependentBuffer(t *testing.T) {
	p := &Packet{StreamIndex: 0, Pts: 10, TimeBase: NewRational(1, 90000), Data: []byte{1, 2, 3}}
	clone := p.Clone()
	clone.Data[0] = 0xff
	if p.Data[0] == 0xff {
		t.Fatal("clone shares backing array with original")
	}
	if clone.Pts != p.Pts || !clone.TimeBase.Equal(p.TimeBase) {
		t.Fatal("clone did not preserve scalar fields")
	}
}

func TestPacketReleaseIdempotent(t *testing.T) {
	p := &Packet{Data: []byte{1, 2, 3}}
	p.Release()
	p.Release()
	if p.Data != nil {
		t.Fatal("released packet should drop its buffer")
	}
}

func TestPacketIsKeyframe(t *testing.T) {
	p := &Packet{Flags: PacketFlagKey | PacketFlagDiscard}
	if !p.IsKeyframe() {
		t.Fatal("expected keyframe flag to be set")
	}
	p2 := &Packet{Flags: PacketFlagCorrupt}
	if p2.IsKeyframe() {
		t.Fatal("did not expect keyframe flag")
	}
}

func TestPacketRescaled(t *testing.T) {
	p := &Packet{Pts: 90000, Dts: 90000, Duration: 3000, TimeBase: NewRational(1, 90000)}
	out := p.Rescaled(NewRational(1, 1000))
	if out.Pts != 1000 || out.Dts != 1000 {
		t.Fatalf("got pts=%d dts=%d, want 1000/1000", out.Pts, out.Dts)
	}
	if !out.TimeBase.Equal(NewRational(1, 1000)) {
		t.Fatal("rescaled packet should carry the new time base")
	}
	if p.Pts != 90000 {
		t.Fatal("Rescaled must not mutate the receiver")
	}
}
