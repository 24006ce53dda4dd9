package av

import "testing"

func TestBitstreamFilterSendRejectsWhenClosed(t *testing.T) {
	b := &BitstreamFilter{closed: true}
	if err := b.Send(&Packet{}); err == nil {
		t.Fatal("expected error sending to closed bitstream filter")
	}
}

func TestNewBitstreamFilterUnknownName(t *testing.T) {
	_, err := NewBitstreamFilter("not-a-real-bsf", StreamInfo{})
	if err == nil {
		t.Fatal("expected error for unknown bitstream filter name")
	}
}
