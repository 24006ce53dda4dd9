package av

import "testing"

func TestMediaOutputWritePacketBeforeHeaderFails(t *testing.T) {
	m := &MediaOutput{}
	if err := m.WritePacket(&Packet{}); err == nil {
		t.Fatal("expected error writing before WriteHeader")
	}
}

func TestMediaOutputWriteTrailerBeforeHeaderFails(t *testing.T) {
	m := &MediaOutput{}
	if err := m.WriteTrailer(); err == nil {
		t.Fatal("expected error writing trailer before WriteHeader")
	}
}

func TestMediaOutputWriteHeaderTwiceFails(t *testing.T) {
	m := &MediaOutput{headerDone: true}
	if err := m.WriteHeader(); err == nil {
		t.Fatal("expected error calling WriteHeader twice")
	}
}

func TestMediaOutputWritePacketUnknownStreamFails(t *testing.T) {
	m := &MediaOutput{headerDone: true, streamTBs: []Rational{NewRational(1, 90000)}}
	if err := m.WritePacket(&Packet{StreamIndex: 5}); err == nil {
		t.Fatal("expected error for out-of-range stream index")
	}
}

func TestMediaOutputGrowStreamTBs(t *testing.T) {
	m := &MediaOutput{}
	m.growStreamTBs(2, NewRational(1, 1000))
	if len(m.streamTBs) != 3 {
		t.Fatalf("got %d entries, want 3", len(m.streamTBs))
	}
	if !m.streamTBs[2].Equal(NewRational(1, 1000)) {
		t.Fatalf("got %v, want 1/1000", m.streamTBs[2])
	}
}

func TestMediaOutputWriteHeaderNoStreamsFails(t *testing.T) {
	m := &MediaOutput{}
	if err := m.WriteHeader(); err == nil {
		t.Fatal("expected error calling WriteHeader with no streams added")
	}
}

func TestMediaOutputAddStreamCopyAfterHeaderFails(t *testing.T) {
	m := &MediaOutput{headerDone: true}
	if _, err := m.AddStreamCopy(StreamInfo{}); err == nil {
		t.Fatal("expected error adding a stream after WriteHeader")
	}
}

func TestMediaOutputAddStreamFromEncoderAfterHeaderFails(t *testing.T) {
	m := &MediaOutput{headerDone: true}
	if _, err := m.AddStreamFromEncoder(&Encoder{}); err == nil {
		t.Fatal("expected error adding a stream after WriteHeader")
	}
}

func TestMediaOutputWriteTrailerTwiceFails(t *testing.T) {
	m := &MediaOutput{headerDone: true, trailerDone: true}
	if err := m.WriteTrailer(); err == nil {
		t.Fatal("expected error calling WriteTrailer twice")
	}
}

func TestCreateMediaOutputCallbacksRequiresFormat(t *testing.T) {
	_, err := CreateMediaOutputCallbacks(nil, MediaOutputOptions{})
	if err == nil {
		t.Fatal("expected error when Format is empty for a callback sink")
	}
}
