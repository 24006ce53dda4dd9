package av

import (
	"os"
	"testing"

	"github.com/seydx/av-sub014/internal/iobuf"
)

func TestMediaInputReadPacketAfterCloseFails(t *testing.T) {
	m := &MediaInput{closed: true}
	if _, _, err := m.ReadPacket(); err == nil {
		t.Fatal("expected error reading from a closed MediaInput")
	}
}

func TestMediaInputStreamDescriptorLookup(t *testing.T) {
	m := &MediaInput{streams: []StreamInfo{{Index: 0}, {Index: 1, MediaType: MediaTypeAudio}}}
	si, ok := m.streamDescriptor(1)
	if !ok || si.MediaType != MediaTypeAudio {
		t.Fatalf("got %+v, %v", si, ok)
	}
	if _, ok := m.streamDescriptor(5); ok {
		t.Fatal("expected lookup miss for unknown stream index")
	}
}

func TestRingBufferReadSeekerNotSeekable(t *testing.T) {
	rb := iobuf.New(1024)
	r := ringBufferReadSeeker{rb}
	if _, err := r.Seek(0, 0); err == nil {
		t.Fatal("expected error seeking a ring-buffer-backed source")
	}
	rb.Close(iobuf.WriteClosed)
}

func TestMediaInputFixtureOpen(t *testing.T) {
	path := os.Getenv("AVSUB014_MEDIA_FIXTURES")
	if path == "" {
		t.Skip("set AVSUB014_MEDIA_FIXTURES to a directory of sample media to run this test")
	}
	m, err := OpenMediaInput(path+"/sample.mp4", MediaInputOptions{})
	if err != nil {
		t.Fatalf("OpenMediaInput: %v", err)
	}
	defer m.Close()
	if len(m.Streams()) == 0 {
		t.Fatal("expected at least one stream in the fixture")
	}
}
