package av

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/seydx/av-sub014/internal/native"
)

func TestStreamInfoFromDescriptorVideo(t *testing.T) {
	d := native.StreamDescriptor{
		Index:        0,
		MediaType:    native.MediaTypeVideo,
		TimeBase:     native.Rational{Num: 1, Den: 90000},
		Width:        1920,
		Height:       1080,
		FrameRate:    native.Rational{Num: 30000, Den: 1001},
		SampleAspect: native.Rational{Num: 1, Den: 1},
	}
	si := streamInfoFromDescriptor(d)
	if si.MediaType != MediaTypeVideo {
		t.Fatalf("MediaType = %v, want MediaTypeVideo", si.MediaType)
	}
	if si.Width != 1920 || si.Height != 1080 {
		t.Fatalf("got %dx%d, want 1920x1080", si.Width, si.Height)
	}
	if !si.TimeBase.Equal(NewRational(1, 90000)) {
		t.Fatalf("TimeBase = %v, want 1/90000", si.TimeBase)
	}
}

func TestStreamInfoFromDescriptorAudio(t *testing.T) {
	d := native.StreamDescriptor{
		Index:      1,
		MediaType:  native.MediaTypeAudio,
		TimeBase:   native.Rational{Num: 1, Den: 48000},
		SampleRate: 48000,
		Channels:   2,
	}
	si := streamInfoFromDescriptor(d)
	if si.MediaType != MediaTypeAudio {
		t.Fatalf("MediaType = %v, want MediaTypeAudio", si.MediaType)
	}
	if si.SampleRate != 48000 || si.Channels != 2 {
		t.Fatalf("got rate=%d channels=%d, want 48000/2", si.SampleRate, si.Channels)
	}
}

func TestContainerInfoFromProbe(t *testing.T) {
	p := native.ProbeResult{
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		LongName:   "QuickTime / MOV",
		MimeType:   "video/mp4",
		Confidence: 100,
	}
	ci := containerInfoFromProbe(p)
	want := ContainerInfo{
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		LongName:   "QuickTime / MOV",
		MIMEType:   "video/mp4",
		Confidence: 100,
	}
	if diff := cmp.Diff(want, ci, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("containerInfoFromProbe() mismatch (-want +got):\n%s", diff)
	}
}
