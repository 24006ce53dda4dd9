package av

import "github.com/seydx/av-sub014/internal/native"

// StreamInfo describes one elementary stream of an opened container
// (spec.md §3 ContainerInfo/StreamInfo). It is a read-only snapshot taken
// at open time (or after avformat_find_stream_info ran); it does not
// track subsequent parameter changes mid-stream.
type StreamInfo struct {
	Index     int
	MediaType MediaType
	CodecName string
	TimeBase  Rational
	BitRate   int64
	ExtraData []byte

	// Video.
	Width        int
	Height       int
	PixelFormat  int
	FrameRate    Rational
	SampleAspect Rational

	// Audio.
	SampleRate    int
	SampleFormat  int
	ChannelLayout uint64
	Channels      int

	// raw keeps the underlying native descriptor (including its
	// AVCodecParameters pointer) so NewDecoder/NewBitstreamFilter/
	// MediaOutput.AddStreamCopy can reconstruct a codec context from a
	// StreamInfo without this package's public signatures ever naming an
	// internal/native type.
	raw native.StreamDescriptor
}

// ContainerInfo describes a probed or opened container (spec.md §4.1
// MediaInput.probe / open). FormatName/LongName/MIMEType/Confidence are a
// supplement over the distilled spec: avformat's probe step already
// produces all four, and surfacing them lets callers make their own
// container-detection policy decisions instead of trusting a single
// best-guess format name. ProbeFormat leaves Streams empty since probing
// must not consume the source; an opened MediaInput reports its streams
// through MediaInput.Streams instead.
type ContainerInfo struct {
	FormatName string
	LongName   string
	MIMEType   string
	Confidence int
	Streams    []StreamInfo
}

func streamInfoFromDescriptor(d native.StreamDescriptor) StreamInfo {
	mt := MediaTypeUnknown
	switch d.MediaType {
	case native.MediaTypeVideo:
		mt = MediaTypeVideo
	case native.MediaTypeAudio:
		mt = MediaTypeAudio
	}
	return StreamInfo{
		Index:         d.Index,
		MediaType:     mt,
		CodecName:     native.CodecName(d.CodecID),
		TimeBase:      NewRational(d.TimeBase.Num, d.TimeBase.Den),
		BitRate:       d.BitRate,
		ExtraData:     d.ExtraData,
		Width:         d.Width,
		Height:        d.Height,
		PixelFormat:   d.PixFmt,
		FrameRate:     NewRational(d.FrameRate.Num, d.FrameRate.Den),
		SampleAspect:  NewRational(d.SampleAspect.Num, d.SampleAspect.Den),
		SampleRate:    d.SampleRate,
		SampleFormat:  d.SampleFmt,
		ChannelLayout: d.ChannelLayout,
		Channels:      d.Channels,
		raw:           d,
	}
}

func streamInfosFromDescriptors(ds []native.StreamDescriptor) []StreamInfo {
	out := make([]StreamInfo, len(ds))
	for i, d := range ds {
		out[i] = streamInfoFromDescriptor(d)
	}
	return out
}

func containerInfoFromProbe(p native.ProbeResult) ContainerInfo {
	return ContainerInfo{
		FormatName: p.FormatName,
		LongName:   p.LongName,
		MIMEType:   p.MimeType,
		Confidence: p.Confidence,
	}
}
