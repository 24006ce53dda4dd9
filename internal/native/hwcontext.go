package native

// #include <libavcodec/avcodec.h>
// #include <libavutil/hwcontext.h>
// #include <stdlib.h>
import "C"

import "unsafe"

// HWDeviceContext is an opaque AVBufferRef holding an AVHWDeviceContext.
type HWDeviceContext unsafe.Pointer

// HWDeviceTypeName maps libav's AVHWDeviceType enum to its canonical name,
// used both for CreateHWDevice and for the platform-ordered auto-detect
// list in spec.md §4.7.
func HWDeviceTypeName(t int) string {
	return C.GoString(C.av_hwdevice_get_type_name(C.enum_AVHWDeviceType(t)))
}

// HWDeviceTypeFromName resolves a device type name to its enum value, or
// -1 if libav does not know the name (it reports AV_HWDEVICE_TYPE_NONE).
func HWDeviceTypeFromName(name string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	t := C.av_hwdevice_find_type_by_name(cname)
	if t == C.AV_HWDEVICE_TYPE_NONE {
		return -1
	}
	return int(t)
}

// ListHWDeviceTypes enumerates every hwdevice type libav was compiled with
// support for, following AV_HWDEVICE_TYPE_NONE-seeded iteration.
func ListHWDeviceTypes() []string {
	var types []string
	t := C.AV_HWDEVICE_TYPE_NONE
	for {
		t = C.av_hwdevice_iterate_types(t)
		if t == C.AV_HWDEVICE_TYPE_NONE {
			break
		}
		types = append(types, HWDeviceTypeName(int(t)))
	}
	return types
}

// CreateHWDevice opens a hardware device context of the given type.
func CreateHWDevice(deviceType int, device string, dict map[string]string) (HWDeviceContext, error) {
	var cdevice *C.char
	if device != "" {
		cdevice = C.CString(device)
		defer C.free(unsafe.Pointer(cdevice))
	}
	cdict := dictFromMap(dict)
	defer freeDict(cdict)

	var ref *C.AVBufferRef
	ret := C.av_hwdevice_ctx_create(&ref, C.enum_AVHWDeviceType(deviceType), cdevice, cdict, 0)
	if ret < 0 {
		return nil, Code(ret).Err()
	}
	return HWDeviceContext(ref), nil
}

// DevicePixelFormat returns the libav pixel format a decoder/encoder
// bound to this device context should request/produce. FFmpeg does not
// expose a single canonical mapping call, so this module keeps the small
// per-device-type table the way av_hwdevice_ctx_create callers typically
// do in application code (e.g. ffmpeg.c's hw_pix_fmt table), rather than
// depending on undocumented internal libav state.
func DevicePixelFormat(deviceType int) int {
	switch HWDeviceTypeName(deviceType) {
	case "cuda":
		return pixFmtCUDA
	case "vaapi":
		return pixFmtVAAPI
	case "videotoolbox":
		return pixFmtVideoToolbox
	case "d3d11va":
		return pixFmtD3D11
	case "qsv":
		return pixFmtQSV
	default:
		return -1
	}
}

// These mirror the corresponding AVPixelFormat enumerators; kept as a
// small local table rather than pulling in a fully generated constants
// package (out of scope per spec.md §1).
const (
	pixFmtVideoToolbox = 49
	pixFmtVAAPI        = 44
	pixFmtCUDA         = 119
	pixFmtD3D11        = 127
	pixFmtQSV          = 118
)

// CreateHWFramesContext derives an AVHWFramesContext from a device
// context, used when a Filter or Encoder needs to allocate hardware
// frames directly rather than adopting an upstream one.
func CreateHWFramesContext(device HWDeviceContext, pixFmt, swFormat, width, height int) (unsafe.Pointer, error) {
	ref := C.av_hwframe_ctx_alloc((*C.AVBufferRef)(device))
	if ref == nil {
		return nil, &NativeError{msg: "av_hwframe_ctx_alloc failed"}
	}
	frames := (*C.AVHWFramesContext)(unsafe.Pointer(ref.data))
	frames.format = C.enum_AVPixelFormat(pixFmt)
	frames.sw_format = C.enum_AVPixelFormat(swFormat)
	frames.width = C.int(width)
	frames.height = C.int(height)
	if ret := C.av_hwframe_ctx_init(ref); ret < 0 {
		C.av_buffer_unref(&ref)
		return nil, Code(ret).Err()
	}
	return unsafe.Pointer(ref), nil
}

// SupportsCodec reports whether the device's type appears in a codec's
// AVCodecHWConfig list, for either the decoder or encoder with the given
// name.
func SupportsCodec(device HWDeviceContext, codecName string, encoder bool) bool {
	codec, ok := findCodecByName(codecName, encoder)
	if !ok {
		return false
	}
	return configMatchesDevice(codec, device) != -1
}

// SupportsPixelFormat reports whether a codec's hw config for this
// device's type advertises the given software pixel format.
func SupportsPixelFormat(device HWDeviceContext, codecName string, pixFmt int, encoder bool) bool {
	codec, ok := findCodecByName(codecName, encoder)
	if !ok {
		return false
	}
	idx := configMatchesDevice(codec, device)
	if idx == -1 {
		return false
	}
	cfg := C.avcodec_get_hw_config((*C.AVCodec)(codec), C.int(idx))
	return cfg != nil && int(cfg.pix_fmt) == pixFmt
}

func findCodecByName(name string, encoder bool) (unsafe.Pointer, bool) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var c *C.AVCodec
	if encoder {
		c = C.avcodec_find_encoder_by_name(cname)
	} else {
		c = C.avcodec_find_decoder_by_name(cname)
	}
	return unsafe.Pointer(c), c != nil
}

func configMatchesDevice(codec unsafe.Pointer, device HWDeviceContext) int {
	deviceType := C.AV_HWDEVICE_TYPE_NONE
	if device != nil {
		ref := (*C.AVBufferRef)(device)
		hwctx := (*C.AVHWDeviceContext)(unsafe.Pointer(ref.data))
		deviceType = hwctx._type
	}
	for i := 0; ; i++ {
		cfg := C.avcodec_get_hw_config((*C.AVCodec)(codec), C.int(i))
		if cfg == nil {
			return -1
		}
		if cfg.methods&C.AV_CODEC_HW_CONFIG_METHOD_HW_DEVICE_CTX != 0 && cfg.device_type == deviceType {
			return i
		}
	}
}

// FindSupportedCodecs iterates every registered codec and returns the
// names of those whose hardware-config list includes this device type
// (spec.md §4.7).
func FindSupportedCodecs(device HWDeviceContext, encoder bool) []string {
	var names []string
	var iter unsafe.Pointer
	for {
		codec := C.av_codec_iterate((*unsafe.Pointer)(unsafe.Pointer(&iter)))
		if codec == nil {
			break
		}
		isEnc := C.av_codec_is_encoder(codec) != 0
		if isEnc != encoder {
			continue
		}
		if configMatchesDevice(unsafe.Pointer(codec), device) != -1 {
			names = append(names, C.GoString(codec.name))
		}
	}
	return names
}

// FreeHWDevice releases the device context buffer reference.
func FreeHWDevice(device HWDeviceContext) {
	ref := (*C.AVBufferRef)(device)
	C.av_buffer_unref(&ref)
}

// FreeHWFramesContext releases a frames-context buffer reference created
// by CreateHWFramesContext or adopted from a decoder's output frames.
func FreeHWFramesContext(framesCtx unsafe.Pointer) {
	ref := (*C.AVBufferRef)(framesCtx)
	C.av_buffer_unref(&ref)
}
