package av

import (
	"runtime"
	"unsafe"

	"github.com/seydx/av-sub014/internal/native"
)

// HardwareContext wraps an AVHWDeviceContext and, lazily, the
// AVHWFramesContext derived from it (spec.md §4.7). A HardwareContext is
// shared across every Decoder/Encoder/Filter bound to the same physical
// device; only FramesContext (which caches, and on a size change
// replaces, its frames context) and Close mutate it, and Close is the caller's
// responsibility once every stage that adopted it has released its own
// reference.
type HardwareContext struct {
	deviceType int
	device     native.HWDeviceContext
	framesCtx  unsafe.Pointer
	framesDims [4]int // pixFmt, swFormat, width, height the cached framesCtx was built for
	closed     bool
}

// hwTestSWPixFmt is AV_PIX_FMT_NV12, the software pixel format used for
// getEncoderCodec's throwaway test encode; every hardware encoder this
// module targets accepts NV12 as its upload format.
const hwTestSWPixFmt = 23

// hwEncoderNames maps a device type name and a generic codec name
// ("h264", "hevc", "av1") to the libav encoder implementation that device
// type exposes for it (spec.md §4.7 getEncoderCodec). Device types with no
// entry for a baseName (e.g. d3d11va, which backs decode/filter but not a
// distinct encoder family) report not found rather than guessing.
var hwEncoderNames = map[string]map[string]string{
	"cuda":         {"h264": "h264_nvenc", "hevc": "hevc_nvenc", "av1": "av1_nvenc"},
	"vaapi":        {"h264": "h264_vaapi", "hevc": "hevc_vaapi", "av1": "av1_vaapi"},
	"videotoolbox": {"h264": "h264_videotoolbox", "hevc": "hevc_videotoolbox"},
	"qsv":          {"h264": "h264_qsv", "hevc": "hevc_qsv", "av1": "av1_qsv"},
	"d3d12va":      {"h264": "h264_amf", "hevc": "hevc_amf", "av1": "av1_amf"},
}

// hwAutoPreference returns the platform-ordered candidate list spec.md
// §4.7's auto() describes: VideoToolbox on macOS; VAAPI then CUDA on
// Linux; D3D11VA, D3D12VA, QSV, then CUDA on Windows.
func hwAutoPreference() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"videotoolbox"}
	case "windows":
		return []string{"d3d11va", "d3d12va", "qsv", "cuda"}
	default:
		return []string{"vaapi", "cuda"}
	}
}

// ListHardwareDeviceTypes enumerates the hwdevice types this build of
// libav supports, in whatever order av_hwdevice_iterate_types reports
// them.
func ListHardwareDeviceTypes() []string {
	return native.ListHWDeviceTypes()
}

// NewHardwareContext opens a hardware device context by type name (e.g.
// "cuda", "vaapi", "videotoolbox", "qsv", "d3d11va"). deviceSpec is the
// type-specific device selector (e.g. "/dev/dri/renderD128", or "" for
// the default device).
func NewHardwareContext(typeName, deviceSpec string, opts map[string]string) (*HardwareContext, error) {
	const op = "NewHardwareContext"
	t := native.HWDeviceTypeFromName(typeName)
	if t < 0 {
		return nil, newErr(KindInvalidArgument, op, "unknown hardware device type: "+typeName, nil)
	}
	dev, err := native.CreateHWDevice(t, deviceSpec, opts)
	if err != nil {
		logError(op, "type", typeName, "device", deviceSpec, "error", err)
		return nil, wrapNative(KindHardwareUnavailable, op, err)
	}
	logInfo(op, "type", typeName, "device", deviceSpec)
	return &HardwareContext{deviceType: t, device: dev}, nil
}

// AutoDetectHardwareContext tries each device type in the platform's
// preference order (spec.md §4.7: VideoToolbox on macOS; VAAPI then CUDA
// on Linux; D3D11VA, D3D12VA, QSV, then CUDA on Windows) and returns the
// first whose context both constructs and passes a no-op test encode
// (getEncoderCodec("h264") or, failing that, "hevc"). This rejects device
// types that are compiled in but non-functional on the running machine —
// a device context can open successfully even when no usable hardware
// encoder backs it.
func AutoDetectHardwareContext(deviceSpec string, opts map[string]string) (*HardwareContext, error) {
	const op = "AutoDetectHardwareContext"
	var lastErr error
	for _, name := range hwAutoPreference() {
		hw, err := NewHardwareContext(name, deviceSpec, opts)
		if err != nil {
			lastErr = err
			continue
		}
		if _, ok := hw.getEncoderCodec("h264"); ok {
			return hw, nil
		}
		if _, ok := hw.getEncoderCodec("hevc"); ok {
			return hw, nil
		}
		hw.Close()
		lastErr = newErr(KindHardwareIncompatible, op, "no functional test encoder for device type "+name, nil)
	}
	if lastErr == nil {
		lastErr = newErr(KindHardwareUnavailable, op, "no hardware device type available for this platform", nil)
	}
	return nil, lastErr
}

// TypeName returns the hwdevice type name this context was opened with.
func (h *HardwareContext) TypeName() string {
	return native.HWDeviceTypeName(h.deviceType)
}

// PixelFormat returns the libav pixel format a decoder/encoder bound to
// this device should request or produce.
func (h *HardwareContext) PixelFormat() int {
	return native.DevicePixelFormat(h.deviceType)
}

// SupportsDecoder reports whether the named decoder can use this device.
func (h *HardwareContext) SupportsDecoder(name string) bool {
	return native.SupportsCodec(h.device, name, false)
}

// SupportsEncoder reports whether the named encoder can use this device.
func (h *HardwareContext) SupportsEncoder(name string) bool {
	return native.SupportsCodec(h.device, name, true)
}

// SupportsPixelFormat reports whether the named codec's hardware config
// for this device advertises pixFmt as a supported surface format.
func (h *HardwareContext) SupportsPixelFormat(name string, pixFmt int, isEncoder bool) bool {
	return native.SupportsPixelFormat(h.device, name, pixFmt, isEncoder)
}

// getEncoderCodec maps a generic codec name ("h264", "hevc", "av1") to
// this device type's hardware-specific encoder implementation and proves
// it is actually usable by opening a throwaway 100x100, 30fps encoder
// against it (spec.md §4.7): this guards against encoders that are
// compiled into libav but fail to open on hardware that lacks them (an
// unsupported GPU generation, a missing driver feature, ...).
func (h *HardwareContext) getEncoderCodec(baseName string) (string, bool) {
	names, ok := hwEncoderNames[h.TypeName()]
	if !ok {
		return "", false
	}
	name, ok := names[baseName]
	if !ok || !h.testEncoderViable(name) {
		return "", false
	}
	return name, true
}

// testEncoderViable opens and immediately closes a minimal hardware
// encoder to confirm the named implementation actually functions on this
// device, rather than merely being registered in the build.
func (h *HardwareContext) testEncoderViable(name string) bool {
	codec, ok := native.FindEncoder(0, name)
	if !ok {
		return false
	}
	framesCtx, err := h.FramesContext(h.PixelFormat(), hwTestSWPixFmt, 100, 100)
	if err != nil {
		return false
	}
	ctx, err := native.OpenEncoder(codec, native.EncoderParams{
		MediaType:   native.MediaTypeVideo,
		Width:       100,
		Height:      100,
		PixFmt:      hwTestSWPixFmt,
		FrameRate:   native.Rational{Num: 30, Den: 1},
		TimeBase:    native.Rational{Num: 1, Den: 30},
		HWFramesCtx: framesCtx,
		HWPixFmt:    h.PixelFormat(),
	}, nil)
	if err != nil {
		return false
	}
	native.CloseCodec(ctx)
	return true
}

// SupportedDecoders lists every decoder whose hw-config advertises this
// device's type.
func (h *HardwareContext) SupportedDecoders() []string {
	return native.FindSupportedCodecs(h.device, false)
}

// SupportedEncoders lists every encoder whose hw-config advertises this
// device's type.
func (h *HardwareContext) SupportedEncoders() []string {
	return native.FindSupportedCodecs(h.device, true)
}

// FramesContext lazily allocates and returns an AVHWFramesContext derived
// from this device, sized for width x height at pixFmt/swFormat. Repeat
// calls with the same dimensions return the cached context; calling with
// different dimensions replaces it, since a single device context may
// back encoders or filters at more than one resolution over its
// lifetime, but a single frames context may not.
func (h *HardwareContext) FramesContext(pixFmt, swFormat, width, height int) (unsafe.Pointer, error) {
	const op = "HardwareContext.FramesContext"
	dims := [4]int{pixFmt, swFormat, width, height}
	if h.framesCtx != nil && h.framesDims == dims {
		return h.framesCtx, nil
	}
	ctx, err := native.CreateHWFramesContext(h.device, pixFmt, swFormat, width, height)
	if err != nil {
		logError(op, "pix_fmt", pixFmt, "width", width, "height", height, "error", err)
		return nil, wrapNative(KindHardwareIncompatible, op, err)
	}
	if h.framesCtx != nil {
		native.FreeHWFramesContext(h.framesCtx)
	}
	h.framesCtx = ctx
	h.framesDims = dims
	return ctx, nil
}

// devicePointer exposes the underlying native handle for Decoder/Encoder/
// Filter construction; unexported since only this module's own stages
// need it.
func (h *HardwareContext) devicePointer() native.HWDeviceContext {
	return h.device
}

// Close releases the device context and any frames context derived from
// it. Idempotent.
func (h *HardwareContext) Close() {
	if h == nil || h.closed {
		return
	}
	h.closed = true
	if h.framesCtx != nil {
		native.FreeHWFramesContext(h.framesCtx)
		h.framesCtx = nil
	}
	native.FreeHWDevice(h.device)
	logDebug("HardwareContext.Close")
}
