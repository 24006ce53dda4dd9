package native

// #include <libavutil/error.h>
// #include <libavutil/avutil.h>
import "C"

import (
	"fmt"
	"unsafe"
)

// Code is a raw libav return code (negative AVERROR values, or a
// non-negative count/size on success).
type Code int32

// IsAgain reports whether a codec/filter/bsf call returned
// AVERROR(EAGAIN) — "need more input before more output is available".
// This is never surfaced to callers of this module as an error; it drives
// the send/receive pump loops.
func (c Code) IsAgain() bool {
	return int32(c) == int32(C.AVERROR(C.EAGAIN))
}

// IsEOF reports whether a codec/filter/bsf/demuxer call returned
// AVERROR_EOF — end of stream for this component. Like IsAgain, this is an
// internal sentinel (spec.md §7 EndOfStream), not a user-visible error.
func (c Code) IsEOF() bool {
	return int32(c) == int32(C.AVERROR_EOF)
}

func (c Code) Ok() bool {
	return int32(c) >= 0
}

// Error implements the error interface directly on Code so that
// codecSendErr (and its bsf/filter counterparts) can return a bare Code
// as a sentinel for EAGAIN/EOF without allocating a NativeError; callers
// that need to distinguish the sentinel from a hard failure type-assert
// back to Code.
func (c Code) Error() string {
	return c.Message()
}

// Message renders a libav numeric error code into a human-readable string
// via av_strerror, the same adapter avpipe.go leans on implicitly through
// its C log callbacks.
func (c Code) Message() string {
	buf := make([]byte, 256)
	ret := C.av_strerror(C.int(c), (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	if ret < 0 {
		return fmt.Sprintf("unknown libav error %d", int32(c))
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}

// Err converts a libav return code into a plain Go error, or nil if the
// code represents success. It does not classify the error into this
// module's Kind taxonomy — that mapping is a property of which operation
// failed, not of the numeric code alone, so callers in the root package do
// that classification themselves using the Op context they already have.
func (c Code) Err() error {
	if c.Ok() {
		return nil
	}
	return &NativeError{Code: c, msg: c.Message()}
}

// NativeError wraps a raw libav return code plus message. The root
// package's Error type carries one of these as its optional Cause.
type NativeError struct {
	Code Code
	msg  string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("libav: %s (code %d)", e.msg, int32(e.Code))
}
