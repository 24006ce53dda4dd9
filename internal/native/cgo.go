// Package native is the thin cgo binding layer between this module's
// pipeline stages and the FFmpeg C libraries (libavformat, libavcodec,
// libavfilter, libavutil, libswresample). Every exported type here is an
// opaque handle (an unsafe.Pointer alias) so that the public packages of
// this module never need to import "C" themselves — the binding surface
// (struct layouts, enum values, function signatures) lives entirely in
// this package, the same way Eyevinn-avpipe keeps all cgo state behind
// avpipe.go's package-private C types.
//
// This package only wraps the libav* call sequences the pipeline stages
// need (open/probe/read/write, send/receive pumps, filter graph push/pull,
// bsf send/receive, hwdevice create/query). It does not attempt to be a
// complete libav* binding — generating full enum/flag tables from the
// FFmpeg headers is out of scope for this module (see SPEC_FULL.md).
package native

// #cgo pkg-config: libavcodec libavfilter libavformat libavutil libswresample
// #cgo CFLAGS: -Wall
// #include <libavcodec/avcodec.h>
// #include <libavcodec/bsf.h>
// #include <libavfilter/avfilter.h>
// #include <libavfilter/buffersink.h>
// #include <libavfilter/buffersrc.h>
// #include <libavformat/avformat.h>
// #include <libavformat/avio.h>
// #include <libavutil/avutil.h>
// #include <libavutil/dict.h>
// #include <libavutil/hwcontext.h>
// #include <libavutil/opt.h>
// #include <libavutil/pixdesc.h>
// #include <libswresample/swresample.h>
// #include <stdlib.h>
//
// // io_bridge.c glue that forwards avio_alloc_context callbacks into
// // the exported Go functions defined in io.go.
// int  native_io_read(void *opaque, uint8_t *buf, int bufSize);
// int  native_io_write(void *opaque, uint8_t *buf, int bufSize);
// int64_t native_io_seek(void *opaque, int64_t offset, int whence);
import "C"

import (
	"sync"
	"unsafe"
)

// Rational mirrors the public Rational type so this package never needs to
// import the root package (which would create an import cycle).
type Rational struct {
	Num int64
	Den int64
}

func (r Rational) c() C.AVRational {
	return C.AVRational{num: C.int(r.Num), den: C.int(r.Den)}
}

func fromCRational(r C.AVRational) Rational {
	return Rational{Num: int64(r.num), Den: int64(r.den)}
}

// handleTable assigns small int64 handles to Go values that must be
// recovered from a cgo callback's opaque void* pointer. cgo forbids storing
// Go pointers that point to other Go pointers inside C memory long-term, so
// every callback bridge in this package (the I/O contexts) indexes through this table instead of casting a Go pointer to
// unsafe.Pointer and back. Modeled directly on avpipe.go's gHandlers map.
type handleTable struct {
	mu   sync.Mutex
	next int64
	vals map[int64]interface{}
}

var globalHandles = &handleTable{vals: make(map[int64]interface{})}

func (t *handleTable) put(v interface{}) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.vals[h] = v
	return h
}

func (t *handleTable) get(h int64) interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vals[h]
}

func (t *handleTable) delete(h int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.vals, h)
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func goBytes(p unsafe.Pointer, n C.int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return C.GoBytes(p, n)
}
