package native

// #include <libavformat/avio.h>
// #include <stdlib.h>
//
// static AVIOContext *native_avio_alloc(void *opaque, int bufferSize, int writable) {
//   unsigned char *buf = (unsigned char *)av_malloc(bufferSize);
//   if (!buf) return NULL;
//   return avio_alloc_context(buf, bufferSize, writable, opaque,
//     writable ? NULL : native_io_read,
//     writable ? native_io_write : NULL,
//     native_io_seek);
// }
import "C"

import (
	"io"
	"unsafe"
)

// IOReader is the read/seek contract a MediaInput callbacks-source
// implements. Mirrors Eyevinn-avpipe's InputHandler, generalized to the
// stdlib io interfaces this module's public API actually accepts.
type IOReader interface {
	io.Reader
	io.Seeker
	io.Closer
}

// IOWriter is the write/seek contract a MediaOutput callbacks-sink
// implements. Mirrors Eyevinn-avpipe's OutputHandler.
type IOWriter interface {
	io.Writer
	io.Seeker
	io.Closer
}

// IOContext is an opaque handle to an AVIOContext bridged to Go read/write
// callbacks through the handle table, following the same
// handle-to-registered-Go-value indirection as avpipe_handler.go's
// gHandlers map (cgo cannot hold a Go pointer to a Go pointer across the
// C/Go boundary for the lifetime of an AVIOContext, so every callback goes
// through an int64 handle instead).
type IOContext unsafe.Pointer

type ioBridgeEntry struct {
	reader IOReader
	writer IOWriter
}

// NewReaderIOContext allocates an AVIOContext that pulls bytes from r.
func NewReaderIOContext(r IOReader, bufferSize int) IOContext {
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	h := globalHandles.put(&ioBridgeEntry{reader: r})
	ctx := C.native_avio_alloc(unsafe.Pointer(uintptr(h)), C.int(bufferSize), 0)
	return IOContext(ctx)
}

// NewWriterIOContext allocates an AVIOContext that pushes bytes to w.
func NewWriterIOContext(w IOWriter, bufferSize int) IOContext {
	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	h := globalHandles.put(&ioBridgeEntry{writer: w})
	ctx := C.native_avio_alloc(unsafe.Pointer(uintptr(h)), C.int(bufferSize), 1)
	return IOContext(ctx)
}

// FreeIOContext releases the AVIOContext and its internal buffer. It does
// not close the underlying Go reader/writer — that is owned by the caller
// who constructed it (MediaInput/MediaOutput close it explicitly).
func FreeIOContext(ctx IOContext) {
	if ctx == nil {
		return
	}
	c := (*C.AVIOContext)(ctx)
	if c.buffer != nil {
		C.av_free(unsafe.Pointer(c.buffer))
	}
	C.avio_context_free((**C.AVIOContext)(unsafe.Pointer(&c)))
}

//export nativeIORead
func nativeIORead(opaque unsafe.Pointer, buf *C.uint8_t, bufSize C.int) C.int {
	h := int64(uintptr(opaque))
	v, _ := globalHandles.get(h).(*ioBridgeEntry)
	if v == nil || v.reader == nil {
		return C.int(-1)
	}
	gobuf := make([]byte, int(bufSize))
	n, err := v.reader.Read(gobuf)
	if n > 0 {
		C.memcpy(unsafe.Pointer(buf), unsafe.Pointer(&gobuf[0]), C.size_t(n))
	}
	if err == io.EOF && n == 0 {
		return C.int(-541478725) // AVERROR_EOF, spelled out to avoid importing avutil/error.h twice
	}
	if err != nil && err != io.EOF {
		return C.int(-1)
	}
	return C.int(n)
}

//export nativeIOWrite
func nativeIOWrite(opaque unsafe.Pointer, buf *C.uint8_t, bufSize C.int) C.int {
	h := int64(uintptr(opaque))
	v, _ := globalHandles.get(h).(*ioBridgeEntry)
	if v == nil || v.writer == nil {
		return C.int(-1)
	}
	gobuf := goBytes(unsafe.Pointer(buf), bufSize)
	n, err := v.writer.Write(gobuf)
	if err != nil {
		return C.int(-1)
	}
	return C.int(n)
}

//export nativeIOSeek
func nativeIOSeek(opaque unsafe.Pointer, offset C.int64_t, whence C.int) C.int64_t {
	h := int64(uintptr(opaque))
	v, _ := globalHandles.get(h).(*ioBridgeEntry)
	if v == nil {
		return C.int64_t(-1)
	}
	var seeker io.Seeker
	if v.reader != nil {
		seeker = v.reader
	} else {
		seeker = v.writer
	}
	// AVSEEK_SIZE (0x10000) asks for the stream size without moving the
	// position; neither IOReader nor IOWriter in this module's contract
	// exposes Size() directly, so report "unknown" the way MediaInput's
	// raw-data descriptors already tolerate (spec.md §4.1 Size() == -1).
	const avseekSize = 0x10000
	if int(whence)&avseekSize != 0 {
		return C.int64_t(-1)
	}
	n, err := seeker.Seek(int64(offset), int(whence))
	if err != nil {
		return C.int64_t(-1)
	}
	return C.int64_t(n)
}
