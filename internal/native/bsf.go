package native

// #include <libavcodec/avcodec.h>
// #include <libavcodec/bsf.h>
// #include <stdlib.h>
import "C"

import "unsafe"

// BSFContext is an opaque AVBSFContext.
type BSFContext unsafe.Pointer

// OpenBSF looks up a bitstream filter by name, copies the source stream's
// codec parameters and time base into it, and initializes it. Mirrors
// spec.md §4.6: "Constructed by name and a Stream; copies the stream's
// codec parameters and time base into the filter."
func OpenBSF(name string, params unsafe.Pointer, tb Rational) (BSFContext, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	filter := C.av_bsf_get_by_name(cname)
	if filter == nil {
		return nil, &NativeError{msg: "bitstream filter not found: " + name}
	}

	var ctx *C.AVBSFContext
	if ret := C.av_bsf_alloc(filter, &ctx); ret < 0 {
		return nil, Code(ret).Err()
	}

	if ret := C.avcodec_parameters_copy(ctx.par_in, (*C.AVCodecParameters)(params)); ret < 0 {
		C.av_bsf_free(&ctx)
		return nil, Code(ret).Err()
	}
	ctx.time_base_in = tb.c()

	if ret := C.av_bsf_init(ctx); ret < 0 {
		C.av_bsf_free(&ctx)
		return nil, Code(ret).Err()
	}

	return BSFContext(ctx), nil
}

// SendBSFPacket pushes a packet (or nil for EOS) into the filter.
func SendBSFPacket(ctx BSFContext, in *SendPacketInput) error {
	c := (*C.AVBSFContext)(ctx)
	if in == nil {
		ret := C.av_bsf_send_packet(c, nil)
		return codecSendErr(ret)
	}
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)
	if len(in.Data) > 0 {
		if ret := C.av_new_packet(pkt, C.int(len(in.Data))); ret < 0 {
			return Code(ret).Err()
		}
		C.memcpy(unsafe.Pointer(pkt.data), unsafe.Pointer(&in.Data[0]), C.size_t(len(in.Data)))
	}
	pkt.pts = C.int64_t(in.Pts)
	pkt.dts = C.int64_t(in.Dts)
	pkt.duration = C.int64_t(in.Duration)
	pkt.flags = C.int(in.Flags)
	ret := C.av_bsf_send_packet(c, pkt)
	return codecSendErr(ret)
}

// ReceiveBSFPacket polls the filter for the next of potentially many
// output packets (spec.md §4.6: "zero, one, or many outputs").
func ReceiveBSFPacket(ctx BSFContext) (*ReadPacketResult, error) {
	c := (*C.AVBSFContext)(ctx)
	pkt := C.av_packet_alloc()
	defer C.av_packet_free(&pkt)
	ret := C.av_bsf_receive_packet(c, pkt)
	if ret < 0 {
		code := Code(ret)
		if code.IsAgain() || code.IsEOF() {
			return nil, code
		}
		return nil, code.Err()
	}
	return &ReadPacketResult{
		Pts:      int64(pkt.pts),
		Dts:      int64(pkt.dts),
		Duration: int64(pkt.duration),
		Flags:    int(pkt.flags),
		Data:     goBytes(unsafe.Pointer(pkt.data), pkt.size),
	}, nil
}

// ResetBSF returns internal buffers to the post-construction state
// (spec.md §8: reset() idempotence property) by flushing the filter in
// place with av_bsf_flush.
func ResetBSF(ctx BSFContext) error {
	c := (*C.AVBSFContext)(ctx)
	if ret := C.av_bsf_flush(c); ret < 0 {
		return Code(ret).Err()
	}
	return nil
}

// OutputParameters returns the filter's output AVCodecParameters pointer.
func OutputParameters(ctx BSFContext) unsafe.Pointer {
	return unsafe.Pointer((*C.AVBSFContext)(ctx).par_out)
}

// OutputTimeBaseBSF returns the filter's output time base.
func OutputTimeBaseBSF(ctx BSFContext) Rational {
	return fromCRational((*C.AVBSFContext)(ctx).time_base_out)
}

// FreeBSF releases the filter context.
func FreeBSF(ctx BSFContext) {
	c := (*C.AVBSFContext)(ctx)
	C.av_bsf_free(&c)
}
