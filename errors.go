package av

import (
	"errors"
	"fmt"
)

// Kind classifies every error this module's public API can return, per
// SPEC_FULL.md's error taxonomy (spec.md §7). An *Error is matched by kind
// with errors.Is against the Err* sentinel values below.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindInvalidState
	KindSourceUnavailable
	KindFormatNotRecognized
	KindProbeFailed
	KindCodecNotFound
	KindCodecOpenFailed
	KindDecodeFailed
	KindEncodeFailed
	KindFilterFailed
	KindFilterConfigFailed
	KindBsfFailed
	KindSeekFailed
	KindWriteFailed
	KindReadFailed
	KindHardwareUnavailable
	KindHardwareIncompatible
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidState:
		return "InvalidState"
	case KindSourceUnavailable:
		return "SourceUnavailable"
	case KindFormatNotRecognized:
		return "FormatNotRecognized"
	case KindProbeFailed:
		return "ProbeFailed"
	case KindCodecNotFound:
		return "CodecNotFound"
	case KindCodecOpenFailed:
		return "CodecOpenFailed"
	case KindDecodeFailed:
		return "DecodeFailed"
	case KindEncodeFailed:
		return "EncodeFailed"
	case KindFilterFailed:
		return "FilterFailed"
	case KindFilterConfigFailed:
		return "FilterConfigFailed"
	case KindBsfFailed:
		return "BsfFailed"
	case KindSeekFailed:
		return "SeekFailed"
	case KindWriteFailed:
		return "WriteFailed"
	case KindReadFailed:
		return "ReadFailed"
	case KindHardwareUnavailable:
		return "HardwareUnavailable"
	case KindHardwareIncompatible:
		return "HardwareIncompatible"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every exported operation in this module
// returns. Op names the failing operation (e.g. "Decoder.Send",
// "MediaOutput.WritePacket") the way Eyevinn-avpipe's log fields tag every
// call site with its function name.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, av.ErrDecodeFailed)-style comparisons: it
// matches when target is one of the kind sentinels below and carries the
// same Kind as e.
func (e *Error) Is(target error) bool {
	var ks *kindSentinel
	if errors.As(target, &ks) {
		return e.Kind == ks.kind
	}
	return false
}

type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return k.kind.String() }

// sentinels let callers write errors.Is(err, av.ErrDecodeFailed).
var (
	ErrInvalidArgument      error = &kindSentinel{KindInvalidArgument}
	ErrInvalidState         error = &kindSentinel{KindInvalidState}
	ErrSourceUnavailable    error = &kindSentinel{KindSourceUnavailable}
	ErrFormatNotRecognized  error = &kindSentinel{KindFormatNotRecognized}
	ErrProbeFailed          error = &kindSentinel{KindProbeFailed}
	ErrCodecNotFound        error = &kindSentinel{KindCodecNotFound}
	ErrCodecOpenFailed      error = &kindSentinel{KindCodecOpenFailed}
	ErrDecodeFailed         error = &kindSentinel{KindDecodeFailed}
	ErrEncodeFailed         error = &kindSentinel{KindEncodeFailed}
	ErrFilterFailed         error = &kindSentinel{KindFilterFailed}
	ErrFilterConfigFailed   error = &kindSentinel{KindFilterConfigFailed}
	ErrBsfFailed            error = &kindSentinel{KindBsfFailed}
	ErrSeekFailed           error = &kindSentinel{KindSeekFailed}
	ErrWriteFailed          error = &kindSentinel{KindWriteFailed}
	ErrReadFailed           error = &kindSentinel{KindReadFailed}
	ErrHardwareUnavailable  error = &kindSentinel{KindHardwareUnavailable}
	ErrHardwareIncompatible error = &kindSentinel{KindHardwareIncompatible}
	ErrCanceled             error = &kindSentinel{KindCanceled}
)

func newErr(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// wrapNative classifies a native.Code/NativeError-derived error under the
// given Kind for the given operation. Every stage implementation funnels
// its libav-adjacent errors through this one function so the taxonomy
// mapping lives in exactly one place per spec.md §7's "propagation policy".
func wrapNative(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return newErr(kind, op, cause.Error(), cause)
}
