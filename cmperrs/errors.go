// Package cmperrs defines the closed error taxonomy surfaced by the cmp codec.
//
// The codec's operations report failures as one of the sentinel values
// below, or as an *Error built by Wrap that carries a sentinel's Kind plus
// additional context; errors.Is matches either against the sentinel of the
// same Kind. Callers that need to branch on the failure class
// should use errors.Is against the sentinels, or the Code helper which maps
// any error produced by this module back to its Kind.
package cmperrs

import "errors"

// Kind identifies the class of a cmp error. The set of kinds is closed and
// mirrors the closed error taxonomy the codec surfaces.
type Kind uint8

const (
	KindNone Kind = iota
	KindGeneric
	KindSmallBuf
	KindParGeneric
	KindParSpecific
	KindParBuffers
	KindParMaxUsedBits
	KindParNull
	KindChunkNull
	KindChunkTooLarge
	KindChunkTooSmall
	KindChunkSizeInconsistent
	KindChunkSubserviceInconsistent
	KindColSubserviceUnsupported
	KindColSizeInconsistent
	KindEntityNull
	KindEntityTooSmall
	KindEntityHeader
	KindEntityTimestamp
	KindIntDecoder
	KindIntDataTypeUnsupported
	KindIntCmpColTooLarge
	KindDataValueTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "GENERIC"
	case KindSmallBuf:
		return "SMALL_BUF"
	case KindParGeneric:
		return "PAR_GENERIC"
	case KindParSpecific:
		return "PAR_SPECIFIC"
	case KindParBuffers:
		return "PAR_BUFFERS"
	case KindParMaxUsedBits:
		return "PAR_MAX_USED_BITS"
	case KindParNull:
		return "PAR_NULL"
	case KindChunkNull:
		return "CHUNK_NULL"
	case KindChunkTooLarge:
		return "CHUNK_TOO_LARGE"
	case KindChunkTooSmall:
		return "CHUNK_TOO_SMALL"
	case KindChunkSizeInconsistent:
		return "CHUNK_SIZE_INCONSISTENT"
	case KindChunkSubserviceInconsistent:
		return "CHUNK_SUBSERVICE_INCONSISTENT"
	case KindColSubserviceUnsupported:
		return "COL_SUBSERVICE_UNSUPPORTED"
	case KindColSizeInconsistent:
		return "COL_SIZE_INCONSISTENT"
	case KindEntityNull:
		return "ENTITY_NULL"
	case KindEntityTooSmall:
		return "ENTITY_TOO_SMALL"
	case KindEntityHeader:
		return "ENTITY_HEADER"
	case KindEntityTimestamp:
		return "ENTITY_TIMESTAMP"
	case KindIntDecoder:
		return "INT_DECODER"
	case KindIntDataTypeUnsupported:
		return "INT_DATA_TYPE_UNSUPPORTED"
	case KindIntCmpColTooLarge:
		return "INT_CMP_COL_TOO_LARGE"
	case KindDataValueTooLarge:
		return "DATA_VALUE_TOO_LARGE"
	default:
		return "NONE"
	}
}

// Error wraps a Kind so it can travel through the standard error interface
// while remaining inspectable via Code.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.kind.String()
	}

	return e.kind.String() + ": " + e.err.Error()
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel Kind, so errors.Is(err,
// ErrSmallBuf) works against a wrapped *Error produced by Wrap.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.kind == e.kind
	}

	return false
}

// Wrap attaches kind to err, producing a value usable with errors.Is/As and
// with Code. If err is nil, Wrap still returns a non-nil *Error carrying
// only the kind.
func Wrap(kind Kind, err error) error {
	return &Error{kind: kind, err: err}
}

// Code returns the Kind carried by err, or KindNone if err was not produced
// by this package (or is nil).
func Code(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindNone
}

// Sentinel errors for the closed taxonomy. Each corresponds 1:1 to a Kind and
// can be used directly with errors.Is, or as the target of errors.As via
// Code(err).
var (
	ErrGeneric                    = Wrap(KindGeneric, errors.New("unclassified invariant violation"))
	ErrSmallBuf                   = Wrap(KindSmallBuf, errors.New("output buffer cannot hold the next write"))
	ErrParGeneric                 = Wrap(KindParGeneric, errors.New("invalid configuration"))
	ErrParSpecific                = Wrap(KindParSpecific, errors.New("invalid per-field configuration"))
	ErrParBuffers                 = Wrap(KindParBuffers, errors.New("invalid buffer configuration"))
	ErrParMaxUsedBits             = Wrap(KindParMaxUsedBits, errors.New("invalid max_used_bits registry"))
	ErrParNull                    = Wrap(KindParNull, errors.New("required parameter is nil"))
	ErrChunkNull                  = Wrap(KindChunkNull, errors.New("chunk is nil or empty"))
	ErrChunkTooLarge              = Wrap(KindChunkTooLarge, errors.New("chunk exceeds maximum size"))
	ErrChunkTooSmall              = Wrap(KindChunkTooSmall, errors.New("chunk has no collections"))
	ErrChunkSizeInconsistent      = Wrap(KindChunkSizeInconsistent, errors.New("chunk size does not match declared collection lengths"))
	ErrChunkSubserviceInconsistent = Wrap(KindChunkSubserviceInconsistent, errors.New("collections in chunk map to different chunk types"))
	ErrColSubserviceUnsupported   = Wrap(KindColSubserviceUnsupported, errors.New("collection subservice has no known chunk type"))
	ErrColSizeInconsistent        = Wrap(KindColSizeInconsistent, errors.New("collection payload length does not match header"))
	ErrEntityNull                 = Wrap(KindEntityNull, errors.New("entity buffer is nil or empty"))
	ErrEntityTooSmall             = Wrap(KindEntityTooSmall, errors.New("entity buffer smaller than its declared header"))
	ErrEntityHeader                = Wrap(KindEntityHeader, errors.New("entity header is malformed"))
	ErrEntityTimestamp            = Wrap(KindEntityTimestamp, errors.New("entity start/end timestamp is invalid"))
	ErrIntDecoder                 = Wrap(KindIntDecoder, errors.New("internal decoder assertion failed"))
	ErrIntDataTypeUnsupported     = Wrap(KindIntDataTypeUnsupported, errors.New("data type is not supported by this decoder"))
	ErrIntCmpColTooLarge          = Wrap(KindIntCmpColTooLarge, errors.New("compressed collection exceeds 65535 bytes"))
	ErrDataValueTooLarge          = Wrap(KindDataValueTooLarge, errors.New("sample exceeds declared max_used_bits"))
)
