// Package modelerr defines the failure kinds raised while loading TTS models.
//
// Every error produced here matches ErrModelLoading under errors.Is, so callers
// can handle "any model-loading failure" without enumerating kinds. Fallback
// predicates dispatch on Kind, never on message text.
package modelerr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind identifies a failure category.
type Kind int

const (
	// KindLoad is the umbrella kind. Chain exhaustion is reported with it.
	KindLoad Kind = iota
	// KindNotFound: local files missing, remote repository missing, invalid path.
	KindNotFound
	// KindDownload: network failure, gated repository, interrupted transfer, disk full.
	KindDownload
	// KindDevice: device unavailable, out of memory, invalid device type.
	KindDevice
	// KindFormat: unsupported file format, missing components, incompatible weights.
	KindFormat
	// KindInitialization: post-load setup failed, missing dependency, invalid config.
	KindInitialization
	// KindLanguageNotSupported: no weights for the language or engine lacks it.
	KindLanguageNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "model_loading"
	case KindNotFound:
		return "not_found"
	case KindDownload:
		return "download"
	case KindDevice:
		return "device"
	case KindFormat:
		return "format"
	case KindInitialization:
		return "initialization"
	case KindLanguageNotSupported:
		return "language_not_supported"
	default:
		return "unknown"
	}
}

// ErrModelLoading is the base sentinel. errors.Is(err, ErrModelLoading) holds
// for every *Error regardless of kind.
var ErrModelLoading = errors.New("model loading failed")

// Error is a tagged model-loading failure.
type Error struct {
	Kind Kind
	Msg  string
	// Err is the underlying cause, if any.
	Err error
	// Attempts lists loader names in order. Only set on chain exhaustion.
	Attempts []string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if e.Err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	if sb.Len() == 0 {
		return ErrModelLoading.Error()
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the base sentinel and any *Error of the same kind.
func (e *Error) Is(target error) bool {
	if target == ErrModelLoading {
		return true
	}
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// StatusCode maps the kind to an HTTP status for API surfaces.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindLanguageNotSupported, KindFormat:
		return http.StatusUnprocessableEntity
	case KindDownload:
		return http.StatusBadGateway
	case KindDevice:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newErr(k Kind, msg string, cause error) error {
	return &Error{Kind: k, Msg: msg, Err: cause}
}

// New returns a base-kind error.
func New(msg string) error { return newErr(KindLoad, msg, nil) }

func NotFound(msg string) error { return newErr(KindNotFound, msg, nil) }

func Download(msg string, cause error) error { return newErr(KindDownload, msg, cause) }

func Device(msg string, cause error) error { return newErr(KindDevice, msg, cause) }

func Format(msg string, cause error) error { return newErr(KindFormat, msg, cause) }

func Initialization(msg string, cause error) error {
	return newErr(KindInitialization, msg, cause)
}

func LanguageNotSupported(lang string) error {
	return newErr(KindLanguageNotSupported, "language not supported: "+lang, nil)
}

// Exhausted builds the base-kind error returned when every loader failed.
func Exhausted(msg string, attempts []string, last error) error {
	return &Error{
		Kind:     KindLoad,
		Msg:      msg,
		Err:      last,
		Attempts: append([]string(nil), attempts...),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// HasKind reports whether any *Error in err's chain has kind k. Unlike the
// IsX helpers it sees leaf kinds wrapped by an exhaustion error.
func HasKind(err error, k Kind) bool {
	return errors.Is(err, &Error{Kind: k})
}

func isKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// IsModelLoading reports whether err is any model-loading failure.
func IsModelLoading(err error) bool { return errors.Is(err, ErrModelLoading) }

func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

func IsDownload(err error) bool { return isKind(err, KindDownload) }

func IsDevice(err error) bool { return isKind(err, KindDevice) }

func IsFormat(err error) bool { return isKind(err, KindFormat) }

func IsInitialization(err error) bool { return isKind(err, KindInitialization) }

func IsLanguageNotSupported(err error) bool { return isKind(err, KindLanguageNotSupported) }
