package mail

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned before any transport is contacted when the
// message itself is unusable (missing recipient, subject, or body).
var ErrInvalidRequest = errors.New("invalid email request")

// ErrorKind classifies a send failure so handlers can pick a status code
// and callers can decide whether a retry is worthwhile.
type ErrorKind int

const (
	// KindUnknown covers failures we could not classify.
	KindUnknown ErrorKind = iota
	// KindConfiguration means the transport cannot work as configured
	// (missing credentials, unreachable host). Retrying is pointless.
	KindConfiguration
	// KindAuthentication means the provider rejected our credentials.
	KindAuthentication
	// KindRejected means the provider refused this specific message
	// (unverified sender, suppressed recipient).
	KindRejected
	// KindTransient means a retry later may succeed (throttling, timeout).
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRejected:
		return "rejected"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// SendError wraps a transport failure with its classification and the
// transport that produced it.
type SendError struct {
	Transport string
	Kind      ErrorKind
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s send failed (%s): %v", e.Transport, e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// NewSendError builds a classified transport error.
func NewSendError(transport string, kind ErrorKind, err error) *SendError {
	return &SendError{Transport: transport, Kind: kind, Err: err}
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
