package network

import (
	"context"
	"errors"
	"fmt"
)

// FailReason tells why a network operation did not complete.
type FailReason string

const (
	// GenericFail is used when the cause is not distinguishable to the caller.
	GenericFail FailReason = "generic_fail"
	NotFound    FailReason = "not_found"
	Timeout     FailReason = "timeout"
	Canceled    FailReason = "canceled"
	Transport   FailReason = "transport_error"
	// Malformed means the stored value could not be encoded or decoded.
	Malformed FailReason = "malformed_value"
	// Unavailable means the network refused to take on more work.
	Unavailable FailReason = "unavailable"
)

// Failure is the error carried by a failed operation.
type Failure struct {
	Op     string // "get", "set", "store" or "query"
	Key    string
	Reason FailReason
	Err    error
}

// Fail builds a Failure. err may be nil.
func Fail(op, key string, reason FailReason, err error) *Failure {
	return &Failure{Op: op, Key: key, Reason: reason, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s %s: %s", f.Op, f.Key, f.Reason)
	}
	return fmt.Sprintf("%s %s: %s: %v", f.Op, f.Key, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// ReasonOf extracts the FailReason from err. Context errors map to Canceled
// and Timeout; anything else without a Failure in its chain is GenericFail.
// ReasonOf(nil) is the empty reason.
func ReasonOf(err error) FailReason {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, context.Canceled):
		return Canceled
	}
	return GenericFail
}
