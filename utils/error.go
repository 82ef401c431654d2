package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidState marks operations that hit a record in a state that
// cannot accept them (e.g. verifying a non-receipt payment).
var ErrorInvalidState = errors.New("invalid state")

// ErrorUpstreamFailure wraps failures of external collaborators
// (payment gateway, object storage).
var ErrorUpstreamFailure = errors.New("upstream failure")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
