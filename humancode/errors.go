// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

import "fmt"

// TransportError is returned when the call to the remote API could not be
// completed: network failures, timeouts, and responses that do not carry a
// usable envelope.
type TransportError struct {
	Op         string
	StatusCode int // zero if no response was received
	Err        error
}

func (o *TransportError) Error() string {
	if o.StatusCode != 0 {
		return fmt.Sprintf("%s: request failed (status %d): %v", o.Op, o.StatusCode, o.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", o.Op, o.Err)
}

func (o *TransportError) Unwrap() error {
	return o.Err
}

// APIError is returned when the remote API replied with an envelope reporting
// a failure.
type APIError struct {
	Op         string
	StatusCode int
	Code       int
	Msg        string
}

func (o *APIError) Error() string {
	return fmt.Sprintf("%s: API error: code: %d, msg: %s", o.Op, o.Code, o.Msg)
}
