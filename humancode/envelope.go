// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

// ClientResponse models the envelope wrapping every reply of the remote API.
// A zero Code denotes success, anything else is a failure described by Msg.
type ClientResponse[T any] struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result T      `json:"result"`
}

// SessionResult is the payload of a successful get_id call
type SessionResult struct {
	SessionID string `json:"session_id"`
}

// VerifyResult is the payload of a successful verify call
type VerifyResult struct {
	HumanID string `json:"human_id"`
}

// sessionRequest is the body of a get_id call. The timestamp is carried as a
// decimal string of milliseconds since the epoch.
type sessionRequest struct {
	Timestamp string `json:"timestamp"`
	NonceStr  string `json:"nonce_str"`
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
	VCode     string `json:"vcode"`
	Timestamp string `json:"timestamp"`
	NonceStr  string `json:"nonce_str"`
}
