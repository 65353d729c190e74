// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/veraison/humancode/humancode"
)

// HumanCode is the subset of humancode.Service the handlers depend on
type HumanCode interface {
	GetSessionID(ctx context.Context, nonce string) (*humancode.SessionResult, error)
	Verify(ctx context.Context, sessionID, vCode, nonce string) (*humancode.VerifyResult, error)
	RegistrationURL(sessionID, callbackURL string) string
	VerificationURL(sessionID, humanID, callbackURL string) string
}

// Server exposes the human verification flow over HTTP. It keeps the
// application key on the server side: clients only ever see session ids and
// page URLs.
type Server struct {
	svc            HumanCode
	callbackURL    string
	humanID        string
	allowedOrigins []string
	newNonce       func() string
	log            logr.Logger
}

type Option func(*Server)

// WithNonceFunc replaces the generator of per-request correlation ids
func WithNonceFunc(fn func() string) Option {
	return func(s *Server) { s.newNonce = fn }
}

func WithLogger(log logr.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithAllowedOrigins lets browsers on the given origins call the endpoints.
// "*" allows any origin. Without this option no CORS headers are sent.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// New creates a Server. callbackURL is embedded in the generated page URLs;
// placeholderHumanID is used for verification URLs when the request does not
// carry a human_id.
func New(svc HumanCode, callbackURL, placeholderHumanID string, opts ...Option) *Server {
	s := &Server{
		svc:         svc,
		callbackURL: callbackURL,
		humanID:     placeholderHumanID,
		newNonce:    uuid.NewString,
		log:         logr.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the router serving all endpoints
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/getSessionId", s.getSessionID).Methods(http.MethodGet)
	r.HandleFunc("/registrationUrl", s.registrationURL).Methods(http.MethodGet)
	r.HandleFunc("/verificationUrl", s.verificationURL).Methods(http.MethodGet)
	r.HandleFunc("/verify", s.verify).Methods(http.MethodGet)

	r.Use(s.withRequestContext)

	if len(s.allowedOrigins) == 0 {
		return r
	}

	// preflights never reach the router: OPTIONS matches no route
	return handlers.CORS(
		handlers.AllowedOrigins(s.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(r)
}
