// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"k8s.io/klog/v2"
)

type nonceKey struct{}

func nonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey{}).(string)
	return nonce
}

// withRequestContext assigns each request a fresh correlation id, which is
// also the nonce of the remote call made on its behalf, and a logger
// carrying it.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := s.newNonce()
		log := s.log.WithValues("correlation_id", nonce)

		ctx := context.WithValue(r.Context(), nonceKey{}, nonce)
		ctx = klog.NewContext(ctx, log)

		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

		log.V(2).Info("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
		)
	})
}
