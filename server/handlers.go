// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net/http"
	"strconv"

	"k8s.io/klog/v2"
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getSessionID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := s.svc.GetSessionID(ctx, nonceFromContext(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) registrationURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := s.svc.GetSessionID(ctx, nonceFromContext(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeText(w, http.StatusOK, s.svc.RegistrationURL(res.SessionID, s.callbackURL))
}

func (s *Server) verificationURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	humanID := r.URL.Query().Get("human_id")
	if humanID == "" {
		klog.FromContext(ctx).Info("no human_id supplied, using placeholder", "human_id", s.humanID)
		humanID = s.humanID
	}

	res, err := s.svc.GetSessionID(ctx, nonceFromContext(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeText(w, http.StatusOK, s.svc.VerificationURL(res.SessionID, humanID, s.callbackURL))
}

// verify is the target of the callback URL. The authentication page reports
// its outcome in error_code; only a zero code carries a usable vcode.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	errorCode, err := requiredInt(q.Get("error_code"), "error_code")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if errorCode != 0 {
		s.fail(w, r, &ValidationError{Param: "error_code", Msg: fmt.Sprintf("Error code: %d", errorCode)})
		return
	}

	sessionID := q.Get("session_id")
	if sessionID == "" {
		s.fail(w, r, missingParam("session_id"))
		return
	}

	vCode := q.Get("vcode")
	if vCode == "" {
		s.fail(w, r, missingParam("vcode"))
		return
	}

	res, err := s.svc.Verify(ctx, sessionID, vCode, nonceFromContext(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func requiredInt(v, param string) (int, error) {
	if v == "" {
		return 0, missingParam(param)
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ValidationError{Param: param, Msg: fmt.Sprintf("invalid %s %q: not an integer", param, v)}
	}

	return i, nil
}
