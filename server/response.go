// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/moogar0880/problems"
	"github.com/veraison/humancode/humancode"
	"k8s.io/klog/v2"
)

// ValidationError reports a request that was rejected without contacting the
// remote service
type ValidationError struct {
	Param string
	Msg   string
}

func (o *ValidationError) Error() string {
	return o.Msg
}

func missingParam(param string) *ValidationError {
	return &ValidationError{Param: param, Msg: fmt.Sprintf("missing required parameter %q", param)}
}

// fail renders err as a problem document. Validation errors map to 400,
// anything else to 500. Transport errors are only logged in full: their text
// may carry the signed upstream URL.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := klog.FromContext(r.Context())

	var verr *ValidationError
	if errors.As(err, &verr) {
		log.V(2).Info("bad request", "param", verr.Param, "reason", verr.Msg)
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Error(err, "request failed")
	writeProblem(w, http.StatusInternalServerError, publicDetail(err))
}

func publicDetail(err error) string {
	var terr *humancode.TransportError
	if !errors.As(err, &terr) {
		return err.Error()
	}

	if terr.StatusCode != 0 {
		return fmt.Sprintf("%s: remote service unavailable (status %d)", terr.Op, terr.StatusCode)
	}

	return fmt.Sprintf("%s: remote service unavailable", terr.Op)
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", problems.ProblemMediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problems.NewDetailedProblem(status, detail))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
