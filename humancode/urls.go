// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

import (
	"fmt"
	"strings"
)

const authenticationPage = "/authentication/index.html"

// RegistrationURL returns the page a user is sent to in order to register.
// Arguments are embedded verbatim, so they must already be URL-safe.
func (o *Service) RegistrationURL(sessionID, callbackURL string) string {
	return fmt.Sprintf("%s%s?session_id=%s&callback_url=%s&ts=%d#/",
		o.baseURL(), authenticationPage, sessionID, callbackURL, o.timestamp())
}

// VerificationURL returns the page a registered user is sent to in order to
// be verified. Arguments are embedded verbatim.
func (o *Service) VerificationURL(sessionID, humanID, callbackURL string) string {
	return fmt.Sprintf("%s%s?session_id=%s&human_id=%s&callback_url=%s&ts=%d#/",
		o.baseURL(), authenticationPage, sessionID, humanID, callbackURL, o.timestamp())
}

func (o *Service) baseURL() string {
	return strings.TrimSuffix(o.EndPointURI.String(), "/")
}
