// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const JSONMediaType = "application/json"

// ParseBaseURI makes sure that the supplied URI is usable as the root of the
// remote API
func ParseBaseURI(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("malformed URI: %w", err)
	}

	if !u.IsAbs() {
		return nil, fmt.Errorf("URI is not absolute: %q", uri)
	}

	return u, nil
}

// EndpointURI joins the operation path to base and attaches the supplied
// query parameters
func EndpointURI(base *url.URL, path string, query url.Values) string {
	u := base.JoinPath(path)
	u.RawQuery = query.Encode()

	return u.String()
}

func DecodeJSONBody(res *http.Response, j interface{}) error {
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(j)
}

// IsSuccess tells whether the status code is in the 2xx range
func IsSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
