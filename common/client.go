// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"k8s.io/klog/v2"
)

const DefaultTimeout = 5 * time.Second

// Client holds configuration data associated with the HTTP(s) session
type Client struct {
	HTTPClient http.Client
	// Debug dumps every outgoing request and incoming response to the log
	Debug bool
}

// NewClient instantiates a new Client
func NewClient() *Client {
	return &Client{
		HTTPClient: http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientWithTransport instantiates a new Client using the supplied
// transport and timeout. A zero timeout selects DefaultTimeout.
func NewClientWithTransport(tr http.RoundTripper, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		HTTPClient: http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

// PostResource sends body to uri as-is. The caller owns the response body.
func (c Client) PostResource(ctx context.Context, body []byte, ct, accept, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %q, request creation failed: %w", uri, err)
	}

	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", accept)

	log := klog.FromContext(ctx)

	if c.Debug {
		if dump, err := httputil.DumpRequestOut(req, true); err != nil {
			log.Error(err, "failed to dump request")
		} else {
			log.Info("http request", "dump", string(dump))
		}
	}

	hc := &c.HTTPClient

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}

	log.V(4).Info("http response", "uri", uri, "status", res.StatusCode)

	if c.Debug {
		if dump, err := httputil.DumpResponse(res, true); err != nil {
			log.Error(err, "failed to dump response")
		} else {
			log.Info("http response", "dump", string(dump))
		}
	}

	return res, nil
}
