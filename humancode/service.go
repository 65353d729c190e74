// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package humancode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/veraison/humancode/auth"
	"github.com/veraison/humancode/common"
	"k8s.io/klog/v2"
)

const (
	SessionPath = "/api/session/v2/get_id"
	VerifyPath  = "/api/vcode/v2/verify"
)

// Service is the primary interface to the human verification API.
type Service struct {
	// Client is the underlying client used for HTTP requests.
	Client *common.Client

	// Signer computes the sign query parameter over each request body.
	Signer auth.ISigner

	// EndPointURI is the base URL of the remote service. API operations and
	// the authentication pages are relative to this.
	EndPointURI *url.URL

	// AppID identifies this application to the remote service.
	AppID string

	now func() time.Time
}

// NewService creates a new Service instance using the provided endpoint URI,
// application id and signer, and the default HTTP client.
func NewService(uri string, appID string, signer auth.ISigner) (*Service, error) {
	if appID == "" {
		return nil, errors.New("no app id supplied")
	}

	if signer == nil {
		return nil, errors.New("no signer supplied")
	}

	s := Service{
		Client: common.NewClient(),
		Signer: signer,
		AppID:  appID,
		now:    time.Now,
	}

	if err := s.SetEndpointURI(uri); err != nil {
		return nil, err
	}

	return &s, nil
}

// SetClient sets the HTTP(s) client connection configuration
func (o *Service) SetClient(client *common.Client) error {
	if client == nil {
		return errors.New("no client supplied")
	}
	o.Client = client
	return nil
}

// SetEndpointURI sets the base URI of the remote service.
func (o *Service) SetEndpointURI(uri string) error {
	u, err := common.ParseBaseURI(uri)
	if err != nil {
		return err
	}

	o.EndPointURI = u

	return nil
}

func (o *Service) timestamp() int64 {
	if o.now == nil {
		return time.Now().UnixMilli()
	}
	return o.now().UnixMilli()
}

// post signs body, sends it to the operation endpoint at path, and unwraps the
// envelope in the response.
func post[T any](ctx context.Context, o *Service, op, path string, body []byte) (*T, error) {
	if o.Client == nil {
		return nil, errors.New("bad configuration: nil client")
	}

	if o.Signer == nil {
		return nil, errors.New("bad configuration: nil signer")
	}

	sign, err := o.Signer.Sign(body)
	if err != nil {
		return nil, fmt.Errorf("%s: signing request: %w", op, err)
	}

	q := url.Values{}
	q.Set("app_id", o.AppID)
	q.Set("sign", sign)
	uri := common.EndpointURI(o.EndPointURI, path, q)

	log := klog.FromContext(ctx).WithValues("op", op)
	log.V(4).Info("calling remote API", "path", path)

	res, err := o.Client.PostResource(ctx, body, common.JSONMediaType, common.JSONMediaType, uri)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if !common.IsSuccess(res.StatusCode) && common.IsProblem(res) {
		return nil, &TransportError{Op: op, StatusCode: res.StatusCode, Err: common.CheckResponse(res)}
	}

	var envelope ClientResponse[T]

	if err := common.DecodeJSONBody(res, &envelope); err != nil {
		if !common.IsSuccess(res.StatusCode) {
			err = fmt.Errorf("unexpected HTTP response code %d", res.StatusCode)
		} else {
			err = fmt.Errorf("failure decoding response body: %w", err)
		}
		return nil, &TransportError{Op: op, StatusCode: res.StatusCode, Err: err}
	}

	if !common.IsSuccess(res.StatusCode) {
		// an empty envelope says nothing more than the status line does
		if envelope.Code == 0 && envelope.Msg == "" {
			return nil, &TransportError{
				Op:         op,
				StatusCode: res.StatusCode,
				Err:        fmt.Errorf("unexpected HTTP response code %d", res.StatusCode),
			}
		}
		return nil, &APIError{Op: op, StatusCode: res.StatusCode, Code: envelope.Code, Msg: envelope.Msg}
	}

	if envelope.Code != 0 {
		return nil, &APIError{Op: op, StatusCode: res.StatusCode, Code: envelope.Code, Msg: envelope.Msg}
	}

	return &envelope.Result, nil
}

func formatTimestamp(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
