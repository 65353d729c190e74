// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package humancode implements a client for the human verification API.

Every call to the API carries a JSON body and two query parameters: app_id,
the application identifier, and sign, the HMAC-SHA256 of the body keyed by the
application key, in lowercase hex. The signature is computed over the exact
bytes sent on the wire.

The user creates a Service supplying the base URL of the remote service, the
application id and a signer holding the application key:

	signer, err := auth.NewHMACSigner(appKey)
	if err != nil { ... }

	svc, err := humancode.NewService("https://humancodeai.com", appID, signer)
	if err != nil { ... }

The user can also supply a custom Client object, for example to appropriately
configure the underlying TLS transport or the request timeout:

	tr, err := auth.NewTransport([]string{"/etc/ssl/humancode-ca.pem"})
	if err != nil { ... }

	err = svc.SetClient(common.NewClientWithTransport(tr, 10*time.Second))

A verification session is opened with GetSessionID. The nonce must be unique
per call, the remote side uses it to reject replays:

	session, err := svc.GetSessionID(ctx, uuid.NewString())

The session id is then embedded in the page the user is redirected to, either
to register:

	u := svc.RegistrationURL(session.SessionID, "https://app.example/verify")

or, for an already registered human, to be verified:

	u := svc.VerificationURL(session.SessionID, humanID, "https://app.example/verify")

Neither builder escapes its arguments. Once the user is sent back to the
callback URL with a verification code, the code is checked with Verify:

	res, err := svc.Verify(ctx, sessionID, vcode, uuid.NewString())
	if err == nil {
		fmt.Println(res.HumanID)
	}

Failures reported by the remote API in its envelope are returned as *APIError.
Anything that prevents a usable envelope from being received is returned as
*TransportError.
*/
package humancode
