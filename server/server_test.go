// Copyright 2024 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/moogar0880/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/humancode/auth"
	"github.com/veraison/humancode/common"
	"github.com/veraison/humancode/humancode"
)

const (
	testBaseURI     = "http://humancode.example"
	testAppID       = "app-1"
	testAppKey      = "s3cr3t"
	testCallbackURL = "http://app.example/verify"
	testHumanID     = "123456"
	testNonce       = "9f0c1a52-6c1e-4c4e-8a4e-0f2b7d3c9a11"
)

// fakeRemote plays the human verification service and records the calls it
// receives, keyed by path
type fakeRemote struct {
	t       *testing.T
	replies map[string]string

	mu     sync.Mutex
	calls  map[string]int
	nonces []string
}

func (o *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(o.t, err)
	assert.Equal(o.t, auth.Sign([]byte(testAppKey), body), r.URL.Query().Get("sign"))

	var req struct {
		NonceStr string `json:"nonce_str"`
	}
	require.NoError(o.t, json.Unmarshal(body, &req))

	o.mu.Lock()
	o.calls[r.URL.Path]++
	o.nonces = append(o.nonces, req.NonceStr)
	o.mu.Unlock()

	reply, ok := o.replies[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write([]byte(reply))
	assert.NoError(o.t, err)
}

func (o *fakeRemote) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[path]
}

func newTestServer(t *testing.T, replies map[string]string) (http.Handler, *fakeRemote) {
	remote := &fakeRemote{t: t, replies: replies, calls: map[string]int{}}

	client, teardown := common.NewTestingHTTPClient(remote)
	t.Cleanup(teardown)

	svc, err := humancode.NewService(testBaseURI, testAppID, &auth.HMACSigner{AppKey: testAppKey})
	require.NoError(t, err)
	require.NoError(t, svc.SetClient(client))

	s := New(svc, testCallbackURL, testHumanID, WithNonceFunc(func() string { return testNonce }))

	return s.Handler(), remote
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) *problems.DefaultProblem {
	assert.Equal(t, problems.ProblemMediaType, w.Header().Get("Content-Type"))

	var p problems.DefaultProblem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, w.Code, p.Status)

	return &p
}

const sessionOK = `{"code":0,"msg":null,"result":{"session_id":"abc123"}}`

func TestServer_index(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := get(h, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestServer_getSessionId(t *testing.T) {
	h, remote := newTestServer(t, map[string]string{
		humancode.SessionPath: sessionOK,
	})

	w := get(h, "/getSessionId")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"session_id":"abc123"}`, w.Body.String())

	// the correlation id is the nonce of the remote call
	assert.Equal(t, []string{testNonce}, remote.nonces)
}

func TestServer_getSessionId_api_error(t *testing.T) {
	h, _ := newTestServer(t, map[string]string{
		humancode.SessionPath: `{"code":1001,"msg":"invalid app_id"}`,
	})

	w := get(h, "/getSessionId")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	p := decodeProblem(t, w)
	assert.Contains(t, p.Detail, "invalid app_id")
}

func TestServer_getSessionId_transport_error(t *testing.T) {
	// no reply configured: the remote answers 404 with no envelope
	h, _ := newTestServer(t, map[string]string{})

	w := get(h, "/getSessionId")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	p := decodeProblem(t, w)
	assert.Equal(t, "get session id: remote service unavailable (status 404)", p.Detail)
}

func TestServer_getSessionId_network_error(t *testing.T) {
	client, teardown := common.NewTestingHTTPClient(http.NotFoundHandler())
	teardown()

	svc, err := humancode.NewService(testBaseURI, testAppID, &auth.HMACSigner{AppKey: testAppKey})
	require.NoError(t, err)
	require.NoError(t, svc.SetClient(client))

	h := New(svc, testCallbackURL, testHumanID).Handler()

	w := get(h, "/getSessionId")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	p := decodeProblem(t, w)
	assert.Equal(t, "get session id: remote service unavailable", p.Detail)
	assert.NotContains(t, p.Detail, "sign=")
	assert.NotContains(t, p.Detail, testAppID)
}

func TestServer_registrationUrl(t *testing.T) {
	h, remote := newTestServer(t, map[string]string{
		humancode.SessionPath: sessionOK,
	})

	w := get(h, "/registrationUrl")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	u := w.Body.String()
	assert.True(t, strings.HasPrefix(u, testBaseURI+"/authentication/index.html?session_id=abc123&callback_url="+testCallbackURL+"&ts="), u)
	assert.True(t, strings.HasSuffix(u, "#/"), u)
	assert.NotContains(t, u, "human_id=")
	assert.Equal(t, 1, remote.count(humancode.SessionPath))
}

func TestServer_verificationUrl_placeholder(t *testing.T) {
	h, _ := newTestServer(t, map[string]string{
		humancode.SessionPath: sessionOK,
	})

	w := get(h, "/verificationUrl")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session_id=abc123&human_id="+testHumanID+"&callback_url="+testCallbackURL)
}

func TestServer_verificationUrl_human_id(t *testing.T) {
	h, _ := newTestServer(t, map[string]string{
		humancode.SessionPath: sessionOK,
	})

	w := get(h, "/verificationUrl?human_id=h-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "session_id=abc123&human_id=h-1&callback_url=")
}

func TestServer_verificationUrl_error(t *testing.T) {
	h, _ := newTestServer(t, map[string]string{
		humancode.SessionPath: `{"code":1001,"msg":"invalid app_id"}`,
	})

	w := get(h, "/verificationUrl")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decodeProblem(t, w)
}

func TestServer_verify_error_code(t *testing.T) {
	h, remote := newTestServer(t, map[string]string{
		humancode.VerifyPath: `{"code":0,"result":{"human_id":"h-1"}}`,
	})

	w := get(h, "/verify?session_id=s1&vcode=123456&error_code=5")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p := decodeProblem(t, w)
	assert.Contains(t, p.Detail, "5")
	assert.Equal(t, 0, remote.count(humancode.VerifyPath))
}

func TestServer_verify_ok(t *testing.T) {
	h, remote := newTestServer(t, map[string]string{
		humancode.VerifyPath: `{"code":0,"result":{"human_id":"h-1"}}`,
	})

	w := get(h, "/verify?session_id=s1&vcode=123456&error_code=0")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"human_id":"h-1"}`, w.Body.String())
	assert.Equal(t, 1, remote.count(humancode.VerifyPath))
}

func TestServer_verify_api_error(t *testing.T) {
	h, _ := newTestServer(t, map[string]string{
		humancode.VerifyPath: `{"code":2002,"msg":"vcode expired"}`,
	})

	w := get(h, "/verify?session_id=s1&vcode=000000&error_code=0")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	p := decodeProblem(t, w)
	assert.Contains(t, p.Detail, "vcode expired")
}

func TestServer_verify_bad_params(t *testing.T) {
	h, remote := newTestServer(t, map[string]string{
		humancode.VerifyPath: `{"code":0,"result":{"human_id":"h-1"}}`,
	})

	for target, detail := range map[string]string{
		"/verify?session_id=s1&vcode=1":              `missing required parameter "error_code"`,
		"/verify?session_id=s1&vcode=1&error_code=x": `invalid error_code "x": not an integer`,
		"/verify?vcode=1&error_code=0":               `missing required parameter "session_id"`,
		"/verify?session_id=s1&error_code=0":         `missing required parameter "vcode"`,
	} {
		w := get(h, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		p := decodeProblem(t, w)
		assert.Equal(t, detail, p.Detail, target)
	}

	assert.Equal(t, 0, remote.count(humancode.VerifyPath))
}

func TestServer_method_not_allowed(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/getSessionId", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_fresh_nonce_per_request(t *testing.T) {
	remote := &fakeRemote{t: t, replies: map[string]string{humancode.SessionPath: sessionOK}, calls: map[string]int{}}

	client, teardown := common.NewTestingHTTPClient(remote)
	defer teardown()

	svc, err := humancode.NewService(testBaseURI, testAppID, &auth.HMACSigner{AppKey: testAppKey})
	require.NoError(t, err)
	require.NoError(t, svc.SetClient(client))

	h := New(svc, testCallbackURL, testHumanID).Handler()

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(h, "/getSessionId").Code)
	}

	require.Len(t, remote.nonces, 3)
	assert.NotEqual(t, remote.nonces[0], remote.nonces[1])
	assert.NotEqual(t, remote.nonces[1], remote.nonces[2])
	for _, n := range remote.nonces {
		assert.NotEmpty(t, n)
	}
}

func TestServer_Serve(t *testing.T) {
	s := New(nil, testCallbackURL, testHumanID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Serve(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	err := s.Serve(context.Background(), "bad::addr::")
	assert.Error(t, err)
}

func TestServer_cors(t *testing.T) {
	remote := &fakeRemote{t: t, replies: map[string]string{humancode.SessionPath: sessionOK}, calls: map[string]int{}}

	client, teardown := common.NewTestingHTTPClient(remote)
	defer teardown()

	svc, err := humancode.NewService(testBaseURI, testAppID, &auth.HMACSigner{AppKey: testAppKey})
	require.NoError(t, err)
	require.NoError(t, svc.SetClient(client))

	h := New(svc, testCallbackURL, testHumanID, WithAllowedOrigins("http://front.example")).Handler()

	preflight := httptest.NewRequest(http.MethodOptions, "/getSessionId", nil)
	preflight.Header.Set("Origin", "http://front.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://front.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, remote.count(humancode.SessionPath))

	req := httptest.NewRequest(http.MethodGet, "/getSessionId", nil)
	req.Header.Set("Origin", "http://front.example")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://front.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"session_id":"abc123"}`, w.Body.String())

	// other origins get no grant
	req = httptest.NewRequest(http.MethodGet, "/getSessionId", nil)
	req.Header.Set("Origin", "http://evil.example")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_cors_any_origin(t *testing.T) {
	h := New(nil, testCallbackURL, testHumanID, WithAllowedOrigins("*")).Handler()

	preflight := httptest.NewRequest(http.MethodOptions, "/verify", nil)
	preflight.Header.Set("Origin", "http://anywhere.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_no_cors_by_default(t *testing.T) {
	h, _ := newTestServer(t, nil)

	preflight := httptest.NewRequest(http.MethodOptions, "/getSessionId", nil)
	preflight.Header.Set("Origin", "http://front.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
