// Copyright (c) 2026 Palantir Technologies. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package awsjson_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/awsjson"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	target        string
	contentType   string
	authorization string
	userAgent     string
	body          string
}

func newRecordingServer(t *testing.T, handler func(rw http.ResponseWriter, req recordedRequest)) (*httptest.Server, func() []recordedRequest) {
	var mu sync.Mutex
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		recorded := recordedRequest{
			target:        req.Header.Get("X-Amz-Target"),
			contentType:   req.Header.Get("Content-Type"),
			authorization: req.Header.Get("Authorization"),
			userAgent:     req.Header.Get("User-Agent"),
			body:          string(body),
		}
		mu.Lock()
		requests = append(requests, recorded)
		mu.Unlock()
		handler(rw, recorded)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestInvoker_Invoke(t *testing.T) {
	svc := newTestService(t)
	server, requests := newRecordingServer(t, func(rw http.ResponseWriter, req recordedRequest) {
		rw.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_, _ = rw.Write([]byte(`{"KeyPhrases":[{"Score":0.5,"Text":"Seattle","BeginOffset":23,"EndOffset":30}]}`))
	})

	client, err := awsjson.NewHTTPClient(context.Background(), svc, httpclient.ClientConfig{
		URIs: []string{server.URL},
	}, httpclient.WithStaticCredentials("AKIDEXAMPLE", "secret", ""), httpclient.WithRegion("us-east-1"))
	require.NoError(t, err)
	invoker := awsjson.NewInvoker(svc, client)
	assert.Same(t, svc, invoker.Service())

	out, err := invoker.Invoke(context.Background(), "DetectKeyPhrases", detectKeyPhrasesInput(t, svc))
	require.NoError(t, err)

	op, err := svc.Operation("DetectKeyPhrases")
	require.NoError(t, err)
	keyPhrase, ok := svc.Schemas.Lookup("KeyPhrase")
	require.True(t, ok)
	expected := schema.MustNewObject(op.Output, map[string]any{
		"KeyPhrases": []any{schema.MustNewObject(keyPhrase, map[string]any{
			"Score":       float32(0.5),
			"Text":        "Seattle",
			"BeginOffset": int32(23),
			"EndOffset":   int32(30),
		})},
	})
	assert.True(t, expected.Equal(out.(*schema.Object)))

	recorded := requests()
	require.Len(t, recorded, 1)
	assert.Equal(t, "Comprehend_20171127.DetectKeyPhrases", recorded[0].target)
	assert.Equal(t, "application/x-amz-json-1.1", recorded[0].contentType)
	assert.Equal(t, `{"Text":"It is raining today in Seattle","LanguageCode":"en"}`, recorded[0].body)
	assert.True(t, strings.Contains(recorded[0].authorization, "/us-east-1/comprehend/aws4_request"), recorded[0].authorization)
	assert.True(t, strings.HasPrefix(recorded[0].userAgent, "api/comprehend#2017-11-27 "), recorded[0].userAgent)
}

func TestInvoker_EmptyResponse(t *testing.T) {
	svc := newTestService(t)
	server, _ := newRecordingServer(t, func(rw http.ResponseWriter, req recordedRequest) {})
	client, err := awsjson.NewHTTPClient(context.Background(), svc, httpclient.ClientConfig{URIs: []string{server.URL}})
	require.NoError(t, err)

	op, err := svc.Operation("DeleteFlywheel")
	require.NoError(t, err)
	input := schema.MustNewObject(op.Input, map[string]any{"FlywheelArn": "arn:aws:comprehend:us-east-1:123456789012:flywheel/fw"})
	out, err := awsjson.NewInvoker(svc, client).Invoke(context.Background(), "DeleteFlywheel", input)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 0, out.(*schema.Object).Schema().NumFields())
}

func TestInvoker_ServiceError(t *testing.T) {
	svc := newTestService(t)
	server, requests := newRecordingServer(t, func(rw http.ResponseWriter, req recordedRequest) {
		rw.Header().Set("X-Amzn-RequestId", "req-1")
		rw.WriteHeader(http.StatusBadRequest)
		_, _ = rw.Write([]byte(`{"__type":"com.amazonaws.comprehend#TextSizeLimitExceededException","Message":"text too long"}`))
	})
	client, err := awsjson.NewHTTPClient(context.Background(), svc, httpclient.ClientConfig{URIs: []string{server.URL}})
	require.NoError(t, err)

	_, err = awsjson.NewInvoker(svc, client).Invoke(context.Background(), "DetectKeyPhrases", detectKeyPhrasesInput(t, svc))
	require.Error(t, err)
	svcErr, ok := errors.ServiceErrorFromError(err)
	require.True(t, ok)
	assert.Equal(t, &errors.ServiceError{
		ServiceName: "Comprehend",
		Code:        "TextSizeLimitExceededException",
		Message:     "text too long",
		StatusCode:  http.StatusBadRequest,
		RequestID:   "req-1",
		Type:        errors.ErrorTypeClient,
	}, svcErr)
	assert.Len(t, requests(), 1, "client errors are not retried")
}

func TestInvoker_ThrottlingCodeFromManifestIsRetried(t *testing.T) {
	svc := newTestService(t)
	var mu sync.Mutex
	calls := 0
	server, _ := newRecordingServer(t, func(rw http.ResponseWriter, req recordedRequest) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			rw.WriteHeader(http.StatusBadRequest)
			_, _ = rw.Write([]byte(`{"__type":"TooManyRequestsException"}`))
			return
		}
		_, _ = rw.Write([]byte(`{}`))
	})
	client, err := awsjson.NewHTTPClient(context.Background(), svc, httpclient.ClientConfig{URIs: []string{server.URL}},
		httpclient.WithInitialBackoff(1), httpclient.WithMaxBackoff(1))
	require.NoError(t, err)

	_, err = awsjson.NewInvoker(svc, client).Invoke(context.Background(), "DetectKeyPhrases", detectKeyPhrasesInput(t, svc))
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestInvoker_InvalidArguments(t *testing.T) {
	svc := newTestService(t)
	server, requests := newRecordingServer(t, func(rw http.ResponseWriter, req recordedRequest) {})
	client, err := awsjson.NewHTTPClient(context.Background(), svc, httpclient.ClientConfig{URIs: []string{server.URL}})
	require.NoError(t, err)
	invoker := awsjson.NewInvoker(svc, client)

	_, err = invoker.Invoke(context.Background(), "DetectKeyPhrases", nil)
	assert.True(t, errors.IsInvalidArgument(err))
	_, err = invoker.Invoke(context.Background(), "Unknown", detectKeyPhrasesInput(t, svc))
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Empty(t, requests())
}
