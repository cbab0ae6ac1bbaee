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

package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signedRequest struct {
	authorization string
	amzDate       string
	sessionToken  string
	body          string
}

func newSigningServer(t *testing.T, status int, requests *[]signedRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		*requests = append(*requests, signedRequest{
			authorization: req.Header.Get("Authorization"),
			amzDate:       req.Header.Get("X-Amz-Date"),
			sessionToken:  req.Header.Get("X-Amz-Security-Token"),
			body:          string(body),
		})
		rw.WriteHeader(status)
	}))
}

func TestClient_SignsRequests(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusOK, &requests)
	defer server.Close()

	client, err := httpclient.NewClient(
		httpclient.WithServiceName("comprehend"),
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithRegion("us-west-2"),
		httpclient.WithStaticCredentials("AKIDEXAMPLE", "secret", "session"),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(),
		httpclient.WithTarget(testTargetPrefix, "DetectDominantLanguage"),
		httpclient.WithRawRequestBody([]byte(`{"Text":"bonjour"}`)))
	require.NoError(t, err)

	require.Len(t, requests, 1)
	auth := requests[0].authorization
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/"), auth)
	assert.Contains(t, auth, "/us-west-2/comprehend/aws4_request")
	assert.Contains(t, auth, "x-amz-target")
	assert.NotEmpty(t, requests[0].amzDate)
	assert.Equal(t, "session", requests[0].sessionToken)
	assert.Equal(t, `{"Text":"bonjour"}`, requests[0].body)
}

func TestClient_SigningNameOverride(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusOK, &requests)
	defer server.Close()

	client, err := httpclient.NewClient(
		httpclient.WithServiceName("nlp"),
		httpclient.WithSigningName("comprehend"),
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithCredentials(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}, nil
		})),
		httpclient.WithRegion("eu-west-1"),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), httpclient.WithRawRequestBody(nil))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].authorization, "/eu-west-1/comprehend/aws4_request")
	assert.Empty(t, requests[0].sessionToken)
}

func TestClient_RetriedAttemptsAreResigned(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusInternalServerError, &requests)
	defer server.Close()

	client, err := httpclient.NewClient(
		httpclient.WithServiceName("comprehend"),
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithRegion("us-east-1"),
		httpclient.WithStaticCredentials("AKID", "secret", ""),
		httpclient.WithMaxRetries(1),
		httpclient.WithInitialBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), httpclient.WithRawRequestBody([]byte(`{"Text":"hi"}`)))
	require.Error(t, err)
	require.Len(t, requests, 2)
	for _, req := range requests {
		assert.Contains(t, req.authorization, "AWS4-HMAC-SHA256")
		assert.Equal(t, `{"Text":"hi"}`, req.body)
	}
}

func TestClient_DisableSigning(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusOK, &requests)
	defer server.Close()

	client, err := httpclient.NewClient(
		httpclient.WithServiceName("comprehend"),
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithStaticCredentials("AKID", "secret", ""),
		httpclient.WithDisableSigning(),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), httpclient.WithRawRequestBody(nil))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Empty(t, requests[0].authorization)
}

func TestClient_SigningWithoutRegionFails(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusOK, &requests)
	defer server.Close()

	client, err := httpclient.NewClient(
		httpclient.WithServiceName("comprehend"),
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithStaticCredentials("AKID", "secret", ""),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), httpclient.WithRawRequestBody(nil))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Empty(t, requests, "misconfigured signing is not retried and never reaches the server")
}

func TestSigningMiddleware(t *testing.T) {
	var requests []signedRequest
	server := newSigningServer(t, http.StatusOK, &requests)
	defer server.Close()

	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}, nil
	})
	client, err := httpclient.NewClient(
		httpclient.WithBaseURLs([]string{server.URL}),
		httpclient.WithMiddleware(httpclient.SigningMiddleware(creds, "comprehend", "ap-south-1")),
	)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), httpclient.WithRawRequestBody([]byte(`{}`)))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].authorization, "/ap-south-1/comprehend/aws4_request")
}
