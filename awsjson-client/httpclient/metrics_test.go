// Copyright (c) 2019 Palantir Technologies. All rights reserved.
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

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/palantir/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTagsProvider struct {
	key, val string
}

func (f fakeTagsProvider) Tags(_ *http.Request, _ *http.Response) metrics.Tags {
	return metrics.Tags{metrics.MustNewTag(f.key, f.val)}
}

func TestRoundTripperWithMetrics(t *testing.T) {
	for _, tc := range []struct {
		name          string
		statusCode    int
		family        string
		rpcMethodName string
		methodNameTag string
		providers     []TagsProvider
		extraTags     map[string]string
	}{
		{
			name:          "success",
			statusCode:    http.StatusOK,
			family:        "2xx",
			rpcMethodName: "DetectKeyPhrases",
			methodNameTag: "DetectKeyPhrases",
		},
		{
			name:          "client error with custom tag",
			statusCode:    http.StatusBadRequest,
			family:        "4xx",
			methodNameTag: "RPCMethodNameMissing",
			providers:     []TagsProvider{fakeTagsProvider{key: "foo", val: "bar"}},
			extraTags:     map[string]string{"foo": "bar"},
		},
		{
			name:          "invalid method name",
			statusCode:    http.StatusOK,
			family:        "2xx",
			rpcMethodName: strings.Repeat("x", 300),
			methodNameTag: "RPCMethodNameInvalid",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rootRegistry := metrics.NewRootMetricsRegistry()
			ctx := metrics.WithRegistry(context.Background(), rootRegistry)

			server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
				rw.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			client, err := NewClient(
				WithServiceName("comprehend"),
				WithBaseURLs([]string{server.URL}),
				WithMaxRetries(0),
				WithMetrics(tc.providers...),
			)
			require.NoError(t, err)

			params := []RequestParam{WithRawRequestBody(nil)}
			if tc.rpcMethodName != "" {
				params = append(params, WithRPCMethodName(tc.rpcMethodName))
			}
			_, _ = client.Post(ctx, params...)

			expected := map[string]string{
				MetricTagServiceName: "comprehend",
				metricTagFamily:      tc.family,
				metricTagMethod:      "post",
				metricRPCMethodName:  tc.methodNameTag,
			}
			for k, v := range tc.extraTags {
				expected[k] = v
			}

			var found bool
			rootRegistry.Each(func(name string, tags metrics.Tags, value metrics.MetricVal) {
				if name != metricClientResponse {
					return
				}
				found = true
				assert.Equal(t, expected, tags.ToMap())
			})
			assert.True(t, found, "expected %s metric", metricClientResponse)
		})
	}
}

func TestMetricsTimerUsesClock(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	var calls atomic.Int64
	now = func() time.Time {
		return time.UnixMilli(calls.Add(1) - 1)
	}

	rootRegistry := metrics.NewRootMetricsRegistry()
	ctx := metrics.WithRegistry(context.Background(), rootRegistry)
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {}))
	defer server.Close()

	client, err := NewClient(WithServiceName("comprehend"), WithBaseURL(server.URL))
	require.NoError(t, err)
	_, err = client.Post(ctx, WithRawRequestBody(nil))
	require.NoError(t, err)

	rootRegistry.Each(func(name string, tags metrics.Tags, value metrics.MetricVal) {
		if name == metricClientResponse {
			assert.Equal(t, int64(1_000), value.Values()["max"])
		}
	})
}

func TestRetryCounter(t *testing.T) {
	rootRegistry := metrics.NewRootMetricsRegistry()
	ctx := metrics.WithRegistry(context.Background(), rootRegistry)

	var n atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if n.Add(1) < 3 {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}))
	defer server.Close()

	client, err := NewClient(
		WithServiceName("comprehend"),
		WithBaseURL(server.URL),
		WithMaxRetries(4),
		WithInitialBackoff(time.Millisecond),
		WithMaxBackoff(time.Millisecond),
	)
	require.NoError(t, err)
	_, err = client.Post(ctx, WithRawRequestBody(nil), WithRPCMethodName("DetectKeyPhrases"))
	require.NoError(t, err)

	var retries int64
	rootRegistry.Each(func(name string, tags metrics.Tags, value metrics.MetricVal) {
		if name == metricClientRetry {
			assert.Equal(t, map[string]string{
				MetricTagServiceName: "comprehend",
				metricRPCMethodName:  "DetectKeyPhrases",
			}, tags.ToMap())
			retries = value.Values()["count"].(int64)
		}
	})
	assert.Equal(t, int64(2), retries)
}

func TestDisableMetrics(t *testing.T) {
	rootRegistry := metrics.NewRootMetricsRegistry()
	ctx := metrics.WithRegistry(context.Background(), rootRegistry)
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {}))
	defer server.Close()

	client, err := NewClient(WithServiceName("comprehend"), WithBaseURL(server.URL), WithDisableMetrics())
	require.NoError(t, err)
	_, err = client.Post(ctx, WithRawRequestBody(nil))
	require.NoError(t, err)

	rootRegistry.Each(func(name string, tags metrics.Tags, value metrics.MetricVal) {
		assert.NotEqual(t, metricClientResponse, name)
	})
}

func TestMetricsMiddleware_InvalidServiceName(t *testing.T) {
	_, err := MetricsMiddleware(strings.Repeat("x", 300))
	assert.Error(t, err)
	m, err := MetricsMiddleware("comprehend")
	require.NoError(t, err)
	assert.NotNil(t, m)
}
