// Copyright (c) 2017 Palantir Technologies. All rights reserved.
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
	"fmt"
	"net/http"
	"net/url"

	"github.com/palantir/pkg/uuid"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-tracing/wtracing"
)

const (
	traceIDHeaderKey      = "X-B3-TraceId"
	userAgentHeaderKey    = "User-Agent"
	invocationIDHeaderKey = "Amz-Sdk-Invocation-Id"
	sdkRequestHeaderKey   = "Amz-Sdk-Request"
)

type requestBuilder struct {
	method         string
	path           string
	headers        http.Header
	query          url.Values
	bodyMiddleware *bodyMiddleware

	configureCtx []func(context.Context) context.Context
}

type RequestParam interface {
	apply(*requestBuilder) error
}

type requestParamFunc func(*requestBuilder) error

func (f requestParamFunc) apply(b *requestBuilder) error {
	return f(b)
}

// newRequestBuilder applies params once per call. The returned context carries any
// values added by the params.
func (c *clientImpl) newRequestBuilder(ctx context.Context, params ...RequestParam) (context.Context, *requestBuilder, error) {
	b := &requestBuilder{
		headers:        c.initializeRequestHeaders(ctx),
		query:          make(url.Values),
		bodyMiddleware: &bodyMiddleware{},
	}
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.apply(b); err != nil {
			return nil, nil, err
		}
	}
	for _, configure := range b.configureCtx {
		ctx = configure(ctx)
	}
	if b.method == "" {
		return nil, nil, werror.ErrorWithContextParams(ctx, "httpclient: use WithRequestMethod() to specify HTTP method")
	}
	return ctx, b, nil
}

// newRequest builds the request for a single attempt against baseURL.
func (b *requestBuilder) newRequest(ctx context.Context, baseURL string, attempt attemptInfo) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, b.method, joinURIAndPath(baseURL, b.path), nil)
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to build new HTTP request")
	}
	req.Header = b.headers.Clone()
	req.Header.Set(invocationIDHeaderKey, attempt.invocationID)
	req.Header.Set(sdkRequestHeaderKey, attempt.String())
	if q := b.query.Encode(); q != "" {
		req.URL.RawQuery = q
	}
	return req, nil
}

// attemptInfo identifies one attempt of a logical call.
type attemptInfo struct {
	invocationID string
	attempt      int
	maxAttempts  int
}

func newInvocationID() string {
	return uuid.NewUUID().String()
}

func (a attemptInfo) String() string {
	if a.maxAttempts <= 0 {
		return fmt.Sprintf("attempt=%d", a.attempt)
	}
	return fmt.Sprintf("attempt=%d; max=%d", a.attempt, a.maxAttempts)
}

func (c *clientImpl) initializeRequestHeaders(ctx context.Context) http.Header {
	headers := make(http.Header)
	if !c.disableTraceHeaderPropagation.CurrentBool() {
		if traceID := wtracing.TraceIDFromContext(ctx); traceID != "" {
			headers.Set(traceIDHeaderKey, string(traceID))
		}
	}
	if c.userAgent != "" {
		headers.Set(userAgentHeaderKey, c.userAgent)
	}
	return headers
}

func joinURIAndPath(baseURI, reqPath string) string {
	if reqPath == "" {
		return baseURI
	}
	for len(baseURI) > 0 && baseURI[len(baseURI)-1] == '/' {
		baseURI = baseURI[:len(baseURI)-1]
	}
	if reqPath[0] != '/' {
		reqPath = "/" + reqPath
	}
	return baseURI + reqPath
}
