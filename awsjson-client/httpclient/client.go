// Copyright (c) 2018 Palantir Technologies. All rights reserved.
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
	"math/rand"
	"net/http"
	"net/url"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal/refreshingclient"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/pkg/retry"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
)

// A Client executes requests to a configured service.
type Client interface {
	// Do executes a full request. Any input or output should be specified via params.
	// By the time it is returned, the response's body will be fully read and closed.
	// Use the WithResponse* params to unmarshal the body before Do() returns.
	//
	// In the case of a response with StatusCode >= 300, Do() will return a nil response and a non-nil error.
	// Use errors.ServiceErrorFromError(err) to retrieve the decoded AWS error, or
	// StatusCodeFromError(err) to retrieve the code from the error.
	Do(ctx context.Context, params ...RequestParam) (*http.Response, error)

	Post(ctx context.Context, params ...RequestParam) (*http.Response, error)
}

type clientImpl struct {
	serviceName refreshable.String
	client      *refreshingclient.RefreshableHTTPClient

	uris        refreshable.StringSlice
	maxAttempts refreshable.IntPtr // 0 means no limit. If nil, uses 2*len(uris).
	retryParams refreshable.Refreshable

	middlewares            []Middleware
	errorDecoderMiddleware Middleware
	recoveryMiddleware     Middleware
	signingMiddleware      Middleware

	disableTraceHeaderPropagation refreshable.Bool
	userAgent                     string
	bufferPool                    bytesbuffers.Pool
	errorLogger                   ErrorRegistry
}

func (c *clientImpl) Post(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	return c.Do(ctx, append(params, WithRequestMethod(http.MethodPost))...)
}

func (c *clientImpl) Do(ctx context.Context, params ...RequestParam) (*http.Response, error) {
	ctx, b, err := c.newRequestBuilder(ctx, params...)
	if err != nil {
		return nil, err
	}
	uris := c.uris.CurrentStringSlice()
	if len(uris) == 0 {
		return nil, werror.ErrorWithContextParams(ctx, "httpclient: no base URIs are configured",
			werror.SafeParam("serviceName", c.serviceName.CurrentString()))
	}
	if err := b.bodyMiddleware.encode(ctx, c.bufferPool); err != nil {
		return nil, err
	}
	defer b.bodyMiddleware.release()

	attempt := attemptInfo{
		invocationID: newInvocationID(),
		maxAttempts:  c.attemptLimit(len(uris)),
	}
	offset := rand.Intn(len(uris))
	retryParams := c.retryParams.Current().(refreshingclient.RetryParams)
	retrier := internal.NewRequestRetrier(retry.Start(ctx, retryParams.RetryOptions()...), attempt.maxAttempts)

	var resp *http.Response
	for retrier.Next(ctx, err) {
		attempt.attempt = retrier.AttemptCount()
		if attempt.attempt > 1 {
			markRetry(ctx, c.serviceName.CurrentString())
		}
		resp, err = c.doOnce(ctx, uris[(offset+attempt.attempt-1)%len(uris)], b, attempt)
		if err == nil {
			return resp, nil
		}
		c.logAttemptFailure(ctx, attempt, err)
	}
	if err == nil {
		return nil, werror.ErrorWithContextParams(ctx, "httpclient: no request attempts were made")
	}
	return nil, err
}

func (c *clientImpl) attemptLimit(uriCount int) int {
	if maxAttempts := c.maxAttempts.CurrentIntPtr(); maxAttempts != nil {
		return *maxAttempts
	}
	return refreshingclient.ValidatedClientParams{}.AttemptLimit(uriCount)
}

func (c *clientImpl) doOnce(ctx context.Context, baseURI string, b *requestBuilder, attempt attemptInfo) (*http.Response, error) {
	req, err := b.newRequest(ctx, baseURI, attempt)
	if err != nil {
		return nil, err
	}

	// shallow copy so we can overwrite the Transport with a wrapped one.
	clientCopy := *c.client.CurrentHTTPClient()
	// innermost first: requests are signed after every other middleware has run.
	middlewares := make([]Middleware, 0, len(c.middlewares)+4)
	middlewares = append(middlewares, c.signingMiddleware)
	middlewares = append(middlewares, c.middlewares...)
	middlewares = append(middlewares, c.errorDecoderMiddleware, b.bodyMiddleware, c.recoveryMiddleware)
	clientCopy.Transport = wrapTransport(clientCopy.Transport, middlewares...)

	resp, respErr := clientCopy.Do(req)
	return resp, unwrapURLError(ctx, respErr)
}

func (c *clientImpl) logAttemptFailure(ctx context.Context, attempt attemptInfo, err error) {
	if c.errorLogger != nil {
		c.errorLogger.LogError(ctx, err)
	}
	params := map[string]interface{}{
		"serviceName":  c.serviceName.CurrentString(),
		"invocationId": attempt.invocationID,
		"attempt":      attempt.attempt,
		"maxAttempts":  attempt.maxAttempts,
		"throttled":    internal.IsThrottle(err),
		"retryable":    internal.IsRetryable(ctx, err),
	}
	if method := getRPCMethodName(ctx); method != "" {
		params["methodName"] = method
	}
	svc1log.FromContext(ctx).Debug("HTTP request attempt failed", svc1log.SafeParams(params), svc1log.Stacktrace(err))
}

func unwrapURLError(ctx context.Context, respErr error) error {
	if respErr == nil {
		return nil
	}

	urlErr, ok := respErr.(*url.Error)
	if !ok {
		// We don't recognize this as a url.Error, just return the original.
		return respErr
	}
	params := []werror.Param{werror.SafeParam("requestMethod", urlErr.Op)}

	if parsedURL, _ := url.Parse(urlErr.URL); parsedURL != nil {
		params = append(params,
			werror.SafeParam("requestHost", parsedURL.Host),
			werror.UnsafeParam("requestPath", parsedURL.Path))
	}

	return werror.WrapWithContextParams(ctx, urlErr.Err, "httpclient request failed", params...)
}
