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
	"io"
	"net/http"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
)

// maxErrorBodySize bounds how much of an error response is read.
const maxErrorBodySize = 1 << 20

// ErrorDecoder implementations declare whether or not they should be used to handle certain http responses, and return
// decoded errors when invoked. Custom implementations can be used when consumers expect structured errors in response bodies.
type ErrorDecoder interface {
	// Handles returns whether or not the decoder considers the response an error.
	Handles(resp *http.Response) bool
	// DecodeError returns a decoded error, or an error encountered while trying to decode.
	// DecodeError should never return nil.
	DecodeError(resp *http.Response) error
}

type errorDecoderMiddleware struct {
	errorDecoder ErrorDecoder
}

func (e errorDecoderMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	resp, err := next.RoundTrip(req)
	// if error is already set, it is more severe than our HTTP error. Just return it.
	if resp == nil || err != nil {
		return nil, err
	}
	if e.errorDecoder.Handles(resp) {
		defer internal.DrainBody(resp)
		return nil, e.errorDecoder.DecodeError(resp)
	}
	return resp, nil
}

// awsErrorDecoder turns non-2xx responses into *errors.ServiceError values using the
// error codes known to registry.
type awsErrorDecoder struct {
	serviceName func() string
	registry    *errors.Registry
}

var _ ErrorDecoder = awsErrorDecoder{}

// NewAWSErrorDecoder returns the default ErrorDecoder. A nil registry uses errors.DefaultRegistry().
func NewAWSErrorDecoder(serviceName string, registry *errors.Registry) ErrorDecoder {
	if registry == nil {
		registry = errors.DefaultRegistry()
	}
	return awsErrorDecoder{serviceName: func() string { return serviceName }, registry: registry}
}

func (d awsErrorDecoder) Handles(resp *http.Response) bool {
	return resp.StatusCode >= http.StatusMultipleChoices
}

func (d awsErrorDecoder) DecodeError(resp *http.Response) error {
	ctx := context.Background()
	if resp.Request != nil {
		ctx = resp.Request.Context()
	}
	statusParam := werror.SafeParam("statusCode", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return werror.WrapWithContextParams(ctx, err, "server returned an error and failed to read body", statusParam)
	}
	svcErr, err := d.registry.UnmarshalServiceError(ctx, d.serviceName(), resp.StatusCode, resp.Header, body)
	if err != nil {
		return werror.WrapWithContextParams(ctx, err, "server returned an error without an error code",
			statusParam, werror.UnsafeParam("responseBody", string(body)))
	}
	return werror.WrapWithContextParams(ctx, svcErr, "server returned an error", statusParam)
}

// StatusCodeFromError retrieves the 'statusCode' parameter from the provided werror.
// If the error is not a werror or does not have the statusCode param, ok is false.
//
// The default client error decoder sets the statusCode parameter on its returned errors. Note that, if a custom error
// decoder is used, this function will only return a status code for the error if the custom decoder sets a 'statusCode'
// parameter on the error.
func StatusCodeFromError(err error) (statusCode int, ok bool) {
	return internal.StatusCodeFromError(err)
}
