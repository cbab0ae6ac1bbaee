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
	"net/url"
	"strings"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

// TargetHeaderKey names the operation of an AWS JSON request, e.g. "Comprehend_20171127.DetectKeyPhrases".
const TargetHeaderKey = "X-Amz-Target"

// WithRPCMethodName sets the operation name used for metric tags and logging.
func WithRPCMethodName(name string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.configureCtx = append(b.configureCtx, func(ctx context.Context) context.Context {
			return ContextWithRPCMethodName(ctx, name)
		})
		return nil
	})
}

func WithRequestMethod(method string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		if method == "" {
			return werror.Error("httpclient.RequestMethod: method can not be empty")
		}
		b.method = strings.ToUpper(method)
		return nil
	})
}

func WithPath(path string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.path = path
		return nil
	})
}

func WithPathf(format string, args ...interface{}) RequestParam {
	return WithPath(fmt.Sprintf(format, args...))
}

func WithHeader(key, value string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.headers.Set(key, value)
		return nil
	})
}

func WithQueryValues(query url.Values) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.query = query
		return nil
	})
}

// WithTarget sets the X-Amz-Target header to "<targetPrefix>.<operation>" and uses the
// operation as the RPC method name.
func WithTarget(targetPrefix, operation string) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		if targetPrefix == "" || operation == "" {
			return werror.Error("httpclient.Target: target prefix and operation are required",
				werror.SafeParam("targetPrefix", targetPrefix),
				werror.SafeParam("operation", operation))
		}
		b.headers.Set(TargetHeaderKey, targetPrefix+"."+operation)
		return WithRPCMethodName(operation).apply(b)
	})
}

func WithRequestBody(input interface{}, encoder codecs.Encoder) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.requestInput = input
		b.bodyMiddleware.requestEncoder = encoder
		b.bodyMiddleware.rawRequest = nil
		b.headers.Set("Content-Type", encoder.ContentType())
		return nil
	})
}

// WithRawRequestBody sends body as is. The Content-Type header is left to the caller.
func WithRawRequestBody(body []byte) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		if body == nil {
			body = []byte{}
		}
		b.bodyMiddleware.rawRequest = body
		b.bodyMiddleware.requestInput = nil
		b.bodyMiddleware.requestEncoder = nil
		return nil
	})
}

func WithJSONRequest(input interface{}) RequestParam {
	return WithRequestBody(input, codecs.JSON)
}

func WithResponseBody(output interface{}, decoder codecs.Decoder) RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.responseOutput = output
		b.bodyMiddleware.responseDecoder = decoder
		b.headers.Set("Accept", decoder.Accept())
		return nil
	})
}

// WithRawResponseBody returns the response with an unread body. The caller must close it.
func WithRawResponseBody() RequestParam {
	return requestParamFunc(func(b *requestBuilder) error {
		b.bodyMiddleware.rawOutput = true
		b.bodyMiddleware.responseOutput = nil
		b.bodyMiddleware.responseDecoder = nil
		return nil
	})
}

func WithJSONResponse(output interface{}) RequestParam {
	return WithResponseBody(output, codecs.JSON)
}
