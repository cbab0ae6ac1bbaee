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
	"net/http"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	"github.com/palantir/pkg/bytesbuffers"
	werror "github.com/palantir/witchcraft-go-error"
)

type bodyMiddleware struct {
	requestInput   interface{}
	requestEncoder codecs.Encoder
	rawRequest     []byte

	// if rawOutput is true, the body of the response is not drained before returning -- it is the responsibility of the
	// caller to read from and properly close the response body.
	rawOutput       bool
	responseOutput  interface{}
	responseDecoder codecs.Decoder

	// encoded is the request body shared by every attempt.
	encoded []byte
	release func()
}

// encode serializes the request input once per call. Every attempt sends the same bytes.
func (b *bodyMiddleware) encode(ctx context.Context, bufferPool bytesbuffers.Pool) error {
	b.release = func() {}
	switch {
	case b.rawRequest != nil:
		b.encoded = b.rawRequest
		return nil
	case b.requestInput == nil:
		return nil
	case b.requestEncoder == nil:
		return werror.ErrorWithContextParams(ctx, "request input was provided without an encoder")
	}

	// If buffer pool is set, encode into a pooled buffer that is returned once the call completes.
	if bufferPool != nil {
		buf := bufferPool.Get()
		if err := b.requestEncoder.Encode(buf, b.requestInput); err != nil {
			bufferPool.Put(buf)
			return werror.WrapWithContextParams(ctx, err, "failed to encode request object")
		}
		b.encoded = buf.Bytes()
		b.release = func() { bufferPool.Put(buf) }
		return nil
	}

	out, err := b.requestEncoder.Marshal(b.requestInput)
	if err != nil {
		return werror.WrapWithContextParams(ctx, err, "failed to encode request object")
	}
	b.encoded = out
	return nil
}

func (b *bodyMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	setRequestBody(req, b.encoded)

	resp, respErr := next.RoundTrip(req)
	if err := b.readResponse(req, resp, respErr); err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *bodyMiddleware) readResponse(req *http.Request, resp *http.Response, respErr error) error {
	// If rawOutput is true, return response directly without draining or closing body
	if b.rawOutput && respErr == nil {
		return nil
	}
	if respErr != nil {
		return respErr
	}
	if resp == nil || resp.Body == nil {
		return nil
	}
	defer internal.DrainBody(resp)

	if b.responseOutput == nil {
		return nil
	}
	if err := b.responseDecoder.Decode(resp.Body, b.responseOutput); err != nil {
		return werror.WrapWithContextParams(req.Context(), err, "failed to decode response body",
			werror.SafeParam("statusCode", resp.StatusCode))
	}
	return nil
}
