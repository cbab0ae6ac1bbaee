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

package awsjson

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/jsoncodec"
	werror "github.com/palantir/witchcraft-go-error"
)

const requestPath = "/"

// Request is a transport-ready AWS JSON 1.1 request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewRequest encodes input as the body of operation. The request carries the
// X-Amz-Target, Content-Type and Content-Length headers. A nil input is an
// InvalidArgument error and nothing is encoded.
func NewRequest(svc *Service, operation string, input any) (*Request, error) {
	op, err := svc.Operation(operation)
	if err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.NewInvalidArgument("request input must not be nil",
			werror.SafeParam("operation", operation),
			werror.SafeParam(errors.TypeNameParam, op.Input.Name()))
	}
	body, err := codecs.AWSJSON(op.Input, svc.CodecOptions...).Marshal(input)
	if err != nil {
		return nil, err
	}
	header := make(http.Header)
	header.Set(httpclient.TargetHeaderKey, svc.Target(op.Name))
	header.Set("Content-Type", codecs.ContentTypeAWSJSON11)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &Request{
		Method: http.MethodPost,
		Path:   requestPath,
		Header: header,
		Body:   body,
	}, nil
}

// HTTPRequest returns r as an *http.Request against baseURL.
func (r *Request) HTTPRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, strings.TrimRight(baseURL, "/")+r.Path, bytes.NewReader(r.Body))
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to build request")
	}
	req.Header = r.Header.Clone()
	req.ContentLength = int64(len(r.Body))
	return req, nil
}

// DecodeResponse decodes the body of a successful response to operation. An empty
// body decodes to an empty output value, never nil.
func DecodeResponse(op Operation, body []byte, opts ...jsoncodec.Option) (any, error) {
	return jsoncodec.UnmarshalResponse(body, op.Output, opts...)
}
