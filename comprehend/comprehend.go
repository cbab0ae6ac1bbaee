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

// Package comprehend is an AWS JSON 1.1 client for Amazon Comprehend. Its shapes and
// error codes are described by an embedded manifest, so requests and responses are
// schema.Object values keyed by their wire names.
package comprehend

import (
	"context"
	_ "embed"
	"sync"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/awsjson"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/manifest"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	ServiceName  = "Comprehend"
	APIVersion   = "2017-11-27"
	TargetPrefix = "Comprehend_20171127"
)

//go:embed comprehend.yml
var manifestYAML []byte

var (
	serviceOnce sync.Once
	service     *awsjson.Service
	serviceErr  error
)

// Service returns the Comprehend service description. The manifest is parsed once per process.
func Service() (*awsjson.Service, error) {
	serviceOnce.Do(func() {
		m, err := manifest.Parse(manifestYAML, codecs.YAML)
		if err != nil {
			serviceErr = werror.Wrap(err, "failed to parse embedded Comprehend manifest")
			return
		}
		service, serviceErr = awsjson.NewServiceFromManifest(m)
	})
	return service, serviceErr
}

// Client invokes Comprehend operations.
type Client struct {
	invoker *awsjson.Invoker
}

// NewClient returns a Client that sends requests through httpClient. The httpClient should
// be signed for "comprehend" and decode errors with the service's error codes, which
// NewClientFromConfig arranges.
func NewClient(httpClient httpclient.Client) (*Client, error) {
	svc, err := Service()
	if err != nil {
		return nil, err
	}
	return &Client{invoker: awsjson.NewInvoker(svc, httpClient)}, nil
}

// NewClientFromConfig builds the underlying HTTP client from config and returns a Client using it.
func NewClientFromConfig(ctx context.Context, config httpclient.ClientConfig, params ...httpclient.ClientParam) (*Client, error) {
	svc, err := Service()
	if err != nil {
		return nil, err
	}
	httpClient, err := awsjson.NewHTTPClient(ctx, svc, config, params...)
	if err != nil {
		return nil, err
	}
	return &Client{invoker: awsjson.NewInvoker(svc, httpClient)}, nil
}

// NewInput returns an empty request object for operation.
func (c *Client) NewInput(operation string) (*schema.Object, error) {
	op, err := c.invoker.Service().Operation(operation)
	if err != nil {
		return nil, err
	}
	return schema.NewObject(op.Input), nil
}

// Invoke calls operation with input and returns the decoded response.
func (c *Client) Invoke(ctx context.Context, operation string, input *schema.Object) (*schema.Object, error) {
	if input == nil {
		return nil, errors.NewInvalidArgument("request input must not be nil",
			werror.SafeParam("operation", operation))
	}
	out, err := c.invoker.Invoke(ctx, operation, input)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(*schema.Object)
	if !ok {
		return nil, werror.ErrorWithContextParams(ctx, "comprehend: unexpected response host type",
			werror.SafeParam("operation", operation))
	}
	return obj, nil
}
