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
	"context"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/useragent"
	werror "github.com/palantir/witchcraft-go-error"
)

// Invoker sends the operations of a Service through an httpclient.Client.
type Invoker struct {
	service *Service
	client  httpclient.Client
}

func NewInvoker(svc *Service, client httpclient.Client) *Invoker {
	return &Invoker{service: svc, client: client}
}

func (i *Invoker) Service() *Service {
	return i.service
}

// Invoke encodes input, sends it as operation and returns the decoded output.
// Service error responses are returned as *errors.ServiceError values wrapped with
// the response status code.
func (i *Invoker) Invoke(ctx context.Context, operation string, input any) (any, error) {
	op, err := i.service.Operation(operation)
	if err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.NewInvalidArgument("request input must not be nil",
			werror.SafeParam("operation", operation),
			werror.SafeParam(errors.TypeNameParam, op.Input.Name()))
	}
	var output any
	if _, err := i.client.Post(ctx,
		httpclient.WithTarget(i.service.TargetPrefix, op.Name),
		httpclient.WithPath(requestPath),
		httpclient.WithRequestBody(input, codecs.AWSJSON(op.Input, i.service.CodecOptions...)),
		httpclient.WithResponseBody(&output, codecs.AWSJSON(op.Output, i.service.CodecOptions...)),
	); err != nil {
		return nil, err
	}
	return output, nil
}

// NewHTTPClient returns an httpclient.Client for svc built from config. The client
// names itself after the service, signs with the service's signing name and decodes
// errors with the service's error codes. params are applied last.
func NewHTTPClient(ctx context.Context, svc *Service, config httpclient.ClientConfig, params ...httpclient.ClientParam) (httpclient.Client, error) {
	if config.ServiceName == "" {
		config.ServiceName = svc.Name
	}
	defaults := []httpclient.ClientParam{
		httpclient.WithErrorCodes(svc.errorCodes()),
	}
	if config.SigningName == nil {
		defaults = append(defaults, httpclient.WithSigningName(svc.signingName()))
	}
	if svc.APIVersion != "" {
		product, err := useragent.APIProduct(svc.Name, svc.APIVersion)
		if err != nil {
			return nil, err
		}
		defaults = append(defaults, httpclient.WithUserAgent(product))
	}
	return httpclient.NewClientFromConfig(ctx, config, append(defaults, params...)...)
}
