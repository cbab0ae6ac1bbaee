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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal/refreshingclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/useragent"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/metrics"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

type clientBuilder struct {
	HTTP *httpClientBuilder

	URIs        refreshable.StringSlice
	MaxAttempts refreshable.IntPtr // 0 means no limit. If nil, uses 2*len(uris).
	RetryParams refreshable.Refreshable

	ErrorDecoder    ErrorDecoder
	ErrorCodes      *errors.Registry
	ErrorLogger     ErrorRegistry
	BytesBufferPool bytesbuffers.Pool
	UserAgent       *useragent.Builder

	DisableTraceHeaderPropagation refreshable.Bool
}

type httpClientBuilder struct {
	ServiceName     refreshable.String
	Timeout         refreshable.Duration
	DialerParams    refreshable.Refreshable
	TransportParams refreshable.Refreshable
	Middlewares     []Middleware

	DisableMetrics      refreshable.Bool
	DisableRecovery     refreshable.Bool
	MetricsTagProviders []TagsProvider

	Credentials    aws.CredentialsProvider
	Region         refreshable.String
	SigningName    refreshable.String
	DisableSigning refreshable.Bool
}

// Build returns an *http.Client provider whose transport follows the refreshable dialer and transport params.
func (b *httpClientBuilder) Build(ctx context.Context) *refreshingclient.RefreshableHTTPClient {
	dialer := refreshingclient.NewRefreshableDialer(ctx, b.DialerParams)
	transport := refreshingclient.NewRefreshableTransport(ctx, b.TransportParams, dialer)
	rt := wrapTransport(transport, newMetricsMiddleware(b.ServiceName, b.MetricsTagProviders, b.DisableMetrics))
	return refreshingclient.NewRefreshableHTTPClient(rt, b.Timeout)
}

// NewClient returns a configured client ready for use.
// We apply "sane defaults" before applying the provided params.
func NewClient(params ...ClientParam) (Client, error) {
	return NewClientFromConfig(context.TODO(), ClientConfig{}, params...)
}

// NewClientFromConfig returns a client built from config. Params are applied after the config.
func NewClientFromConfig(ctx context.Context, config ClientConfig, params ...ClientParam) (Client, error) {
	return NewClientFromRefreshableConfig(ctx, refreshable.NewDefaultRefreshable(config), params...)
}

// NewClientFromRefreshableConfig returns a client whose URIs, retry limits, timeouts,
// transport and signing scope follow the ClientConfig held by config. Updates which
// fail validation are ignored and the previous values stay in effect.
func NewClientFromRefreshableConfig(ctx context.Context, config refreshable.Refreshable, params ...ClientParam) (Client, error) {
	b, err := newClientBuilderFromRefreshableConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, b, params...)
}

func newClient(ctx context.Context, b *clientBuilder, params ...ClientParam) (Client, error) {
	for _, p := range params {
		if p == nil {
			continue
		}
		if err := p.apply(b); err != nil {
			return nil, err
		}
	}

	errorDecoder := b.ErrorDecoder
	if errorDecoder == nil {
		registry := b.ErrorCodes
		if registry == nil {
			registry = errors.DefaultRegistry()
		}
		errorDecoder = awsErrorDecoder{serviceName: b.HTTP.ServiceName.CurrentString, registry: registry}
	}

	var signing Middleware
	if b.HTTP.Credentials != nil {
		serviceName, signingName := b.HTTP.ServiceName, b.HTTP.SigningName
		m := newSigningMiddleware(b.HTTP.Credentials, func() string {
			if name := signingName.CurrentString(); name != "" {
				return name
			}
			return serviceName.CurrentString()
		}, b.HTTP.Region.CurrentString)
		m.Disabled = b.HTTP.DisableSigning
		signing = m
	}

	return &clientImpl{
		serviceName:                   b.HTTP.ServiceName,
		client:                        b.HTTP.Build(ctx),
		uris:                          b.URIs,
		maxAttempts:                   b.MaxAttempts,
		retryParams:                   b.RetryParams,
		middlewares:                   b.HTTP.Middlewares,
		errorDecoderMiddleware:        errorDecoderMiddleware{errorDecoder: errorDecoder},
		recoveryMiddleware:            recoveryMiddleware{Disabled: b.HTTP.DisableRecovery},
		signingMiddleware:             signing,
		disableTraceHeaderPropagation: b.DisableTraceHeaderPropagation,
		userAgent:                     b.UserAgent.String(),
		bufferPool:                    b.BytesBufferPool,
		errorLogger:                   b.ErrorLogger,
	}, nil
}

func newClientBuilderFromRefreshableConfig(ctx context.Context, config refreshable.Refreshable) (*clientBuilder, error) {
	validParams, err := refreshable.NewMapValidatingRefreshable(config, func(i interface{}) (interface{}, error) {
		return newValidatedClientParamsFromConfig(ctx, i.(ClientConfig))
	})
	if err != nil {
		return nil, err
	}
	params := func(fn func(p refreshingclient.ValidatedClientParams) interface{}) refreshable.Refreshable {
		return validParams.Map(func(i interface{}) interface{} {
			return fn(i.(refreshingclient.ValidatedClientParams))
		})
	}
	metricsTags := params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.MetricsTags })

	return &clientBuilder{
		HTTP: &httpClientBuilder{
			ServiceName:     refreshable.NewString(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.ServiceName })),
			Timeout:         refreshable.NewDuration(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.Timeout })),
			DialerParams:    params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.Dialer }),
			TransportParams: params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.Transport }),
			DisableMetrics:  refreshable.NewBool(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.DisableMetrics })),
			DisableRecovery: refreshable.NewBool(refreshable.NewDefaultRefreshable(false)),
			MetricsTagProviders: []TagsProvider{
				TagsProviderFunc(func(*http.Request, *http.Response) metrics.Tags {
					tags, _ := metricsTags.Current().(metrics.Tags)
					return tags
				}),
			},
			Region:         refreshable.NewString(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.Region })),
			SigningName:    refreshable.NewString(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.SigningName })),
			DisableSigning: refreshable.NewBool(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.DisableSigning })),
		},
		URIs:                          refreshable.NewStringSlice(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.URIs })),
		MaxAttempts:                   refreshable.NewIntPtr(params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.MaxAttempts })),
		RetryParams:                   params(func(p refreshingclient.ValidatedClientParams) interface{} { return p.Retry }),
		ErrorLogger:                   DefaultErrorRegistry,
		UserAgent:                     useragent.Default.Clone(),
		DisableTraceHeaderPropagation: refreshable.NewBool(refreshable.NewDefaultRefreshable(false)),
	}, nil
}

func newServiceNameRefreshable(serviceName string) (refreshable.String, error) {
	if _, err := metrics.NewTag(MetricTagServiceName, serviceName); err != nil {
		return nil, werror.Wrap(err, "invalid service name", werror.SafeParam("serviceName", serviceName))
	}
	return refreshable.NewString(refreshable.NewDefaultRefreshable(serviceName)), nil
}
