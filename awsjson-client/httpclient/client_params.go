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
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal/refreshingclient"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/useragent"
	"github.com/palantir/pkg/bytesbuffers"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// ClientParam is a param that can be used to build a Client.
type ClientParam interface {
	apply(builder *clientBuilder) error
}

type clientParamFunc func(builder *clientBuilder) error

func (f clientParamFunc) apply(b *clientBuilder) error {
	return f(b)
}

// WithServiceName sets the service name used for metrics, logging and, unless WithSigningName
// is given, the SigV4 signing name.
func WithServiceName(serviceName string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		name, err := newServiceNameRefreshable(serviceName)
		if err != nil {
			return err
		}
		b.HTTP.ServiceName = name
		return nil
	})
}

// WithBaseURLs sets the base URLs for every request. This is meant to be used in conjunction with WithPath.
func WithBaseURLs(urls []string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		var valid []string
		for _, uriStr := range urls {
			if uriStr == "" {
				continue
			}
			if _, err := url.ParseRequestURI(uriStr); err != nil {
				return werror.Wrap(err, "invalid url")
			}
			valid = append(valid, uriStr)
		}
		b.URIs = refreshable.NewStringSlice(refreshable.NewDefaultRefreshable(valid))
		return nil
	})
}

// WithBaseURL sets a single base URL, such as a regional endpoint.
func WithBaseURL(u string) ClientParam {
	return WithBaseURLs([]string{u})
}

// WithMaxRetries sets the maximum number of retries on transport errors for every request. Backoffs are
// also capped at this.
// If unset, the client defaults to 2 * size of URIs
func WithMaxRetries(maxTransportRetries int) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		if maxTransportRetries < 0 {
			return werror.Error("max retries must not be negative", werror.SafeParam("maxRetries", maxTransportRetries))
		}
		b.MaxAttempts = refreshable.NewIntPtr(refreshable.NewDefaultRefreshable(newPtr(maxTransportRetries + 1)))
		return nil
	})
}

// WithUnlimitedRetries removes the attempt limit. Calls are then bounded by their context only.
func WithUnlimitedRetries() ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.MaxAttempts = refreshable.NewIntPtr(refreshable.NewDefaultRefreshable(newPtr(0)))
		return nil
	})
}

// WithInitialBackoff sets the initial backoff between retried calls to the same URI.
func WithInitialBackoff(initialBackoff time.Duration) ClientParam {
	return withRetryParams(func(p *refreshingclient.RetryParams) { p.InitialBackoff = initialBackoff })
}

// WithMaxBackoff sets the maximum backoff between retried calls to the same URI.
func WithMaxBackoff(maxBackoff time.Duration) ClientParam {
	return withRetryParams(func(p *refreshingclient.RetryParams) { p.MaxBackoff = maxBackoff })
}

func withRetryParams(update func(p *refreshingclient.RetryParams)) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.RetryParams = b.RetryParams.Map(func(i interface{}) interface{} {
			p := i.(refreshingclient.RetryParams)
			update(&p)
			return p
		})
		return nil
	})
}

// WithHTTPTimeout sets the timeout on the http client.
// If unset, the client defaults to 1 minute.
func WithHTTPTimeout(timeout time.Duration) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.Timeout = refreshable.NewDuration(refreshable.NewDefaultRefreshable(timeout))
		return nil
	})
}

// WithMiddleware will be invoked for custom HTTP behavior after the
// underlying transport is initialized. Each handler added "wraps" the previous
// round trip, so it will see the request first and the response last.
// Requests are signed after every middleware has run.
func WithMiddleware(h Middleware) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.Middlewares = append(b.HTTP.Middlewares, h)
		return nil
	})
}

// WithBytesBufferPool stores a bytes buffer pool on the client for use in encoding request bodies.
// This prevents allocating a new byte buffer for every request.
func WithBytesBufferPool(pool bytesbuffers.Pool) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.BytesBufferPool = pool
		return nil
	})
}

// WithErrorDecoder sets a custom error decoder for responses. It replaces the default
// decoder of AWS JSON error bodies.
func WithErrorDecoder(errorDecoder ErrorDecoder) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.ErrorDecoder = errorDecoder
		return nil
	})
}

// WithErrorCodes sets the registry used to classify error codes as retryable or throttling.
// If unset, errors.DefaultRegistry() is used.
func WithErrorCodes(registry *errors.Registry) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.ErrorCodes = registry
		return nil
	})
}

// WithErrorLogger sets the registry used to log failed attempts. A nil registry disables logging of errors by type.
func WithErrorLogger(registry ErrorRegistry) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.ErrorLogger = registry
		return nil
	})
}

// WithDisableTraceHeaderPropagation disables setting the X-B3-TraceId header.
func WithDisableTraceHeaderPropagation() ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.DisableTraceHeaderPropagation = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithDisablePanicRecovery disables the enabled-by-default panic recovery middleware.
// If the request was otherwise succeeding (err == nil), we return a new werror with
// the recovered object as an unsafe param. If there's an error, we werror.Wrap it.
func WithDisablePanicRecovery() ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.DisableRecovery = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithDisableMetrics disables the client.response timer and TLS handshake meters.
func WithDisableMetrics() ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.DisableMetrics = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithMetrics adds tag providers to the client.response timer.
func WithMetrics(tagProviders ...TagsProvider) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.MetricsTagProviders = append(b.HTTP.MetricsTagProviders, tagProviders...)
		return nil
	})
}

// WithUserAgent appends products to the User-Agent header, e.g. useragent.APIProduct("comprehend", "2017-11-27").
func WithUserAgent(products ...useragent.Product) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.UserAgent.Push(products...)
		return nil
	})
}

// WithCredentials signs every request with SigV4 using credentials.
func WithCredentials(provider aws.CredentialsProvider) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		if provider == nil {
			return werror.Error("credentials provider must not be nil")
		}
		b.HTTP.Credentials = provider
		return nil
	})
}

// WithStaticCredentials signs every request with fixed credentials.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) ClientParam {
	return WithCredentials(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken))
}

// WithAWSConfig signs requests with the credentials of cfg and, when set, its region.
func WithAWSConfig(cfg aws.Config) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		if cfg.Credentials == nil {
			return werror.Error("aws config has no credentials")
		}
		b.HTTP.Credentials = cfg.Credentials
		if cfg.Region != "" {
			b.HTTP.Region = refreshable.NewString(refreshable.NewDefaultRefreshable(cfg.Region))
		}
		return nil
	})
}

// WithRegion sets the region requests are signed for.
func WithRegion(region string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.Region = refreshable.NewString(refreshable.NewDefaultRefreshable(region))
		return nil
	})
}

// WithSigningName sets the service name used in SigV4 credential scopes.
func WithSigningName(signingName string) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.SigningName = refreshable.NewString(refreshable.NewDefaultRefreshable(signingName))
		return nil
	})
}

// WithDisableSigning sends requests unsigned even when credentials are configured.
func WithDisableSigning() ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.DisableSigning = refreshable.NewBool(refreshable.NewDefaultRefreshable(true))
		return nil
	})
}

// WithDisableHTTP2 skips the default behavior of configuring
// the transport with http2.ConfigureTransport.
func WithDisableHTTP2() ClientParam {
	return withTransportParams(func(p *refreshingclient.TransportParams) { p.DisableHTTP2 = true })
}

// WithTLSInsecureSkipVerify sets the InsecureSkipVerify field for the HTTP client's tls config.
// This option should only be used in clients that have other ways to establish trust with servers.
func WithTLSInsecureSkipVerify() ClientParam {
	return withTransportParams(func(p *refreshingclient.TransportParams) { p.TLS.InsecureSkipVerify = true })
}

// WithMaxIdleConns sets the number of reusable TCP connections the client
// will maintain. If unset, the client defaults to 200.
func WithMaxIdleConns(conns int) ClientParam {
	return withTransportParams(func(p *refreshingclient.TransportParams) { p.MaxIdleConns = conns })
}

// WithIdleConnTimeout sets the timeout for idle connections.
// If unset, the client defaults to 90 seconds.
func WithIdleConnTimeout(idleConnTimeout time.Duration) ClientParam {
	return withTransportParams(func(p *refreshingclient.TransportParams) { p.IdleConnTimeout = idleConnTimeout })
}

func withTransportParams(update func(p *refreshingclient.TransportParams)) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.TransportParams = b.HTTP.TransportParams.Map(func(i interface{}) interface{} {
			p := i.(refreshingclient.TransportParams)
			update(&p)
			return p
		})
		return nil
	})
}

// WithDialTimeout sets the timeout on the Dialer.
// If unset, the client defaults to 5 seconds.
func WithDialTimeout(timeout time.Duration) ClientParam {
	return clientParamFunc(func(b *clientBuilder) error {
		b.HTTP.DialerParams = b.HTTP.DialerParams.Map(func(i interface{}) interface{} {
			p := i.(refreshingclient.DialerParams)
			p.DialTimeout = timeout
			return p
		})
		return nil
	})
}
