// Copyright (c) 2021 Palantir Technologies. All rights reserved.
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

package refreshingclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"github.com/palantir/pkg/refreshable"
	"github.com/palantir/pkg/tlsconfig"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"golang.org/x/net/http2"
)

type TransportParams struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	DisableHTTP2          bool
	DisableKeepAlives     bool
	IdleConnTimeout       time.Duration
	ExpectContinueTimeout time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	HTTP2ReadIdleTimeout  time.Duration
	HTTP2PingTimeout      time.Duration
	HTTPProxyURL          *url.URL
	ProxyFromEnvironment  bool
	TLS                   TLSParams
}

type TLSParams struct {
	CAFiles            []string
	CertFile           string
	KeyFile            string
	InsecureSkipVerify bool
}

// NewTLSConfig builds a client *tls.Config from p using github.com/palantir/pkg/tlsconfig.
func NewTLSConfig(p TLSParams) (*tls.Config, error) {
	var params []tlsconfig.ClientParam
	if len(p.CAFiles) != 0 {
		params = append(params, tlsconfig.ClientRootCAFiles(p.CAFiles...))
	}
	if p.CertFile != "" && p.KeyFile != "" {
		params = append(params, tlsconfig.ClientKeyPairFiles(p.CertFile, p.KeyFile))
	}
	tlsConfig, err := tlsconfig.NewClientConfig(params...)
	if err != nil {
		return nil, werror.Wrap(err, "failed to build tls config")
	}
	tlsConfig.InsecureSkipVerify = p.InsecureSkipVerify
	return tlsConfig, nil
}

// NewRefreshableTransport returns a RoundTripper backed by an *http.Transport which is
// rebuilt whenever the TransportParams in p change. Connections of a replaced transport
// are closed once it is no longer current.
func NewRefreshableTransport(ctx context.Context, p refreshable.Refreshable, dialer ContextDialer) *RefreshableTransport {
	return &RefreshableTransport{
		Refreshable: p.Map(func(i interface{}) interface{} {
			return newTransport(ctx, i.(TransportParams), dialer)
		}),
	}
}

// RefreshableTransport implements http.RoundTripper backed by a refreshable *http.Transport.
type RefreshableTransport struct {
	refreshable.Refreshable // contains *http.Transport
}

func (r *RefreshableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return r.CurrentTransport().RoundTrip(req)
}

func (r *RefreshableTransport) CurrentTransport() *http.Transport {
	return r.Current().(*http.Transport)
}

func newTransport(ctx context.Context, p TransportParams, dialer ContextDialer) *http.Transport {
	tlsConfig, err := NewTLSConfig(p.TLS)
	if err != nil {
		// should never happen; checked when the params are validated
		svc1log.FromContext(ctx).Error("Failed to build tls config, using defaults", svc1log.Stacktrace(err))
		tlsConfig, _ = tlsconfig.NewClientConfig()
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          p.MaxIdleConns,
		MaxIdleConnsPerHost:   p.MaxIdleConnsPerHost,
		TLSClientConfig:       tlsConfig,
		DisableKeepAlives:     p.DisableKeepAlives,
		ExpectContinueTimeout: p.ExpectContinueTimeout,
		IdleConnTimeout:       p.IdleConnTimeout,
		TLSHandshakeTimeout:   p.TLSHandshakeTimeout,
		ResponseHeaderTimeout: p.ResponseHeaderTimeout,
	}

	if p.HTTPProxyURL != nil {
		transport.Proxy = func(*http.Request) (*url.URL, error) { return p.HTTPProxyURL, nil }
	} else if p.ProxyFromEnvironment {
		transport.Proxy = http.ProxyFromEnvironment
	}

	if !p.DisableHTTP2 {
		if err := configureHTTP2(transport, p.HTTP2ReadIdleTimeout, p.HTTP2PingTimeout); err != nil {
			svc1log.FromContext(ctx).Error("failed to configure transport for http2", svc1log.Stacktrace(err))
		}
	}
	return transport
}

// configureHTTP2 will attempt to configure net/http HTTP/1 Transport to use HTTP/2.
// It returns an error if t1 has already been HTTP/2-enabled.
func configureHTTP2(t1 *http.Transport, readIdleTimeout, pingTimeout time.Duration) error {
	http2Transport, err := http2.ConfigureTransports(t1)
	if err != nil {
		return werror.Wrap(err, "failed to configure transport for http2")
	}
	// ReadIdleTimeout is the timeout after which a health check using ping
	// frame will be carried out if no frame is received on the connection.
	// ref: https://github.com/golang/go/issues/36026
	http2Transport.ReadIdleTimeout = readIdleTimeout
	http2Transport.PingTimeout = pingTimeout
	return nil
}

// RefreshableHTTPClient exposes an *http.Client whose timeout follows a refreshable.
type RefreshableHTTPClient struct {
	refreshable.Refreshable // contains *http.Client
}

// NewRefreshableHTTPClient returns a client using rt, rebuilt when the time.Duration in timeout changes.
func NewRefreshableHTTPClient(rt http.RoundTripper, timeout refreshable.Refreshable) *RefreshableHTTPClient {
	return &RefreshableHTTPClient{
		Refreshable: timeout.Map(func(i interface{}) interface{} {
			return &http.Client{Transport: rt, Timeout: i.(time.Duration)}
		}),
	}
}

func (r *RefreshableHTTPClient) CurrentHTTPClient() *http.Client {
	return r.Current().(*http.Client)
}
