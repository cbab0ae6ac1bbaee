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
	"net/http"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/httpclient/internal/refreshingclient"
)

// A Middleware wraps an http round trip. Implementations call next.RoundTrip to continue
// the chain and may inspect or replace the request and response.
type Middleware interface {
	RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// MiddlewareFunc is a convenience type alias that implements Middleware.
type MiddlewareFunc func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func (f MiddlewareFunc) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	return f(req, next)
}

// wrapTransport wraps baseTransport with middlewares. The last middleware is the outermost.
func wrapTransport(baseTransport http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	for _, middleware := range middlewares {
		if middleware == nil {
			continue
		}
		baseTransport = &wrappedClient{baseTransport: baseTransport, middleware: middleware}
	}
	return baseTransport
}

type wrappedClient struct {
	baseTransport http.RoundTripper
	middleware    Middleware
}

func (c *wrappedClient) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.middleware.RoundTrip(req, c.baseTransport)
}

// unwrapTransport returns the *http.Transport at the bottom of a middleware chain, if any.
func unwrapTransport(rt http.RoundTripper) *http.Transport {
	for {
		switch v := rt.(type) {
		case *wrappedClient:
			rt = v.baseTransport
		case *refreshingclient.RefreshableTransport:
			return v.CurrentTransport()
		case *http.Transport:
			return v
		default:
			return nil
		}
	}
}
