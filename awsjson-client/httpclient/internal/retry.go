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

package internal

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
)

// RecoveredPanicParam is set on errors produced from a recovered panic.
const RecoveredPanicParam = "recovered"

// IsRetryable reports whether the failure of an attempt may succeed when repeated.
// Service errors carry their own classification. Codec failures and recovered panics are
// deterministic and never retried. Any other failure without a response is a transport
// failure and is retried unless ctx is done.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if svcErr, ok := errors.ServiceErrorFromError(err); ok {
		return svcErr.Retryable
	}
	if _, ok := errors.KindFromError(err); ok {
		return false
	}
	if recovered, _ := werror.ParamFromError(err, RecoveredPanicParam); recovered != nil {
		return false
	}
	if statusCode, ok := StatusCodeFromError(err); ok {
		return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
	}
	return !isContextError(err) && !isContextError(werror.RootCause(err))
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// IsThrottle reports whether err is a throttling response.
func IsThrottle(err error) bool {
	if svcErr, ok := errors.ServiceErrorFromError(err); ok {
		return svcErr.Throttling
	}
	statusCode, ok := StatusCodeFromError(err)
	return ok && statusCode == http.StatusTooManyRequests
}

// StatusCodeFromError returns the HTTP status of a service error, or the 'statusCode'
// parameter set by custom error decoders.
func StatusCodeFromError(err error) (statusCode int, ok bool) {
	if svcErr, isSvcErr := errors.ServiceErrorFromError(err); isSvcErr {
		return svcErr.StatusCode, true
	}
	statusCodeI, _ := werror.ParamFromError(err, "statusCode")
	if statusCodeI == nil {
		return 0, false
	}
	statusCode, ok = statusCodeI.(int)
	return statusCode, ok
}

// DrainBody reads then closes a response's body if it is non-nil, so the connection can be reused.
func DrainBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}
