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

package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
)

func TestRetryClassification(t *testing.T) {
	for _, test := range []struct {
		Name        string
		Err         error
		IsRetryable bool
		IsThrottle  bool
		StatusCode  int
	}{
		{
			Name:        "transport error",
			Err:         fmt.Errorf("dial tcp: connection refused"),
			IsRetryable: true,
		},
		{
			Name:        "throttling service error",
			Err:         werror.Wrap(&errors.ServiceError{Code: "ThrottlingException", StatusCode: 400, Retryable: true, Throttling: true}, "failed"),
			IsRetryable: true,
			IsThrottle:  true,
			StatusCode:  400,
		},
		{
			Name:        "server service error",
			Err:         &errors.ServiceError{Code: "InternalServerException", StatusCode: 500, Retryable: true},
			IsRetryable: true,
			StatusCode:  500,
		},
		{
			Name:       "client service error",
			Err:        &errors.ServiceError{Code: "ResourceNotFoundException", StatusCode: 400},
			StatusCode: 400,
		},
		{
			Name:        "429 without code",
			Err:         werror.Error("throttled", werror.SafeParam("statusCode", 429)),
			IsRetryable: true,
			IsThrottle:  true,
			StatusCode:  429,
		},
		{
			Name:        "503 without code",
			Err:         werror.Error("unavailable", werror.SafeParam("statusCode", 503)),
			IsRetryable: true,
			StatusCode:  503,
		},
		{
			Name:       "403 without code",
			Err:        werror.Error("forbidden", werror.SafeParam("statusCode", 403)),
			StatusCode: 403,
		},
		{
			Name: "encode error",
			Err:  errors.WrapEncodeError(fmt.Errorf("bad"), "KeyPhrase", "Score"),
		},
		{
			Name: "invalid argument",
			Err:  errors.NewInvalidArgument("region is required"),
		},
		{
			Name: "deadline exceeded",
			Err:  werror.Wrap(context.DeadlineExceeded, "timeout"),
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			ctx := context.Background()
			assert.Equal(t, test.IsRetryable, IsRetryable(ctx, test.Err))
			assert.Equal(t, test.IsThrottle, IsThrottle(test.Err))
			statusCode, ok := StatusCodeFromError(test.Err)
			assert.Equal(t, test.StatusCode != 0, ok)
			assert.Equal(t, test.StatusCode, statusCode)
		})
	}
}

func TestIsRetryable_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, IsRetryable(ctx, fmt.Errorf("connection reset")))
	assert.False(t, IsRetryable(context.Background(), nil))
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestDrainBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("remaining")}
	DrainBody(&http.Response{Body: body})
	assert.True(t, body.closed)
	DrainBody(nil)
	DrainBody(&http.Response{})
}
