// Copyright (c) 2022 Palantir Technologies. All rights reserved.
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
	"testing"
	"time"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/pkg/retry"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/require"
)

func fastRetrier(ctx context.Context) retry.Retrier {
	return retry.Start(ctx, retry.WithInitialBackoff(time.Millisecond), retry.WithMaxBackoff(time.Millisecond))
}

func TestRequestRetrier_AttemptCount(t *testing.T) {
	ctx := context.Background()
	maxAttempts := 3
	r := NewRequestRetrier(fastRetrier(ctx), maxAttempts)
	transportErr := fmt.Errorf("connection reset")
	// first attempt is not a retry
	require.True(t, r.Next(ctx, nil))
	require.Equal(t, 1, r.AttemptCount())
	for i := 0; i < maxAttempts-1; i++ {
		require.True(t, r.Next(ctx, transportErr))
	}
	require.Equal(t, maxAttempts, r.AttemptCount())
	require.False(t, r.Next(ctx, transportErr))
	require.Equal(t, maxAttempts, r.MaxAttempts())
}

func TestRequestRetrier_UnlimitedAttempts(t *testing.T) {
	ctx := context.Background()
	r := NewRequestRetrier(fastRetrier(ctx), 0)
	for i := 0; i < 10; i++ {
		require.True(t, r.Next(ctx, fmt.Errorf("unavailable")))
	}
	require.Equal(t, 10, r.AttemptCount())
}

func TestRequestRetrier_StopsOnNonRetryableError(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name    string
		prevErr error
	}{
		{
			name:    "client service error",
			prevErr: &errors.ServiceError{Code: "InvalidRequestException", StatusCode: 400, Type: errors.ErrorTypeClient},
		},
		{
			name:    "decode error",
			prevErr: errors.NewDecodeError("DetectKeyPhrasesResponse", "KeyPhrases", "expected array"),
		},
		{
			name:    "recovered panic",
			prevErr: werror.Error("recovered panic", werror.UnsafeParam(RecoveredPanicParam, "boom")),
		},
		{
			name:    "not found status",
			prevErr: werror.Error("404", werror.SafeParam("statusCode", 404)),
		},
		{
			name:    "canceled",
			prevErr: werror.Wrap(context.Canceled, "request failed"),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRequestRetrier(fastRetrier(ctx), 5)
			require.True(t, r.Next(ctx, nil))
			require.False(t, r.Next(ctx, tc.prevErr))
			require.Equal(t, 1, r.AttemptCount())
		})
	}
}

func TestRequestRetrier_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRequestRetrier(fastRetrier(ctx), 5)
	require.True(t, r.Next(ctx, nil))
	cancel()
	require.False(t, r.Next(ctx, fmt.Errorf("connection reset")))
}
