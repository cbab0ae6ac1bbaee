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

	"github.com/palantir/pkg/retry"
)

// RequestRetrier manages the attempts of a single call. The first attempt starts
// immediately; later attempts happen only after a retryable failure, once the backoff
// interval of the underlying retrier has elapsed.
type RequestRetrier struct {
	retrier retry.Retrier

	maxAttempts  int
	attemptCount int
}

// NewRequestRetrier creates a new request retrier. A maxAttempts of 0 means no limit.
func NewRequestRetrier(retrier retry.Retrier, maxAttempts int) *RequestRetrier {
	return &RequestRetrier{
		retrier:      retrier,
		maxAttempts:  maxAttempts,
		attemptCount: 0,
	}
}

func (r *RequestRetrier) attemptsRemaining() bool {
	// maxAttempts of 0 indicates no limit
	if r.maxAttempts == 0 {
		return true
	}
	return r.attemptCount < r.maxAttempts
}

// Next returns true if another attempt should be made given the error of the previous
// one. If the returned value is true, the retrier will have waited the desired backoff
// interval before returning.
func (r *RequestRetrier) Next(ctx context.Context, prevErr error) bool {
	if r.attemptCount > 0 {
		if !IsRetryable(ctx, prevErr) || !r.attemptsRemaining() {
			return false
		}
	}
	if !r.retrier.Next() {
		return false
	}
	r.attemptCount++
	return true
}

// AttemptCount returns the number of attempts started so far.
func (r *RequestRetrier) AttemptCount() int {
	return r.attemptCount
}

// MaxAttempts returns the attempt limit, or 0 when unlimited.
func (r *RequestRetrier) MaxAttempts() int {
	return r.maxAttempts
}
