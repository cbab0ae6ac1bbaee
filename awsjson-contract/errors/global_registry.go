// Copyright (c) 2020 Palantir Technologies. All rights reserved.
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

package errors

import (
	"context"
	"net/http"
)

var globalRegistry = newDefaultRegistry()

// Throttling codes shared by every AWS JSON service.
func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, code := range []string{
		"Throttling",
		"ThrottlingException",
		"ThrottledException",
		"TooManyRequestsException",
		"ProvisionedThroughputExceededException",
		"RequestLimitExceeded",
		"RequestThrottled",
		"SlowDown",
	} {
		MustRegisterCode(r, CodeDefinition{Code: code, Throttling: true})
	}
	for _, code := range []string{
		"RequestTimeout",
		"RequestTimeoutException",
		"InternalServerException",
		"ServiceUnavailable",
	} {
		MustRegisterCode(r, CodeDefinition{Code: code, Retryable: true})
	}
	return r
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return globalRegistry
}

// RegisterCode registers an error code in the global registry.
// Panics if the code is already registered with a different definition.
func RegisterCode(def CodeDefinition) {
	MustRegisterCode(globalRegistry, def)
}

// UnmarshalServiceError decodes an error response using the global registry.
func UnmarshalServiceError(ctx context.Context, serviceName string, statusCode int, header http.Header, body []byte) (*ServiceError, error) {
	return globalRegistry.UnmarshalServiceError(ctx, serviceName, statusCode, header, body)
}
