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
	"fmt"
	"net/http"
	"sync"

	"github.com/palantir/pkg/safejson"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	headerErrorType = "X-Amzn-ErrorType"
	headerRequestID = "X-Amzn-RequestId"
)

// CodeDefinition describes how a client should treat a service error code.
type CodeDefinition struct {
	Code       string `json:"code" yaml:"code"`
	Retryable  bool   `json:"retryable,omitempty" yaml:"retryable,omitempty"`
	Throttling bool   `json:"throttling,omitempty" yaml:"throttling,omitempty"`
}

// Registry maps service error codes to their definitions.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]CodeDefinition
}

func NewRegistry() *Registry {
	return new(Registry)
}

func (r *Registry) CopyFrom(other *Registry) error {
	other.mu.RLock()
	defs := make([]CodeDefinition, 0, len(other.codes))
	for _, def := range other.codes {
		defs = append(defs, def)
	}
	other.mu.RUnlock()
	for _, def := range defs {
		if err := r.RegisterCode(def); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) RegisterCode(def CodeDefinition) error {
	if def.Code == "" {
		return fmt.Errorf("error code can not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codes == nil {
		r.codes = map[string]CodeDefinition{}
	}
	if existing, exists := r.codes[def.Code]; exists {
		if existing == def {
			return nil
		}
		return fmt.Errorf("error code %v already registered as %+v", def.Code, existing)
	}
	r.codes[def.Code] = def
	return nil
}

func (r *Registry) Lookup(code string) (CodeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.codes[code]
	return def, ok
}

type errorBody struct {
	Type         string `json:"__type"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	MessageUpper string `json:"Message"`
	ErrorMessage string `json:"errorMessage"`
}

// UnmarshalServiceError builds a ServiceError from an AWS JSON error response.
//
// The code is taken from the body's "__type" (or "code") member, falling back to the
// X-Amzn-ErrorType header. An unparseable body is not an error; the returned
// ServiceError then carries whatever the headers provide.
func (r *Registry) UnmarshalServiceError(ctx context.Context, serviceName string, statusCode int, header http.Header, body []byte) (*ServiceError, error) {
	var parsed errorBody
	if len(body) > 0 {
		if err := safejson.Unmarshal(body, &parsed); err != nil {
			parsed = errorBody{}
		}
	}
	code := parsed.Type
	if code == "" {
		code = parsed.Code
	}
	if code == "" && header != nil {
		code = header.Get(headerErrorType)
	}
	code = SanitizeErrorCode(code)
	if code == "" {
		return nil, werror.ErrorWithContextParams(ctx, "service error response has no error code",
			werror.SafeParam("statusCode", statusCode),
			werror.SafeParam("serviceName", serviceName))
	}

	svcErr := &ServiceError{
		ServiceName: serviceName,
		Code:        code,
		Message:     firstNonEmpty(parsed.Message, parsed.MessageUpper, parsed.ErrorMessage),
		StatusCode:  statusCode,
		Type:        ErrorTypeForStatus(statusCode),
	}
	if header != nil {
		svcErr.RequestID = header.Get(headerRequestID)
	}
	def, _ := r.Lookup(code)
	svcErr.Throttling = def.Throttling || statusCode == http.StatusTooManyRequests
	svcErr.Retryable = def.Retryable || svcErr.Throttling || statusCode >= http.StatusInternalServerError
	return svcErr, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func MustRegisterCode(registry *Registry, def CodeDefinition) {
	if err := registry.RegisterCode(def); err != nil {
		panic(err)
	}
}
