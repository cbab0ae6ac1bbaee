// Copyright (c) 2026 Palantir Technologies. All rights reserved.
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
	"errors"
	"fmt"
	"net/http"
	"strings"

	werror "github.com/palantir/witchcraft-go-error"
	wparams "github.com/palantir/witchcraft-go-params"
)

// ErrorType attributes a service error to the caller or to the service.
type ErrorType string

const (
	ErrorTypeClient  ErrorType = "Client"
	ErrorTypeService ErrorType = "Service"
	ErrorTypeUnknown ErrorType = "Unknown"
)

// ErrorTypeForStatus returns Client for 4xx and Service for 5xx status codes.
func ErrorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError:
		return ErrorTypeClient
	case statusCode >= http.StatusInternalServerError:
		return ErrorTypeService
	default:
		return ErrorTypeUnknown
	}
}

// ServiceError is an error response returned by an AWS JSON service.
type ServiceError struct {
	ServiceName string
	Code        string
	Message     string
	StatusCode  int
	RequestID   string
	Type        ErrorType
	Retryable   bool
	Throttling  bool
}

var (
	_ error               = (*ServiceError)(nil)
	_ wparams.ParamStorer = (*ServiceError)(nil)
)

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s (Service: %s; Status Code: %d; Error Code: %s; Request ID: %s)",
		e.Message, e.ServiceName, e.StatusCode, e.Code, e.RequestID)
}

func (e *ServiceError) SafeParams() map[string]interface{} {
	return map[string]interface{}{
		"serviceName": e.ServiceName,
		"errorCode":   e.Code,
		"statusCode":  e.StatusCode,
		"requestId":   e.RequestID,
		"errorType":   string(e.Type),
	}
}

// UnsafeParams holds the message, which may echo request content.
func (e *ServiceError) UnsafeParams() map[string]interface{} {
	return map[string]interface{}{
		"errorMessage": e.Message,
	}
}

// ServiceErrorFromError returns the *ServiceError at the root of err, if any.
func ServiceErrorFromError(err error) (*ServiceError, bool) {
	if err == nil {
		return nil, false
	}
	if svcErr, ok := werror.RootCause(err).(*ServiceError); ok {
		return svcErr, true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// SanitizeErrorCode reduces the error code forms used by AWS JSON services to the bare
// code: "aws.protocoltests#FooError:http://internal/" becomes "FooError".
func SanitizeErrorCode(raw string) string {
	code := strings.TrimSpace(raw)
	if i := strings.Index(code, ":"); i >= 0 {
		code = code[:i]
	}
	if i := strings.LastIndex(code, "#"); i >= 0 {
		code = code[i+1:]
	}
	return code
}
