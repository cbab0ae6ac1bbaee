// Copyright (c) 2024 Palantir Technologies. All rights reserved.
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
	"context"
	"crypto/x509"
	stderrors "errors"
	"reflect"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
)

// ErrorRegistry logs failed attempts whose errors are of a registered type.
type ErrorRegistry interface {
	LogError(ctx context.Context, err error)
}

func GetGenericErrorLoggerWithType[E error](genericErrorLogger GenericErrorLogger[E]) GenericErrorLoggerWithType {
	var e E
	return GenericErrorLoggerWithType{
		Type:        reflect.TypeOf(e),
		ErrorLogger: asAnyErrorLogger(genericErrorLogger),
	}
}

type GenericErrorLoggerWithType struct {
	Type        reflect.Type
	ErrorLogger AnyErrorLogger
}

// DefaultErrorRegistry logs service errors and unknown certificate authorities.
var DefaultErrorRegistry = NewErrorRegistry(
	GetGenericErrorLoggerWithType[*errors.ServiceError](ServiceErrorLogger()),
	GetGenericErrorLoggerWithType[x509.UnknownAuthorityError](UnknownAuthorityErrorLogger()),
)

func NewErrorRegistry(loggersWithTypes ...GenericErrorLoggerWithType) ErrorRegistry {
	registry := make(errorRegistry)
	for _, loggerWithType := range loggersWithTypes {
		registry[loggerWithType.Type] = loggerWithType.ErrorLogger
	}
	return registry
}

type errorRegistry map[reflect.Type]AnyErrorLogger

// LogError logs the first error in err's chain with a registered type.
func (e errorRegistry) LogError(ctx context.Context, err error) {
	for cause := err; cause != nil; cause = stderrors.Unwrap(cause) {
		if handler, ok := e[reflect.TypeOf(cause)]; ok {
			handler.LogError(ctx, cause)
			return
		}
	}
	if root := werror.RootCause(err); root != nil {
		if handler, ok := e[reflect.TypeOf(root)]; ok {
			handler.LogError(ctx, root)
		}
	}
}

func asAnyErrorLogger[E error](errorLogger GenericErrorLogger[E]) AnyErrorLogger {
	return genericErrorLoggerFn[error](func(ctx context.Context, err error) {
		errorLogger.LogError(ctx, err.(E))
	})
}

type AnyErrorLogger GenericErrorLogger[error]

type GenericErrorLogger[E error] interface {
	LogError(ctx context.Context, err E)
}

type genericErrorLoggerFn[E error] func(ctx context.Context, err E)

func (fn genericErrorLoggerFn[E]) LogError(ctx context.Context, err E) {
	fn(ctx, err)
}

var _ GenericErrorLogger[error] = (genericErrorLoggerFn[error])(nil)

// ServiceErrorLogger logs service errors at warn level for 5xx responses and debug level otherwise.
func ServiceErrorLogger() GenericErrorLogger[*errors.ServiceError] {
	return genericErrorLoggerFn[*errors.ServiceError](func(ctx context.Context, err *errors.ServiceError) {
		params := []svc1log.Param{svc1log.SafeParams(err.SafeParams()), svc1log.UnsafeParams(err.UnsafeParams())}
		if err.Type == errors.ErrorTypeService {
			svc1log.FromContext(ctx).Warn("AWS service returned a server error.", params...)
			return
		}
		svc1log.FromContext(ctx).Debug("AWS service returned an error.", params...)
	})
}

func UnknownAuthorityErrorLogger() GenericErrorLogger[x509.UnknownAuthorityError] {
	return genericErrorLoggerFn[x509.UnknownAuthorityError](func(ctx context.Context, err x509.UnknownAuthorityError) {
		if err.Cert == nil {
			svc1log.FromContext(ctx).Error("Encountered UnknownAuthorityError.", svc1log.Stacktrace(err))
			return
		}
		svc1log.FromContext(ctx).Error("Encountered UnknownAuthorityError.", svc1log.SafeParams(map[string]interface{}{
			"certSANs":     err.Cert.DNSNames,
			"certCN":       err.Cert.Subject.CommonName,
			"issuerCertCN": err.Cert.Issuer.CommonName,
			"rawSubject":   err.Cert.RawSubject,
			"rawIssuer":    err.Cert.RawIssuer,
		}), svc1log.Stacktrace(err))
	})
}
