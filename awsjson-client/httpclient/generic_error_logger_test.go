// Copyright (c) 2023 Palantir Technologies. All rights reserved.
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
	"bytes"
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"testing"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/palantir/witchcraft-go-logging/wlog"
	"github.com/palantir/witchcraft-go-logging/wlog/svclog/svc1log"
	"github.com/stretchr/testify/assert"
)

func TestErrorRegistry_LogError(t *testing.T) {
	myRegistry := NewErrorRegistry(GetGenericErrorLoggerWithType(UnknownAuthorityErrorLogger()))
	notHandledError := fmt.Errorf("i won't get logged")
	handledError := unknownAuthorityError()
	out := &bytes.Buffer{}
	wlog.SetDefaultLoggerProvider(wlog.NewJSONMarshalLoggerProvider())
	ctx := svc1log.WithLogger(context.Background(), svc1log.New(out, wlog.DebugLevel))
	myRegistry.LogError(ctx, notHandledError)
	assert.Empty(t, out.String())
	myRegistry.LogError(ctx, handledError)
	assert.NotEmpty(t, out.String())
	assert.Contains(t, out.String(), "common name")
}

func TestErrorRegistry_LogWrappedServiceError(t *testing.T) {
	out := &bytes.Buffer{}
	wlog.SetDefaultLoggerProvider(wlog.NewJSONMarshalLoggerProvider())
	ctx := svc1log.WithLogger(context.Background(), svc1log.New(out, wlog.DebugLevel))

	svcErr := &errors.ServiceError{
		ServiceName: "comprehend",
		Code:        "InternalServerException",
		Message:     "try again",
		StatusCode:  500,
		Type:        errors.ErrorTypeService,
	}
	DefaultErrorRegistry.LogError(ctx, werror.Wrap(svcErr, "request failed"))
	assert.Contains(t, out.String(), "InternalServerException")
	assert.Contains(t, out.String(), `"level":"WARN"`)

	out.Reset()
	svcErr.Type = errors.ErrorTypeClient
	DefaultErrorRegistry.LogError(ctx, fmt.Errorf("wrapped: %w", svcErr))
	assert.Contains(t, out.String(), `"level":"DEBUG"`)
}

func TestUnknownAuthorityErrorLogger_NilCert(t *testing.T) {
	out := &bytes.Buffer{}
	wlog.SetDefaultLoggerProvider(wlog.NewJSONMarshalLoggerProvider())
	ctx := svc1log.WithLogger(context.Background(), svc1log.New(out, wlog.DebugLevel))
	DefaultErrorRegistry.LogError(ctx, x509.UnknownAuthorityError{})
	assert.Contains(t, out.String(), "Encountered UnknownAuthorityError.")
}

func unknownAuthorityError() error {
	return x509.UnknownAuthorityError{
		Cert: &x509.Certificate{
			Subject: pkix.Name{
				CommonName: "common name",
			},
		},
	}
}
