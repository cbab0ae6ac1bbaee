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

// Package awsjson adapts schema-driven values to AWS JSON 1.1 requests and responses.
//
// A Service describes the operations of one AWS JSON API. NewRequest and DecodeResponse
// turn typed values into request bodies and response bodies back into typed values, and
// an Invoker sends operations through an httpclient.Client.
package awsjson

import (
	"strings"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/jsoncodec"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/manifest"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
)

// Operation pairs an operation name with the schemas of its input and output.
type Operation struct {
	Name   string
	Input  *schema.TypeSchema
	Output *schema.TypeSchema
}

// Service describes an AWS JSON 1.1 API.
type Service struct {
	// Name is used in logs, metrics and service errors, e.g. "Comprehend".
	Name string
	// TargetPrefix is the first half of the X-Amz-Target header, e.g. "Comprehend_20171127".
	TargetPrefix string
	// APIVersion is advertised in the User-Agent as "api/<name>#<version>" when set.
	APIVersion string
	// SigningName scopes SigV4 signatures. Defaults to the lower-cased Name.
	SigningName string
	Schemas     *schema.Registry
	Operations  map[string]Operation
	// ErrorCodes classifies the service's error codes. Defaults to errors.DefaultRegistry().
	ErrorCodes *errors.Registry
	// CodecOptions are applied to every encode and decode, e.g. the timestamp format.
	CodecOptions []jsoncodec.Option
}

// Target returns the X-Amz-Target header value of operation.
func (s *Service) Target(operation string) string {
	return s.TargetPrefix + "." + operation
}

// Operation returns the named operation, or an InvalidArgument error if it is unknown.
func (s *Service) Operation(name string) (Operation, error) {
	op, ok := s.Operations[name]
	if !ok {
		return Operation{}, errors.NewInvalidArgument("unknown operation",
			werror.SafeParam("serviceName", s.Name),
			werror.SafeParam("operation", name))
	}
	return op, nil
}

func (s *Service) signingName() string {
	if s.SigningName != "" {
		return s.SigningName
	}
	return strings.ToLower(s.Name)
}

func (s *Service) errorCodes() *errors.Registry {
	if s.ErrorCodes != nil {
		return s.ErrorCodes
	}
	return errors.DefaultRegistry()
}

// NewServiceFromManifest builds a Service whose operations resolve through the
// manifest's schema registry and whose error codes include the manifest's.
func NewServiceFromManifest(m *manifest.Manifest) (*Service, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	registry := m.Registry()
	operations := make(map[string]Operation, len(m.Operations))
	for _, def := range m.Operations {
		input, err := registry.RegisterOnce(def.Input)
		if err != nil {
			return nil, werror.Wrap(err, "failed to resolve operation input",
				werror.SafeParam("operation", def.Name))
		}
		output, err := registry.RegisterOnce(def.Output)
		if err != nil {
			return nil, werror.Wrap(err, "failed to resolve operation output",
				werror.SafeParam("operation", def.Name))
		}
		operations[def.Name] = Operation{Name: def.Name, Input: input, Output: output}
	}
	codes, err := m.ErrorCodes()
	if err != nil {
		return nil, err
	}
	return &Service{
		Name:         m.Service,
		TargetPrefix: m.TargetPrefix,
		APIVersion:   m.APIVersion,
		Schemas:      registry,
		Operations:   operations,
		ErrorCodes:   codes,
	}, nil
}
