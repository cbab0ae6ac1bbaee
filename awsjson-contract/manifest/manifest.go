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

// Package manifest loads declarative service descriptions: the types a service
// exchanges, its operations and the error codes it returns. A Manifest is a
// schema.Source, so its types can be materialized lazily through a schema.Registry.
package manifest

import (
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
)

type Manifest struct {
	Service      string                  `json:"service" yaml:"service"`
	APIVersion   string                  `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	TargetPrefix string                  `json:"targetPrefix" yaml:"targetPrefix"`
	Types        []TypeDef               `json:"types" yaml:"types"`
	Operations   []OperationDef          `json:"operations" yaml:"operations"`
	Errors       []errors.CodeDefinition `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type TypeDef struct {
	Name   string     `json:"name" yaml:"name"`
	Fields []FieldDef `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldDef declares one field. Type is a type expression such as "float",
// "list<KeyPhrase>" or "map<string>".
type FieldDef struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

type OperationDef struct {
	Name   string `json:"name" yaml:"name"`
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

var _ schema.Source = (*Manifest)(nil)

// Fields implements schema.Source.
func (m *Manifest) Fields(typeName string, resolve func(string) (*schema.TypeSchema, error)) ([]schema.FieldDescriptor, error) {
	def, ok := m.typeDef(typeName)
	if !ok {
		return nil, werror.Error("type is not declared in manifest",
			werror.SafeParam("service", m.Service),
			werror.SafeParam("typeName", typeName))
	}
	fields := make([]schema.FieldDescriptor, 0, len(def.Fields))
	for _, f := range def.Fields {
		kind, err := ParseKind(f.Type, resolve)
		if err != nil {
			return nil, werror.Wrap(err, "invalid field type",
				werror.SafeParam("typeName", typeName),
				werror.SafeParam("wireName", f.Name))
		}
		fields = append(fields, schema.Field(f.Name, kind))
	}
	return fields, nil
}

// Registry returns a new registry that materializes the manifest's types on first use.
func (m *Manifest) Registry() *schema.Registry {
	return schema.NewRegistry(m)
}

// Operation returns the named operation.
func (m *Manifest) Operation(name string) (OperationDef, bool) {
	for _, op := range m.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return OperationDef{}, false
}

// ErrorCodes returns an errors.Registry holding the default codes plus the manifest's own.
func (m *Manifest) ErrorCodes() (*errors.Registry, error) {
	registry := errors.NewRegistry()
	if err := registry.CopyFrom(errors.DefaultRegistry()); err != nil {
		return nil, err
	}
	for _, def := range m.Errors {
		if err := registry.RegisterCode(def); err != nil {
			return nil, werror.Wrap(err, "invalid error code in manifest", werror.SafeParam("service", m.Service))
		}
	}
	return registry, nil
}

func (m *Manifest) typeDef(name string) (TypeDef, bool) {
	for _, def := range m.Types {
		if def.Name == name {
			return def, true
		}
	}
	return TypeDef{}, false
}
