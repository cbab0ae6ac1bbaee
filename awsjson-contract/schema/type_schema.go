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

package schema

import (
	werror "github.com/palantir/witchcraft-go-error"
)

// TypeSchema is the ordered field table of one structured type.
//
// A TypeSchema is created with Declare and populated exactly once with Define. Splitting
// the two steps lets mutually referencing types point at each other. Define must
// complete before the schema is shared; afterwards it is never mutated.
type TypeSchema struct {
	name    string
	fields  []FieldDescriptor
	byWire  map[string]int
	newHost func() any
	defined bool
}

// Option configures a TypeSchema at declaration.
type Option func(*TypeSchema)

// WithHost sets the constructor for the host value produced by decoding.
// Without it, decoding produces a *Object.
func WithHost(newHost func() any) Option {
	return func(ts *TypeSchema) {
		ts.newHost = newHost
	}
}

// Declare returns an undefined schema with the given name.
func Declare(name string, opts ...Option) *TypeSchema {
	ts := &TypeSchema{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}
	return ts
}

// New declares and defines a schema in one step.
func New(name string, fields ...FieldDescriptor) (*TypeSchema, error) {
	ts := Declare(name)
	if err := ts.Define(fields...); err != nil {
		return nil, err
	}
	return ts, nil
}

// MustNew is like New but panics on error. It is intended for package-level schema tables.
func MustNew(name string, fields ...FieldDescriptor) *TypeSchema {
	ts, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return ts
}

// Define sets the fields of ts. Wire names must be unique and every kind must be valid.
// Declaration order is preserved and is the order in which fields are encoded.
func (ts *TypeSchema) Define(fields ...FieldDescriptor) error {
	if ts.defined {
		return werror.Error("schema is already defined", werror.SafeParam("typeName", ts.name))
	}
	if ts.name == "" {
		return werror.Error("schema name can not be empty")
	}
	byWire := make(map[string]int, len(fields))
	defined := make([]FieldDescriptor, len(fields))
	for i, f := range fields {
		if f.WireName == "" {
			return werror.Error("field wire name can not be empty",
				werror.SafeParam("typeName", ts.name),
				werror.SafeParam("fieldIndex", i))
		}
		if _, exists := byWire[f.WireName]; exists {
			return werror.Error("duplicate field wire name",
				werror.SafeParam("typeName", ts.name),
				werror.SafeParam("wireName", f.WireName))
		}
		if !f.Kind.Valid() {
			return werror.Error("field kind is not valid",
				werror.SafeParam("typeName", ts.name),
				werror.SafeParam("wireName", f.WireName),
				werror.SafeParam("kind", f.Kind.String()))
		}
		f.index = i
		defined[i] = f
		byWire[f.WireName] = i
	}
	ts.fields = defined
	ts.byWire = byWire
	ts.defined = true
	return nil
}

func (ts *TypeSchema) Name() string {
	return ts.name
}

func (ts *TypeSchema) Defined() bool {
	return ts.defined
}

// NumFields returns the number of declared fields.
func (ts *TypeSchema) NumFields() int {
	return len(ts.fields)
}

// Field returns the i'th field in declaration order.
func (ts *TypeSchema) Field(i int) FieldDescriptor {
	return ts.fields[i]
}

// Fields returns a copy of the declared fields in order.
func (ts *TypeSchema) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(ts.fields))
	copy(out, ts.fields)
	return out
}

// Lookup finds a field by wire name.
func (ts *TypeSchema) Lookup(wireName string) (FieldDescriptor, bool) {
	i, ok := ts.byWire[wireName]
	if !ok {
		return FieldDescriptor{}, false
	}
	return ts.fields[i], true
}

// NewHost returns a fresh, zero-valued host for ts.
func (ts *TypeSchema) NewHost() any {
	if ts.newHost != nil {
		return ts.newHost()
	}
	return NewObject(ts)
}
