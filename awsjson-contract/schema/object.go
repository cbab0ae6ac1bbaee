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
	"bytes"
	"reflect"
	"time"

	werror "github.com/palantir/witchcraft-go-error"
)

// Object is the default host value of a TypeSchema: one slot per declared field.
// A nil slot is an absent field.
type Object struct {
	schema *TypeSchema
	values []any
}

// NewObject returns an empty Object for ts.
func NewObject(ts *TypeSchema) *Object {
	return &Object{
		schema: ts,
		values: make([]any, len(ts.fields)),
	}
}

// NewObjectFrom returns an Object for ts populated from values keyed by wire name.
func NewObjectFrom(ts *TypeSchema, values map[string]any) (*Object, error) {
	obj := NewObject(ts)
	for wireName, v := range values {
		if err := obj.Set(wireName, v); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// MustNewObject is like NewObjectFrom but panics on error.
func MustNewObject(ts *TypeSchema, values map[string]any) *Object {
	obj, err := NewObjectFrom(ts, values)
	if err != nil {
		panic(err)
	}
	return obj
}

func (o *Object) Schema() *TypeSchema {
	return o.schema
}

// Get returns the value stored under wireName and whether it is present.
func (o *Object) Get(wireName string) (any, bool) {
	i, ok := o.schema.byWire[wireName]
	if !ok || o.values[i] == nil {
		return nil, false
	}
	return o.values[i], true
}

// Set stores value under wireName. Setting nil marks the field absent.
func (o *Object) Set(wireName string, value any) error {
	i, ok := o.schema.byWire[wireName]
	if !ok {
		return werror.Error("unknown field",
			werror.SafeParam("typeName", o.schema.name),
			werror.SafeParam("wireName", wireName))
	}
	o.values[i] = value
	return nil
}

// Unset marks the field absent.
func (o *Object) Unset(wireName string) {
	if i, ok := o.schema.byWire[wireName]; ok {
		o.values[i] = nil
	}
}

// Range calls fn for each present field in declaration order until fn returns false.
func (o *Object) Range(fn func(wireName string, value any) bool) {
	for i, v := range o.values {
		if v == nil {
			continue
		}
		if !fn(o.schema.fields[i].WireName, v) {
			return
		}
	}
}

// Equal reports whether o and other share a schema and hold structurally equal values.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.schema != other.schema || len(o.values) != len(other.values) {
		return false
	}
	for i := range o.values {
		if !valuesEqual(o.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *Object:
		bv, ok := b.(*Object)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !valuesEqual(v, other) {
				return false
			}
		}
		return true
	case string, bool, int, int32, int64, float32, float64:
		return a == b
	default:
		return reflect.DeepEqual(a, b)
	}
}
