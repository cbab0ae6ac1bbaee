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

// Accessor reads and writes one field of a host value.
//
// Get must return an untyped nil or a nil pointer, slice or map when the field is absent.
// A list getter may return []any or a slice of a scalar Go type, e.g. []int32 for
// list<integer>. Set is only called with values in the decoded representation of the
// field's Kind (see package jsoncodec).
type Accessor interface {
	Get(host any) any
	Set(host any, value any) error
}

// AccessorFuncs adapts a pair of functions to the Accessor interface.
type AccessorFuncs struct {
	GetFunc func(host any) any
	SetFunc func(host any, value any) error
}

func (a AccessorFuncs) Get(host any) any {
	return a.GetFunc(host)
}

func (a AccessorFuncs) Set(host any, value any) error {
	return a.SetFunc(host, value)
}

// FieldDescriptor binds a wire name and a Kind to a location in the host value.
type FieldDescriptor struct {
	WireName string
	Kind     Kind
	// Accessor is nil for fields stored in a *Object host.
	Accessor Accessor

	index int
}

// Field returns a descriptor stored in the default *Object host.
func Field(wireName string, kind Kind) FieldDescriptor {
	return FieldDescriptor{WireName: wireName, Kind: kind}
}

// Bind returns a copy of f that reads and writes a caller-owned host through get and set.
// Schemas using bound fields should be declared WithHost.
func (f FieldDescriptor) Bind(get func(host any) any, set func(host any, value any) error) FieldDescriptor {
	f.Accessor = AccessorFuncs{GetFunc: get, SetFunc: set}
	return f
}

// Get reads the field from host. It returns nil when the field is absent.
func (f FieldDescriptor) Get(host any) any {
	if f.Accessor != nil {
		return f.Accessor.Get(host)
	}
	obj, ok := host.(*Object)
	if !ok || obj == nil {
		return nil
	}
	return obj.values[f.index]
}

// Set writes value into the field of host.
func (f FieldDescriptor) Set(host any, value any) error {
	if f.Accessor != nil {
		return f.Accessor.Set(host, value)
	}
	obj, ok := host.(*Object)
	if !ok || obj == nil {
		return werror.Error("field has no accessor and host is not a *schema.Object",
			werror.SafeParam("wireName", f.WireName))
	}
	obj.values[f.index] = value
	return nil
}
