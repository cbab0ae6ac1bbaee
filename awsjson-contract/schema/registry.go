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
	"sort"
	"sync"

	werror "github.com/palantir/witchcraft-go-error"
)

// Source produces field tables for named types. resolve returns the registered schema
// for any type the fields refer to, constructing it if needed.
type Source interface {
	Fields(typeName string, resolve func(typeName string) (*TypeSchema, error)) ([]FieldDescriptor, error)
}

// SourceFunc is an alias type which implements Source.
type SourceFunc func(typeName string, resolve func(typeName string) (*TypeSchema, error)) ([]FieldDescriptor, error)

func (f SourceFunc) Fields(typeName string, resolve func(string) (*TypeSchema, error)) ([]FieldDescriptor, error) {
	return f(typeName, resolve)
}

// Registry memoizes TypeSchemas by type name for the lifetime of the process.
//
// Lookups of constructed schemas take no lock. Construction is serialized so that
// recursive references resolve to the same instance.
type Registry struct {
	source  Source
	schemas sync.Map // string -> *TypeSchema

	mu      sync.Mutex
	pending map[string]*TypeSchema
}

// NewRegistry returns a Registry backed by source. source may be nil, in which case
// only schemas added with Register can be returned.
func NewRegistry(source Source) *Registry {
	return &Registry{
		source:  source,
		pending: make(map[string]*TypeSchema),
	}
}

// RegisterOnce returns the schema for typeName, constructing it from the registry's
// Source on first use. Every call for the same name returns the same instance.
func (r *Registry) RegisterOnce(typeName string) (*TypeSchema, error) {
	if ts, ok := r.schemas.Load(typeName); ok {
		return ts.(*TypeSchema), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(typeName)
}

// MustRegisterOnce is like RegisterOnce but panics on error.
func (r *Registry) MustRegisterOnce(typeName string) *TypeSchema {
	ts, err := r.RegisterOnce(typeName)
	if err != nil {
		panic(err)
	}
	return ts
}

// Register adds a defined schema. Registering the same instance twice is a no-op;
// registering a different instance under an existing name is an error.
func (r *Registry) Register(ts *TypeSchema) error {
	if ts == nil || !ts.Defined() {
		return werror.Error("only defined schemas can be registered")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, loaded := r.schemas.LoadOrStore(ts.Name(), ts)
	if loaded && existing.(*TypeSchema) != ts {
		return werror.Error("type name already registered with a different schema",
			werror.SafeParam("typeName", ts.Name()))
	}
	return nil
}

// Lookup returns an already constructed schema without consulting the Source.
func (r *Registry) Lookup(typeName string) (*TypeSchema, bool) {
	ts, ok := r.schemas.Load(typeName)
	if !ok {
		return nil, false
	}
	return ts.(*TypeSchema), true
}

// Names returns the sorted names of all constructed schemas.
func (r *Registry) Names() []string {
	var names []string
	r.schemas.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

func (r *Registry) resolveLocked(typeName string) (*TypeSchema, error) {
	if ts, ok := r.schemas.Load(typeName); ok {
		return ts.(*TypeSchema), nil
	}
	if ts, ok := r.pending[typeName]; ok {
		return ts, nil
	}
	if r.source == nil {
		return nil, werror.Error("unknown type", werror.SafeParam("typeName", typeName))
	}

	// Schemas built while resolving typeName stay pending until the outermost
	// construction finishes, so a failure anywhere publishes none of them.
	outermost := len(r.pending) == 0
	ts := Declare(typeName)
	r.pending[typeName] = ts
	err := r.construct(ts)
	if !outermost {
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	built := r.pending
	r.pending = make(map[string]*TypeSchema)
	if err != nil {
		return nil, err
	}
	for name, p := range built {
		if !p.Defined() {
			return nil, werror.Error("referenced type was not constructed",
				werror.SafeParam("typeName", typeName),
				werror.SafeParam("referencedTypeName", name))
		}
	}
	for name, p := range built {
		r.schemas.Store(name, p)
	}
	return ts, nil
}

func (r *Registry) construct(ts *TypeSchema) error {
	fields, err := r.source.Fields(ts.Name(), r.resolveLocked)
	if err != nil {
		return werror.Wrap(err, "failed to construct schema", werror.SafeParam("typeName", ts.Name()))
	}
	return ts.Define(fields...)
}
