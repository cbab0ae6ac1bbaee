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

package schema_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// treeSource describes a Node type that refers to itself and a Leaf type.
func treeSource(calls *int32) schema.Source {
	return schema.SourceFunc(func(typeName string, resolve func(string) (*schema.TypeSchema, error)) ([]schema.FieldDescriptor, error) {
		atomic.AddInt32(calls, 1)
		switch typeName {
		case "Node":
			node, err := resolve("Node")
			if err != nil {
				return nil, err
			}
			leaf, err := resolve("Leaf")
			if err != nil {
				return nil, err
			}
			return []schema.FieldDescriptor{
				schema.Field("Children", schema.ListOf(schema.ObjectOf(node))),
				schema.Field("Leaf", schema.ObjectOf(leaf)),
			}, nil
		case "Leaf":
			return []schema.FieldDescriptor{schema.Field("Value", schema.String)}, nil
		}
		return nil, werror.Error("no such type", werror.SafeParam("typeName", typeName))
	})
}

func TestRegistry_RegisterOnce(t *testing.T) {
	var calls int32
	r := schema.NewRegistry(treeSource(&calls))

	first, err := r.RegisterOnce("Node")
	require.NoError(t, err)
	second, err := r.RegisterOnce("Node")
	require.NoError(t, err)
	assert.Same(t, first, second)

	children, ok := first.Lookup("Children")
	require.True(t, ok)
	assert.Same(t, first, children.Kind.Elem().Object(), "self reference resolves to the same instance")

	leaf, ok := r.Lookup("Leaf")
	require.True(t, ok)
	leafField, _ := first.Lookup("Leaf")
	assert.Same(t, leaf, leafField.Kind.Object())

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"Leaf", "Node"}, r.Names())
}

func TestRegistry_RegisterOnceConcurrent(t *testing.T) {
	var calls int32
	r := schema.NewRegistry(treeSource(&calls))

	const n = 32
	results := make([]*schema.TypeSchema, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.MustRegisterOnce("Leaf")
		}(i)
	}
	wg.Wait()
	for _, ts := range results {
		assert.Same(t, results[0], ts)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRegistry_Errors(t *testing.T) {
	var calls int32
	r := schema.NewRegistry(treeSource(&calls))
	_, err := r.RegisterOnce("Missing")
	require.Error(t, err)
	typeName, _ := werror.ParamFromError(err, "typeName")
	assert.Equal(t, "Missing", typeName)

	empty := schema.NewRegistry(nil)
	_, err = empty.RegisterOnce("Node")
	require.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := schema.NewRegistry(nil)
	ts := schema.MustNew("KeyPhrase", schema.Field("Text", schema.String))
	require.NoError(t, r.Register(ts))
	require.NoError(t, r.Register(ts))

	got, err := r.RegisterOnce("KeyPhrase")
	require.NoError(t, err)
	assert.Same(t, ts, got)

	other := schema.MustNew("KeyPhrase", schema.Field("Text", schema.String))
	require.Error(t, r.Register(other))
	require.Error(t, r.Register(schema.Declare("Undefined")))
}

func TestRegistry_FailedConstructionPublishesNothing(t *testing.T) {
	// Request refers to Result and back; Request declares a wire name twice.
	source := schema.SourceFunc(func(typeName string, resolve func(string) (*schema.TypeSchema, error)) ([]schema.FieldDescriptor, error) {
		switch typeName {
		case "Request":
			result, err := resolve("Result")
			if err != nil {
				return nil, err
			}
			return []schema.FieldDescriptor{
				schema.Field("Result", schema.ObjectOf(result)),
				schema.Field("Result", schema.String),
			}, nil
		case "Result":
			request, err := resolve("Request")
			if err != nil {
				return nil, err
			}
			return []schema.FieldDescriptor{schema.Field("Request", schema.ObjectOf(request))}, nil
		}
		return nil, werror.Error("no such type", werror.SafeParam("typeName", typeName))
	})
	r := schema.NewRegistry(source)

	_, err := r.RegisterOnce("Request")
	require.Error(t, err)
	_, ok := r.Lookup("Result")
	assert.False(t, ok, "dependent schema must not outlive a failed construction")
	_, ok = r.Lookup("Request")
	assert.False(t, ok)
	assert.Empty(t, r.Names())

	_, err = r.RegisterOnce("Result")
	require.Error(t, err)
	assert.Empty(t, r.Names())
}
