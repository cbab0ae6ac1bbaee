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
	"testing"
	"time"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPhraseSchema(t *testing.T) *schema.TypeSchema {
	ts, err := schema.New("KeyPhrase",
		schema.Field("Score", schema.Float),
		schema.Field("Text", schema.String),
		schema.Field("BeginOffset", schema.Integer),
		schema.Field("EndOffset", schema.Integer),
	)
	require.NoError(t, err)
	return ts
}

func TestTypeSchema_Define(t *testing.T) {
	t.Run("preserves declaration order", func(t *testing.T) {
		ts := keyPhraseSchema(t)
		var names []string
		for i := 0; i < ts.NumFields(); i++ {
			names = append(names, ts.Field(i).WireName)
		}
		assert.Equal(t, []string{"Score", "Text", "BeginOffset", "EndOffset"}, names)
	})
	t.Run("duplicate wire name", func(t *testing.T) {
		_, err := schema.New("Dup", schema.Field("A", schema.String), schema.Field("A", schema.Long))
		require.Error(t, err)
		wireName, _ := werror.ParamFromError(err, "wireName")
		assert.Equal(t, "A", wireName)
	})
	t.Run("empty wire name", func(t *testing.T) {
		_, err := schema.New("Empty", schema.Field("", schema.String))
		require.Error(t, err)
	})
	t.Run("invalid kinds", func(t *testing.T) {
		_, err := schema.New("Bad", schema.Field("A", schema.Kind{}))
		require.Error(t, err)
		_, err = schema.New("Bad", schema.Field("A", schema.ListOf(schema.ObjectOf(nil))))
		require.Error(t, err)
	})
	t.Run("define twice", func(t *testing.T) {
		ts := schema.Declare("Twice")
		require.NoError(t, ts.Define(schema.Field("A", schema.String)))
		require.Error(t, ts.Define(schema.Field("B", schema.String)))
		assert.Equal(t, 1, ts.NumFields())
	})
	t.Run("lookup", func(t *testing.T) {
		ts := keyPhraseSchema(t)
		f, ok := ts.Lookup("Text")
		require.True(t, ok)
		assert.Equal(t, schema.TagString, f.Kind.Tag())
		_, ok = ts.Lookup("text")
		assert.False(t, ok)
	})
}

func TestKind_String(t *testing.T) {
	kp := schema.MustNew("KeyPhrase", schema.Field("Text", schema.String))
	for _, tc := range []struct {
		kind     schema.Kind
		expected string
	}{
		{schema.String, "string"},
		{schema.Timestamp, "timestamp"},
		{schema.ListOf(schema.ObjectOf(kp)), "list<KeyPhrase>"},
		{schema.MapOf(schema.ListOf(schema.Double)), "map<list<double>>"},
	} {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.kind.String())
			assert.True(t, tc.kind.Valid())
		})
	}
	k, ok := schema.ScalarKind("blob")
	require.True(t, ok)
	assert.Equal(t, schema.Blob, k)
	_, ok = schema.ScalarKind("list")
	assert.False(t, ok)
}

func TestObject(t *testing.T) {
	ts := keyPhraseSchema(t)
	obj := schema.NewObject(ts)

	_, ok := obj.Get("Text")
	assert.False(t, ok)

	require.NoError(t, obj.Set("Text", "machine learning"))
	v, ok := obj.Get("Text")
	require.True(t, ok)
	assert.Equal(t, "machine learning", v)

	require.Error(t, obj.Set("Missing", "x"))

	obj.Unset("Text")
	_, ok = obj.Get("Text")
	assert.False(t, ok)
}

func TestObject_Equal(t *testing.T) {
	ts := keyPhraseSchema(t)
	outer := schema.MustNew("Outer",
		schema.Field("Phrases", schema.ListOf(schema.ObjectOf(ts))),
		schema.Field("Tags", schema.MapOf(schema.String)),
		schema.Field("Created", schema.Timestamp),
		schema.Field("Bytes", schema.Blob),
	)
	build := func() *schema.Object {
		return schema.MustNewObject(outer, map[string]any{
			"Phrases": []any{schema.MustNewObject(ts, map[string]any{"Text": "a", "Score": float32(0.5)})},
			"Tags":    map[string]any{"k": "v"},
			"Created": time.Unix(1700000000, 0).UTC(),
			"Bytes":   []byte{1, 2},
		})
	}
	a, b := build(), build()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Set("Tags", map[string]any{"k": "other"}))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

type keyPhrase struct {
	Score *float32
	Text  *string
}

func TestFieldDescriptor_Bind(t *testing.T) {
	ts := schema.Declare("KeyPhrase", schema.WithHost(func() any { return &keyPhrase{} }))
	require.NoError(t, ts.Define(
		schema.Field("Score", schema.Float).Bind(
			func(host any) any {
				if kp := host.(*keyPhrase); kp.Score != nil {
					return *kp.Score
				}
				return nil
			},
			func(host any, v any) error {
				f := v.(float32)
				host.(*keyPhrase).Score = &f
				return nil
			},
		),
		schema.Field("Text", schema.String).Bind(
			func(host any) any {
				if kp := host.(*keyPhrase); kp.Text != nil {
					return *kp.Text
				}
				return nil
			},
			func(host any, v any) error {
				s := v.(string)
				host.(*keyPhrase).Text = &s
				return nil
			},
		),
	))

	host := ts.NewHost()
	require.IsType(t, &keyPhrase{}, host)
	f, _ := ts.Lookup("Text")
	assert.Nil(t, f.Get(host))
	require.NoError(t, f.Set(host, "foo"))
	assert.Equal(t, "foo", f.Get(host))
}
