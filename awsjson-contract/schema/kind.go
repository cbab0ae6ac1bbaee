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

// Package schema describes structured AWS JSON message types as ordered tables of
// named, typed fields. A TypeSchema is declared once, defined once, and is immutable
// and safe for concurrent use afterwards.
package schema

import (
	"fmt"
)

// Tag identifies the shape of a Kind.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagString
	TagInteger
	TagLong
	TagFloat
	TagDouble
	TagBoolean
	TagTimestamp
	TagBlob
	TagList
	TagMap
	TagObject
)

var tagNames = map[Tag]string{
	TagString:    "string",
	TagInteger:   "integer",
	TagLong:      "long",
	TagFloat:     "float",
	TagDouble:    "double",
	TagBoolean:   "boolean",
	TagTimestamp: "timestamp",
	TagBlob:      "blob",
	TagList:      "list",
	TagMap:       "map",
	TagObject:    "object",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "invalid"
}

// Kind is the value shape of a field. Scalar kinds are the package-level values
// (String, Integer, ...); container kinds are built with ListOf, MapOf and ObjectOf
// and may nest arbitrarily.
type Kind struct {
	tag    Tag
	elem   *Kind
	object *TypeSchema
}

var (
	String    = Kind{tag: TagString}
	Integer   = Kind{tag: TagInteger}
	Long      = Kind{tag: TagLong}
	Float     = Kind{tag: TagFloat}
	Double    = Kind{tag: TagDouble}
	Boolean   = Kind{tag: TagBoolean}
	Timestamp = Kind{tag: TagTimestamp}
	Blob      = Kind{tag: TagBlob}
)

// ListOf returns the kind of an ordered sequence of elem values.
func ListOf(elem Kind) Kind {
	return Kind{tag: TagList, elem: &elem}
}

// MapOf returns the kind of a string-keyed map of elem values.
func MapOf(elem Kind) Kind {
	return Kind{tag: TagMap, elem: &elem}
}

// ObjectOf returns the kind of a nested structure described by ts.
func ObjectOf(ts *TypeSchema) Kind {
	return Kind{tag: TagObject, object: ts}
}

func (k Kind) Tag() Tag {
	return k.tag
}

// Elem returns the element kind of a list or map kind, and the zero Kind otherwise.
func (k Kind) Elem() Kind {
	if k.elem == nil {
		return Kind{}
	}
	return *k.elem
}

// Object returns the nested schema of an object kind, and nil otherwise.
func (k Kind) Object() *TypeSchema {
	return k.object
}

func (k Kind) IsScalar() bool {
	return k.tag >= TagString && k.tag <= TagBlob
}

// Valid reports whether k and every kind nested in it is well formed.
func (k Kind) Valid() bool {
	switch k.tag {
	case TagList, TagMap:
		return k.elem != nil && k.elem.Valid()
	case TagObject:
		return k.object != nil
	case TagInvalid:
		return false
	default:
		return k.IsScalar()
	}
}

// String renders k in the manifest type expression syntax, e.g. "list<KeyPhrase>".
func (k Kind) String() string {
	switch k.tag {
	case TagList, TagMap:
		return fmt.Sprintf("%s<%s>", k.tag, k.Elem())
	case TagObject:
		if k.object == nil {
			return "object<nil>"
		}
		return k.object.Name()
	default:
		return k.tag.String()
	}
}

// ScalarKind returns the scalar kind named by name ("string", "integer", ...).
func ScalarKind(name string) (Kind, bool) {
	for tag, tagName := range tagNames {
		if tagName == name && tag >= TagString && tag <= TagBlob {
			return Kind{tag: tag}, true
		}
	}
	return Kind{}, false
}
