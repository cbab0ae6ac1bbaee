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

package manifest

import (
	"regexp"
	"strings"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
)

var typeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseKind parses a type expression. Scalar names map to scalar kinds, "list<T>" and
// "map<T>" nest, and any other identifier is resolved as an object type.
func ParseKind(expr string, resolve func(typeName string) (*schema.TypeSchema, error)) (schema.Kind, error) {
	expr = strings.TrimSpace(expr)
	if inner, ok := unwrap(expr, "list"); ok {
		elem, err := ParseKind(inner, resolve)
		if err != nil {
			return schema.Kind{}, err
		}
		return schema.ListOf(elem), nil
	}
	if inner, ok := unwrap(expr, "map"); ok {
		elem, err := ParseKind(inner, resolve)
		if err != nil {
			return schema.Kind{}, err
		}
		return schema.MapOf(elem), nil
	}
	if kind, ok := schema.ScalarKind(expr); ok {
		return kind, nil
	}
	if !typeNamePattern.MatchString(expr) {
		return schema.Kind{}, werror.Error("invalid type expression", werror.SafeParam("expression", expr))
	}
	ts, err := resolve(expr)
	if err != nil {
		return schema.Kind{}, err
	}
	return schema.ObjectOf(ts), nil
}

// referencedTypes returns the object type names used by expr.
func referencedTypes(expr string) ([]string, error) {
	var names []string
	_, err := ParseKind(expr, func(name string) (*schema.TypeSchema, error) {
		names = append(names, name)
		return schema.Declare(name), nil
	})
	return names, err
}

func unwrap(expr, container string) (string, bool) {
	prefix := container + "<"
	if !strings.HasPrefix(expr, prefix) || !strings.HasSuffix(expr, ">") {
		return "", false
	}
	return expr[len(prefix) : len(expr)-1], true
}
