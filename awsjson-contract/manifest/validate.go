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
	"fmt"
	"strings"

	werror "github.com/palantir/witchcraft-go-error"
)

// Validate reports every structural problem in m: missing service metadata, duplicate
// type, field, operation or error names, malformed type expressions and references to
// undeclared types. All problems are collected into a single error.
func (m *Manifest) Validate() error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if m.Service == "" {
		addf("service is required")
	}
	if m.TargetPrefix == "" {
		addf("targetPrefix is required")
	}

	declared := make(map[string]struct{}, len(m.Types))
	for i, def := range m.Types {
		if !typeNamePattern.MatchString(def.Name) {
			addf("types[%d]: invalid type name %q", i, def.Name)
			continue
		}
		if _, dup := declared[def.Name]; dup {
			addf("types[%d]: duplicate type %s", i, def.Name)
		}
		declared[def.Name] = struct{}{}
	}
	for _, def := range m.Types {
		wireNames := make(map[string]struct{}, len(def.Fields))
		for _, f := range def.Fields {
			if f.Name == "" {
				addf("%s: field with empty name", def.Name)
				continue
			}
			if _, dup := wireNames[f.Name]; dup {
				addf("%s.%s: duplicate field", def.Name, f.Name)
			}
			wireNames[f.Name] = struct{}{}
			refs, err := referencedTypes(f.Type)
			if err != nil {
				addf("%s.%s: invalid type expression %q", def.Name, f.Name, f.Type)
				continue
			}
			for _, ref := range refs {
				if _, ok := declared[ref]; !ok {
					addf("%s.%s: unknown type %s", def.Name, f.Name, ref)
				}
			}
		}
	}

	operations := make(map[string]struct{}, len(m.Operations))
	for i, op := range m.Operations {
		if op.Name == "" {
			addf("operations[%d]: name is required", i)
			continue
		}
		if _, dup := operations[op.Name]; dup {
			addf("%s: duplicate operation", op.Name)
		}
		operations[op.Name] = struct{}{}
		for _, ref := range []struct{ role, name string }{{"input", op.Input}, {"output", op.Output}} {
			if _, ok := declared[ref.name]; !ok {
				addf("%s: unknown %s type %q", op.Name, ref.role, ref.name)
			}
		}
	}

	codes := make(map[string]struct{}, len(m.Errors))
	for i, def := range m.Errors {
		if def.Code == "" {
			addf("errors[%d]: code is required", i)
			continue
		}
		if _, dup := codes[def.Code]; dup {
			addf("%s: duplicate error code", def.Code)
		}
		codes[def.Code] = struct{}{}
	}

	if len(problems) > 0 {
		return werror.Error("invalid manifest",
			werror.SafeParam("service", m.Service),
			werror.SafeParam("problems", strings.Join(problems, "; ")))
	}
	return nil
}
