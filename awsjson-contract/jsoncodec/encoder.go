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

package jsoncodec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	"github.com/palantir/pkg/safejson"
	werror "github.com/palantir/witchcraft-go-error"
)

// Encoder writes schema-described values as JSON objects. An Encoder is stateless and
// safe for concurrent use.
type Encoder struct {
	cfg config
}

func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{cfg: newConfig(opts)}
}

// Marshal returns the JSON object for value as described by ts.
func Marshal(value any, ts *schema.TypeSchema, opts ...Option) ([]byte, error) {
	return NewEncoder(opts...).Marshal(value, ts)
}

// Encode writes the JSON object for value as described by ts to w.
func Encode(w io.Writer, value any, ts *schema.TypeSchema, opts ...Option) error {
	return NewEncoder(opts...).Encode(w, value, ts)
}

// Encode writes the JSON object for value to w. Nothing is written when an error is returned.
func (e *Encoder) Encode(w io.Writer, value any, ts *schema.TypeSchema) error {
	out, err := e.Marshal(value, ts)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return werror.Wrap(err, "failed to write JSON document", werror.SafeParam(errors.TypeNameParam, ts.Name()))
	}
	return nil
}

// Marshal returns the JSON object for value. Absent fields are omitted and present fields
// are written in schema declaration order.
func (e *Encoder) Marshal(value any, ts *schema.TypeSchema) ([]byte, error) {
	return e.AppendObject(nil, value, ts)
}

// AppendObject appends the JSON object for value to dst. On error dst is returned unmodified.
func (e *Encoder) AppendObject(dst []byte, value any, ts *schema.TypeSchema) ([]byte, error) {
	if ts == nil {
		return dst, errors.NewInvalidArgument("type schema is required")
	}
	if !ts.Defined() {
		return dst, errors.NewInvalidArgument("type schema is not defined", werror.SafeParam(errors.TypeNameParam, ts.Name()))
	}
	if normalize(value) == nil {
		return dst, errors.NewInvalidArgument("value to encode is required", werror.SafeParam(errors.TypeNameParam, ts.Name()))
	}
	state := &encodeState{
		buf:        dst,
		timestamps: e.cfg.timestamps,
		root:       ts.Name(),
	}
	if err := state.encodeObject(value, ts); err != nil {
		return dst, err
	}
	return state.buf, nil
}

type encodeState struct {
	buf        []byte
	timestamps TimestampFormat
	root       string
	path       fieldPath
}

func (s *encodeState) errorf(format string, args ...any) error {
	return errors.NewEncodeError(s.root, s.path.String(), fmt.Sprintf(format, args...))
}

func (s *encodeState) encodeObject(host any, ts *schema.TypeSchema) error {
	if obj, ok := host.(*schema.Object); ok && obj.Schema() != ts {
		return s.errorf("object of type %s can not be written as %s", obj.Schema().Name(), ts.Name())
	}
	s.buf = append(s.buf, '{')
	first := true
	for i := 0; i < ts.NumFields(); i++ {
		field := ts.Field(i)
		value := normalize(field.Get(host))
		if value == nil {
			continue
		}
		if !first {
			s.buf = append(s.buf, ',')
		}
		first = false
		s.appendString(field.WireName)
		s.buf = append(s.buf, ':')
		s.path.pushField(field.WireName)
		if err := s.encodeValue(value, field.Kind); err != nil {
			return err
		}
		s.path.pop()
	}
	s.buf = append(s.buf, '}')
	return nil
}

func (s *encodeState) encodeValue(value any, kind schema.Kind) error {
	switch kind.Tag() {
	case schema.TagString:
		v, ok := value.(string)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.appendString(v)
	case schema.TagInteger:
		n, ok := integerValue(value)
		if !ok {
			return s.mismatch(value, kind)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return s.errorf("value %d overflows integer", n)
		}
		s.buf = strconv.AppendInt(s.buf, n, 10)
	case schema.TagLong:
		n, ok := integerValue(value)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.buf = strconv.AppendInt(s.buf, n, 10)
	case schema.TagFloat:
		f, ok := floatValue(value)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.buf = appendFloat(s.buf, f, 32)
	case schema.TagDouble:
		f, ok := floatValue(value)
		if !ok {
			return s.mismatch(value, kind)
		}
		bits := 64
		if _, isFloat32 := value.(float32); isFloat32 {
			bits = 32
		}
		s.buf = appendFloat(s.buf, f, bits)
	case schema.TagBoolean:
		v, ok := value.(bool)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.buf = strconv.AppendBool(s.buf, v)
	case schema.TagTimestamp:
		v, ok := value.(time.Time)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.buf = s.timestamps.AppendTimestamp(s.buf, v)
	case schema.TagBlob:
		v, ok := value.([]byte)
		if !ok {
			return s.mismatch(value, kind)
		}
		s.buf = append(s.buf, '"')
		s.buf = append(s.buf, base64.StdEncoding.EncodeToString(v)...)
		s.buf = append(s.buf, '"')
	case schema.TagList:
		return s.encodeList(value, kind.Elem())
	case schema.TagMap:
		return s.encodeMap(value, kind.Elem())
	case schema.TagObject:
		return s.encodeObject(value, kind.Object())
	default:
		return s.errorf("invalid kind %s", kind)
	}
	return nil
}

func (s *encodeState) encodeList(value any, elem schema.Kind) error {
	var elems []any
	switch v := value.(type) {
	case []any:
		elems = v
	case []string:
		elems = anySlice(v)
	case []*schema.Object:
		elems = anySlice(v)
	case []int:
		elems = anySlice(v)
	case []int32:
		elems = anySlice(v)
	case []int64:
		elems = anySlice(v)
	case []float32:
		elems = anySlice(v)
	case []float64:
		elems = anySlice(v)
	case []bool:
		elems = anySlice(v)
	case []time.Time:
		elems = anySlice(v)
	case [][]byte:
		elems = anySlice(v)
	default:
		return s.mismatch(value, schema.ListOf(elem))
	}
	s.buf = append(s.buf, '[')
	first := true
	for i, e := range elems {
		e = normalize(e)
		if e == nil {
			continue
		}
		if !first {
			s.buf = append(s.buf, ',')
		}
		first = false
		s.path.pushIndex(i)
		if err := s.encodeValue(e, elem); err != nil {
			return err
		}
		s.path.pop()
	}
	s.buf = append(s.buf, ']')
	return nil
}

func anySlice[T any](v []T) []any {
	elems := make([]any, len(v))
	for i, e := range v {
		elems[i] = e
	}
	return elems
}

func (s *encodeState) encodeMap(value any, elem schema.Kind) error {
	var entries map[string]any
	switch v := value.(type) {
	case map[string]any:
		entries = v
	case map[string]string:
		entries = make(map[string]any, len(v))
		for k, str := range v {
			entries[k] = str
		}
	default:
		return s.mismatch(value, schema.MapOf(elem))
	}
	keys := make([]string, 0, len(entries))
	for k, e := range entries {
		if normalize(e) != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	s.buf = append(s.buf, '{')
	for i, k := range keys {
		if i > 0 {
			s.buf = append(s.buf, ',')
		}
		s.appendString(k)
		s.buf = append(s.buf, ':')
		s.path.pushKey(k)
		if err := s.encodeValue(normalize(entries[k]), elem); err != nil {
			return err
		}
		s.path.pop()
	}
	s.buf = append(s.buf, '}')
	return nil
}

func (s *encodeState) mismatch(value any, kind schema.Kind) error {
	return s.errorf("value of type %T can not be written as %s", value, kind)
}

func (s *encodeState) appendString(v string) {
	// safejson never fails on a string and writes <, > and & literally, like every
	// other JSON writer in this module.
	quoted, _ := safejson.Marshal(v)
	s.buf = append(s.buf, quoted...)
}

// normalize dereferences scalar pointers and collapses typed nils to untyped nil.
func normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case *schema.Object:
		if v == nil {
			return nil
		}
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case *int:
		if v == nil {
			return nil
		}
		return *v
	case *int32:
		if v == nil {
			return nil
		}
		return *v
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case *float32:
		if v == nil {
			return nil
		}
		return *v
	case *float64:
		if v == nil {
			return nil
		}
		return *v
	case *bool:
		if v == nil {
			return nil
		}
		return *v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	case []any:
		if v == nil {
			return nil
		}
	case []string:
		if v == nil {
			return nil
		}
	case []*schema.Object:
		if v == nil {
			return nil
		}
	case []int, []int32, []int64, []float32, []float64, []bool, []time.Time, [][]byte:
		if reflect.ValueOf(v).IsNil() {
			return nil
		}
	case map[string]any:
		if v == nil {
			return nil
		}
	case map[string]string:
		if v == nil {
			return nil
		}
	}
	return value
}

func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

func floatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// appendFloat writes the shortest decimal that round-trips at the given precision, using
// exponent notation outside [1e-6, 1e21) like encoding/json. Non-finite values are written
// as the strings "NaN", "Infinity" and "-Infinity".
func appendFloat(dst []byte, f float64, bits int) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, `"NaN"`...)
	case math.IsInf(f, 1):
		return append(dst, `"Infinity"`...)
	case math.IsInf(f, -1):
		return append(dst, `"-Infinity"`...)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst
}
