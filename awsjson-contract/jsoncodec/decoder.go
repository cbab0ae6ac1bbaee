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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	"github.com/palantir/pkg/safejson"
	werror "github.com/palantir/witchcraft-go-error"
)

// Decoder reads JSON documents into hosts created by a TypeSchema. Unknown fields are
// skipped and JSON null leaves a field absent. A Decoder is safe for concurrent use.
type Decoder struct {
	cfg config
}

func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{cfg: newConfig(opts)}
}

// Unmarshal decodes data as a value of ts. A document that is not a JSON object or array,
// such as null or a bare scalar, decodes to nil.
func Unmarshal(data []byte, ts *schema.TypeSchema, opts ...Option) (any, error) {
	return NewDecoder(opts...).Decode(bytes.NewReader(data), ts)
}

// UnmarshalResponse decodes a response body as a value of ts. See Decoder.DecodeResponse.
func UnmarshalResponse(data []byte, ts *schema.TypeSchema, opts ...Option) (any, error) {
	return NewDecoder(opts...).DecodeResponse(bytes.NewReader(data), ts)
}

// Decode reads one value of ts from r.
func (d *Decoder) Decode(r io.Reader, ts *schema.TypeSchema) (any, error) {
	state, err := d.newState(r, ts)
	if err != nil {
		return nil, err
	}
	tok, err := state.dec.Token()
	if err == io.EOF {
		return nil, state.errorf("document is empty")
	}
	if err != nil {
		return nil, state.wrap(err)
	}
	return state.finish(state.decodeObject(tok, ts))
}

// DecodeResponse reads a response body as a value of ts. An empty body or JSON null yields
// an empty host. Any top-level value other than an object is a DecodeError.
func (d *Decoder) DecodeResponse(r io.Reader, ts *schema.TypeSchema) (any, error) {
	state, err := d.newState(r, ts)
	if err != nil {
		return nil, err
	}
	tok, err := state.dec.Token()
	if err == io.EOF {
		return ts.NewHost(), nil
	}
	if err != nil {
		return nil, state.wrap(err)
	}
	switch tok {
	case nil:
		return state.finish(ts.NewHost(), nil)
	case json.Delim('{'):
		return state.finish(state.decodeObject(tok, ts))
	default:
		return nil, state.errorf("response body must be a JSON object, found %s", describeToken(tok))
	}
}

func (d *Decoder) newState(r io.Reader, ts *schema.TypeSchema) (*decodeState, error) {
	if ts == nil {
		return nil, errors.NewInvalidArgument("type schema is required")
	}
	if !ts.Defined() {
		return nil, errors.NewInvalidArgument("type schema is not defined", werror.SafeParam(errors.TypeNameParam, ts.Name()))
	}
	if r == nil {
		return nil, errors.NewInvalidArgument("reader is required", werror.SafeParam(errors.TypeNameParam, ts.Name()))
	}
	return &decodeState{
		dec:        safejson.Decoder(r),
		timestamps: d.cfg.timestamps,
		root:       ts.Name(),
	}, nil
}

type decodeState struct {
	dec        *json.Decoder
	timestamps TimestampFormat
	root       string
	path       fieldPath
}

func (s *decodeState) errorf(format string, args ...any) error {
	return errors.NewDecodeError(s.root, s.path.String(), fmt.Sprintf(format, args...))
}

func (s *decodeState) wrap(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.WrapDecodeError(err, s.root, s.path.String())
}

// finish requires the document to end after the top-level value.
func (s *decodeState) finish(value any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if _, err := s.dec.Token(); err != io.EOF {
		return nil, s.errorf("unexpected data after top-level value")
	}
	return value, nil
}

func (s *decodeState) token() (json.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return nil, s.wrap(err)
	}
	return tok, nil
}

// decodeObject decodes an object whose first token has been read. Null and scalar
// documents yield nil.
func (s *decodeState) decodeObject(first json.Token, ts *schema.TypeSchema) (any, error) {
	switch first {
	case json.Delim('{'):
	case json.Delim('['):
		return nil, s.errorf("expected %s object, found array", ts.Name())
	default:
		return nil, nil
	}
	host := ts.NewHost()
	for s.dec.More() {
		key, err := s.objectKey()
		if err != nil {
			return nil, err
		}
		field, ok := ts.Lookup(key)
		if !ok {
			if err := s.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		s.path.pushField(key)
		tok, err := s.token()
		if err != nil {
			return nil, err
		}
		value, err := s.decodeValue(tok, field.Kind)
		if err != nil {
			return nil, err
		}
		if value != nil {
			if err := field.Set(host, value); err != nil {
				return nil, errors.WrapDecodeError(err, s.root, s.path.String())
			}
		}
		s.path.pop()
	}
	if err := s.expectDelim('}'); err != nil {
		return nil, err
	}
	return host, nil
}

func (s *decodeState) decodeValue(tok json.Token, kind schema.Kind) (any, error) {
	if tok == nil {
		return nil, nil
	}
	switch kind.Tag() {
	case schema.TagObject:
		return s.decodeObject(tok, kind.Object())
	case schema.TagList:
		if tok != json.Delim('[') {
			return nil, s.mismatch(tok, kind)
		}
		return s.decodeList(kind.Elem())
	case schema.TagMap:
		if tok != json.Delim('{') {
			return nil, s.mismatch(tok, kind)
		}
		return s.decodeMap(kind.Elem())
	}
	if _, ok := tok.(json.Delim); ok {
		return nil, s.mismatch(tok, kind)
	}
	return s.decodeScalar(tok, kind)
}

func (s *decodeState) decodeList(elem schema.Kind) (any, error) {
	out := make([]any, 0)
	for i := 0; s.dec.More(); i++ {
		s.path.pushIndex(i)
		tok, err := s.token()
		if err != nil {
			return nil, err
		}
		value, err := s.decodeValue(tok, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
		s.path.pop()
	}
	if err := s.expectDelim(']'); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *decodeState) decodeMap(elem schema.Kind) (any, error) {
	out := make(map[string]any)
	for s.dec.More() {
		key, err := s.objectKey()
		if err != nil {
			return nil, err
		}
		s.path.pushKey(key)
		tok, err := s.token()
		if err != nil {
			return nil, err
		}
		value, err := s.decodeValue(tok, elem)
		if err != nil {
			return nil, err
		}
		out[key] = value
		s.path.pop()
	}
	if err := s.expectDelim('}'); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *decodeState) decodeScalar(tok json.Token, kind schema.Kind) (any, error) {
	switch kind.Tag() {
	case schema.TagString:
		if v, ok := tok.(string); ok {
			return v, nil
		}
	case schema.TagInteger:
		if v, ok := tok.(json.Number); ok {
			n, err := strconv.ParseInt(v.String(), 10, 32)
			if err != nil {
				return nil, s.wrap(err)
			}
			return int32(n), nil
		}
	case schema.TagLong:
		if v, ok := tok.(json.Number); ok {
			n, err := strconv.ParseInt(v.String(), 10, 64)
			if err != nil {
				return nil, s.wrap(err)
			}
			return n, nil
		}
	case schema.TagFloat:
		f, ok, err := parseFloat(tok, 32)
		if err != nil {
			return nil, s.wrap(err)
		}
		if ok {
			return float32(f), nil
		}
	case schema.TagDouble:
		f, ok, err := parseFloat(tok, 64)
		if err != nil {
			return nil, s.wrap(err)
		}
		if ok {
			return f, nil
		}
	case schema.TagBoolean:
		if v, ok := tok.(bool); ok {
			return v, nil
		}
	case schema.TagTimestamp:
		t, err := s.timestamps.ParseTimestamp(tok)
		if err != nil {
			return nil, s.wrap(err)
		}
		return t, nil
	case schema.TagBlob:
		if v, ok := tok.(string); ok {
			b, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return nil, s.wrap(err)
			}
			return b, nil
		}
	default:
		return nil, s.errorf("invalid kind %s", kind)
	}
	return nil, s.mismatch(tok, kind)
}

// parseFloat accepts numbers and the strings written for non-finite values.
func parseFloat(tok json.Token, bits int) (float64, bool, error) {
	switch v := tok.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), bits)
		if err != nil {
			return 0, false, err
		}
		return f, true, nil
	case string:
		switch v {
		case "NaN":
			return math.NaN(), true, nil
		case "Infinity":
			return math.Inf(1), true, nil
		case "-Infinity":
			return math.Inf(-1), true, nil
		}
	}
	return 0, false, nil
}

func (s *decodeState) objectKey() (string, error) {
	tok, err := s.token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", s.errorf("expected object key, found %s", describeToken(tok))
	}
	return key, nil
}

func (s *decodeState) expectDelim(want json.Delim) error {
	tok, err := s.token()
	if err != nil {
		return err
	}
	if tok != want {
		return s.errorf("expected %q, found %s", want, describeToken(tok))
	}
	return nil
}

// skipValue consumes the next value, including any nested containers.
func (s *decodeState) skipValue() error {
	depth := 0
	for {
		tok, err := s.token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}

func (s *decodeState) mismatch(tok json.Token, kind schema.Kind) error {
	return s.errorf("expected %s, found %s", kind, describeToken(tok))
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		switch v {
		case '{', '}':
			return "object"
		default:
			return "array"
		}
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", tok)
}
