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
	"encoding/json"
	"strconv"
	"strings"
	"time"

	werror "github.com/palantir/witchcraft-go-error"
)

// TimestampFormat is the wire representation of Timestamp fields.
type TimestampFormat interface {
	// AppendTimestamp appends the JSON literal for t to dst.
	AppendTimestamp(dst []byte, t time.Time) []byte
	// ParseTimestamp parses a JSON token, either a json.Number or a string.
	ParseTimestamp(token any) (time.Time, error)
}

var (
	// EpochSeconds writes seconds since the Unix epoch with up to millisecond precision,
	// e.g. 1700000000.125. This is the AWS JSON 1.1 default.
	EpochSeconds TimestampFormat = epochSeconds{}
	// ISO8601 writes RFC 3339 strings in UTC with fractional seconds when present.
	ISO8601 TimestampFormat = iso8601{}
)

type epochSeconds struct{}

func (epochSeconds) AppendTimestamp(dst []byte, t time.Time) []byte {
	ms := t.UnixMilli()
	if ms < 0 {
		dst = append(dst, '-')
		ms = -ms
	}
	sec, frac := ms/1000, ms%1000
	dst = strconv.AppendInt(dst, sec, 10)
	if frac == 0 {
		return dst
	}
	fracStr := strings.TrimRight(strconv.FormatInt(frac+1000, 10)[1:], "0")
	dst = append(dst, '.')
	return append(dst, fracStr...)
}

func (epochSeconds) ParseTimestamp(token any) (time.Time, error) {
	var literal string
	switch v := token.(type) {
	case json.Number:
		literal = v.String()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC(), nil
		}
		literal = v
	default:
		return time.Time{}, werror.Error("timestamp must be a number")
	}
	return parseEpochSeconds(literal)
}

// parseEpochSeconds parses decimal seconds without going through float64, so
// millisecond values survive exactly.
func parseEpochSeconds(literal string) (time.Time, error) {
	if strings.ContainsAny(literal, "eE") {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return time.Time{}, werror.Wrap(err, "invalid epoch seconds")
		}
		sec := int64(f)
		nanos := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nanos).UTC(), nil
	}
	intPart, fracPart, _ := strings.Cut(literal, ".")
	negative := strings.HasPrefix(intPart, "-")
	sec, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return time.Time{}, werror.Wrap(err, "invalid epoch seconds")
	}
	var nanos int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nanos, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, werror.Wrap(err, "invalid epoch seconds fraction")
		}
		if negative {
			nanos = -nanos
		}
	}
	return time.Unix(sec, nanos).UTC(), nil
}

type iso8601 struct{}

func (iso8601) AppendTimestamp(dst []byte, t time.Time) []byte {
	dst = append(dst, '"')
	dst = t.UTC().AppendFormat(dst, time.RFC3339Nano)
	return append(dst, '"')
}

func (iso8601) ParseTimestamp(token any) (time.Time, error) {
	s, ok := token.(string)
	if !ok {
		return time.Time{}, werror.Error("timestamp must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, werror.Wrap(err, "invalid ISO 8601 timestamp")
	}
	return t.UTC(), nil
}
