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

// Package jsoncodec serializes schema-described values to and from the AWS JSON 1.1
// document format. It never inspects Go types reflectively: every field is read and
// written through its schema.FieldDescriptor.
package jsoncodec

import (
	"strconv"
	"strings"
)

// Option configures an Encoder or Decoder.
type Option func(*config)

type config struct {
	timestamps TimestampFormat
}

func newConfig(opts []Option) config {
	cfg := config{timestamps: EpochSeconds}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithTimestampFormat sets the wire format used for Timestamp fields. Defaults to EpochSeconds.
func WithTimestampFormat(format TimestampFormat) Option {
	return func(c *config) {
		if format != nil {
			c.timestamps = format
		}
	}
}

// fieldPath tracks the position of the value being processed, rendered only when an
// error is reported, e.g. "KeyPhrases[2].Score".
type fieldPath []string

func (p *fieldPath) pushField(name string) {
	*p = append(*p, name)
}

func (p *fieldPath) pushIndex(i int) {
	*p = append(*p, "["+strconv.Itoa(i)+"]")
}

func (p *fieldPath) pushKey(key string) {
	*p = append(*p, "["+strconv.Quote(key)+"]")
}

func (p *fieldPath) pop() {
	*p = (*p)[:len(*p)-1]
}

func (p fieldPath) String() string {
	var sb strings.Builder
	for i, segment := range p {
		if i > 0 && !strings.HasPrefix(segment, "[") {
			sb.WriteByte('.')
		}
		sb.WriteString(segment)
	}
	return sb.String()
}
