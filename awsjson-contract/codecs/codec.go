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

// Package codecs provides the content codecs used to read and write request and
// response bodies.
package codecs

import (
	"io"
)

// Decoder is a content-type specific decoder.
type Decoder interface {
	// Accept returns the media type this decoder reads, used as the Accept header.
	Accept() string
	Decode(r io.Reader, v interface{}) error
	Unmarshal(data []byte, v interface{}) error
}

// Encoder is a content-type specific encoder.
type Encoder interface {
	// ContentType returns the media type this encoder writes, used as the Content-Type header.
	ContentType() string
	Encode(w io.Writer, v interface{}) error
	Marshal(v interface{}) ([]byte, error)
}

type Codec interface {
	Decoder
	Encoder
}
