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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	werror "github.com/palantir/witchcraft-go-error"
)

const snappySuffix = ".sz"

// Load decodes a manifest from r with the given codec and validates it.
func Load(r io.Reader, codec codecs.Decoder) (*Manifest, error) {
	var m Manifest
	if err := codec.Decode(r, &m); err != nil {
		return nil, werror.Wrap(err, "failed to decode manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Parse is like Load for an in-memory document.
func Parse(data []byte, codec codecs.Decoder) (*Manifest, error) {
	return Load(bytes.NewReader(data), codec)
}

// LoadFile loads a manifest from path. The codec is picked from the extension: .yml and
// .yaml use YAML, .json uses JSON, and a trailing .sz adds snappy decompression.
func LoadFile(path string) (*Manifest, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werror.Wrap(err, "failed to read manifest", werror.SafeParam("path", path))
	}
	m, err := Parse(data, codec)
	if err != nil {
		return nil, werror.Wrap(err, "failed to load manifest", werror.SafeParam("path", path))
	}
	return m, nil
}

// CodecForPath returns the codec LoadFile uses for path.
func CodecForPath(path string) (codecs.Codec, error) {
	name := strings.ToLower(path)
	compressed := strings.HasSuffix(name, snappySuffix)
	name = strings.TrimSuffix(name, snappySuffix)

	var codec codecs.Codec
	switch filepath.Ext(name) {
	case ".yml", ".yaml":
		codec = codecs.YAML
	case ".json":
		codec = codecs.JSON
	default:
		return nil, werror.Error("unsupported manifest extension", werror.SafeParam("path", path))
	}
	if compressed {
		codec = codecs.SNAPPY(codec)
	}
	return codec, nil
}
