// Copyright (c) 2022 Palantir Technologies. All rights reserved.
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

package codecs

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	werror "github.com/palantir/witchcraft-go-error"
)

var _ Codec = codecSNAPPY{}

// SNAPPY wraps an existing Codec with snappy stream compression. Compiled service
// manifests are distributed in this form.
func SNAPPY(codec Codec) Codec {
	return codecSNAPPY{contentCodec: codec}
}

type codecSNAPPY struct {
	contentCodec Codec
}

func (c codecSNAPPY) Accept() string {
	return c.contentCodec.Accept()
}

func (c codecSNAPPY) Decode(r io.Reader, v interface{}) error {
	return c.contentCodec.Decode(snappy.NewReader(r), v)
}

func (c codecSNAPPY) Unmarshal(data []byte, v interface{}) error {
	decompressed, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
	if err != nil {
		return werror.Wrap(err, "failed to decompress snappy stream")
	}
	return c.contentCodec.Unmarshal(decompressed, v)
}

func (c codecSNAPPY) ContentType() string {
	return c.contentCodec.ContentType()
}

func (c codecSNAPPY) Encode(w io.Writer, v interface{}) (err error) {
	snappyWriter := snappy.NewBufferedWriter(w)
	defer func() {
		if closeErr := snappyWriter.Close(); err == nil && closeErr != nil {
			err = werror.Wrap(closeErr, "failed to flush snappy stream")
		}
	}()
	return c.contentCodec.Encode(snappyWriter, v)
}

func (c codecSNAPPY) Marshal(v interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	if err := c.Encode(&buffer, v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
