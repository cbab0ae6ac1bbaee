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

package codecs

import (
	"bytes"
	"io"

	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/jsoncodec"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	werror "github.com/palantir/witchcraft-go-error"
)

const (
	ContentTypeAWSJSON11 = "application/x-amz-json-1.1"
)

// AWSJSON returns a codec for values described by ts in the AWS JSON 1.1 protocol.
// Encode and Marshal accept any host ts can read. Decode and Unmarshal follow response
// body rules and store the decoded host into v, which must be a *any or a *schema.Object.
func AWSJSON(ts *schema.TypeSchema, opts ...jsoncodec.Option) Codec {
	return codecAWSJSON{
		schema:  ts,
		encoder: jsoncodec.NewEncoder(opts...),
		decoder: jsoncodec.NewDecoder(opts...),
	}
}

type codecAWSJSON struct {
	schema  *schema.TypeSchema
	encoder *jsoncodec.Encoder
	decoder *jsoncodec.Decoder
}

func (c codecAWSJSON) Accept() string {
	return ContentTypeAWSJSON11
}

func (c codecAWSJSON) Decode(r io.Reader, v interface{}) error {
	host, err := c.decoder.DecodeResponse(r, c.schema)
	if err != nil {
		return err
	}
	return storeHost(v, host, c.schema)
}

func (c codecAWSJSON) Unmarshal(data []byte, v interface{}) error {
	return c.Decode(bytes.NewReader(data), v)
}

func (c codecAWSJSON) ContentType() string {
	return ContentTypeAWSJSON11
}

func (c codecAWSJSON) Encode(w io.Writer, v interface{}) error {
	return c.encoder.Encode(w, v, c.schema)
}

func (c codecAWSJSON) Marshal(v interface{}) ([]byte, error) {
	return c.encoder.Marshal(v, c.schema)
}

func storeHost(v interface{}, host any, ts *schema.TypeSchema) error {
	switch dst := v.(type) {
	case *any:
		*dst = host
		return nil
	case *schema.Object:
		obj, ok := host.(*schema.Object)
		if !ok {
			return errors.NewInvalidArgument("schema does not produce *schema.Object hosts",
				werror.SafeParam(errors.TypeNameParam, ts.Name()))
		}
		*dst = *obj
		return nil
	}
	return errors.NewInvalidArgument("decode target must be *any or *schema.Object",
		werror.SafeParam(errors.TypeNameParam, ts.Name()))
}
