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

package awsjson_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/palantir/awsjson-go-runtime/awsjson-client/awsjson"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/codecs"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/manifest"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
service: Comprehend
apiVersion: "2017-11-27"
targetPrefix: Comprehend_20171127
types:
  - name: DetectKeyPhrasesRequest
    fields:
      - {name: Text, type: string}
      - {name: LanguageCode, type: string}
  - name: DetectKeyPhrasesResponse
    fields:
      - {name: KeyPhrases, type: "list<KeyPhrase>"}
  - name: KeyPhrase
    fields:
      - {name: Score, type: float}
      - {name: Text, type: string}
      - {name: BeginOffset, type: integer}
      - {name: EndOffset, type: integer}
  - name: DeleteFlywheelRequest
    fields:
      - {name: FlywheelArn, type: string}
  - name: DeleteFlywheelResponse
operations:
  - {name: DetectKeyPhrases, input: DetectKeyPhrasesRequest, output: DetectKeyPhrasesResponse}
  - {name: DeleteFlywheel, input: DeleteFlywheelRequest, output: DeleteFlywheelResponse}
errors:
  - {code: TextSizeLimitExceededException}
  - {code: ResourceInUseException}
  - {code: TooManyRequestsException, throttling: true}
`

func newTestService(t *testing.T) *awsjson.Service {
	m, err := manifest.Parse([]byte(testManifest), codecs.YAML)
	require.NoError(t, err)
	svc, err := awsjson.NewServiceFromManifest(m)
	require.NoError(t, err)
	return svc
}

func detectKeyPhrasesInput(t *testing.T, svc *awsjson.Service) *schema.Object {
	op, err := svc.Operation("DetectKeyPhrases")
	require.NoError(t, err)
	input, err := schema.NewObjectFrom(op.Input, map[string]any{
		"Text":         "It is raining today in Seattle",
		"LanguageCode": "en",
	})
	require.NoError(t, err)
	return input
}

func TestNewServiceFromManifest(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, "Comprehend", svc.Name)
	assert.Equal(t, "Comprehend_20171127.DetectKeyPhrases", svc.Target("DetectKeyPhrases"))
	assert.Len(t, svc.Operations, 2)

	op, err := svc.Operation("DetectKeyPhrases")
	require.NoError(t, err)
	assert.Equal(t, "DetectKeyPhrasesRequest", op.Input.Name())
	assert.Equal(t, "DetectKeyPhrasesResponse", op.Output.Name())
	keyPhrase, ok := svc.Schemas.Lookup("KeyPhrase")
	require.True(t, ok)
	assert.Equal(t, 4, keyPhrase.NumFields())

	def, ok := svc.ErrorCodes.Lookup("TooManyRequestsException")
	require.True(t, ok)
	assert.True(t, def.Throttling)
	_, ok = svc.ErrorCodes.Lookup("ThrottlingException")
	assert.True(t, ok, "default codes are included")

	_, err = svc.Operation("DetectNothing")
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestNewServiceFromManifest_Invalid(t *testing.T) {
	_, err := awsjson.NewServiceFromManifest(&manifest.Manifest{Service: "Comprehend"})
	assert.Error(t, err)
}

func TestNewRequest(t *testing.T) {
	svc := newTestService(t)
	req, err := awsjson.NewRequest(svc, "DetectKeyPhrases", detectKeyPhrasesInput(t, svc))
	require.NoError(t, err)

	body := `{"Text":"It is raining today in Seattle","LanguageCode":"en"}`
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/", req.Path)
	assert.Equal(t, body, string(req.Body))
	assert.Equal(t, http.Header{
		"X-Amz-Target":   {"Comprehend_20171127.DetectKeyPhrases"},
		"Content-Type":   {"application/x-amz-json-1.1"},
		"Content-Length": {"61"},
	}, req.Header)

	httpReq, err := req.HTTPRequest(context.Background(), "https://comprehend.us-east-1.amazonaws.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://comprehend.us-east-1.amazonaws.com/", httpReq.URL.String())
	assert.Equal(t, int64(len(body)), httpReq.ContentLength)
	sent, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(sent))
}

func TestNewRequest_EmptyInput(t *testing.T) {
	svc := newTestService(t)
	op, err := svc.Operation("DeleteFlywheel")
	require.NoError(t, err)
	req, err := awsjson.NewRequest(svc, "DeleteFlywheel", schema.NewObject(op.Input))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(req.Body))
	assert.Equal(t, "2", req.Header.Get("Content-Length"))
}

func TestNewRequest_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := awsjson.NewRequest(svc, "DetectKeyPhrases", nil)
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = awsjson.NewRequest(svc, "Unknown", detectKeyPhrasesInput(t, svc))
	assert.True(t, errors.IsInvalidArgument(err))

	op, err := svc.Operation("DeleteFlywheel")
	require.NoError(t, err)
	wrongType := schema.NewObject(op.Output)
	_, err = awsjson.NewRequest(svc, "DetectKeyPhrases", wrongType)
	assert.Error(t, err)
}

func TestDecodeResponse(t *testing.T) {
	svc := newTestService(t)
	op, err := svc.Operation("DetectKeyPhrases")
	require.NoError(t, err)

	out, err := awsjson.DecodeResponse(op, []byte(`{"KeyPhrases":[{"Score":0.99,"Text":"Seattle","BeginOffset":23,"EndOffset":30}],"Extra":true}`))
	require.NoError(t, err)
	obj := out.(*schema.Object)
	phrases, ok := obj.Get("KeyPhrases")
	require.True(t, ok)
	require.Len(t, phrases, 1)
	phrase := phrases.([]any)[0].(*schema.Object)
	text, _ := phrase.Get("Text")
	assert.Equal(t, "Seattle", text)
	begin, _ := phrase.Get("BeginOffset")
	assert.Equal(t, int32(23), begin)

	empty, err := awsjson.DecodeResponse(op, nil)
	require.NoError(t, err)
	require.NotNil(t, empty)
	_, ok = empty.(*schema.Object).Get("KeyPhrases")
	assert.False(t, ok)

	_, err = awsjson.DecodeResponse(op, []byte(`[]`))
	assert.True(t, errors.IsDecodeError(err))
}
