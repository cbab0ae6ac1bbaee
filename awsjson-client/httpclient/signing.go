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

package httpclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/palantir/awsjson-go-runtime/awsjson-contract/errors"
	"github.com/palantir/pkg/refreshable"
	werror "github.com/palantir/witchcraft-go-error"
)

// emptyPayloadHash is the SHA-256 of an empty body.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

type signingMiddleware struct {
	Disabled refreshable.Bool

	credentials aws.CredentialsProvider
	signer      *v4.Signer
	signingName func() string
	region      func() string
	now         func() time.Time
}

// SigningMiddleware returns a middleware that signs every attempt with AWS Signature
// Version 4. Credentials are cached until they expire.
func SigningMiddleware(credentials aws.CredentialsProvider, signingName, region string) Middleware {
	return newSigningMiddleware(credentials, func() string { return signingName }, func() string { return region })
}

// NewSigningMiddlewareFromDefaultConfig loads credentials from the default AWS credential
// chain (environment, shared config, IMDS). An empty region uses the configured default.
func NewSigningMiddlewareFromDefaultConfig(ctx context.Context, signingName, region string) (Middleware, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to load AWS config")
	}
	if cfg.Region == "" {
		return nil, werror.ErrorWithContextParams(ctx, "no AWS region configured", werror.SafeParam("signingName", signingName))
	}
	return SigningMiddleware(cfg.Credentials, signingName, cfg.Region), nil
}

func newSigningMiddleware(credentials aws.CredentialsProvider, signingName, region func() string) *signingMiddleware {
	if _, ok := credentials.(*aws.CredentialsCache); !ok {
		credentials = aws.NewCredentialsCache(credentials)
	}
	return &signingMiddleware{
		credentials: credentials,
		signer:      v4.NewSigner(),
		signingName: signingName,
		region:      region,
		now:         time.Now,
	}
}

func (s *signingMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if s.Disabled != nil && s.Disabled.CurrentBool() {
		return next.RoundTrip(req)
	}
	ctx := req.Context()
	signingName, region := s.signingName(), s.region()
	if signingName == "" || region == "" {
		return nil, errors.NewInvalidArgument("signing name and region are required to sign requests",
			werror.SafeParam("signingName", signingName),
			werror.SafeParam("region", region))
	}
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to retrieve AWS credentials")
	}
	payloadHash, err := hashPayload(req)
	if err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to hash request body")
	}
	if err := s.signer.SignHTTP(ctx, creds, req, payloadHash, signingName, region, s.now()); err != nil {
		return nil, werror.WrapWithContextParams(ctx, err, "failed to sign request",
			werror.SafeParam("signingName", signingName),
			werror.SafeParam("region", region))
	}
	return next.RoundTrip(req)
}

// hashPayload hashes a fresh copy of the body so the original reader is left unread.
func hashPayload(req *http.Request) (string, error) {
	if req.GetBody == nil || req.ContentLength == 0 {
		return emptyPayloadHash, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = body.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
