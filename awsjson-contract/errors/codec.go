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

// Package errors defines the failures surfaced by the AWS JSON codec and the errors
// returned by AWS services over the AWS JSON protocols.
package errors

import (
	werror "github.com/palantir/witchcraft-go-error"
)

// Kind classifies codec failures.
type Kind string

const (
	// InvalidArgument is returned when a required top-level value is missing.
	// No output has been produced when it is returned.
	InvalidArgument Kind = "InvalidArgument"
	// EncodeError is returned when a value can not be serialized.
	EncodeError Kind = "EncodeError"
	// DecodeError is returned for malformed documents and shape mismatches.
	DecodeError Kind = "DecodeError"

	KindParam      = "codecErrorKind"
	TypeNameParam  = "typeName"
	FieldPathParam = "fieldPath"
)

// NewInvalidArgument returns an InvalidArgument error.
func NewInvalidArgument(message string, params ...werror.Param) error {
	return werror.Error(message, append(params, werror.SafeParam(KindParam, string(InvalidArgument)))...)
}

// NewEncodeError returns an EncodeError for the field at fieldPath of typeName.
func NewEncodeError(typeName, fieldPath, message string, params ...werror.Param) error {
	return werror.Error(message, append(params, codecParams(EncodeError, typeName, fieldPath)...)...)
}

// WrapEncodeError wraps cause as an EncodeError. It returns nil if cause is nil.
func WrapEncodeError(cause error, typeName, fieldPath string, params ...werror.Param) error {
	return werror.Wrap(cause, "failed to encode value", append(params, codecParams(EncodeError, typeName, fieldPath)...)...)
}

// NewDecodeError returns a DecodeError for the field at fieldPath of typeName.
func NewDecodeError(typeName, fieldPath, message string, params ...werror.Param) error {
	return werror.Error(message, append(params, codecParams(DecodeError, typeName, fieldPath)...)...)
}

// WrapDecodeError wraps cause as a DecodeError. It returns nil if cause is nil.
func WrapDecodeError(cause error, typeName, fieldPath string, params ...werror.Param) error {
	return werror.Wrap(cause, "failed to decode value", append(params, codecParams(DecodeError, typeName, fieldPath)...)...)
}

func codecParams(kind Kind, typeName, fieldPath string) []werror.Param {
	return []werror.Param{
		werror.SafeParam(KindParam, string(kind)),
		werror.SafeParam(TypeNameParam, typeName),
		werror.SafeParam(FieldPathParam, fieldPath),
	}
}

// KindFromError returns the codec error kind recorded on err.
func KindFromError(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	kindI, _ := werror.ParamFromError(err, KindParam)
	kind, ok := kindI.(string)
	if !ok {
		return "", false
	}
	return Kind(kind), true
}

// FieldPathFromError returns the field path recorded on a codec error, e.g. "KeyPhrases[2].Score".
// The empty path denotes the top-level value.
func FieldPathFromError(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	pathI, _ := werror.ParamFromError(err, FieldPathParam)
	path, ok := pathI.(string)
	return path, ok
}

func IsInvalidArgument(err error) bool {
	kind, ok := KindFromError(err)
	return ok && kind == InvalidArgument
}

func IsEncodeError(err error) bool {
	kind, ok := KindFromError(err)
	return ok && kind == EncodeError
}

func IsDecodeError(err error) bool {
	kind, ok := KindFromError(err)
	return ok && kind == DecodeError
}
