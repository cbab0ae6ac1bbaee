// Copyright (c) 2018 Palantir Technologies. All rights reserved.
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

// Package contract and its subpackages describe AWS JSON 1.1 payloads and the errors
// services return for them.
//
// The schema package models the shape of every request and response type, jsoncodec
// reads and writes documents for those shapes, and manifest loads shapes from a
// declarative service description. None of these packages perform any I/O beyond the
// readers and writers they are handed; transport lives in the client module.
package contract
