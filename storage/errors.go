// Copyright 2025 The Bastion Authors
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


package storage

import "errors"

var (
	// ErrNotFound indicates that no record exists for the given ID.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates an operation on a closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a stored record could not be
	// decoded, typically from truncated or corrupted bytes.
	ErrSerializationFailed = errors.New("serialization failed")
)
