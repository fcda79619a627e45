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


package core

import (
	"errors"
	"fmt"
	"time"
)

// Domain validation errors
var (
	// ErrInvalidJob indicates a ProcessingJob failed validation.
	ErrInvalidJob = errors.New("invalid processing job")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyDocumentID indicates the DocumentID field is empty.
	ErrEmptyDocumentID = errors.New("document ID cannot be empty")

	// ErrEmptyFilePath indicates the FilePath field is empty.
	ErrEmptyFilePath = errors.New("file path cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidDocType indicates an unsupported DocType value.
	ErrInvalidDocType = errors.New("invalid document type")

	// ErrInvalidStatus indicates an invalid JobStatus value.
	ErrInvalidStatus = errors.New("invalid job status")
)

// ErrorKind classifies a pipeline failure so the retry policy can
// dispatch on structured data rather than error text.
type ErrorKind int

const (
	// KindExternal is a hard failure from a collaborator (extractor,
	// vector store). Not retried at the pipeline level.
	KindExternal ErrorKind = iota
	// KindValidation is bad input. Never retried.
	KindValidation
	// KindTransient is a network or service hiccup likely to succeed
	// on retry.
	KindTransient
	// KindRateLimit is a provider "too many requests" signal. Retried
	// with a mandatory floor backoff.
	KindRateLimit
)

// String returns a short label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "external"
	}
}

// PipelineError is a typed error carrying its classification. The
// retry policy dispatches on Kind; RetryAfter, when non-zero, is a
// provider-suggested wait (still subject to the rate-limit floor).
type PipelineError struct {
	Kind       ErrorKind
	Op         string
	RetryAfter time.Duration
	Err        error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a non-retryable input error.
func NewValidationError(op string, err error) *PipelineError {
	return &PipelineError{Kind: KindValidation, Op: op, Err: err}
}

// NewTransientError wraps err as a retryable infrastructure error.
func NewTransientError(op string, err error) *PipelineError {
	return &PipelineError{Kind: KindTransient, Op: op, Err: err}
}

// NewRateLimitError wraps err as a rate-limit signal. retryAfter may
// be zero when the provider gave no hint.
func NewRateLimitError(op string, err error, retryAfter time.Duration) *PipelineError {
	return &PipelineError{Kind: KindRateLimit, Op: op, Err: err, RetryAfter: retryAfter}
}

// NewExternalError wraps err as a hard collaborator failure.
func NewExternalError(op string, err error) *PipelineError {
	return &PipelineError{Kind: KindExternal, Op: op, Err: err}
}
