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


// Package ai provides abstractions for the AI collaborators of the
// ingestion pipeline.
//
// This package defines interfaces for text embedding and document
// extraction. It follows the dependency inversion principle: the
// pipeline depends on these abstractions and receives concrete
// implementations through its constructor, never through globals.
//
// # Design Principles
//
// The package is designed around two key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - DocumentExtractor: Converts files into chunks, entities and
//     quality metrics
//
// # Implementation Packages
//
//   - ai/openai: Production embedder using OpenAI-compatible APIs,
//     with a client-side request rate cap
//   - ai/mock: Test doubles for unit testing without external services
//
// The docconv-backed extractor lives in the top-level extract package
// since it has no AI service dependency.
//
// Public constructors (openai.NewEmbedder) return INTERFACE types to
// enforce abstraction. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockExtractor) return CONCRETE types to enable behavior
// injection and call-count assertions.
package ai
