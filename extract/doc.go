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


// Package extract implements the pipeline's document extractor.
//
// Conversion to plain text is delegated to docconv (PDF, DOCX, HTML);
// this package only splits the converted text into token-bounded,
// overlapping chunks, scores each chunk, and detects candidate named
// entities for the knowledge-graph collaborator.
package extract
