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


// Package pipeline implements the parallel document-processing and
// embedding pipeline: a document worker pool that turns files into
// quality-scored chunks, an embedding worker pool that turns chunks
// into vectors through a batch optimizer and a rate-limit-aware retry
// policy, and a storage worker pool that persists vector points.
//
// # Architecture
//
// Each stage has a fixed bank of long-lived workers draining a bounded
// queue, with a counting semaphore underneath as the authoritative
// concurrency cap. Submit and SubmitChunks are non-blocking enqueues;
// callers observe progress through the status tracker, which keeps
// every job in exactly one of the active, completed, or failed maps.
//
// # Lifecycle
//
//	p, err := pipeline.New(cfg, repo, extractor, embedder, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	go p.RecoverPending(context.Background())
//
//	if p.Submit("doc-1", "/uploads/doc-1.pdf", core.DocTypePDF, "user-1", 0) {
//	    p.WaitForDocumentCompletion("doc-1", time.Minute)
//	}
//
// Within one document, stages run strictly extract, embed, store; no
// ordering is guaranteed across documents. A document's status is
// monotonic: once completed or failed it never reverts.
package pipeline
