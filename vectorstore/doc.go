// Package vectorstore defines the vector persistence abstraction for
// bastion. The pgvector subpackage provides the PostgreSQL-backed
// implementation; tests use the mock subpackage.
package vectorstore
