// Package pgvector implements the vector store on PostgreSQL with the
// pgvector extension. Collections map to tables created on first use
// with an ivfflat cosine index.
package pgvector
