// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder and MockExtractor return deterministic results by
// default and accept injected behavior via function fields, so
// pipeline tests run without external AI services.
package mock
