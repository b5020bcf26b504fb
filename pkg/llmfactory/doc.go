// Package llmfactory provides configuration driven instantiation of
// completion transports, supporting multiple providers and per-function
// model selection.
package llmfactory
