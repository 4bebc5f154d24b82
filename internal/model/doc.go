// Package model abstracts chat completion providers behind a single
// Provider interface with normalized messages and tool calling.
//
// Implementations exist for the Anthropic Messages API, the OpenAI Chat
// Completions API, and a scriptable mock for tests.
package model
