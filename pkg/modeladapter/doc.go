// Package modeladapter defines the interface and types for LLM completion adapters.
//
// It contains:
//   - [Completer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, bearer auth, and custom headers
//   - [Params] per-request shaping (token cap, verbosity, reasoning effort)
//   - [github.com/ftkevon/mineclanker/pkg/modeladapter/usage] - thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
