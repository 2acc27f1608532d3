// Package providers groups concrete completion adapters.
//
// Each sub-package implements [github.com/ftkevon/mineclanker/pkg/modeladapter.Completer]
// for one vendor wire format:
//   - [github.com/ftkevon/mineclanker/pkg/providers/openai] - OpenAI Chat Completions
package providers
