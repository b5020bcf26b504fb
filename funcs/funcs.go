// Package funcs wraps plain Go functions for LLM function calling.
// A wrapped function publishes its JSON schema to the model, and parses
// the model's function_call response back into typed arguments before
// invoking the underlying function.
package funcs

import (
	"context"

	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/llmutils"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmfn", "funcs")

// IFunction is a Go function wrapped for use by an LLM.
type IFunction interface {
	// Name returns the name the model calls the function by.
	Name() string
	// Description returns the description of the function, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the JSON schema of the function arguments.
	Parameters() *jsonschema.Schema
	// Definition returns the function definition to advertise to the model.
	Definition() *llms.FunctionDefinition

	// BuildRequest prepares a request that advertises this function and
	// forces the model to call it.
	BuildRequest(messages []llms.Message, opts ...llms.CallOption) (*llms.Request, error)

	// Call executes the function with the given JSON arguments and returns
	// the result serialized to JSON.
	// If the arguments fail to parse, it returns ErrResponseParse.
	Call(ctx context.Context, argsJSON string) (string, error)

	// Dispatch parses the model response and executes the function.
	// The result is serialized to JSON.
	Dispatch(ctx context.Context, resp *llms.ContentResponse) (string, error)
}

// Callback receives function lifecycle events.
type Callback interface {
	OnFunctionStart(context.Context, IFunction, string)
	OnFunctionEnd(context.Context, IFunction, string, string)
	OnFunctionError(context.Context, IFunction, string, error)
	OnParseError(context.Context, IFunction, string, error)
}

type funcDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type funcsDescription struct {
	Functions []funcDescription `json:"Functions" yaml:"Functions"`
}

// GetDescriptions returns the names and descriptions of the functions,
// formatted for inclusion in a prompt.
func GetDescriptions(list ...IFunction) string {
	var d funcsDescription
	for _, fn := range list {
		d.Functions = append(d.Functions, funcDescription{
			Name:        fn.Name(),
			Description: fn.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
