package llms

import (
	"github.com/invopop/jsonschema"
)

// FunctionCallAuto lets the model decide which function to call, if any.
const FunctionCallAuto = "auto"

// FunctionCallNone disables function calling for the request.
const FunctionCallNone = "none"

// FunctionDefinition is a definition of a function that can be called by the model.
type FunctionDefinition struct {
	// Name is the name of the function.
	Name string `json:"name"`
	// Description is a description of the function.
	Description string `json:"description"`
	// Parameters is the JSON schema of the function arguments.
	Parameters *jsonschema.Schema `json:"parameters"`
}

// FunctionReference forces the model to call a specific function.
type FunctionReference struct {
	// Name is the name of the function.
	Name string `json:"name"`
}

// Request is the payload sent to a remote completion API:
// the conversation, the advertised functions, and the function_call
// directive. FunctionCall is either FunctionCallAuto, FunctionCallNone,
// or a *FunctionReference naming one of Functions.
type Request struct {
	Model     string               `json:"model,omitempty"`
	Messages  []Message            `json:"messages"`
	Functions []FunctionDefinition `json:"functions,omitempty"`
	// FunctionCall is "auto", "none", or a *FunctionReference.
	FunctionCall any `json:"function_call,omitempty"`

	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	StopWords   []string `json:"stop,omitempty"`
}

// ForceFunction returns the function_call value that pins the request to
// the named function.
func ForceFunction(name string) *FunctionReference {
	return &FunctionReference{Name: name}
}

// ForcedCallName returns the name of a forced function call, or empty when
// the request leaves the choice to the model.
func (r *Request) ForcedCallName() string {
	if ref, ok := r.FunctionCall.(*FunctionReference); ok && ref != nil {
		return ref.Name
	}
	return ""
}
