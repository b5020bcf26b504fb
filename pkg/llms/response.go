package llms

// ToolCall is a call to a tool (as requested by the model) that should be executed.
type ToolCall struct {
	// ID is the unique identifier of the tool call.
	ID string `json:"id"`
	// Type is the type of the tool call. Typically, this would be "function".
	Type string `json:"type"`
	// FunctionCall is the function call to be executed.
	FunctionCall *FunctionCall `json:"function,omitempty"`
}

// ContentResponse is the response returned by a Complete call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by Complete calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info"`

	// FuncCall is non-nil when the model asks to invoke a function.
	// If a model invokes more than one function, this field will only
	// contain the first one.
	FuncCall *FunctionCall `json:"func_call"`

	// ToolCalls is a list of tool calls the model asks to invoke.
	ToolCalls []ToolCall `json:"tool_calls"`
}

// FirstFunctionCall returns the first function call in the response,
// scanning choices in order; providers that emit text and tool use as
// separate content blocks surface the call in a later choice. Within a
// choice the legacy function_call field wins over tool calls.
// Returns nil when the response carries no function call.
func (r *ContentResponse) FirstFunctionCall() *FunctionCall {
	if r == nil {
		return nil
	}
	for _, choice := range r.Choices {
		if choice.FuncCall != nil {
			return choice.FuncCall
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall != nil {
				return tc.FunctionCall
			}
		}
	}
	return nil
}
