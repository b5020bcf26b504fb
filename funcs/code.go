package funcs

import (
	"context"
	"fmt"

	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/llmutils"
)

// WriteCodeArgs is the argument schema of the write_code meta function.
type WriteCodeArgs struct {
	Language  string `json:"language" jsonschema:"description=The language the code is written in"`
	Filename  string `json:"filename" jsonschema:"description=The file the code belongs to"`
	Name      string `json:"name" jsonschema:"description=The name of the written function"`
	Docstring string `json:"docstring" jsonschema:"description=The documentation of the written function"`
	Code      string `json:"code" jsonschema:"description=The written source code"`
}

// WriteCode accepts staff engineer quality written code from the model.
func WriteCode(_ context.Context, args *WriteCodeArgs) (*WriteCodeArgs, error) {
	return args, nil
}

// NewCodeWriter wraps the write_code meta function.
func NewCodeWriter(opts ...Option) *Function[WriteCodeArgs, WriteCodeArgs] {
	defaults := []Option{
		WithName("write_code"),
		WithDescription("Accepts and checks staff engineer quality written `code` in `language`"),
	}
	return MustNew(WriteCode, append(defaults, opts...)...)
}

// CodeRequest builds a request that asks the model to implement this
// function in the given language, via the write_code meta function.
func (f *Function[I, O]) CodeRequest(language string, opts ...llms.CallOption) (*llms.Request, error) {
	w := NewCodeWriter()
	msg := fmt.Sprintf("A function in %s described as the following: %s",
		language, llmutils.ToJSON(f.def))
	return w.BuildRequest([]llms.Message{llms.UserMessage(msg)}, opts...)
}

// GenerateCode asks the model to implement this function in the given
// language and returns the written code.
func (f *Function[I, O]) GenerateCode(ctx context.Context, tr llms.Transport, language string, opts ...llms.CallOption) (*WriteCodeArgs, error) {
	w := NewCodeWriter()
	msg := fmt.Sprintf("A function in %s described as the following: %s",
		language, llmutils.ToJSON(f.def))
	return w.Query(ctx, tr, []llms.Message{llms.UserMessage(msg)}, opts...)
}
