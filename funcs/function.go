package funcs

import (
	"context"
	"encoding/json"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/llmutils"
	"github.com/effective-security/llmfn/pkg/metricskey"
	"github.com/effective-security/llmfn/pkg/schema"
	"github.com/effective-security/llmfn/store"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Function wraps a Go function taking I and returning O for LLM function
// calling. The argument schema is derived from I at construction time.
type Function[I any, O any] struct {
	fn  func(context.Context, *I) (*O, error)
	cfg *Config

	name        string
	description string
	schema      *schema.Schema
	def         *llms.FunctionDefinition
}

var _ IFunction = (*Function[struct{}, struct{}])(nil)

// New wraps the given function. The name defaults to the function's
// declared name; anonymous functions need WithName.
func New[I any, O any](fn func(context.Context, *I) (*O, error), opts ...Option) (*Function[I, O], error) {
	if fn == nil {
		return nil, errors.New("funcs: nil function")
	}
	cfg := NewConfig(opts...)

	var in I
	s, err := schema.New(reflect.TypeOf(in))
	if err != nil {
		return nil, err
	}

	name := values.StringsCoalesce(cfg.Name, FuncName(fn))
	if name == "" {
		return nil, errors.New("funcs: cannot derive function name, use WithName")
	}

	ret := &Function[I, O]{
		fn:          fn,
		cfg:         cfg,
		name:        name,
		description: cfg.Description,
		schema:      s,
		def: &llms.FunctionDefinition{
			Name:        name,
			Description: cfg.Description,
			Parameters:  s.Parameters,
		},
	}
	return ret, nil
}

// MustNew wraps the given function, panics on error.
func MustNew[I any, O any](fn func(context.Context, *I) (*O, error), opts ...Option) *Function[I, O] {
	f, err := New(fn, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// FuncName returns the declared name of the function, without package
// path, receiver type, or method value suffix. Returns empty for
// non-function values.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	name = strings.TrimSuffix(name, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	// method values and closures leave type names and frame markers
	name = strings.NewReplacer("(", "", ")", "", "*", "", ".", "_").Replace(name)
	return name
}

// Name returns the name the model calls the function by.
func (f *Function[I, O]) Name() string {
	return f.name
}

// Description returns the description of the function, to be used in the prompt.
func (f *Function[I, O]) Description() string {
	return f.description
}

// Parameters returns the JSON schema of the function arguments.
func (f *Function[I, O]) Parameters() *jsonschema.Schema {
	return f.schema.Parameters
}

// Definition returns the function definition to advertise to the model.
func (f *Function[I, O]) Definition() *llms.FunctionDefinition {
	return f.def
}

// BuildRequest prepares a request that advertises this function and forces
// the model to call it. Per call options may override the directive via
// WithFunctionCall.
func (f *Function[I, O]) BuildRequest(messages []llms.Message, opts ...llms.CallOption) (*llms.Request, error) {
	if f.cfg.SystemPrompt != "" {
		messages = append([]llms.Message{llms.SystemMessage(f.cfg.SystemPrompt)}, messages...)
	}
	if f.cfg.Renderer != nil {
		var err error
		messages, err = f.cfg.Renderer.Render(messages)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to render messages")
		}
	}

	req := &llms.Request{
		Messages:     messages,
		Functions:    []llms.FunctionDefinition{*f.def},
		FunctionCall: llms.ForceFunction(f.name),
	}

	var callOpts llms.CallOptions
	callOpts.Apply(f.cfg.CallOptions...)
	callOpts.Apply(opts...)
	callOpts.ApplyToRequest(req)

	return req, nil
}

// Run executes the wrapped function with typed arguments.
// Errors from the wrapped function are returned as is.
func (f *Function[I, O]) Run(ctx context.Context, input *I) (*O, error) {
	started := time.Now()
	defer metricskey.PerfFuncCall.MeasureSince(started, f.name)

	out, err := f.fn(ctx, input)
	if err != nil {
		metricskey.StatsFuncCallsFailed.IncrCounter(1, f.name)
		return nil, err
	}
	metricskey.StatsFuncCallsSucceeded.IncrCounter(1, f.name)
	return out, nil
}

// Call executes the function with the given JSON arguments and returns the
// result serialized to JSON.
func (f *Function[I, O]) Call(ctx context.Context, argsJSON string) (string, error) {
	callback := f.cfg.CallbackHandler
	if callback != nil {
		callback.OnFunctionStart(ctx, f, argsJSON)
	}

	in, err := f.parseArgs(ctx, argsJSON)
	if err != nil {
		return "", err
	}

	out, err := f.Run(ctx, in)
	if err != nil {
		if callback != nil {
			callback.OnFunctionError(ctx, f, argsJSON, err)
		}
		return "", err
	}

	res := llmutils.ToJSON(out)
	if callback != nil {
		callback.OnFunctionEnd(ctx, f, argsJSON, res)
	}
	return res, nil
}

// Dispatch parses the model response and executes the function, returning
// the result serialized to JSON.
func (f *Function[I, O]) Dispatch(ctx context.Context, resp *llms.ContentResponse) (string, error) {
	out, err := f.FromResponse(ctx, resp)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

// FromResponse parses the model response and executes the function with
// the typed arguments.
func (f *Function[I, O]) FromResponse(ctx context.Context, resp *llms.ContentResponse) (*O, error) {
	fc := resp.FirstFunctionCall()
	if fc == nil {
		return nil, errors.WithStack(ErrNoFunctionCall)
	}
	if fc.Name != "" && fc.Name != f.name {
		logger.ContextKV(ctx, xlog.DEBUG,
			"function", f.name,
			"status", "unexpected_function_name",
			"called", fc.Name,
		)
	}

	callback := f.cfg.CallbackHandler
	if callback != nil {
		callback.OnFunctionStart(ctx, f, fc.Arguments)
	}

	in, err := f.parseArgs(ctx, fc.Arguments)
	if err != nil {
		return nil, err
	}

	out, err := f.Run(ctx, in)
	if err != nil {
		if callback != nil {
			callback.OnFunctionError(ctx, f, fc.Arguments, err)
		}
		return nil, err
	}
	if callback != nil {
		callback.OnFunctionEnd(ctx, f, fc.Arguments, llmutils.ToJSON(out))
	}
	return out, nil
}

// FromRawResponse extracts the function call arguments from a raw
// chat-completions response body and executes the function.
func (f *Function[I, O]) FromRawResponse(ctx context.Context, raw []byte) (*O, error) {
	args, ok := RawFunctionArgs(raw)
	if !ok {
		return nil, errors.WithStack(ErrNoFunctionCall)
	}

	in, err := f.parseArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	return f.Run(ctx, in)
}

// Query sends the messages with this function advertised and forced, then
// dispatches the returned function call.
func (f *Function[I, O]) Query(ctx context.Context, tr llms.Transport, messages []llms.Message, opts ...llms.CallOption) (*O, error) {
	started := time.Now()
	defer metricskey.PerfFuncQuery.MeasureSince(started, f.name)

	prov := tr.GetProviderType()
	if !prov.Supports(llms.CapabilityFunctionCalling) {
		return nil, errors.Newf("function %s: provider %s does not support function calling", f.name, tr.GetName())
	}

	chatID := store.GetChatID(ctx)
	if f.cfg.Store != nil {
		prev := f.cfg.Store.Messages(chatID)
		if len(prev) > 0 {
			messages = append(prev[:len(prev):len(prev)], messages...)
		}
	}

	req, err := f.BuildRequest(messages, opts...)
	if err != nil {
		metricskey.StatsFuncQueriesFailed.IncrCounter(1, f.name)
		return nil, err
	}

	modelName := tr.GetName()
	bytesSent := llmutils.CountMessagesContentSize(req.Messages)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), f.name, modelName)

	resp, err := tr.Complete(ctx, req, opts...)
	if err != nil {
		metricskey.StatsFuncQueriesFailed.IncrCounter(1, f.name)
		return nil, errors.Wrap(err, "failed to complete request")
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), f.name, modelName)
	tokensIn, tokensOut, _ := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), f.name, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), f.name, modelName)

	result, err := f.FromResponse(ctx, resp)
	if err != nil {
		metricskey.StatsFuncQueriesFailed.IncrCounter(1, f.name)
		return nil, err
	}
	metricskey.StatsFuncQueriesSucceeded.IncrCounter(1, f.name)

	if f.cfg.Store != nil {
		for _, m := range messages {
			_ = f.cfg.Store.Add(chatID, m)
		}
		if fc := resp.FirstFunctionCall(); fc != nil {
			_ = f.cfg.Store.Add(chatID, llms.Message{Role: llms.RoleAssistant, FunctionCall: fc})
			_ = f.cfg.Store.Add(chatID, llms.FunctionMessage(f.name, llmutils.ToJSON(result)))
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"function", f.name,
			"chat_id", chatID,
			"status", "added_message_history",
		)
	}

	return result, nil
}

func (f *Function[I, O]) parseArgs(ctx context.Context, argsJSON string) (*I, error) {
	// models fence or prefix argument payloads often enough to clean first
	args := llmutils.CleanJSON([]byte(argsJSON))

	var in I
	if err := json.Unmarshal(args, &in); err != nil {
		metricskey.StatsFuncParseErrors.IncrCounter(1, f.name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"function", f.name,
			"status", "failed_to_parse_arguments",
			"err", err.Error(),
			"args", slices.StringUpto(argsJSON, 64),
		)
		perr := errors.WithMessage(ErrResponseParse, err.Error())
		if f.cfg.CallbackHandler != nil {
			f.cfg.CallbackHandler.OnParseError(ctx, f, argsJSON, perr)
		}
		return nil, perr
	}

	if !f.cfg.SkipValidation {
		if err := validate.StructCtx(ctx, &in); err != nil {
			metricskey.StatsFuncParseErrors.IncrCounter(1, f.name)
			verr := errors.WithMessage(ErrInvalidArguments, err.Error())
			if f.cfg.CallbackHandler != nil {
				f.cfg.CallbackHandler.OnParseError(ctx, f, argsJSON, verr)
			}
			return nil, verr
		}
	}

	return &in, nil
}
