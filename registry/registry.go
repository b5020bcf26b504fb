// Package registry collects wrapped functions, advertises them to the
// model as a group, and routes function call responses to the right one.
package registry

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/funcs"
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmfn", "registry")

var (
	// ErrDuplicateFunction is returned when a function with the same name
	// is already registered.
	ErrDuplicateFunction = errors.New("function already registered")

	// ErrFunctionNotFound is returned when a dispatched call names an
	// unknown function.
	ErrFunctionNotFound = errors.New("function not found")
)

// Schema is the advertisement of all registered functions, with the
// function choice left to the model.
type Schema struct {
	Functions    []llms.FunctionDefinition `json:"functions"`
	FunctionCall any                       `json:"function_call"`
}

// Registry holds a named set of wrapped functions. Registration order is
// preserved in all listings.
type Registry struct {
	name string

	mu        sync.RWMutex
	byName    map[string]funcs.IFunction
	names     []string
	functions []funcs.IFunction
	merged    map[*Registry]bool
}

// New creates an empty registry.
func New(name string) *Registry {
	return &Registry{
		name:   name,
		byName: make(map[string]funcs.IFunction),
		merged: make(map[*Registry]bool),
	}
}

// Name returns the name of the registry.
func (r *Registry) Name() string {
	return r.name
}

// Register adds a function to the registry.
// Returns ErrDuplicateFunction when the name is taken.
func (r *Registry) Register(fn funcs.IFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(fn)
}

func (r *Registry) register(fn funcs.IFunction) error {
	name := fn.Name()
	// use lowercase for the key
	key := strings.ToLower(name)
	if r.byName[key] != nil {
		return errors.WithMessagef(ErrDuplicateFunction, "%s", name)
	}
	r.byName[key] = fn
	r.names = append(r.names, name)
	r.functions = append(r.functions, fn)
	return nil
}

// MustRegister adds a function to the registry, panics on duplicate.
func (r *Registry) MustRegister(fn funcs.IFunction) {
	if err := r.Register(fn); err != nil {
		panic(err)
	}
}

// Merge adds all functions of the other registry. Merging the same
// registry again is a no-op, so repeated includes stay idempotent.
// A name clash fails with ErrDuplicateFunction before anything is added.
func (r *Registry) Merge(other *Registry) error {
	if other == nil || other == r {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.merged[other] {
		return nil
	}

	// validate all names first so a clash leaves the registry unchanged
	fns := other.Functions()
	for _, fn := range fns {
		if r.byName[strings.ToLower(fn.Name())] != nil {
			return errors.WithMessagef(ErrDuplicateFunction, "%s", fn.Name())
		}
	}
	for _, fn := range fns {
		if err := r.register(fn); err != nil {
			return err
		}
	}
	r.merged[other] = true
	return nil
}

// Functions returns the registered functions in registration order.
func (r *Registry) Functions() []funcs.IFunction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]funcs.IFunction{}, r.functions...)
}

// Names returns the registered function names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.names...)
}

// Get returns the function by name, nil when not registered.
// The lookup is case insensitive.
func (r *Registry) Get(name string) funcs.IFunction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[strings.ToLower(name)]
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functions)
}

// Definitions returns the function definitions in registration order.
func (r *Registry) Definitions() []llms.FunctionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llms.FunctionDefinition, 0, len(r.functions))
	for _, fn := range r.functions {
		defs = append(defs, *fn.Definition())
	}
	return defs
}

// Schema returns the group advertisement with function_call left to the
// model.
func (r *Registry) Schema() *Schema {
	return &Schema{
		Functions:    r.Definitions(),
		FunctionCall: llms.FunctionCallAuto,
	}
}

// BuildRequest prepares a request advertising all registered functions,
// with the function choice left to the model unless overridden via
// WithFunctionCall.
func (r *Registry) BuildRequest(messages []llms.Message, opts ...llms.CallOption) (*llms.Request, error) {
	req := &llms.Request{
		Messages:     messages,
		Functions:    r.Definitions(),
		FunctionCall: llms.FunctionCallAuto,
	}

	var callOpts llms.CallOptions
	callOpts.Apply(opts...)
	callOpts.ApplyToRequest(req)

	return req, nil
}

// Dispatch routes the function call in the response to the registered
// function and executes it, returning the result serialized to JSON.
func (r *Registry) Dispatch(ctx context.Context, resp *llms.ContentResponse) (string, error) {
	fc := resp.FirstFunctionCall()
	if fc == nil {
		return "", errors.WithStack(funcs.ErrNoFunctionCall)
	}
	return r.dispatch(ctx, fc.Name, fc.Arguments)
}

// DispatchRaw routes the function call in a raw chat-completions response
// body to the registered function and executes it.
func (r *Registry) DispatchRaw(ctx context.Context, raw []byte) (string, error) {
	name, ok := funcs.RawFunctionName(raw)
	if !ok {
		return "", errors.WithStack(funcs.ErrNoFunctionCall)
	}
	args, _ := funcs.RawFunctionArgs(raw)
	return r.dispatch(ctx, name, args)
}

func (r *Registry) dispatch(ctx context.Context, name, args string) (string, error) {
	fn := r.Get(name)
	if fn == nil {
		metricskey.StatsFuncCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"registry", r.name,
			"status", "function_not_found",
			"function", name,
			"available", strings.Join(r.Names(), ", "),
		)
		return "", errors.WithMessagef(ErrFunctionNotFound, "%s", name)
	}
	return fn.Call(ctx, args)
}

// Query sends the messages with all functions advertised, then routes the
// returned function call.
func (r *Registry) Query(ctx context.Context, tr llms.Transport, messages []llms.Message, opts ...llms.CallOption) (string, error) {
	prov := tr.GetProviderType()
	if !prov.Supports(llms.CapabilityFunctionCalling) {
		return "", errors.Newf("registry %s: provider %s does not support function calling", r.name, tr.GetName())
	}

	req, err := r.BuildRequest(messages, opts...)
	if err != nil {
		return "", err
	}

	resp, err := tr.Complete(ctx, req, opts...)
	if err != nil {
		return "", errors.Wrap(err, "failed to complete request")
	}

	return r.Dispatch(ctx, resp)
}
