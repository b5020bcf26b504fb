package funcs

import (
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/store"
)

// Option is a function that can be used to modify the wrapper Config.
type Option func(*Config)

type Config struct {
	// Name overrides the name derived from the wrapped function.
	Name string

	// Description is the description of the function, to be used in the prompt.
	Description string

	// SystemPrompt is prepended to query messages when set.
	SystemPrompt string

	// Renderer finalizes messages before they are placed into a request.
	Renderer llms.Renderer

	// Store keeps per-chat message history across queries.
	Store store.MessageStore

	// CallbackHandler receives function lifecycle events.
	CallbackHandler Callback

	// SkipValidation disables struct tag validation of parsed arguments.
	SkipValidation bool

	// CallOptions are applied to every request built by the wrapper.
	CallOptions []llms.CallOption
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName overrides the published function name.
func WithName(name string) Option {
	return func(o *Config) {
		o.Name = name
	}
}

// WithDescription sets the description of the function, to be used in the prompt.
func WithDescription(description string) Option {
	return func(o *Config) {
		o.Description = description
	}
}

// WithSystemPrompt sets a system message to prepend to query messages.
func WithSystemPrompt(prompt string) Option {
	return func(o *Config) {
		o.SystemPrompt = prompt
	}
}

// WithRenderer sets the message renderer.
func WithRenderer(r llms.Renderer) Option {
	return func(o *Config) {
		o.Renderer = r
	}
}

// WithStore sets the message history store.
func WithStore(s store.MessageStore) Option {
	return func(o *Config) {
		o.Store = s
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithSkipValidation disables struct tag validation of parsed arguments.
func WithSkipValidation() Option {
	return func(o *Config) {
		o.SkipValidation = true
	}
}

// WithCallOptions sets default request options, applied before per-call ones.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(o *Config) {
		o.CallOptions = append(o.CallOptions, opts...)
	}
}
