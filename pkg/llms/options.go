package llms

// CallOption is a function that configures a CallOptions.
type CallOption func(*CallOptions)

// CallOptions is a set of options for calling models. Not all models support
// all options.
type CallOptions struct {
	// Model is the model to use.
	Model string
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
	// Temperature is the temperature for sampling, between 0 and 1.
	Temperature float64
	// StopWords is a list of words to stop on.
	StopWords []string
	// FunctionCall is "auto", "none", or a *FunctionReference.
	FunctionCall any
}

// Apply collects the given options into a CallOptions.
func (o *CallOptions) Apply(options ...CallOption) {
	for _, opt := range options {
		opt(o)
	}
}

// WithModel specifies which model name to use.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

// WithMaxTokens specifies the max number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature specifies the model temperature, a hyperparameter that
// regulates the randomness, or creativity, of the AI's responses.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = temperature
	}
}

// WithStopWords specifies a list of words to stop generation on.
func WithStopWords(stopWords []string) CallOption {
	return func(o *CallOptions) {
		o.StopWords = stopWords
	}
}

// WithFunctionCall overrides the function_call directive of the request.
// It can either be FunctionCallNone, FunctionCallAuto, or a specific
// function as returned by ForceFunction.
func WithFunctionCall(choice any) CallOption {
	return func(o *CallOptions) {
		o.FunctionCall = choice
	}
}

// ApplyToRequest copies the set options onto the request.
func (o *CallOptions) ApplyToRequest(req *Request) {
	if o.Model != "" {
		req.Model = o.Model
	}
	if o.MaxTokens > 0 {
		req.MaxTokens = o.MaxTokens
	}
	if o.Temperature > 0 {
		req.Temperature = o.Temperature
	}
	if len(o.StopWords) > 0 {
		req.StopWords = o.StopWords
	}
	if o.FunctionCall != nil {
		req.FunctionCall = o.FunctionCall
	}
}
