// Package openai implements the llms.Transport interface on the official
// OpenAI SDK, using the chat completions wire API.
package openai

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

var (
	ErrEmptyResponse          = errors.New("openai: no response")
	ErrMissingToken           = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("openai: unsupported message type")
)

type Client struct {
	api     *openai.Client
	Options *Options
}

var _ llms.Transport = (*Client)(nil)

// New creates a new OpenAI transport using the official OpenAI SDK.
// If no token is provided via options, it is read from the OPENAI_API_KEY
// environment variable.
func New(opts ...Option) (*Client, error) {
	options := &Options{
		Token: os.Getenv(TokenEnvVarName),
	}
	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
	}
	if base := strings.TrimSpace(options.BaseURL); base != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(strings.TrimRight(base, "/")))
	}
	if options.Organization != "" {
		sdkOpts = append(sdkOpts, option.WithOrganization(options.Organization))
	}

	client := openai.NewClient(sdkOpts...)
	return &Client{
		api:     &client,
		Options: options,
	}, nil
}

// GetName implements the Transport interface.
func (o *Client) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Transport interface.
func (o *Client) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// Complete implements the Transport interface.
func (o *Client) Complete(ctx context.Context, req *llms.Request, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	opts.Apply(options...)

	chatMsgs, err := ToChatMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(values.StringsCoalesce(opts.Model, req.Model, o.Options.Model)),
		Messages: chatMsgs,
	}

	temperature := values.Select(opts.Temperature != 0, opts.Temperature, req.Temperature)
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}
	maxTokens := values.NumbersCoalesce(opts.MaxTokens, req.MaxTokens)
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	stopWords := req.StopWords
	if len(opts.StopWords) > 0 {
		stopWords = opts.StopWords
	}
	if len(stopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: stopWords,
		}
	}

	if len(req.Functions) > 0 {
		tools, err := ToChatTools(req.Functions)
		if err != nil {
			return nil, err
		}
		params.Tools = tools

		choice := req.FunctionCall
		if opts.FunctionCall != nil {
			choice = opts.FunctionCall
		}
		toolChoice, err := ToToolChoice(choice)
		if err != nil {
			return nil, err
		}
		if toolChoice != nil {
			params.ToolChoice = *toolChoice
		}
	}

	resp, err := o.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	choices := make([]*llms.ContentChoice, len(resp.Choices))
	for i, c := range resp.Choices {
		choice := &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":  resp.Usage.PromptTokens,
				"OutputTokens": resp.Usage.CompletionTokens,
				"TotalTokens":  resp.Usage.TotalTokens,
				"ID":           resp.ID,
				"Index":        i,
			},
		}
		if c.Message.FunctionCall.Name != "" {
			choice.FuncCall = &llms.FunctionCall{
				Name:      c.Message.FunctionCall.Name,
				Arguments: c.Message.FunctionCall.Arguments,
			}
		}
		for _, tc := range c.Message.ToolCalls {
			fc := &llms.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:           tc.ID,
				Type:         "function",
				FunctionCall: fc,
			})
			if choice.FuncCall == nil {
				choice.FuncCall = fc
			}
		}
		choices[i] = choice
	}

	return &llms.ContentResponse{Choices: choices}, nil
}

// ToChatMessages converts chat messages to OpenAI SDK message parameters.
func ToChatMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case llms.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case llms.RoleAssistant:
			if msg.FunctionCall != nil {
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						FunctionCall: openai.ChatCompletionAssistantMessageParamFunctionCall{
							Name:      msg.FunctionCall.Name,
							Arguments: msg.FunctionCall.Arguments,
						},
					},
				})
			} else {
				out = append(out, openai.AssistantMessage(msg.Content))
			}
		case llms.RoleFunction, llms.RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfFunction: &openai.ChatCompletionFunctionMessageParam{
					Name:    msg.Name,
					Content: openai.String(msg.Content),
				},
			})
		default:
			return nil, errors.WithMessagef(ErrUnsupportedMessageType, "openai: %v", msg.Role)
		}
	}
	return out, nil
}

// ToChatTools converts function definitions to OpenAI SDK tool parameters.
func ToChatTools(functions []llms.FunctionDefinition) ([]openai.ChatCompletionToolUnionParam, error) {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(functions))
	for _, def := range functions {
		params, err := ToFunctionParameters(def.Parameters)
		if err != nil {
			return nil, err
		}
		fn := shared.FunctionDefinitionParam{
			Name:       def.Name,
			Parameters: params,
		}
		if def.Description != "" {
			fn.Description = openai.String(def.Description)
		}
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: fn,
			},
		})
	}
	return tools, nil
}

// ToFunctionParameters converts a JSON schema to the map form the OpenAI
// SDK expects.
func ToFunctionParameters(schema *jsonschema.Schema) (shared.FunctionParameters, error) {
	if schema == nil {
		return shared.FunctionParameters{"type": "object", "properties": map[string]any{}}, nil
	}
	js, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to marshal parameters schema")
	}
	var params shared.FunctionParameters
	if err := json.Unmarshal(js, &params); err != nil {
		return nil, errors.Wrap(err, "openai: failed to unmarshal parameters schema")
	}
	return params, nil
}

// ToToolChoice converts the function_call directive to the OpenAI tool
// choice parameter. Returns nil when the model is free to choose.
func ToToolChoice(choice any) (*openai.ChatCompletionToolChoiceOptionUnionParam, error) {
	switch v := choice.(type) {
	case nil:
		return nil, nil
	case string:
		switch v {
		case llms.FunctionCallAuto, llms.FunctionCallNone:
			return &openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(v),
			}, nil
		case "":
			return nil, nil
		default:
			return nil, errors.Newf("openai: unsupported function_call directive %q", v)
		}
	case *llms.FunctionReference:
		return namedToolChoice(v.Name), nil
	case llms.FunctionReference:
		return namedToolChoice(v.Name), nil
	default:
		return nil, errors.Newf("openai: unsupported function_call type %T", choice)
	}
}

func namedToolChoice(name string) *openai.ChatCompletionToolChoiceOptionUnionParam {
	return &openai.ChatCompletionToolChoiceOptionUnionParam{
		OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
			Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
				Name: name,
			},
		},
	}
}
