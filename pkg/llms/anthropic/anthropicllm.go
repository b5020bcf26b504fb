// Package anthropic implements the llms.Transport interface on the
// official Anthropic SDK. Function calling maps onto Anthropic tool use:
// advertised functions become tools, a forced function_call becomes a
// pinned tool choice, and tool_use response blocks come back as function
// calls.
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/x/values"
)

var (
	ErrEmptyResponse          = errors.New("anthropic: no response")
	ErrMissingToken           = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("anthropic: unsupported message type")
	ErrUnsupportedContentType = errors.New("anthropic: unsupported content type")
)

const (
	DefaultMaxTokens = 4096
)

type Client struct {
	Client  *anthropic.Client
	Options *Options
}

var _ llms.Transport = (*Client)(nil)

// New creates a new Anthropic transport using the official Anthropic SDK.
// If no token is provided via options, it is read from the
// ANTHROPIC_API_KEY environment variable.
func New(opts ...Option) (*Client, error) {
	options := &Options{
		Token:      os.Getenv(TokenEnvVarName),
		BaseURL:    "https://api.anthropic.com",
		HttpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	if options.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	c, err := newClient(options)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create client")
	}
	return &Client{
		Client:  c,
		Options: options,
	}, nil
}

func newClient(options *Options) (*anthropic.Client, error) {
	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(2),
		option.WithRequestTimeout(5 * time.Minute),
	}

	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}

	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	if options.AnthropicBetaHeader != "" {
		sdkOpts = append(sdkOpts, option.WithHeader("anthropic-beta", options.AnthropicBetaHeader))
	}

	client := anthropic.NewClient(sdkOpts...)

	return &client, nil
}

// GetName implements the Transport interface.
func (o *Client) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Transport interface.
func (o *Client) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// Complete implements the Transport interface.
func (o *Client) Complete(ctx context.Context, req *llms.Request, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{
		Model: values.StringsCoalesce(req.Model, o.Options.Model),
	}
	opts.Apply(options...)

	sdkMessages, systemPrompt, err := ProcessMessages(req.Messages)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to process messages")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(values.StringsCoalesce(opts.Model, req.Model, o.Options.Model)),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), int64(req.MaxTokens), DefaultMaxTokens),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}

	temperature := values.Select(opts.Temperature != 0, opts.Temperature, req.Temperature)
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	stopWords := req.StopWords
	if len(opts.StopWords) > 0 {
		stopWords = opts.StopWords
	}
	if len(stopWords) > 0 {
		params.StopSequences = stopWords
	}

	if tools := ToTools(req.Functions); len(tools) > 0 {
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

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}
	if len(result.Content) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	choices := make([]*llms.ContentChoice, len(result.Content))
	for i, contentBlock := range result.Content {
		info := map[string]any{
			"InputTokens":  result.Usage.InputTokens,
			"OutputTokens": result.Usage.OutputTokens,
			"TotalTokens":  result.Usage.InputTokens + result.Usage.OutputTokens,
			"ID":           result.ID,
			"Index":        i,
		}
		switch content := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			choices[i] = &llms.ContentChoice{
				Content:        content.Text,
				StopReason:     string(result.StopReason),
				GenerationInfo: info,
			}
		case anthropic.ToolUseBlock:
			argumentsJSON, err := json.Marshal(content.Input)
			if err != nil {
				return nil, errors.Wrap(err, "anthropic: failed to marshal tool use arguments")
			}
			fc := &llms.FunctionCall{
				Name:      content.Name,
				Arguments: string(argumentsJSON),
			}
			choices[i] = &llms.ContentChoice{
				FuncCall: fc,
				ToolCalls: []llms.ToolCall{
					{
						ID:           content.ID,
						Type:         "function",
						FunctionCall: fc,
					},
				},
				StopReason:     string(result.StopReason),
				GenerationInfo: info,
			}
		default:
			return nil, errors.WithMessagef(ErrUnsupportedContentType, "anthropic: %T", content)
		}
	}

	resp := &llms.ContentResponse{
		Choices: choices,
	}
	return resp, nil
}

// ToTools converts function definitions to Anthropic SDK tool parameters.
func ToTools(functions []llms.FunctionDefinition) []anthropic.ToolUnionParam {
	if len(functions) == 0 {
		return nil
	}

	sdkTools := make([]anthropic.ToolUnionParam, len(functions))
	for i, fn := range functions {
		// Convert Properties from orderedmap to regular map for Anthropic SDK
		var properties map[string]any
		if fn.Parameters != nil && fn.Parameters.Properties != nil {
			properties = make(map[string]any)
			for pair := fn.Parameters.Properties.Oldest(); pair != nil; pair = pair.Next() {
				properties[pair.Key] = pair.Value
			}
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: properties,
		}
		if fn.Parameters != nil && len(fn.Parameters.Required) > 0 {
			inputSchema.Required = fn.Parameters.Required
		}

		sdkTools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        fn.Name,
				Description: anthropic.String(fn.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return sdkTools
}

// ToToolChoice converts the function_call directive to the Anthropic tool
// choice parameter. Returns nil when the model is free to choose.
func ToToolChoice(choice any) (*anthropic.ToolChoiceUnionParam, error) {
	switch v := choice.(type) {
	case nil:
		return nil, nil
	case string:
		switch v {
		case llms.FunctionCallAuto, "":
			return &anthropic.ToolChoiceUnionParam{
				OfAuto: &anthropic.ToolChoiceAutoParam{},
			}, nil
		case llms.FunctionCallNone:
			return &anthropic.ToolChoiceUnionParam{
				OfNone: &anthropic.ToolChoiceNoneParam{},
			}, nil
		default:
			return nil, errors.Newf("anthropic: unsupported function_call directive %q", v)
		}
	case *llms.FunctionReference:
		return &anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{
				Name: v.Name,
			},
		}, nil
	case llms.FunctionReference:
		return &anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{
				Name: v.Name,
			},
		}, nil
	default:
		return nil, errors.Newf("anthropic: unsupported function_call type %T", choice)
	}
}

// ProcessMessages converts chat messages to Anthropic SDK message
// parameters. System messages are extracted into a separate system prompt.
// Assistant messages carrying a function call become tool_use blocks, and
// function result messages become tool_result blocks; since the legacy
// function_call shape carries no call IDs, the function name stands in.
func ProcessMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	chatMessages := make([]anthropic.MessageParam, 0, len(messages))
	systemPrompt := ""
	for _, msg := range messages {
		switch msg.Role {
		case llms.RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n" + msg.Content
			} else {
				systemPrompt = msg.Content
			}
		case llms.RoleUser:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llms.RoleAssistant:
			chatMessage, err := handleAssistantMessage(msg)
			if err != nil {
				return nil, "", err
			}
			chatMessages = append(chatMessages, chatMessage)
		case llms.RoleFunction, llms.RoleTool:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.Name, msg.Content, false),
			))
		default:
			return nil, "", errors.WithMessagef(ErrUnsupportedMessageType, "anthropic: %v", msg.Role)
		}
	}
	return chatMessages, systemPrompt, nil
}

func handleAssistantMessage(msg llms.Message) (anthropic.MessageParam, error) {
	var contents []anthropic.ContentBlockParamUnion

	if msg.Content != "" {
		contents = append(contents, anthropic.NewTextBlock(msg.Content))
	}
	if msg.FunctionCall != nil {
		var inputJSON json.RawMessage
		if err := json.Unmarshal([]byte(msg.FunctionCall.Arguments), &inputJSON); err != nil {
			return anthropic.MessageParam{}, errors.Wrap(err, "anthropic: failed to unmarshal function call arguments")
		}
		contents = append(contents, anthropic.NewToolUseBlock(
			msg.FunctionCall.Name,
			inputJSON,
			msg.FunctionCall.Name,
		))
	}
	if len(contents) == 0 {
		return anthropic.MessageParam{}, errors.New("anthropic: no valid content in assistant message")
	}

	return anthropic.NewAssistantMessage(contents...), nil
}
