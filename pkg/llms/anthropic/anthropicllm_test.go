package anthropic_test

import (
	"net/http"
	"os"
	"reflect"
	"testing"

	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/pkg/llms/anthropic"
	"github.com/effective-security/llmfn/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opts        []anthropic.Option
		wantErr     bool
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-sonnet-4-20250514")},
			wantErr:     true,
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token")},
			wantErr:     true,
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-sonnet-4-20250514"),
			},
			wantErr: false,
		},
		{
			name: "with custom base URL",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-sonnet-4-20250514"),
				anthropic.WithBaseURL("https://custom.anthropic.com"),
			},
			wantErr: false,
		},
		{
			name: "with custom HTTP client",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-sonnet-4-20250514"),
				anthropic.WithHTTPClient(&http.Client{}),
			},
			wantErr: false,
		},
		{
			name: "with beta header",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-sonnet-4-20250514"),
				anthropic.WithAnthropicBetaHeader("beta-feature-1"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// For missing token test, temporarily unset environment variable
			if tt.name == "missing token" {
				originalToken := os.Getenv("ANTHROPIC_API_KEY")
				os.Unsetenv("ANTHROPIC_API_KEY")
				defer func() {
					if originalToken != "" {
						os.Setenv("ANTHROPIC_API_KEY", originalToken)
					}
				}()
			}

			allm, err := anthropic.New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, allm)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, allm)
				assert.NotNil(t, allm.Client)
				assert.NotNil(t, allm.Options)
			}
		})
	}
}

func TestGetProviderType(t *testing.T) {
	t.Parallel()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-sonnet-4-20250514"),
	)
	require.NoError(t, err)

	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())
	assert.Equal(t, "claude-sonnet-4-20250514", llm.GetName())
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func TestToTools(t *testing.T) {
	t.Parallel()

	assert.Nil(t, anthropic.ToTools(nil))

	s, err := schema.New(reflect.TypeOf(searchArgs{}))
	require.NoError(t, err)

	tools := anthropic.ToTools([]llms.FunctionDefinition{
		{
			Name:        "search",
			Description: "Searches the index.",
			Parameters:  s.Parameters,
		},
	})
	require.Len(t, tools, 1)

	tool := tools[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "search", tool.Name)
	assert.Equal(t, "Searches the index.", tool.Description.Value)
	assert.Equal(t, []string{"query"}, tool.InputSchema.Required)
	require.NotNil(t, tool.InputSchema.Properties)
	assert.Contains(t, tool.InputSchema.Properties, "query")
	assert.Contains(t, tool.InputSchema.Properties, "limit")
}

func TestToToolChoice(t *testing.T) {
	t.Parallel()

	choice, err := anthropic.ToToolChoice(nil)
	require.NoError(t, err)
	assert.Nil(t, choice)

	choice, err = anthropic.ToToolChoice(llms.FunctionCallAuto)
	require.NoError(t, err)
	require.NotNil(t, choice)
	assert.NotNil(t, choice.OfAuto)

	choice, err = anthropic.ToToolChoice("")
	require.NoError(t, err)
	require.NotNil(t, choice)
	assert.NotNil(t, choice.OfAuto)

	choice, err = anthropic.ToToolChoice(llms.FunctionCallNone)
	require.NoError(t, err)
	require.NotNil(t, choice)
	assert.NotNil(t, choice.OfNone)

	choice, err = anthropic.ToToolChoice(llms.ForceFunction("search"))
	require.NoError(t, err)
	require.NotNil(t, choice)
	require.NotNil(t, choice.OfTool)
	assert.Equal(t, "search", choice.OfTool.Name)

	choice, err = anthropic.ToToolChoice(llms.FunctionReference{Name: "search"})
	require.NoError(t, err)
	require.NotNil(t, choice)
	require.NotNil(t, choice.OfTool)

	_, err = anthropic.ToToolChoice("weird")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported function_call directive")

	_, err = anthropic.ToToolChoice(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported function_call type")
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	msgs, system, err := anthropic.ProcessMessages([]llms.Message{
		llms.SystemMessage("You are helpful."),
		llms.SystemMessage("Answer briefly."),
		llms.UserMessage("add 1 and 2"),
		{
			Role: llms.RoleAssistant,
			FunctionCall: &llms.FunctionCall{
				Name:      "Add",
				Arguments: `{"x":1,"y":2}`,
			},
		},
		llms.FunctionMessage("Add", `{"sum":3}`),
		llms.AssistantMessage("The sum is 3."),
	})
	require.NoError(t, err)

	assert.Equal(t, "You are helpful.\nAnswer briefly.", system)
	require.Len(t, msgs, 4)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	require.Len(t, msgs[1].Content, 1)
	assert.Equal(t, "user", string(msgs[2].Role))
	assert.Equal(t, "assistant", string(msgs[3].Role))

	// unsupported role
	_, _, err = anthropic.ProcessMessages([]llms.Message{
		{Role: "weird", Content: "hi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported message type")

	// function call arguments must be valid JSON
	_, _, err = anthropic.ProcessMessages([]llms.Message{
		{
			Role: llms.RoleAssistant,
			FunctionCall: &llms.FunctionCall{
				Name:      "Add",
				Arguments: `not json`,
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal function call arguments")

	// assistant message with no content and no call
	_, _, err = anthropic.ProcessMessages([]llms.Message{
		{Role: llms.RoleAssistant},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid content in assistant message")
}
