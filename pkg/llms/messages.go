package llms

import (
	"fmt"
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
	// RoleUser is a message sent by a human.
	RoleUser Role = "user"
	// RoleAssistant is a message sent by the model.
	RoleAssistant Role = "assistant"
	// RoleFunction is a message carrying the result of a function call.
	RoleFunction Role = "function"
	// RoleTool is a message carrying the result of a tool call.
	RoleTool Role = "tool"
)

// Message is one message in a chat conversation, in the chat-completions
// wire shape. Messages are not mutated after creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name identifies the function for RoleFunction messages.
	Name string `json:"name,omitempty"`
	// FunctionCall is set on assistant messages that request a function call.
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// FunctionCall is the name and arguments of a function call.
type FunctionCall struct {
	// The name of the function to call.
	Name string `json:"name"`
	// The arguments to pass to the function, as a JSON string.
	Arguments string `json:"arguments"`
}

func (fc FunctionCall) String() string {
	return fmt.Sprintf("FunctionCall: %s(%s)", fc.Name, fc.Arguments)
}

// SystemMessage creates a Message with the system role.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a Message with the user role.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates a Message with the assistant role.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FunctionMessage creates a Message carrying the result of a function call.
func FunctionMessage(name, content string) Message {
	return Message{Role: RoleFunction, Name: name, Content: content}
}

// Renderer finalizes raw message inputs before they are placed into a
// request. The default implementation passes messages through unchanged;
// applications plug in their own to expand templates or trim history.
type Renderer interface {
	Render(messages []Message) ([]Message, error)
}

// PassthroughRenderer returns messages as provided.
type PassthroughRenderer struct{}

func (PassthroughRenderer) Render(messages []Message) ([]Message, error) {
	return messages, nil
}

var _ Renderer = PassthroughRenderer{}
