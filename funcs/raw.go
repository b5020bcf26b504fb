package funcs

import (
	"github.com/tidwall/gjson"
)

// raw response paths for function call arguments, legacy field first
const (
	rawFunctionCallArgs = "choices.0.message.function_call.arguments"
	rawToolCallArgs     = "choices.0.message.tool_calls.0.function.arguments"
)

// RawFunctionArgs extracts the arguments of the first function call from a
// raw chat-completions response body.
func RawFunctionArgs(raw []byte) (string, bool) {
	if v := gjson.GetBytes(raw, rawFunctionCallArgs); v.Exists() {
		return v.String(), true
	}
	if v := gjson.GetBytes(raw, rawToolCallArgs); v.Exists() {
		return v.String(), true
	}
	return "", false
}

// RawFunctionName extracts the name of the first function call from a raw
// chat-completions response body.
func RawFunctionName(raw []byte) (string, bool) {
	if v := gjson.GetBytes(raw, "choices.0.message.function_call.name"); v.Exists() {
		return v.String(), true
	}
	if v := gjson.GetBytes(raw, "choices.0.message.tool_calls.0.function.name"); v.Exists() {
		return v.String(), true
	}
	return "", false
}
