// Package store keeps per-chat message history so repeated function
// queries can carry prior conversation turns.
package store

import (
	"github.com/effective-security/llmfn/pkg/llms"
)

type MessageStore interface {
	Messages(chatID string) []llms.Message
	Add(chatID string, msg llms.Message) error
	Reset(chatID string) error
}
