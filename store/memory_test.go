package store_test

import (
	"context"
	"testing"

	"github.com/effective-security/llmfn/pkg/llms"
	"github.com/effective-security/llmfn/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	st := store.NewMemoryStore()

	chatID := "chat1"
	msg1 := llms.UserMessage("Hello")
	msg2 := llms.AssistantMessage("Hi there!")

	// empty store
	assert.Empty(t, st.Messages(chatID))
	require.NoError(t, st.Reset(chatID))

	require.NoError(t, st.Add(chatID, msg1))
	require.NoError(t, st.Add(chatID, msg2))

	messages := st.Messages(chatID)
	require.Equal(t, 2, len(messages))
	assert.Equal(t, msg1.Content, messages[0].Content)
	assert.Equal(t, msg2.Content, messages[1].Content)

	// other chats are isolated
	assert.Empty(t, st.Messages("chat2"))
	require.NoError(t, st.Add("chat2", msg1))
	assert.Equal(t, 2, len(st.Messages(chatID)))

	require.NoError(t, st.Reset(chatID))
	assert.Empty(t, st.Messages(chatID))
	assert.Equal(t, 1, len(st.Messages("chat2")))
}

func Test_ChatContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, store.GetChatContext(ctx))
	assert.Empty(t, store.GetChatID(ctx))

	appData := map[string]string{"key": "value"}
	chatCtx := store.NewChatContext("chat1", appData)
	ctx = store.WithChatContext(ctx, chatCtx)

	assert.Equal(t, "chat1", store.GetChatID(ctx))
	assert.Same(t, chatCtx, store.GetChatContext(ctx))
	assert.Equal(t, appData, chatCtx.AppData().(map[string]string))

	_, ok := chatCtx.GetMetadata("k")
	assert.False(t, ok)
	chatCtx.SetMetadata("k", 42)
	v, ok := chatCtx.GetMetadata("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// empty chat ID gets generated
	chatCtx2 := store.NewChatContext("", nil)
	assert.NotEmpty(t, chatCtx2.GetChatID())
	assert.NotEqual(t, chatCtx2.GetChatID(), store.NewChatID())
}
