package callbacks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmfn/funcs"
	"github.com/effective-security/llmfn/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Scratchpad(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	TimeNowFn = func() time.Time { return now }
	defer func() { TimeNowFn = time.Now }()

	ctx := store.WithChatContext(context.Background(), store.NewChatContext("chat1", nil))

	pad := NewScratchpad(ModeVerbose)
	pad.StartRun(ctx)

	fn := funcs.MustNew(func(_ context.Context, args *struct {
		Text string `json:"text"`
	}) (*string, error) {
		return &args.Text, nil
	}, funcs.WithName("echo"))

	pad.OnFunctionStart(ctx, fn, `{"text":"hi"}`)
	pad.OnFunctionEnd(ctx, fn, `{"text":"hi"}`, `"hi"`)
	pad.OnFunctionStart(ctx, fn, `{"text":"again"}`)
	pad.OnFunctionError(ctx, fn, `{"text":"again"}`, errors.New("boom"))
	pad.OnParseError(ctx, fn, `garbage`, errors.New("bad json"))

	stats, log := pad.EndRun(ctx)
	require.NotNil(t, stats)

	assert.Equal(t, "chat1", stats.ChatID)
	assert.Equal(t, uint32(2), stats.FunctionCalls)
	assert.Equal(t, uint32(1), stats.CallsSucceeded)
	assert.Equal(t, uint32(1), stats.CallsFailed)
	assert.Equal(t, uint32(1), stats.ParseErrors)
	assert.Equal(t, uint64(13+16), stats.BytesOut)
	assert.Equal(t, uint64(4), stats.BytesIn)

	text := string(log)
	assert.True(t, strings.HasPrefix(text, "[15:04:05] *** Run Started ***\n"))
	assert.Contains(t, text, "[15:04:05] echo *** Function Start ***\n")
	assert.Contains(t, text, `[15:04:05] echo Input: {"text":"hi"}`)
	assert.Contains(t, text, "[15:04:05] echo *** Function End ***\n")
	assert.Contains(t, text, "[15:04:05] echo *** Error *** boom\n")
	assert.Contains(t, text, "[15:04:05] echo *** Parse Error *** bad json\n")
	assert.Contains(t, text, "Function calls: 2, Succeeded: 1, Failed: 1, Parse Errors: 1\n")
	assert.Contains(t, text, "Bytes Out: 29, Bytes In: 4\n")

	// the run is removed after EndRun
	stats, log = pad.EndRun(ctx)
	assert.Nil(t, stats)
	assert.Nil(t, log)
}

func Test_Scratchpad_NoChatContext(t *testing.T) {
	ctx := context.Background()

	pad := NewScratchpad(ModeDefault)
	pad.StartRun(ctx)

	fn := funcs.MustNew(func(_ context.Context, args *struct {
		Text string `json:"text"`
	}) (*string, error) {
		return &args.Text, nil
	}, funcs.WithName("echo"))

	// events without a chat context are dropped
	pad.OnFunctionStart(ctx, fn, `{"text":"hi"}`)

	stats, log := pad.EndRun(ctx)
	assert.Nil(t, stats)
	assert.Nil(t, log)
}
