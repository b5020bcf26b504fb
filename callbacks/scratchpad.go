package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/llmfn/funcs"
	"github.com/effective-security/llmfn/store"
)

// ensure Scratchpad implements funcs.Callback
var _ funcs.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

// RunStats aggregates function call activity of one chat run.
type RunStats struct {
	ChatID string

	Duration       time.Duration
	FunctionCalls  uint32
	CallsSucceeded uint32
	CallsFailed    uint32
	ParseErrors    uint32
	BytesIn        uint64
	BytesOut       uint64
}

// Scratchpad is a callback handler that collects per-chat run stats and a
// readable activity log.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

type run struct {
	stats   RunStats
	started time.Time
	w       bytes.Buffer
	lock    sync.Mutex
}

func (r *run) print(args ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	fmt.Fprintf(&r.w, "[%s] ", TimeNowFn().Format(time.TimeOnly))
	for i, arg := range args {
		if i > 0 {
			r.w.WriteString(" ")
		}
		r.w.WriteString(arg)
	}
	r.w.WriteString("\n")
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

func (l *Scratchpad) StartRun(ctx context.Context) {
	chatID := store.GetChatID(ctx)
	if chatID == "" {
		return
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.runs[chatID] = &run{
		stats: RunStats{
			ChatID: chatID,
		},
		started: TimeNowFn(),
	}
	l.runs[chatID].print("*** Run Started ***")
}

func (l *Scratchpad) EndRun(ctx context.Context) (*RunStats, []byte) {
	run := l.getRun(ctx)
	if run == nil {
		return nil, nil
	}

	stats := run.stats
	stats.Duration = time.Since(run.started)

	run.print(fmt.Sprintf("Function calls: %d, Succeeded: %d, Failed: %d, Parse Errors: %d",
		stats.FunctionCalls,
		stats.CallsSucceeded,
		stats.CallsFailed,
		stats.ParseErrors,
	))
	run.print(fmt.Sprintf("Bytes Out: %d, Bytes In: %d",
		stats.BytesOut,
		stats.BytesIn,
	))
	run.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, stats.ChatID)
	l.lock.Unlock()

	return &stats, run.w.Bytes()
}

func (l *Scratchpad) getRun(ctx context.Context) *run {
	l.lock.Lock()
	defer l.lock.Unlock()

	chatID := store.GetChatID(ctx)
	if chatID == "" {
		return nil
	}
	return l.runs[chatID]
}

func (l *Scratchpad) OnFunctionStart(ctx context.Context, fn funcs.IFunction, input string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.FunctionCalls, 1)
	atomic.AddUint64(&run.stats.BytesOut, uint64(len(input)))
	run.print(fn.Name(), "*** Function Start ***")
	if l.mode == ModeVerbose {
		run.print(fn.Name(), "Input:", input)
	}
}

func (l *Scratchpad) OnFunctionEnd(ctx context.Context, fn funcs.IFunction, input string, output string) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.CallsSucceeded, 1)
	atomic.AddUint64(&run.stats.BytesIn, uint64(len(output)))
	if l.mode == ModeVerbose {
		run.print(fn.Name(), "Output:", output)
	}
	run.print(fn.Name(), "*** Function End ***")
}

func (l *Scratchpad) OnFunctionError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.CallsFailed, 1)
	run.print(fn.Name(), "*** Error ***", err.Error())
}

func (l *Scratchpad) OnParseError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	run := l.getRun(ctx)
	if run == nil {
		return
	}
	atomic.AddUint32(&run.stats.ParseErrors, 1)
	run.print(fn.Name(), "*** Parse Error ***", err.Error())
	if l.mode == ModeVerbose {
		run.print(fn.Name(), "Input:", input)
	}
}
