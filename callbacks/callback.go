// Package callbacks provides ready to use funcs.Callback handlers.
package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/llmfn/funcs"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ funcs.Callback = (*Noop)(nil)
	_ funcs.Callback = (*Printer)(nil)
	_ funcs.Callback = (*PackageLogger)(nil)
	_ funcs.Callback = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []funcs.Callback
}

func NewFanout(callbacks ...funcs.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback funcs.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnFunctionStart(ctx context.Context, fn funcs.IFunction, input string) {
	for _, callback := range l.callbacks {
		callback.OnFunctionStart(ctx, fn, input)
	}
}

func (l *Fanout) OnFunctionEnd(ctx context.Context, fn funcs.IFunction, input string, output string) {
	for _, callback := range l.callbacks {
		callback.OnFunctionEnd(ctx, fn, input, output)
	}
}

func (l *Fanout) OnFunctionError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnFunctionError(ctx, fn, input, err)
	}
}

func (l *Fanout) OnParseError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnParseError(ctx, fn, input, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnFunctionStart(ctx context.Context, fn funcs.IFunction, input string) {}
func (l *Noop) OnFunctionEnd(ctx context.Context, fn funcs.IFunction, input string, output string) {
}
func (l *Noop) OnFunctionError(ctx context.Context, fn funcs.IFunction, input string, err error) {}
func (l *Noop) OnParseError(ctx context.Context, fn funcs.IFunction, input string, err error)    {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnFunctionStart(ctx context.Context, fn funcs.IFunction, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Function Start: %s\n", fn.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnFunctionEnd(ctx context.Context, fn funcs.IFunction, input string, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Function End: %s\n", fn.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnFunctionError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Function Error: %s: %s\n", fn.Name(), err.Error())
}

func (l *Printer) OnParseError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Function Parse Error: %s: %s\n", fn.Name(), err.Error())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnFunctionStart(ctx context.Context, fn funcs.IFunction, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "function_start",
		"function", fn.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnFunctionEnd(ctx context.Context, fn funcs.IFunction, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "function_end",
		"function", fn.Name(),
		"output", output,
	)
}

func (l *PackageLogger) OnFunctionError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "function_error",
		"function", fn.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnParseError(ctx context.Context, fn funcs.IFunction, input string, err error) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "function_parse_error",
		"function", fn.Name(),
		"err", err.Error(),
		"input", input,
	)
}
