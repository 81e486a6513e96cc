package pageworld

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
)

// Runtime is a goja VM hosting untrusted page scripts. Scripts reach the
// host only through bridge.call.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	caller Caller
	log    *logging.Logger
	mu     sync.Mutex

	// Console output of the current execution
	console   []LogEntry
	consoleMu sync.Mutex

	// Context of the current execution, read by bridge.call
	execCtx context.Context
}

// New creates a runtime whose bridge.call is served by caller
func New(config Config, caller Caller, logger *logging.Logger) (*Runtime, error) {
	if caller == nil {
		return nil, errors.New("pageworld: caller required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	r := &Runtime{
		config:  config,
		caller:  caller,
		log:     logging.OrNop(logger).Component("pageworld"),
		execCtx: context.Background(),
	}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs script until it finishes, the timeout passes or ctx ends
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("pageworld: runtime closed")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	r.execCtx = ctx

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	stop := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.vm.Interrupt("execution timeout exceeded")
			} else {
				r.vm.Interrupt("context cancelled")
			}
		case <-stop:
		}
	}()

	val, err := r.vm.RunString(script)
	close(stop)
	<-exited
	r.vm.ClearInterrupt()
	r.execCtx = context.Background()

	result := &Result{Duration: time.Since(start)}
	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			err = fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
		}
		result.Error = err
		return result, err
	}

	result.Value = exportValue(val)
	return result, nil
}

func (r *Runtime) reset() error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	r.vm = vm
	r.console = []LogEntry{}
	return r.setupGlobals()
}

// setupGlobals removes host globals and installs bridge and console
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	bridge := r.vm.NewObject()
	if err := bridge.Set("call", r.bridgeCall); err != nil {
		return err
	}
	if err := r.vm.Set("bridge", bridge); err != nil {
		return err
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers are not available to page scripts
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	if err := r.vm.Set("setTimeout", noop); err != nil {
		return err
	}
	return r.vm.Set("setInterval", noop)
}

// bridgeCall implements bridge.call(method, ...params). It blocks the
// script until the call settles and throws on failure.
func (r *Runtime) bridgeCall(call goja.FunctionCall) goja.Value {
	method := call.Argument(0)
	if goja.IsUndefined(method) || goja.IsNull(method) {
		panic(r.vm.NewTypeError("bridge.call: method required"))
	}

	params := make([]any, 0, len(call.Arguments))
	for _, arg := range call.Arguments[1:] {
		params = append(params, exportValue(arg))
	}

	res, err := r.caller.Call(r.execCtx, method.String(), params...)
	if err != nil {
		panic(r.vm.NewGoError(err))
	}
	return r.vm.ToValue(res)
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
		r.consoleMu.Unlock()

		sink := level
		if sink == "log" {
			sink = "info"
		}
		r.log.Page(sink, msg, nil)
		return goja.Undefined()
	}
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset discards all script state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

// Close releases the VM
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vm = nil
	r.console = nil
	return nil
}
