package pageworld

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeCaller records calls and answers from a table
type fakeCaller struct {
	mu    sync.Mutex
	calls []string
	store map[string]any
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{store: map[string]any{}}
}

func (f *fakeCaller) Call(ctx context.Context, method string, params ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)

	switch method {
	case "storage.set":
		f.store[params[0].(string)] = params[1]
		return true, nil
	case "storage.get":
		if v, ok := f.store[params[0].(string)]; ok {
			return v, nil
		}
		if len(params) > 1 {
			return params[1], nil
		}
		return nil, nil
	case "slow":
		f.mu.Unlock()
		<-ctx.Done()
		f.mu.Lock()
		return nil, ctx.Err()
	default:
		return nil, errors.New(method + ": unknown method")
	}
}

func TestRuntimeExecution(t *testing.T) {
	rt, err := New(DefaultConfig(), newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer rt.Close()

	tests := []struct {
		name   string
		script string
		want   any
	}{
		{name: "simple return", script: "42", want: int64(42)},
		{name: "string operations", script: "'hello'.toUpperCase()", want: "HELLO"},
		{name: "undefined", script: "undefined", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rt.Execute(context.Background(), tt.script)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if result.Value != tt.want {
				t.Errorf("Execute() = %#v, want %#v", result.Value, tt.want)
			}
		})
	}
}

func TestBridgeCall(t *testing.T) {
	caller := newFakeCaller()
	rt, err := New(DefaultConfig(), caller, nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	script := `
		bridge.call("storage.set", "count", 3);
		var n = bridge.call("storage.get", "count", 0);
		var missing = bridge.call("storage.get", "nope", "dflt");
		n + ":" + missing
	`
	result, err := rt.Execute(context.Background(), script)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Value != "3:dflt" {
		t.Errorf("Value = %v, want 3:dflt", result.Value)
	}
	if len(caller.calls) != 3 {
		t.Errorf("calls = %v, want 3", caller.calls)
	}
}

func TestBridgeCallThrows(t *testing.T) {
	rt, err := New(DefaultConfig(), newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	script := `
		var msg = "";
		try { bridge.call("bogus.method"); } catch (e) { msg = e.message; }
		msg
	`
	result, err := rt.Execute(context.Background(), script)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result.Value.(string), "bogus.method: unknown method") {
		t.Errorf("message = %v", result.Value)
	}

	if _, err := rt.Execute(context.Background(), "bridge.call()"); err == nil {
		t.Error("expected error for missing method")
	}
}

func TestRuntimeSecurity(t *testing.T) {
	rt, err := New(DefaultConfig(), newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	for _, script := range []string{"require('fs')", "process.exit(1)", "module.exports = {}"} {
		result, _ := rt.Execute(context.Background(), script)
		if result != nil && result.Value != nil {
			t.Errorf("%s executed: %v", script, result.Value)
		}
	}
}

func TestRuntimeTimeout(t *testing.T) {
	rt, err := New(Config{Timeout: 100 * time.Millisecond, EnableConsole: true}, newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	result, err := rt.Execute(context.Background(), "while(true) {}")
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if result == nil || result.Error == nil {
		t.Error("expected error in result")
	}

	start := time.Now()
	if _, err := rt.Execute(context.Background(), `bridge.call("slow")`); err == nil {
		t.Error("expected blocked bridge call to fail")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("blocked bridge call was not cancelled")
	}

	// the VM is usable again after an interrupt
	result, err = rt.Execute(context.Background(), "1 + 1")
	if err != nil {
		t.Fatalf("Execute() after interrupt error = %v", err)
	}
	if result.Value != int64(2) {
		t.Errorf("Value = %v, want 2", result.Value)
	}
}

func TestRuntimeConsoleCapture(t *testing.T) {
	rt, err := New(DefaultConfig(), newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	result, err := rt.Execute(context.Background(), `
		console.log('info message');
		console.warn('warning', 2);
		console.error('error message');
		'done'
	`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	levels := []string{"log", "warn", "error"}
	if len(result.Console) != len(levels) {
		t.Fatalf("Expected %d console entries, got %d", len(levels), len(result.Console))
	}
	for i, entry := range result.Console {
		if entry.Level != levels[i] {
			t.Errorf("entry %d: level %s, want %s", i, entry.Level, levels[i])
		}
	}
	if result.Console[1].Message != "warning 2" {
		t.Errorf("message = %q", result.Console[1].Message)
	}
}

func TestResetAndClose(t *testing.T) {
	rt, err := New(DefaultConfig(), newFakeCaller(), nil)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	if _, err := rt.Execute(context.Background(), "var leaked = 1"); err != nil {
		t.Fatal(err)
	}
	if err := rt.Reset(); err != nil {
		t.Fatal(err)
	}
	result, err := rt.Execute(context.Background(), "typeof leaked")
	if err != nil {
		t.Fatal(err)
	}
	if result.Value != "undefined" {
		t.Errorf("state survived reset: %v", result.Value)
	}

	rt.Close()
	if _, err := rt.Execute(context.Background(), "1"); err == nil {
		t.Error("expected error after Close")
	}

	if _, err := New(DefaultConfig(), nil, nil); err == nil {
		t.Error("expected error without caller")
	}
}
