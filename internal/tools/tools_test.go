package tools

import (
	"context"
	"errors"
	"testing"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Tool{
		Name:        "echo",
		Description: "Echoes its input",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return s, nil
		},
	})
	return r
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := newTestRegistry()
	if r.Get("echo") == nil {
		t.Fatal("registered tool not found")
	}
	if r.Get("missing") != nil {
		t.Error("unregistered tool should be nil")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry()
	r.Register(&Tool{Name: "alpha"})
	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "echo" {
		t.Errorf("Names() = %v, want sorted [alpha echo]", names)
	}
}

func TestRegistry_List(t *testing.T) {
	r := newTestRegistry()
	list := r.List()
	if len(list) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(list))
	}
	fn, ok := list[0]["function"].(map[string]any)
	if !ok {
		t.Fatalf("function entry shape: %#v", list[0])
	}
	if fn["name"] != "echo" {
		t.Errorf("function name = %v, want echo", fn["name"])
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := newTestRegistry()
	got, err := r.Execute(context.Background(), "echo", `{"text":"hi"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "hi" {
		t.Errorf("Execute = %q, want %q", got, "hi")
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Execute(context.Background(), "nope", "")
	var unavailable *ErrToolUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want *ErrToolUnavailable", err)
	}
	if unavailable.ToolName != "nope" {
		t.Errorf("ToolName = %q, want nope", unavailable.ToolName)
	}
}

func TestRegistry_ExecuteInvalidArgs(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Execute(context.Background(), "echo", "{broken"); err == nil {
		t.Fatal("expected error for invalid JSON args")
	}
}

func TestRegistry_ExecuteAttachesInvocationID(t *testing.T) {
	r := NewRegistry()
	var captured string
	r.Register(&Tool{
		Name: "probe",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			captured = InvocationIDFromContext(ctx)
			return "", nil
		},
	})

	if _, err := r.Execute(context.Background(), "probe", ""); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if captured == "" {
		t.Error("handler saw no invocation id")
	}
}

func TestInvocationIDRoundtrip(t *testing.T) {
	ctx := WithInvocationID(context.Background(), "abc-123")
	if got := InvocationIDFromContext(ctx); got != "abc-123" {
		t.Errorf("InvocationIDFromContext = %q, want abc-123", got)
	}

	// EnsureInvocationID must not replace an existing id.
	if got := InvocationIDFromContext(EnsureInvocationID(ctx)); got != "abc-123" {
		t.Errorf("EnsureInvocationID replaced id: %q", got)
	}

	if got := InvocationIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}
