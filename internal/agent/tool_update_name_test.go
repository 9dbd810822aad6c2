package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestUpdateNameTool_RequiresNewName(t *testing.T) {
	tc := &ToolContext{PersonID: "alice", UpdateName: func(context.Context, string) error { return nil }}
	args, _ := json.Marshal(map[string]string{})

	result, err := UpdateNameTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == "" {
		t.Fatal("expected an error message in the result")
	}
}

func TestUpdateNameTool_RequiresBoundPerson(t *testing.T) {
	tc := &ToolContext{PersonID: "", UpdateName: func(context.Context, string) error { return nil }}
	args, _ := json.Marshal(map[string]string{"new_name": "Bob"})

	result, err := UpdateNameTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == "" {
		t.Fatal("expected an error message when no person is bound")
	}
}

func TestUpdateNameTool_PropagatesStoreError(t *testing.T) {
	tc := &ToolContext{
		PersonID:   "alice",
		UpdateName: func(context.Context, string) error { return errors.New("db unavailable") },
	}
	args, _ := json.Marshal(map[string]string{"new_name": "Bob"})

	result, err := UpdateNameTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == "" {
		t.Fatal("expected a failure message when UpdateName errors")
	}
}

func TestUpdateNameTool_Success(t *testing.T) {
	var calledWith string
	tc := &ToolContext{
		PersonID: "alice",
		UpdateName: func(_ context.Context, newName string) error {
			calledWith = newName
			return nil
		},
	}
	args, _ := json.Marshal(map[string]string{"new_name": "Bob"})

	if _, err := UpdateNameTool{}.Execute(context.Background(), tc, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calledWith != "Bob" {
		t.Fatalf("expected UpdateName called with Bob, got %q", calledWith)
	}
}
