package agent

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNotificationTool_Execute(t *testing.T) {
	var gotTitle, gotMessage string
	tc := &ToolContext{
		Notify: func(title, message string) {
			gotTitle = title
			gotMessage = message
		},
	}

	args, _ := json.Marshal(map[string]string{"title": "Reminder", "message": "Call back later"})
	result, err := NotificationTool{}.Execute(context.Background(), tc, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTitle != "Reminder" || gotMessage != "Call back later" {
		t.Fatalf("Notify not called with expected args, got title=%q message=%q", gotTitle, gotMessage)
	}
	if result == "" {
		t.Fatal("expected a non-empty confirmation string")
	}
}

func TestNotificationTool_ExecuteWithNilNotify(t *testing.T) {
	tc := &ToolContext{}
	args, _ := json.Marshal(map[string]string{"title": "T", "message": "M"})

	if _, err := NotificationTool{}.Execute(context.Background(), tc, args); err != nil {
		t.Fatalf("expected no error even with nil Notify, got %v", err)
	}
}
