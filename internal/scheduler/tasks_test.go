package scheduler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestLeadFollowUpTaskRoundTrip(t *testing.T) {
	leadID := uuid.New()

	task, err := NewLeadFollowUpTask(leadID)
	if err != nil {
		t.Fatalf("NewLeadFollowUpTask: %v", err)
	}
	if task.Type() != TypeLeadFollowUp {
		t.Fatalf("task type = %q, want %q", task.Type(), TypeLeadFollowUp)
	}

	payload, err := parseLeadFollowUpPayload(task)
	if err != nil {
		t.Fatalf("parseLeadFollowUpPayload: %v", err)
	}
	if payload.LeadID != leadID {
		t.Fatalf("lead id = %s, want %s", payload.LeadID, leadID)
	}
}

func TestParseLeadFollowUpPayloadRejectsGarbage(t *testing.T) {
	if _, err := parseLeadFollowUpPayload(asynq.NewTask(TypeLeadFollowUp, []byte("not json"))); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestParseLeadFollowUpPayloadRejectsNilLeadID(t *testing.T) {
	task, err := NewLeadFollowUpTask(uuid.Nil)
	if err != nil {
		t.Fatalf("NewLeadFollowUpTask: %v", err)
	}
	if _, err := parseLeadFollowUpPayload(task); err == nil {
		t.Fatal("expected error for nil lead id")
	}
}
