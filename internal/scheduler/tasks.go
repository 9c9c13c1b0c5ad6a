// Package scheduler provides asynq-backed deferred jobs for the lead
// pipeline. The API process enqueues tasks through Client; the worker
// binary consumes them through Worker.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeLeadFollowUp is the task type for the deferred lead follow-up check.
const TypeLeadFollowUp = "lead:follow_up"

// LeadFollowUpPayload is the task payload for a follow-up check.
type LeadFollowUpPayload struct {
	LeadID uuid.UUID `json:"leadId"`
}

// NewLeadFollowUpTask builds a follow-up task for the given lead.
func NewLeadFollowUpTask(leadID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(LeadFollowUpPayload{LeadID: leadID})
	if err != nil {
		return nil, fmt.Errorf("marshal follow-up payload: %w", err)
	}
	return asynq.NewTask(TypeLeadFollowUp, payload), nil
}

func parseLeadFollowUpPayload(task *asynq.Task) (LeadFollowUpPayload, error) {
	var payload LeadFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadFollowUpPayload{}, fmt.Errorf("unmarshal follow-up payload: %w", err)
	}
	if payload.LeadID == uuid.Nil {
		return LeadFollowUpPayload{}, fmt.Errorf("follow-up payload missing lead id")
	}
	return payload, nil
}
