package scheduler

import (
	"context"
	"testing"

	"marketplace_admin_backend/internal/events"
	leadrepo "marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadReader struct {
	lead leadrepo.Lead
	err  error
}

func (f *fakeLeadReader) GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	if f.err != nil {
		return leadrepo.Lead{}, f.err
	}
	return f.lead, nil
}

func testSchedulerConfig() config.SchedulerConfig {
	return &config.Config{
		RedisURL:         "redis://localhost:6379/0",
		AsynqQueueName:   "default",
		AsynqConcurrency: 1,
	}
}

func newTestWorker(t *testing.T, leads LeadReader, bus events.Bus) *Worker {
	t.Helper()
	worker, err := NewWorker(testSchedulerConfig(), leads, bus, logger.New("development"))
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return worker
}

func TestFollowUpPublishesEventWhileLeadIsUnqualified(t *testing.T) {
	leadID := uuid.New()
	ownerID := uuid.New()
	reader := &fakeLeadReader{lead: leadrepo.Lead{
		ID:      leadID,
		Name:    "Jane Tester",
		Stage:   "new",
		OwnerID: &ownerID,
	}}

	bus := events.NewInMemoryBus(logger.New("development"))
	var received []events.LeadFollowUpDue
	bus.Subscribe("leads.lead.follow_up_due", events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		received = append(received, e.(events.LeadFollowUpDue))
		return nil
	}))

	worker := newTestWorker(t, reader, bus)
	task, err := NewLeadFollowUpTask(leadID)
	if err != nil {
		t.Fatalf("NewLeadFollowUpTask: %v", err)
	}

	if err := worker.handleLeadFollowUp(context.Background(), task); err != nil {
		t.Fatalf("handleLeadFollowUp: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("published events = %d, want 1", len(received))
	}
	if received[0].LeadID != leadID || received[0].Stage != "new" {
		t.Fatalf("unexpected event %+v", received[0])
	}
	if received[0].OwnerID == nil || *received[0].OwnerID != ownerID {
		t.Fatal("expected owner id to be carried on the event")
	}
}

func TestFollowUpSkipsLeadsPastQualification(t *testing.T) {
	for _, stage := range []string{"qualified", "converted", "disqualified"} {
		t.Run(stage, func(t *testing.T) {
			leadID := uuid.New()
			reader := &fakeLeadReader{lead: leadrepo.Lead{ID: leadID, Name: "Jane", Stage: stage}}

			bus := events.NewInMemoryBus(logger.New("development"))
			published := 0
			bus.Subscribe("leads.lead.follow_up_due", events.HandlerFunc(func(ctx context.Context, e events.Event) error {
				published++
				return nil
			}))

			worker := newTestWorker(t, reader, bus)
			task, err := NewLeadFollowUpTask(leadID)
			if err != nil {
				t.Fatalf("NewLeadFollowUpTask: %v", err)
			}

			if err := worker.handleLeadFollowUp(context.Background(), task); err != nil {
				t.Fatalf("handleLeadFollowUp: %v", err)
			}
			if published != 0 {
				t.Fatalf("published events = %d, want 0", published)
			}
		})
	}
}

func TestFollowUpIgnoresDeletedLeads(t *testing.T) {
	reader := &fakeLeadReader{err: leadrepo.ErrNotFound}
	bus := events.NewInMemoryBus(logger.New("development"))
	worker := newTestWorker(t, reader, bus)

	task, err := NewLeadFollowUpTask(uuid.New())
	if err != nil {
		t.Fatalf("NewLeadFollowUpTask: %v", err)
	}
	if err := worker.handleLeadFollowUp(context.Background(), task); err != nil {
		t.Fatalf("handleLeadFollowUp should swallow missing leads, got %v", err)
	}
}
