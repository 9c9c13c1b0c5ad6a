package scheduler

import (
	"context"
	"errors"

	"marketplace_admin_backend/internal/events"
	leadrepo "marketplace_admin_backend/internal/leads/repository"
	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadReader is the slice of the leads repository the worker needs.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
}

// Worker consumes scheduled lead tasks and re-publishes them as domain
// events on the in-process bus, where the notification module picks
// them up.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadReader
	bus    events.Bus
	log    *logger.Logger
}

// NewWorker builds an asynq server bound to the configured queue.
func NewWorker(cfg config.SchedulerConfig, leads LeadReader, bus events.Bus, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		leads:  leads,
		bus:    bus,
		log:    log,
	}
	w.mux.HandleFunc(TypeLeadFollowUp, w.handleLeadFollowUp)
	return w, nil
}

// Run starts processing tasks and blocks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the server and waits for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleLeadFollowUp re-checks a lead after the follow-up delay. Leads
// that moved past qualification in the meantime are silently skipped, so
// the task is safe to deliver more than once.
func (w *Worker) handleLeadFollowUp(ctx context.Context, task *asynq.Task) error {
	payload, err := parseLeadFollowUpPayload(task)
	if err != nil {
		w.log.Error("bad follow-up task payload", "error", err.Error())
		return nil
	}

	lead, err := w.leads.GetByID(ctx, payload.LeadID)
	if err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			return nil
		}
		return err
	}

	if lead.Stage != "new" && lead.Stage != "qualifying" {
		return nil
	}

	w.log.LeadEvent("follow_up_due", lead.ID.String(), lead.Stage)
	return w.bus.PublishSync(ctx, events.LeadFollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Stage:     lead.Stage,
		Name:      lead.Name,
		OwnerID:   lead.OwnerID,
	})
}
