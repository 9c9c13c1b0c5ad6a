package scheduler

import (
	"context"
	"testing"
	"time"

	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func TestClientSchedulesFollowUpTask(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		RedisURL:         "redis://" + mr.Addr(),
		AsynqQueueName:   "default",
		AsynqConcurrency: 1,
	}

	client, err := NewClient(cfg, logger.New("development"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.ScheduleLeadFollowUp(context.Background(), uuid.New(), 48*time.Hour); err != nil {
		t.Fatalf("ScheduleLeadFollowUp: %v", err)
	}

	if len(mr.Keys()) == 0 {
		t.Fatal("expected the scheduled task to be persisted in redis")
	}
}

func TestNewClientRejectsBadRedisURL(t *testing.T) {
	cfg := &config.Config{RedisURL: "not-a-url", AsynqQueueName: "default"}
	if _, err := NewClient(cfg, logger.New("development")); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}
