package scheduler

import (
	"context"
	"fmt"
	"time"

	"marketplace_admin_backend/platform/config"
	"marketplace_admin_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues deferred lead tasks. It implements the intake module's
// FollowUpScheduler interface.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient connects to Redis using the configured URL.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// ScheduleLeadFollowUp enqueues a follow-up check to run after the delay.
func (c *Client) ScheduleLeadFollowUp(ctx context.Context, leadID uuid.UUID, delay time.Duration) error {
	task, err := NewLeadFollowUpTask(leadID)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueue follow-up for lead %s: %w", leadID, err)
	}

	c.log.Debug("scheduled lead follow-up", "lead_id", leadID.String(), "task_id", info.ID, "delay", delay.String())
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// redisClientOpt parses a redis:// URL into asynq connection options.
func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:     opt.Addr,
		Username: opt.Username,
		Password: opt.Password,
		DB:       opt.DB,
	}, nil
}
