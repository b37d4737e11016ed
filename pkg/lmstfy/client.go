package lmstfy

import (
	"context"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"

	"oip/quotesync/internal/framework"
)

// publishTries lmstfy deliveries per job. Jobs are dropped after one attempt, so one is enough.
const publishTries = 1

// Client lmstfy queue client. Alternative transport of the jobs channel.
type Client struct {
	cli       *client.LmstfyClient
	namespace string
}

// NewClient creates an lmstfy client for namespace.
func NewClient(host string, port int, namespace string, token string) (*Client, error) {
	if host == "" || namespace == "" {
		return nil, fmt.Errorf("lmstfy host and namespace are required")
	}
	cli := client.NewLmstfyClient(host, port, namespace, token)
	return &Client{
		cli:       cli,
		namespace: namespace,
	}, nil
}

// Consume implements framework.MessageSource.
func (c *Client) Consume(ctx context.Context, queue string, timeout time.Duration, ttr time.Duration) (*framework.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job, err := c.cli.Consume(queue, uint32(ttr.Seconds()), uint32(timeout.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("lmstfy consume failed: %w", err)
	}
	// timed out without a job
	if job == nil {
		return nil, nil
	}

	return &framework.Message{
		ID:    job.ID,
		Queue: job.Queue,
		Data:  job.Data,
		Extra: map[string]interface{}{"namespace": c.namespace},
	}, nil
}

// Ack implements framework.MessageSource.
func (c *Client) Ack(ctx context.Context, queue string, jobID string) error {
	if err := c.cli.Ack(queue, jobID); err != nil {
		return fmt.Errorf("lmstfy ack failed: %w", err)
	}
	return nil
}

// Publish enqueues data on queue and returns the lmstfy job id.
func (c *Client) Publish(ctx context.Context, queue string, data []byte, ttl time.Duration) (string, error) {
	jobID, err := c.cli.Publish(queue, data, uint32(ttl.Seconds()), publishTries, 0)
	if err != nil {
		return "", fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return jobID, nil
}
