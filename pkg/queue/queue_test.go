package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, zap.NewNop()), mr
}

func TestEnqueueDequeueEmail(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	payload := EmailPayload{
		EmailType:      "rsvp_request_approved",
		EventID:        uuid.New(),
		RSVPRequestID:  uuid.New(),
		RecipientEmail: "guest@example.com",
		Subject:        "Your request was approved",
	}
	if err := q.EnqueueEmail(ctx, payload); err != nil {
		t.Fatalf("EnqueueEmail() error = %v", err)
	}

	job, err := q.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if job == nil {
		t.Fatal("Dequeue() returned nil job")
	}
	if job.Type != JobTypeEmail {
		t.Errorf("job type got = %v, want %v", job.Type, JobTypeEmail)
	}
	var got EmailPayload
	if err := json.Unmarshal(job.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.RecipientEmail != payload.RecipientEmail {
		t.Errorf("recipient got = %q, want %q", got.RecipientEmail, payload.RecipientEmail)
	}
	if got.EventID != payload.EventID {
		t.Errorf("event id got = %v, want %v", got.EventID, payload.EventID)
	}
}

func TestRetryMovesToDLQAfterMaxRetries(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	job := &Job{
		ID:        uuid.New().String(),
		Type:      JobTypeEmail,
		Payload:   json.RawMessage(`{}`),
		Attempt:   0,
		CreatedAt: time.Now(),
	}

	// First retries go back on the email queue.
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if n, _ := mr.List(QueueEmails); len(n) != 1 {
		t.Fatalf("emails queue length got = %d, want 1", len(n))
	}

	mr.FlushAll()
	job.Attempt = MaxRetries - 1
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if n, _ := mr.List(QueueEmails); len(n) != 0 {
		t.Errorf("emails queue length got = %d, want 0", len(n))
	}
	if n, _ := mr.List(QueueDLQ); len(n) != 1 {
		t.Errorf("dlq length got = %d, want 1", len(n))
	}
}
