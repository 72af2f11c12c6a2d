package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/gatherhall/backend/config"
	"github.com/gatherhall/backend/internal/models"
	"github.com/gatherhall/backend/internal/notifications"
	"github.com/gatherhall/backend/pkg/queue"
)

// EmailProcessor drains the email queue: sends RSVP notifications over SMTP
// and records the outcome in email_logs. Throttled to the configured
// sends-per-minute so a burst of decisions does not trip provider limits.
type EmailProcessor struct {
	repo   *notifications.Repository
	queue  *queue.Queue
	cfg    config.EmailConfig
	send   SendFunc
	logger *zap.Logger
}

// SendFunc delivers one message. Split out so tests can stub SMTP.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NewEmailProcessor creates an email dispatch processor. sendFn defaults to smtp.SendMail.
func NewEmailProcessor(repo *notifications.Repository, q *queue.Queue, cfg config.EmailConfig, sendFn SendFunc, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sendFn == nil {
		sendFn = smtp.SendMail
	}
	return &EmailProcessor{repo: repo, queue: q, cfg: cfg, send: sendFn, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	el := &models.EmailLog{
		EventID:        &payload.EventID,
		RSVPRequestID:  &payload.RSVPRequestID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
	}
	if err := p.repo.Create(ctx, el); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}

	if err := p.deliver(payload); err != nil {
		if dbErr := p.repo.MarkFailed(ctx, el.ID, err.Error()); dbErr != nil {
			p.logger.Error("mark email failed", zap.Error(dbErr), zap.String("email_log_id", el.ID.String()))
		}
		return fmt.Errorf("send email: %w", err)
	}
	if err := p.repo.MarkSent(ctx, el.ID, time.Now()); err != nil {
		p.logger.Error("mark email sent", zap.Error(err), zap.String("email_log_id", el.ID.String()))
	}
	return nil
}

func (p *EmailProcessor) deliver(payload queue.EmailPayload) error {
	if p.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)
	var auth smtp.Auth
	if p.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.cfg.SMTPUser, p.cfg.SMTPPass, p.cfg.SMTPHost)
	}
	msg := []byte("From: " + p.cfg.FromName + " <" + p.cfg.FromAddress + ">\r\n" +
		"To: " + payload.RecipientEmail + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		payload.BodyHTML + "\r\n")
	return p.send(addr, auth, p.cfg.FromAddress, []string{payload.RecipientEmail}, msg)
}

// Run dequeues and processes jobs until ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	var gap time.Duration
	if p.cfg.SendsPerMinute > 0 {
		gap = time.Minute / time.Duration(p.cfg.SendsPerMinute)
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := p.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("email job failed", zap.Error(err), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
		if gap > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(gap):
			}
		}
	}
}
