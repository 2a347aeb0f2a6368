package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/horizon-mentorship/backend/internal/models"
	"github.com/horizon-mentorship/backend/pkg/email"
	"github.com/horizon-mentorship/backend/pkg/queue"
)

// RecipientStore resolves alert recipients and records delivery attempts.
// *alerts.Repository satisfies it.
type RecipientStore interface {
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	LogNotification(ctx context.Context, log *models.NotificationLog) error
}

// NotificationProcessor delivers queued operational alerts: resolve the
// recipient role to users, email each one, record the outcome.
type NotificationProcessor struct {
	repo   RecipientStore
	sender email.Sender
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(repo RecipientStore, sender email.Sender, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, sender: sender, queue: q, logger: logger}
}

// Process executes one notification job. Individual send failures are
// recorded per recipient; the job only fails (and retries) when no
// recipient could be reached at all.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	recipients, err := p.repo.ListByRole(ctx, payload.RecipientRole)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		p.logger.Warn("no recipients for alert role", zap.String("role", payload.RecipientRole))
		return nil
	}

	delivered := 0
	for _, u := range recipients {
		status := "sent"
		if err := p.sender.Send(u.Email, payload.Subject, payload.Body); err != nil {
			status = "failed"
			p.logger.Error("alert send failed", zap.Error(err), zap.String("email", u.Email))
		} else {
			delivered++
		}
		logErr := p.repo.LogNotification(ctx, &models.NotificationLog{
			RecipientRole:  payload.RecipientRole,
			RecipientEmail: u.Email,
			Subject:        payload.Subject,
			Body:           payload.Body,
			Status:         status,
		})
		if logErr != nil {
			p.logger.Error("notification log failed", zap.Error(logErr))
		}
	}
	if delivered == 0 {
		return fmt.Errorf("all %d sends failed", len(recipients))
	}

	p.logger.Info("alert delivered",
		zap.String("job_id", job.ID),
		zap.String("role", payload.RecipientRole),
		zap.Int("recipients", delivered))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
