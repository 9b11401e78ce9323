package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobIDIdentityCleanup identifies the background job that retries deletion of
// orphaned external identities.
const JobIDIdentityCleanup = "claims.identity.cleanup"

// maxCleanupAttempts bounds the retries per cleanup job. A delete that still
// fails after this many deliveries dead-letters instead of cycling forever;
// the next EnqueueOrphans scan picks the orphan up again.
const maxCleanupAttempts = 5

// OrphanReconciler drains the trail left by failed compensations. A create
// that rolled back but could not delete its external identity records a
// compensation_failed audit entry; the reconciler turns those entries into
// cleanup jobs and processes them with bounded retries, so orphans eventually
// disappear without an operator paging through logs.
type OrphanReconciler struct {
	service  *Service
	enqueuer JobEnqueuer
	dequeuer JobDequeuer
}

func NewOrphanReconciler(service *Service, enqueuer JobEnqueuer, dequeuer JobDequeuer) (*OrphanReconciler, error) {
	if service == nil {
		return nil, fmt.Errorf("core: service is required")
	}
	return &OrphanReconciler{
		service:  service,
		enqueuer: enqueuer,
		dequeuer: dequeuer,
	}, nil
}

// EnqueueOrphans scans recent compensation failures and enqueues a cleanup
// job per orphaned external identity. The audit entry id doubles as the
// idempotency key so repeated scans do not duplicate work.
func (r *OrphanReconciler) EnqueueOrphans(ctx context.Context) (int, error) {
	if r == nil || r.service == nil {
		return 0, fmt.Errorf("core: reconciler is not configured")
	}
	if r.enqueuer == nil {
		return 0, fmt.Errorf("core: job enqueuer is required")
	}

	enqueued := 0
	page := 1
	for {
		entries, err := r.service.ListAuditEntries(ctx, AuditFilter{
			EntityType: accountEntityType,
			Action:     AuditActionCompensationFailed,
			Page:       page,
			PerPage:    100,
		})
		if err != nil {
			return enqueued, err
		}
		for _, entry := range entries.Items {
			externalID := strings.TrimSpace(entry.EntityID)
			if externalID == "" {
				continue
			}
			msg := &JobExecutionMessage{
				JobID: JobIDIdentityCleanup,
				Parameters: map[string]any{
					"external_id":    externalID,
					"audit_entry_id": entry.ID,
				},
				IdempotencyKey: entry.ID,
			}
			if err := r.enqueuer.Enqueue(ctx, msg); err != nil {
				return enqueued, err
			}
			enqueued++
		}
		if !entries.HasNext {
			return enqueued, nil
		}
		page++
	}
}

// ProcessOne takes a single delivery from the queue and retries the external
// identity deletion. "Already gone" counts as success: a delete that reports
// ErrExternalAccountNotFound acks, so an orphan removed by an operator or by
// a prior run that crashed before acking does not cycle. Other failures
// requeue until maxCleanupAttempts, then dead-letter.
func (r *OrphanReconciler) ProcessOne(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("core: reconciler is not configured")
	}
	if r.dequeuer == nil {
		return fmt.Errorf("core: job dequeuer is required")
	}
	if r.service.identityProvider == nil {
		return fmt.Errorf("core: identity provider is required")
	}

	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	msg := delivery.Message()
	if msg == nil || msg.JobID != JobIDIdentityCleanup {
		return delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     "unexpected job id",
		})
	}

	externalID := strings.TrimSpace(fmt.Sprint(msg.Parameters["external_id"]))
	if externalID == "" || externalID == "<nil>" {
		return delivery.Nack(ctx, JobNackOptions{
			DeadLetter: true,
			Reason:     "missing external id",
		})
	}

	if err := r.service.identityProvider.DeleteAccount(ctx, externalID); err != nil {
		if errors.Is(err, ErrExternalAccountNotFound) {
			r.service.logInfo(ctx, "orphaned external identity already removed", map[string]any{
				"external_id": externalID,
			})
			return delivery.Ack(ctx)
		}
		if msg.Attempt+1 >= maxCleanupAttempts {
			r.service.logError(ctx, "orphan cleanup retries exhausted", map[string]any{
				"external_id":              externalID,
				"attempts":                 msg.Attempt + 1,
				"error":                    err.Error(),
				"operator_action_required": true,
			})
			return nackDelivery(ctx, delivery, JobNackOptions{
				DeadLetter: true,
				Reason:     err.Error(),
			}, msg.Attempt)
		}
		r.service.logWarn(ctx, "orphan cleanup attempt failed", map[string]any{
			"external_id": externalID,
			"attempt":     msg.Attempt,
			"error":       err.Error(),
		})
		return nackDelivery(ctx, delivery, JobNackOptions{
			Delay:   30 * time.Second,
			Requeue: true,
			Reason:  err.Error(),
		}, msg.Attempt)
	}

	r.service.logInfo(ctx, "orphaned external identity removed", map[string]any{
		"external_id": externalID,
	})
	return delivery.Ack(ctx)
}

func nackDelivery(ctx context.Context, delivery JobDelivery, opts JobNackOptions, attempt int) error {
	if nacker, ok := delivery.(JobAttemptNacker); ok {
		return nacker.NackForAttempt(ctx, opts, attempt)
	}
	return delivery.Nack(ctx, opts)
}
