// internal/workers/import/create-subscription-records/handler.go
package createsubscriptionrecords

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/entitlements"
	"subtrack-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-subscription-records"
)

const insertSubscription = `INSERT INTO subscriptions (
	id, user_id, name, category, status, plan_name, monthly_cost, billing_cycle,
	renewal_date, payment_method, notes, last_used, priority, deactivation_date,
	source, import_id, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// lockUser serialises imports per user for the rest of the transaction.
const lockUser = `SELECT COALESCE(p.tier, 'free') FROM users u
	LEFT JOIN user_plans p ON p.user_id = u.id
	WHERE u.id = $1 FOR UPDATE OF u`

const countSubscriptions = `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`

// UsageStore loads counters and drops the cached copy once they change.
type UsageStore interface {
	Load(ctx context.Context, userID string) (usage.Snapshot, error)
	Invalidate(ctx context.Context, userID string) error
}

type Handler struct {
	config     *Config
	db         *sql.DB
	usage      UsageStore
	evaluator  *entitlements.Evaluator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
	newID      func() string
}

func NewHandler(config *Config, db *sql.DB, store UsageStore, evaluator *entitlements.Evaluator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		usage:      store,
		evaluator:  evaluator,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.fail(ctx, client, job, apperrors.NewParseError(err))
	}

	execCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(execCtx, &input)
	if err != nil {
		return h.fail(ctx, client, job, err)
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return h.fail(ctx, client, job, apperrors.NewInternalError(err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	snap, err := h.usage.Load(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.NewEntitlementCheckFailedError(err)
	}
	tier, err := entitlements.ParseTier(snap.Tier)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	remaining, err := h.evaluator.RemainingLimit(tier, snap.Usage(), entitlements.FeatureMaxSubscriptions)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("user %s: %v", input.UserID, err))
	}

	// The cached counters only reject early. insert re-checks under a lock.
	requested := len(input.ValidRecords)
	if remaining != nil && requested > *remaining {
		return nil, apperrors.NewSubscriptionLimitError(requested, *remaining)
	}
	if requested == 0 {
		return &Output{CreatedIDs: []string{}, Subscriptions: []models.Subscription{}, Remaining: remaining}, nil
	}

	subs, remaining, err := h.insert(ctx, input, snap.TeamMembers)
	if err != nil {
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) {
			return nil, stdErr
		}
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	h.writeAudit(ctx, input, len(subs))
	if err := h.usage.Invalidate(ctx, input.UserID); err != nil {
		h.logger.Warn("usage cache invalidation failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	if remaining != nil {
		left := *remaining - len(subs)
		remaining = &left
	}

	h.logger.Info("subscriptions created", map[string]interface{}{
		"userId":   input.UserID,
		"importId": input.ImportID,
		"count":    len(subs),
	})

	return &Output{
		CreatedIDs:    ids,
		CreatedCount:  len(subs),
		Subscriptions: subs,
		Remaining:     remaining,
	}, nil
}

// insert writes every record in one transaction. The user row stays locked
// until commit, so the quota is checked against counts no concurrent import
// can change. It returns the remaining quota before the insert.
func (h *Handler) insert(ctx context.Context, input *Input, teamMembers int) ([]models.Subscription, *int, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var tierName string
	if err := tx.QueryRowContext(ctx, lockUser, input.UserID).Scan(&tierName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperrors.NewUserNotFoundError(input.UserID)
		}
		return nil, nil, fmt.Errorf("lock user: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, countSubscriptions, input.UserID).Scan(&count); err != nil {
		return nil, nil, fmt.Errorf("count subscriptions: %w", err)
	}

	tier, err := entitlements.ParseTier(tierName)
	if err != nil {
		return nil, nil, apperrors.NewInvalidInputError(err.Error())
	}
	remaining, err := h.evaluator.RemainingLimit(tier, entitlements.NewUsage(count, teamMembers), entitlements.FeatureMaxSubscriptions)
	if err != nil {
		return nil, nil, apperrors.NewInvalidInputError(fmt.Sprintf("user %s: %v", input.UserID, err))
	}
	if requested := len(input.ValidRecords); remaining != nil && requested > *remaining {
		return nil, nil, apperrors.NewSubscriptionLimitError(requested, *remaining)
	}

	stmt, err := tx.PrepareContext(ctx, insertSubscription)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := h.now()
	subs := make([]models.Subscription, 0, len(input.ValidRecords))
	for i, rec := range input.ValidRecords {
		sub := models.NewImportedSubscription(h.newID(), input.UserID, input.ImportID, rec, now)
		if _, err := stmt.ExecContext(ctx,
			sub.ID, sub.UserID, rec.SubscriptionName, rec.Category, rec.Status, rec.PlanName,
			rec.MonthlyCost, rec.BillingCycle, rec.RenewalDate, rec.PaymentMethod, rec.Notes,
			rec.LastUsed, rec.Priority, rec.DeactivationDate, sub.Source, nullable(sub.ImportID), sub.CreatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("insert record %d: %w", i+1, err)
		}
		subs = append(subs, sub)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return subs, remaining, nil
}

// writeAudit is best effort; the records are already committed.
func (h *Handler) writeAudit(ctx context.Context, input *Input, count int) {
	details, _ := json.Marshal(map[string]interface{}{
		"importId": input.ImportID,
		"count":    count,
	})
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"subscriptions_imported",
		"user",
		input.UserID,
		details,
		h.now().UTC(),
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":  err.Error(),
			"userId": input.UserID,
		})
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
