// internal/workers/entitlements/check-feature-access/handler.go
package checkfeatureaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/metrics"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/entitlements"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-feature-access"
)

// UsageSource loads a user's tier and counters.
type UsageSource interface {
	Load(ctx context.Context, userID string) (usage.Snapshot, error)
}

type Handler struct {
	config     *Config
	usage      UsageSource
	evaluator  *entitlements.Evaluator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, source UsageSource, evaluator *entitlements.Evaluator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		usage:      source,
		evaluator:  evaluator,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
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

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}
	feature := entitlements.Feature(input.Feature)
	if !h.evaluator.Catalog().HasFeature(feature) {
		return nil, apperrors.NewFeatureUnknownError(input.Feature)
	}

	snap, err := h.usage.Load(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.NewEntitlementCheckFailedError(err)
	}

	tier, err := entitlements.ParseTier(snap.Tier)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	decision, err := h.evaluator.Check(tier, snap.Usage(), feature)
	if err != nil {
		if errors.Is(err, entitlements.ErrUnknownTier) {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("user %s is on unknown tier %q", input.UserID, snap.Tier))
		}
		return nil, apperrors.NewEntitlementCheckFailedError(err)
	}
	metrics.ObserveFeatureCheck(string(tier), string(feature), decision.Allowed)

	h.logger.Debug("feature checked", map[string]interface{}{
		"userId":  input.UserID,
		"tier":    tier,
		"feature": feature,
		"allowed": decision.Allowed,
	})

	if input.Enforce && !decision.Allowed {
		return nil, apperrors.NewFeatureAccessDeniedError(string(feature), string(tier), string(decision.RequiredTier))
	}

	return &Output{
		Allowed:      decision.Allowed,
		Remaining:    decision.Remaining,
		Tier:         string(decision.Tier),
		Feature:      string(decision.Feature),
		RequiredTier: string(decision.RequiredTier),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
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

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
