// internal/workers/import/validate-import-batch/handler.go
package validateimportbatch

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/metrics"
	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/importer"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-import-batch"
)

type Handler struct {
	config     *Config
	schemas    *validation.SchemaValidator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, schemas *validation.SchemaValidator, log logger.Logger) *Handler {
	if config.InputSchema == nil {
		config.InputSchema = DefaultInputSchema()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		schemas:    schemas,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &document); err != nil {
		return h.fail(ctx, client, job, apperrors.NewParseError(err))
	}
	if err := h.ValidateVariables(document); err != nil {
		return h.fail(ctx, client, job, err)
	}

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

// ValidateVariables checks raw job variables against the input schema.
func (h *Handler) ValidateVariables(document map[string]interface{}) error {
	res, err := h.schemas.Validate(TaskType, h.config.InputSchema, document)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
	}
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if h.config.MaxRows > 0 && len(input.Rows) > h.config.MaxRows {
		return nil, apperrors.NewImportTooLargeError(len(input.Rows), h.config.MaxRows)
	}

	policyName := input.Policy
	if policyName == "" {
		policyName = h.config.DefaultPolicy
	}
	policy, err := importer.PolicyByName(policyName)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	rows := make([]importer.Row, len(input.Rows))
	for i, values := range input.Rows {
		rows[i] = importer.RowFromValues(values)
	}

	result, err := importer.NewValidator(policy).ValidateBatch(rows, input.FieldMapping)
	if err != nil {
		return nil, apperrors.NewImportMappingInvalidError(err)
	}
	metrics.ObserveImportRows(result.Policy, len(result.ValidRecords), result.Rejected)

	h.logger.Info("import batch validated", map[string]interface{}{
		"userId":   input.UserID,
		"policy":   result.Policy,
		"total":    result.TotalRows,
		"valid":    len(result.ValidRecords),
		"rejected": result.Rejected,
		"errors":   len(result.Errors),
	})

	return &Output{
		ValidRecords: result.ValidRecords,
		Errors:       result.Errors,
		ValidCount:   len(result.ValidRecords),
		ErrorCount:   len(result.Errors),
		RejectedRows: result.Rejected,
		TotalRows:    result.TotalRows,
		Policy:       result.Policy,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
