// internal/workers/import/index-subscriptions/handler.go
package indexsubscriptions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "index-subscriptions"
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     client,
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

// execute bulk-indexes the documents by id. Per-document rejections are
// reported in the output; only a failed request fails the job.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{FailedIDs: []string{}}
	if len(input.Subscriptions) == 0 {
		return out, nil
	}

	body, err := bulkBody(input)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	res, err := h.client.Bulk(
		bytes.NewReader(body),
		h.client.Bulk.WithContext(ctx),
		h.client.Bulk.WithIndex(h.config.IndexName),
		h.client.Bulk.WithRefresh(h.config.Refresh),
	)
	if err != nil {
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, fmt.Errorf("bulk request: %s", res.Status()))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, fmt.Errorf("decode bulk response: %w", err))
	}

	for _, item := range parsed.Items {
		for _, result := range item {
			if result.Error != nil || result.Status >= 300 {
				out.Failed++
				out.FailedIDs = append(out.FailedIDs, result.ID)
				reason := ""
				if result.Error != nil {
					reason = result.Error.Reason
				}
				h.logger.Warn("document rejected", map[string]interface{}{
					"id":     result.ID,
					"status": result.Status,
					"reason": reason,
				})
				continue
			}
			out.Indexed++
		}
	}

	h.logger.Info("subscriptions indexed", map[string]interface{}{
		"userId":  input.UserID,
		"index":   h.config.IndexName,
		"indexed": out.Indexed,
		"failed":  out.Failed,
	})
	return out, nil
}

func bulkBody(input *Input) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, sub := range input.Subscriptions {
		meta := map[string]map[string]string{"index": {"_id": sub.ID}}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		if err := enc.Encode(sub); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
