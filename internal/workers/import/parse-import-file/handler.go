// internal/workers/import/parse-import-file/handler.go
package parseimportfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	awsclient "subtrack-workers/internal/common/aws"
	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/importer"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-import-file"
)

type Handler struct {
	config     *Config
	s3         awsclient.ObjectGetter
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, s3Client awsclient.ObjectGetter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		s3:         s3Client,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Key == "" {
		return nil, apperrors.NewInvalidInputError("key is required")
	}
	bucket := input.Bucket
	if bucket == "" {
		bucket = h.config.Bucket
	}
	name := input.FileName
	if name == "" {
		name = input.Key
	}
	if err := importer.CheckFormat(name); err != nil {
		return nil, apperrors.NewUnsupportedFileFormatError(err.Error())
	}

	obj, err := h.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(input.Key),
	})
	if err != nil {
		if awsclient.IsNotFound(err) {
			return nil, apperrors.NewImportFileNotFoundError(bucket, input.Key)
		}
		return nil, apperrors.NewImportFileReadFailedError(err)
	}
	defer obj.Body.Close()

	body := io.Reader(obj.Body)
	if h.config.MaxFileBytes > 0 {
		body = io.LimitReader(obj.Body, h.config.MaxFileBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewImportFileReadFailedError(err)
	}
	if h.config.MaxFileBytes > 0 && int64(len(data)) > h.config.MaxFileBytes {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("file exceeds %d bytes", h.config.MaxFileBytes))
	}

	parsed, err := importer.ParseFile(name, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) {
			return nil, apperrors.NewInvalidInputError("file is empty")
		}
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	mapping := input.FieldMapping
	autoMapped := false
	if len(mapping) == 0 {
		mapping = importer.AutoMapFields(parsed.Headers)
		autoMapped = true
	}
	missing := importer.MissingRequired(mapping)
	if missing == nil {
		missing = []string{}
	}

	h.logger.Info("import file parsed", map[string]interface{}{
		"userId":          input.UserID,
		"key":             input.Key,
		"rows":            parsed.TotalRows,
		"mappedFields":    len(mapping),
		"missingRequired": missing,
	})

	return &Output{
		Headers:         parsed.Headers,
		Rows:            parsed.Rows,
		TotalRows:       parsed.TotalRows,
		FieldMapping:    mapping,
		MissingRequired: missing,
		AutoMapped:      autoMapped,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
