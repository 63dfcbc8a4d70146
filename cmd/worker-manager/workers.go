// cmd/worker-manager/workers.go
package main

import (
	"database/sql"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"

	awsclient "subtrack-workers/internal/common/aws"
	"subtrack-workers/internal/common/camunda"
	"subtrack-workers/internal/common/config"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/observability"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/entitlements"
	"subtrack-workers/pkg/registry"

	cfa "subtrack-workers/internal/workers/entitlements/check-feature-access"
	csr "subtrack-workers/internal/workers/import/create-subscription-records"
	isx "subtrack-workers/internal/workers/import/index-subscriptions"
	pif "subtrack-workers/internal/workers/import/parse-import-file"
	vib "subtrack-workers/internal/workers/import/validate-import-batch"
	sis "subtrack-workers/internal/workers/notifications/send-import-summary"
)

// dependencies are the shared clients handed to the workers.
type dependencies struct {
	db        *sql.DB
	es        *elasticsearch.Client
	s3        awsclient.ObjectGetter
	ses       awsclient.EmailSender
	sns       awsclient.SMSPublisher
	evaluator *entitlements.Evaluator
	usage     *usage.Store
	registry  *registry.ActivityRegistry
	schemas   *validation.SchemaValidator
}

type workerSpec struct {
	taskType string
	build    func(cfg *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error)
}

var workerSpecs = []workerSpec{
	{cfa.TaskType, buildCheckFeatureAccess},
	{pif.TaskType, buildParseImportFile},
	{vib.TaskType, buildValidateImportBatch},
	{csr.TaskType, buildCreateSubscriptionRecords},
	{isx.TaskType, buildIndexSubscriptions},
	{sis.TaskType, buildSendImportSummary},
}

func buildCheckFeatureAccess(_ *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	return cfa.NewHandler(&cfa.Config{Timeout: config.GetDuration(wcfg.Timeout)}, d.usage, d.evaluator, log), nil
}

func buildParseImportFile(cfg *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	return pif.NewHandler(&pif.Config{
		Timeout:      config.GetDuration(wcfg.Timeout),
		Bucket:       cfg.Storage.Bucket,
		MaxFileBytes: cfg.Import.MaxFileBytes,
	}, d.s3, log), nil
}

func buildValidateImportBatch(cfg *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	return vib.NewHandler(&vib.Config{
		Timeout:       config.GetDuration(wcfg.Timeout),
		MaxRows:       cfg.Import.MaxRows,
		DefaultPolicy: cfg.Import.DefaultPolicy,
		InputSchema:   d.registry.InputSchema(vib.TaskType),
	}, d.schemas, log), nil
}

func buildCreateSubscriptionRecords(_ *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	return csr.NewHandler(&csr.Config{Timeout: config.GetDuration(wcfg.Timeout)}, d.db, d.usage, d.evaluator, log), nil
}

func buildIndexSubscriptions(cfg *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	return isx.NewHandler(&isx.Config{
		Timeout:   config.GetDuration(wcfg.Timeout),
		IndexName: cfg.Import.IndexName,
		Refresh:   "false",
	}, d.es, log), nil
}

func buildSendImportSummary(cfg *config.Config, wcfg config.WorkerConfig, d *dependencies, log logger.Logger) (camunda.JobHandler, error) {
	n := cfg.Notifications
	return sis.NewHandler(&sis.Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SenderID:     n.SMS.SenderID,
		MaxErrors:    n.MaxErrorsInSummary,
		TemplatePath: n.TemplatesPath,
		Timeout:      config.GetDuration(wcfg.Timeout),
	}, d.db, d.ses, d.sns, log)
}

// buildHandlers constructs a handler for every enabled task type.
func buildHandlers(cfg *config.Config, d *dependencies, log logger.Logger) (map[string]camunda.JobHandler, error) {
	handlers := make(map[string]camunda.JobHandler)
	for _, ws := range workerSpecs {
		if !config.IsWorkerEnabled(cfg, ws.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": ws.taskType})
			continue
		}
		h, err := ws.build(cfg, config.GetWorkerConfig(cfg, ws.taskType), d, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s handler: %w", ws.taskType, err)
		}
		handlers[ws.taskType] = h
	}
	return handlers, nil
}

func startWorkers(cfg *config.Config, d *dependencies, client zbc.Client, obs *observability.Observability, log logger.Logger) ([]*camunda.CamundaWorker, error) {
	handlers, err := buildHandlers(cfg, d, log)
	if err != nil {
		return nil, err
	}

	var workers []*camunda.CamundaWorker
	for _, ws := range workerSpecs {
		h, ok := handlers[ws.taskType]
		if !ok {
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, ws.taskType)
		workers = append(workers, camunda.NewWorker(client, ws.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, h, obs, log))
	}
	return workers, nil
}
