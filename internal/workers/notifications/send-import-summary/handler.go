// internal/workers/notifications/send-import-summary/handler.go
package sendimportsummary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awsclient "subtrack-workers/internal/common/aws"
	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/validation"
	"subtrack-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-import-summary"
)

const contactQuery = `SELECT email, COALESCE(phone, ''), sms_enabled FROM users WHERE id = $1`

type Handler struct {
	config     *Config
	db         *sql.DB
	email      awsclient.EmailSender
	sms        awsclient.SMSPublisher
	templates  *compiled
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, email awsclient.EmailSender, sms awsclient.SMSPublisher, log logger.Logger) (*Handler, error) {
	tpl, err := loadTemplate(config.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		email:      email,
		sms:        sms,
		templates:  tpl,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}, nil
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

	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         models.StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	contact, err := h.lookupContact(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewUserNotFoundError(input.UserID)
		}
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	data := h.summary(input)

	if h.config.EmailEnabled && validation.ValidateEmail(contact.Email) {
		subject, err := render(h.templates.subject, data)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		body, err := render(h.templates.body, data)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if _, err := h.email.SendEmail(ctx, awsclient.PlainEmail(h.config.FromEmail, contact.Email, subject, body)); err != nil {
			return nil, apperrors.NewNotificationSendFailedError(models.ChannelEmail, err)
		}
		out.Channels = append(out.Channels, models.ChannelEmail)
	}

	// SMS only goes out when rows were skipped; a failure there does not
	// undo the email.
	if h.wantsSMS(contact, input) {
		text, err := render(h.templates.sms, data)
		if err == nil {
			_, err = h.sms.Publish(ctx, awsclient.TextMessage(contact.Phone, h.config.SenderID, text))
		}
		if err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
			if len(out.Channels) > 0 {
				out.Status = models.StatusPartial
				return out, nil
			}
			return nil, apperrors.NewNotificationSendFailedError(models.ChannelSMS, err)
		}
		out.Channels = append(out.Channels, models.ChannelSMS)
	}

	if len(out.Channels) > 0 {
		out.Status = models.StatusSent
	}

	h.logger.Info("import summary sent", map[string]interface{}{
		"userId":   input.UserID,
		"status":   out.Status,
		"channels": out.Channels,
	})
	return out, nil
}

func (h *Handler) lookupContact(ctx context.Context, userID string) (models.Contact, error) {
	c := models.Contact{UserID: userID}
	err := h.db.QueryRowContext(ctx, contactQuery, userID).Scan(&c.Email, &c.Phone, &c.SMSEnabled)
	return c, err
}

func (h *Handler) wantsSMS(c models.Contact, input *Input) bool {
	return h.config.SMSEnabled &&
		h.templates.sms != nil &&
		c.SMSEnabled &&
		input.RejectedRows > 0 &&
		validation.ValidatePhone(c.Phone)
}

func (h *Handler) summary(input *Input) summaryData {
	data := summaryData{
		FileName:     input.FileName,
		TotalRows:    input.TotalRows,
		CreatedCount: input.CreatedCount,
		RejectedRows: input.RejectedRows,
		Errors:       input.Errors,
	}
	if limit := h.config.MaxErrors; limit > 0 && len(data.Errors) > limit {
		data.MoreErrors = len(data.Errors) - limit
		data.Errors = data.Errors[:limit]
	}
	return data
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	h.errHandler.HandleJobError(ctx, client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
