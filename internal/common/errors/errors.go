// Package errors maps worker failures onto BPMN error codes and retry counts.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is the code thrown to the process engine.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"

	ErrCodeFeatureAccessDenied    ErrorCode = "FEATURE_ACCESS_DENIED"
	ErrCodeFeatureUnknown         ErrorCode = "FEATURE_UNKNOWN"
	ErrCodeEntitlementCheckFailed ErrorCode = "ENTITLEMENT_CHECK_FAILED"
	ErrCodeSubscriptionLimit      ErrorCode = "SUBSCRIPTION_LIMIT_EXCEEDED"

	ErrCodeUnsupportedFileFormat ErrorCode = "UNSUPPORTED_FILE_FORMAT"
	ErrCodeImportFileNotFound    ErrorCode = "IMPORT_FILE_NOT_FOUND"
	ErrCodeImportFileReadFailed  ErrorCode = "IMPORT_FILE_READ_FAILED"
	ErrCodeImportTooLarge        ErrorCode = "IMPORT_TOO_LARGE"
	ErrCodeImportMappingInvalid  ErrorCode = "IMPORT_MAPPING_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeIndexFailed              ErrorCode = "INDEX_FAILED"

	ErrCodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError is a classified worker failure.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error variables sent to the engine.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is what the handler throws or fails the job with.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables set on the failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job variables failed validation", details, false)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Could not decode job variables", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// NewFeatureAccessDeniedError carries the tier that would grant the feature.
func NewFeatureAccessDeniedError(feature, tier, requiredTier string) *StandardError {
	e := newError(ErrCodeFeatureAccessDenied, "Feature not available on current plan",
		fmt.Sprintf("feature: %s, tier: %s", feature, tier), false)
	e.WithMetadata("feature", feature).WithMetadata("tier", tier)
	if requiredTier != "" {
		e.WithMetadata("requiredTier", requiredTier)
	}
	return e
}

func NewFeatureUnknownError(feature string) *StandardError {
	return newError(ErrCodeFeatureUnknown, "Feature is not part of the plan catalog",
		fmt.Sprintf("feature: %s", feature), false)
}

func NewEntitlementCheckFailedError(err error) *StandardError {
	return newError(ErrCodeEntitlementCheckFailed, "Could not load plan or usage", err.Error(), true)
}

func NewSubscriptionLimitError(requested, remaining int) *StandardError {
	e := newError(ErrCodeSubscriptionLimit, "Import exceeds the subscription limit of the current plan",
		fmt.Sprintf("requested: %d, remaining: %d", requested, remaining), false)
	return e.WithMetadata("requested", requested).WithMetadata("remaining", remaining)
}

func NewUnsupportedFileFormatError(details string) *StandardError {
	return newError(ErrCodeUnsupportedFileFormat, "Unsupported file format. Please use CSV or Excel (.xlsx) files.", details, false)
}

func NewImportFileNotFoundError(bucket, key string) *StandardError {
	return newError(ErrCodeImportFileNotFound, "Import file not found",
		fmt.Sprintf("bucket: %s, key: %s", bucket, key), false)
}

func NewImportFileReadFailedError(err error) *StandardError {
	return newError(ErrCodeImportFileReadFailed, "Failed to read import file", err.Error(), true)
}

func NewImportTooLargeError(rows, max int) *StandardError {
	return newError(ErrCodeImportTooLarge, "Import file has too many rows",
		fmt.Sprintf("rows: %d, max: %d", rows, max), false)
}

func NewImportMappingInvalidError(err error) *StandardError {
	return newError(ErrCodeImportMappingInvalid, "Field mapping does not fit the import file", err.Error(), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Failed to insert records", err.Error(), true)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Search indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewUserNotFoundError(userID string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", fmt.Sprintf("userId: %s", userID), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns how many times a code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeEntitlementCheckFailed,
		ErrCodeImportFileReadFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError keeps the code as-is; BPMN codes equal internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logs and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "FEATURE") || strings.Contains(s, "ENTITLEMENT") || strings.Contains(s, "LIMIT"):
		return "ENTITLEMENT"
	case strings.HasPrefix(s, "IMPORT") || strings.Contains(s, "FILE"):
		return "IMPORT"
	case strings.Contains(s, "DATABASE"):
		return "DATABASE"
	case strings.Contains(s, "INDEX"):
		return "SEARCH"
	case strings.Contains(s, "NOTIFICATION") || strings.Contains(s, "USER"):
		return "NOTIFICATION"
	case strings.Contains(s, "INVALID") || strings.Contains(s, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
