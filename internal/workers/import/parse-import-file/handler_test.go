// internal/workers/import/parse-import-file/handler_test.go
package parseimportfile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"subtrack-workers/internal/common/camunda/camundatest"
	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/importer"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ==========================
// Test Helper Functions
// ==========================

type mockS3 struct {
	getObject func(ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	calls     []*s3.GetObjectInput
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.calls = append(m.calls, in)
	return m.getObject(ctx, in)
}

func serving(body string) *mockS3 {
	return &mockS3{getObject: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
	}}
}

func failing(err error) *mockS3 {
	return &mockS3{getObject: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return nil, err
	}}
}

func createTestHandler(t *testing.T, s3Client *mockS3) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second, Bucket: "imports", MaxFileBytes: 1 << 20}, s3Client, logger.NewTestLogger(t))
}

const sampleCSV = "Subscription Name,Category,Status,Monthly Cost,Renewal\n" +
	"Netflix,Entertainment,Active,15.99,2024-02-15\n" +
	"Spotify,Music,Active,9.99,\n"

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	return stdErr.Code
}

// ==========================
// Execute
// ==========================

func TestExecute_ParsesAndAutoMaps(t *testing.T) {
	s3Client := serving(sampleCSV)
	h := createTestHandler(t, s3Client)

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", Key: "u1/subs.csv"})
	require.NoError(t, err)

	assert.Equal(t, 2, out.TotalRows)
	assert.True(t, out.AutoMapped)
	assert.Equal(t, 0, out.FieldMapping[importer.FieldSubscriptionName])
	assert.Equal(t, 3, out.FieldMapping[importer.FieldMonthlyCost])
	assert.Equal(t, 4, out.FieldMapping[importer.FieldRenewalDate])
	assert.Empty(t, out.MissingRequired)

	require.Len(t, s3Client.calls, 1)
	assert.Equal(t, "imports", aws.ToString(s3Client.calls[0].Bucket))
}

func TestExecute_KeepsSuppliedMapping(t *testing.T) {
	h := createTestHandler(t, serving(sampleCSV))
	mapping := importer.FieldMapping{importer.FieldSubscriptionName: 0}

	out, err := h.Execute(context.Background(), &Input{Key: "subs.csv", Bucket: "other", FieldMapping: mapping})
	require.NoError(t, err)

	assert.False(t, out.AutoMapped)
	assert.Equal(t, mapping, out.FieldMapping)
	assert.ElementsMatch(t, []string{importer.FieldCategory, importer.FieldStatus, importer.FieldMonthlyCost}, out.MissingRequired)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		s3    *mockS3
		input Input
		code  apperrors.ErrorCode
	}{
		{"missing key", serving(sampleCSV), Input{}, apperrors.ErrCodeInvalidInput},
		{"legacy excel rejected", serving(sampleCSV), Input{Key: "subs.xls"}, apperrors.ErrCodeUnsupportedFileFormat},
		{"corrupt workbook", serving(sampleCSV), Input{Key: "subs.xlsx"}, apperrors.ErrCodeInvalidInput},
		{"file name wins over key", serving(sampleCSV), Input{Key: "abc123", FileName: "subs.pdf"}, apperrors.ErrCodeUnsupportedFileFormat},
		{"missing object", failing(&types.NoSuchKey{}), Input{Key: "gone.csv"}, apperrors.ErrCodeImportFileNotFound},
		{"s3 unavailable", failing(errors.New("connection reset")), Input{Key: "subs.csv"}, apperrors.ErrCodeImportFileReadFailed},
		{"empty file", serving(""), Input{Key: "subs.csv"}, apperrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createTestHandler(t, tt.s3).Execute(context.Background(), &tt.input)
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}
}

func TestExecute_ParsesWorkbook(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]interface{}{"Subscription Name", "Category", "Status", "Monthly Cost"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]interface{}{"Netflix", "Entertainment", "Active", 15.99}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	out, err := createTestHandler(t, serving(buf.String())).Execute(context.Background(), &Input{Key: "uploads/abc", FileName: "subs.xlsx"})
	require.NoError(t, err)

	assert.Equal(t, 1, out.TotalRows)
	assert.Equal(t, importer.Row{"Netflix", "Entertainment", "Active", "15.99"}, out.Rows[0])
	assert.Empty(t, out.MissingRequired)
	assert.True(t, out.AutoMapped)
}

func TestExecute_FileTooBig(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second, Bucket: "imports", MaxFileBytes: 16}, serving(sampleCSV), logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Key: "subs.csv"})
	assert.Equal(t, apperrors.ErrCodeInvalidInput, codeOf(t, err))
}

// ==========================
// Handle
// ==========================

func TestHandle_CompletesWithRows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 7, TaskType, 3, Input{Key: "subs.csv"})

	require.NoError(t, createTestHandler(t, serving(sampleCSV)).Handle(context.Background(), client, job))

	vars := client.CompletedVariables(t)
	assert.EqualValues(t, 2, vars["totalRows"])
	assert.Len(t, vars["rows"], 2)
}

func TestHandle_ReadFailureIsRetried(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 8, TaskType, 2, Input{Key: "subs.csv"})

	err := createTestHandler(t, failing(errors.New("503"))).Handle(context.Background(), client, job)

	require.Error(t, err)
	require.Len(t, client.Failed, 1)
	assert.Equal(t, int32(1), client.Failed[0].Retries)
}
