package aws

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no such key", &types.NoSuchKey{}, true},
		{"wrapped no such bucket", fmt.Errorf("get: %w", &types.NoSuchBucket{}), true},
		{"head not found", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestNewS3Client_Endpoint(t *testing.T) {
	c := NewS3Client(aws.Config{Region: "eu-west-1"}, S3Options{Endpoint: "http://localhost:9000", UsePathStyle: true})
	opts := c.Options()
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestPlainEmail(t *testing.T) {
	in := PlainEmail("from@example.com", "to@example.com", "Hi", "Body")
	assert.Equal(t, "from@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"to@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Body", aws.ToString(in.Message.Body.Text.Data))
}

func TestTextMessage(t *testing.T) {
	in := TextMessage("+14155550100", "", "done")
	assert.Len(t, in.MessageAttributes, 1)

	in = TextMessage("+14155550100", "SubTrack", "done")
	assert.Equal(t, "SubTrack", aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}
