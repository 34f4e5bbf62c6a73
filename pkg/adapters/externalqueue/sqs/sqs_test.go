package sqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYaml = `
url: sqs-queue-url-here
region: aws-sqs-region-here
access_key: "access sqs!"
secret_key: "secret sqs!"
`

type mockedSendMsgs struct {
	msgs []*sqs.SendMessageInput
	err  error
}

func (mock *mockedSendMsgs) SendMessage(
	_ context.Context,
	input *sqs.SendMessageInput,
	_ ...func(*sqs.Options),
) (*sqs.SendMessageOutput, error) {
	mock.msgs = append(mock.msgs, input)

	if mock.err != nil {
		return nil, mock.err
	}

	return &sqs.SendMessageOutput{}, nil
}

func flushEvent() *domain.FlushEvent {
	return &domain.FlushEvent{
		JobID:         "arn:aws:datasync:us-east-1:1:task/t/execution/e",
		FilterPattern: "/a.txt|/b.txt",
		Tokens:        2,
		Reason:        "soft_limit",
		FlushedAt:     time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestMessageContainsTheData(t *testing.T) {
	queueURL := "some-queue-url"
	c := &Config{URL: queueURL}
	c.Region = "us-east-1"

	sut, err := New(logger.NewDummy(), c)
	require.NoError(t, err, "failed to create SQS struct")
	mockSQS := &mockedSendMsgs{msgs: make([]*sqs.SendMessageInput, 0)}
	sut.client = mockSQS

	err = sut.Enqueue(context.Background(), flushEvent())
	assert.NoError(t, err, "should not err on enqueue")

	jsonMsg := `{"schema_version":"0.0.1","job_id":"arn:aws:datasync:us-east-1:1:task/t/execution/e","tokens":2,"filter_length":13,"reason":"soft_limit","flushed_at":"2024-05-01T10:30:00Z"}`

	expected := &sqs.SendMessageInput{
		QueueUrl:    &queueURL,
		MessageBody: &jsonMsg}

	assert.Lenf(t, mockSQS.msgs, 1, "1 message should have been sent to SQS client")
	assert.Equal(t, expected, mockSQS.msgs[0], "the correct message format should've been enqueued")
}

func TestReturnsTheErrorOnEnqueueingError(t *testing.T) {
	c := &Config{URL: "some-queue-url"}

	sut, err := New(logger.NewDummy(), c)
	require.NoError(t, err, "failed to create SQS struct")
	mockErr := errors.New("mock error")
	mockSQS := &mockedSendMsgs{msgs: make([]*sqs.SendMessageInput, 0), err: mockErr}
	sut.client = mockSQS

	err = sut.Enqueue(context.Background(), flushEvent())
	assert.Error(t, err, "should have error on enqueue")

	assert.Lenf(t, mockSQS.msgs, 1, "1 message should have been sent to SQS client")
	assert.Same(t, mockErr, err, "the underlying SQS error should have been sent as return")
}

func TestEmptyURLIsRejected(t *testing.T) {
	_, err := New(logger.NewDummy(), &Config{})
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	confResult, err := ParseConfig([]byte(configYaml))

	assert.NoError(t, err, "should not return error from config parsing")
	assert.Equal(t, "sqs-queue-url-here", confResult.URL, "queue URL doesn't match")
	assert.Equal(t, "aws-sqs-region-here", confResult.Region, "queue region doesn't match")
	assert.Equal(t, "access sqs!", confResult.AccessKey, "queue access_key doesn't match")
	assert.Equal(t, "secret sqs!", confResult.SecretKey, "queue secret_key doesn't match")
}
