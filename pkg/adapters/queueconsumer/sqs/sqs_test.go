package sqs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsSqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYaml = `
url: https://sqs.us-east-1.amazonaws.com/111122223333/object-created
region: us-east-1
endpoint: http://localhost:4566
wait_time_seconds: 5
visibility_timeout_seconds: 120
`

const queueURL = "https://sqs.us-east-1.amazonaws.com/111122223333/object-created"

type mockedQueue struct {
	mu          sync.Mutex
	pending     []types.Message
	receiveErr  error
	receives    []*awsSqs.ReceiveMessageInput
	deletes     []*awsSqs.DeleteMessageBatchInput
	deleteErr   error
	failDeletes int
}

func (mock *mockedQueue) ReceiveMessage(
	_ context.Context, input *awsSqs.ReceiveMessageInput, _ ...func(*awsSqs.Options),
) (*awsSqs.ReceiveMessageOutput, error) {
	mock.mu.Lock()
	defer mock.mu.Unlock()

	mock.receives = append(mock.receives, input)
	if mock.receiveErr != nil {
		return nil, mock.receiveErr
	}

	if len(mock.pending) == 0 {
		time.Sleep(time.Millisecond)
	}

	count := min(int(input.MaxNumberOfMessages), len(mock.pending))
	msgs := mock.pending[:count]
	mock.pending = mock.pending[count:]
	return &awsSqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (mock *mockedQueue) DeleteMessageBatch(
	_ context.Context, input *awsSqs.DeleteMessageBatchInput, _ ...func(*awsSqs.Options),
) (*awsSqs.DeleteMessageBatchOutput, error) {
	mock.mu.Lock()
	defer mock.mu.Unlock()

	mock.deletes = append(mock.deletes, input)
	if mock.deleteErr != nil {
		return nil, mock.deleteErr
	}

	output := &awsSqs.DeleteMessageBatchOutput{}
	for idx, entry := range input.Entries {
		if idx < mock.failDeletes {
			output.Failed = append(output.Failed, types.BatchResultErrorEntry{
				Id: entry.Id, Code: aws.String("ReceiptHandleIsInvalid"), SenderFault: true,
			})
			continue
		}
		output.Successful = append(output.Successful, types.DeleteMessageBatchResultEntry{Id: entry.Id})
	}
	return output, nil
}

type mockSubmitter struct {
	batches []domain.Batch
	outcome domain.Outcome
	err     error
}

func (m *mockSubmitter) Submit(_ context.Context, source string, batch domain.Batch) (domain.Outcome, error) {
	if source != Source {
		return domain.Outcome{}, fmt.Errorf("unexpected source %s", source)
	}
	m.batches = append(m.batches, batch)
	return m.outcome, m.err
}

func messages(count int) []types.Message {
	msgs := make([]types.Message, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, types.Message{
			MessageId:     aws.String(fmt.Sprintf("msg-%d", i)),
			ReceiptHandle: aws.String(fmt.Sprintf("handle-%d", i)),
			Body:          aws.String(fmt.Sprintf(`{"detail":{"object":{"key":"file-%d"}}}`, i)),
		})
	}
	return msgs
}

func newTestConsumer(
	t *testing.T, batchSize int, window time.Duration, queue *mockedQueue, submitter *mockSubmitter,
) *Consumer {
	sut, err := New(logger.NewDummy(), &Config{URL: queueURL}, batchSize, window, submitter, prometheus.NewRegistry())
	require.NoError(t, err, "should not error on New")
	sut.client = queue
	return sut
}

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(configYaml))
	require.NoError(t, err)

	assert.Equal(t, queueURL, conf.URL)
	assert.Equal(t, "us-east-1", conf.Region)
	assert.Equal(t, "http://localhost:4566", conf.Endpoint)
	assert.Equal(t, int32(5), conf.WaitTimeSeconds)
	assert.Equal(t, int32(120), conf.VisibilityTimeoutSeconds)
}

func TestNewValidations(t *testing.T) {
	_, err := New(logger.NewDummy(), &Config{}, 10, time.Second, &mockSubmitter{}, prometheus.NewRegistry())
	assert.Error(t, err, "queue url is required")

	_, err = New(logger.NewDummy(), &Config{URL: queueURL}, 0, time.Second, &mockSubmitter{}, prometheus.NewRegistry())
	assert.Error(t, err, "batch size should be positive")
}

func TestCollectStopsAtBatchSize(t *testing.T) {
	queue := &mockedQueue{pending: messages(25)}
	sut := newTestConsumer(t, 12, time.Minute, queue, &mockSubmitter{})

	msgs := sut.collect(context.Background())

	assert.Len(t, msgs, 12)
	require.Len(t, queue.receives, 2)
	assert.Equal(t, int32(10), queue.receives[0].MaxNumberOfMessages, "a single call cannot ask for more than 10")
	assert.Equal(t, int32(2), queue.receives[1].MaxNumberOfMessages, "should not collect more than the batch size")
	assert.Equal(t, queueURL, *queue.receives[0].QueueUrl)
}

func TestCollectStopsAtBatchWindow(t *testing.T) {
	queue := &mockedQueue{pending: messages(3)}
	sut := newTestConsumer(t, 100, 30*time.Millisecond, queue, &mockSubmitter{})

	start := time.Now()
	msgs := sut.collect(context.Background())

	assert.Len(t, msgs, 3)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond, "should wait for the window to close")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCollectReturnsWhenContextIsDone(t *testing.T) {
	queue := &mockedQueue{receiveErr: errors.New("no network")}
	sut := newTestConsumer(t, 10, time.Second, queue, &mockSubmitter{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	msgs := sut.collect(ctx)
	assert.Empty(t, msgs)
}

func TestProcessSubmitsRecordsAndDeletesOnSuccess(t *testing.T) {
	queue := &mockedQueue{}
	submitter := &mockSubmitter{outcome: domain.Outcome{Kind: domain.OutcomeAppended, KeysAppended: 15}}
	sut := newTestConsumer(t, 100, time.Second, queue, submitter)

	sut.process(context.Background(), messages(15))

	require.Len(t, submitter.batches, 1)
	batch := submitter.batches[0]
	assert.Equal(t, domain.BatchKindNotification, batch.Kind)
	require.Len(t, batch.Records, 15)
	assert.Equal(t, "msg-0", batch.Records[0].ID)
	assert.JSONEq(t, `{"detail":{"object":{"key":"file-0"}}}`, string(batch.Records[0].Body))

	require.Len(t, queue.deletes, 2, "deletes go in chunks of 10")
	assert.Len(t, queue.deletes[0].Entries, 10)
	assert.Len(t, queue.deletes[1].Entries, 5)
	assert.Equal(t, "handle-14", *queue.deletes[1].Entries[4].ReceiptHandle)
}

func TestProcessLeavesMessagesOnFailure(t *testing.T) {
	queue := &mockedQueue{}
	submitter := &mockSubmitter{err: &domain.TransientStoreError{Op: "read", Err: errors.New("down")}}
	sut := newTestConsumer(t, 100, time.Second, queue, submitter)

	sut.process(context.Background(), messages(4))

	assert.Len(t, submitter.batches, 1)
	assert.Empty(t, queue.deletes, "messages should be left for redelivery")
}

func TestProcessLeavesMessagesWhenDeferred(t *testing.T) {
	queue := &mockedQueue{}
	submitter := &mockSubmitter{outcome: domain.Outcome{Kind: domain.OutcomeFlushed, Deferred: true}}
	sut := newTestConsumer(t, 100, time.Second, queue, submitter)

	sut.process(context.Background(), messages(4))

	assert.Empty(t, queue.deletes, "deferred keys should come back")
}

func TestDeleteFailuresDoNotStopTheOtherChunks(t *testing.T) {
	queue := &mockedQueue{deleteErr: errors.New("throttled")}
	submitter := &mockSubmitter{outcome: domain.Outcome{Kind: domain.OutcomeAppended}}
	sut := newTestConsumer(t, 100, time.Second, queue, submitter)

	sut.process(context.Background(), messages(21))

	assert.Len(t, queue.deletes, 3, "every chunk should be attempted")
}

func TestRunStopsWithContext(t *testing.T) {
	queue := &mockedQueue{pending: messages(2)}
	submitter := &mockSubmitter{outcome: domain.Outcome{Kind: domain.OutcomeAppended}}
	sut := newTestConsumer(t, 2, time.Millisecond, queue, submitter)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sut.Run(ctx)
		close(stopped)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		assert.Fail(t, "consumer should stop when the context is cancelled")
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Len(t, queue.deletes, 1)
}
