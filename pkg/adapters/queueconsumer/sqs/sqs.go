package sqs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsSqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v2"
)

const (
	TYPE   string = "sqs"
	Source string = "sqs"

	// SQS limits for a single ReceiveMessage and DeleteMessageBatch call
	maxMessagesPerCall = 10
	maxWaitTimeSeconds = 20

	errorBackoff  = time.Second
	deleteTimeout = 10 * time.Second
)

type sqsConsumerAPI interface {
	ReceiveMessage(context.Context, *awsSqs.ReceiveMessageInput, ...func(*awsSqs.Options)) (*awsSqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(context.Context, *awsSqs.DeleteMessageBatchInput, ...func(*awsSqs.Options)) (*awsSqs.DeleteMessageBatchOutput, error)
}

type Submitter interface {
	Submit(ctx context.Context, source string, batch domain.Batch) (domain.Outcome, error)
}

type Config struct {
	awsclient.Config         `yaml:",inline"`
	URL                      string `yaml:"url"`
	WaitTimeSeconds          int32  `yaml:"wait_time_seconds"`
	VisibilityTimeoutSeconds int32  `yaml:"visibility_timeout_seconds"`
}

// Consumer collects up to batchSize messages, waiting at most batchWindow
// after the first one arrives, and submits them as a single notification
// batch. Messages are deleted only when the batch was fully applied; anything
// else leaves them to be delivered again.
type Consumer struct {
	log         *slog.Logger
	client      sqsConsumerAPI
	submitter   Submitter
	queueURL    string
	batchSize   int
	batchWindow time.Duration
	waitTime    int32
	visibility  int32
	metrics     *metricCollector
}

func New(
	l *slog.Logger, c *Config, batchSize int, batchWindow time.Duration, submitter Submitter,
	metricRegistry *prometheus.Registry,
) (*Consumer, error) {
	if c.URL == "" {
		return nil, errors.New("sqs consumer needs a queue url")
	}

	if batchSize < 1 {
		return nil, fmt.Errorf("batch size should be at least 1, got %d", batchSize)
	}

	waitTime := c.WaitTimeSeconds
	if waitTime <= 0 || waitTime > maxWaitTimeSeconds {
		waitTime = maxWaitTimeSeconds
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), awsclient.StartupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsclient.Load(ctx, c.Config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		log:         l.With(logger.ComponentKey, "queue_consumer", logger.InvocationSourceKey, Source),
		client:      awsSqs.NewFromConfig(sdkConfig),
		submitter:   submitter,
		queueURL:    c.URL,
		batchSize:   batchSize,
		batchWindow: batchWindow,
		waitTime:    waitTime,
		visibility:  c.VisibilityTimeoutSeconds,
		metrics:     newMetricCollector(metricRegistry),
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing SQS consumer config: %w", err)
	}

	return conf, nil
}

// Run should be called on a goroutine
func (consumer *Consumer) Run(ctx context.Context) {
	consumer.log.Info("queue consumer started", "queue_url", consumer.queueURL,
		"batch_size", consumer.batchSize, "batch_window", consumer.batchWindow.String())

	for ctx.Err() == nil {
		msgs := consumer.collect(ctx)
		if len(msgs) == 0 {
			continue
		}
		consumer.process(ctx, msgs)
	}

	consumer.log.Info("queue consumer stopped")
}

func (consumer *Consumer) collect(ctx context.Context) []types.Message {
	msgs := make([]types.Message, 0, consumer.batchSize)

	for len(msgs) == 0 {
		if ctx.Err() != nil {
			return nil
		}

		received, err := consumer.receive(ctx, consumer.waitTime, consumer.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			consumer.log.Error("error receiving messages", "error", err)
			sleep(ctx, errorBackoff)
			continue
		}
		msgs = append(msgs, received...)
	}

	deadline := time.Now().Add(consumer.batchWindow)
	for len(msgs) < consumer.batchSize {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		wait := int32(remaining / time.Second)
		if wait > consumer.waitTime {
			wait = consumer.waitTime
		}

		received, err := consumer.receive(ctx, wait, consumer.batchSize-len(msgs))
		if err != nil {
			if ctx.Err() == nil {
				consumer.log.Warn("error receiving messages, going on with what was collected", "error", err)
			}
			break
		}
		msgs = append(msgs, received...)

		if wait == 0 && len(received) == 0 {
			sleep(ctx, remaining)
		}
	}

	return msgs
}

func (consumer *Consumer) receive(ctx context.Context, waitTimeSeconds int32, maxMessages int) ([]types.Message, error) {
	maxMessages = min(maxMessages, maxMessagesPerCall)

	input := &awsSqs.ReceiveMessageInput{
		QueueUrl:            aws.String(consumer.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     waitTimeSeconds,
	}
	if consumer.visibility > 0 {
		input.VisibilityTimeout = consumer.visibility
	}

	output, err := consumer.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, err
	}

	consumer.metrics.received(len(output.Messages))
	return output.Messages, nil
}

func (consumer *Consumer) process(ctx context.Context, msgs []types.Message) {
	records := make([]domain.Record, 0, len(msgs))
	for _, msg := range msgs {
		records = append(records, domain.Record{
			ID:   aws.ToString(msg.MessageId),
			Body: []byte(aws.ToString(msg.Body)),
		})
	}

	outcome, err := consumer.submitter.Submit(ctx, Source, domain.NotificationBatch(records...))
	if err != nil {
		consumer.metrics.batchLeft("error")
		consumer.log.Error("batch not applied, messages will be delivered again",
			"messages", len(msgs), "error", err)
		return
	}

	if outcome.Deferred {
		consumer.metrics.batchLeft("deferred")
		consumer.log.Info("batch deferred, messages will be delivered again",
			"messages", len(msgs), "outcome", outcome.Kind, "keys_appended", outcome.KeysAppended)
		return
	}

	consumer.log.Debug("batch applied", "messages", len(msgs), "outcome", outcome.Kind,
		"reason", outcome.Reason, "keys_appended", outcome.KeysAppended, "job_id", outcome.JobID)

	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	consumer.delete(deleteCtx, msgs)
}

func (consumer *Consumer) delete(ctx context.Context, msgs []types.Message) {
	for start := 0; start < len(msgs); start += maxMessagesPerCall {
		end := min(start+maxMessagesPerCall, len(msgs))

		entries := make([]types.DeleteMessageBatchRequestEntry, 0, end-start)
		for idx, msg := range msgs[start:end] {
			entries = append(entries, types.DeleteMessageBatchRequestEntry{
				Id:            aws.String(strconv.Itoa(start + idx)),
				ReceiptHandle: msg.ReceiptHandle,
			})
		}

		output, err := consumer.client.DeleteMessageBatch(ctx, &awsSqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(consumer.queueURL),
			Entries:  entries,
		})
		if err != nil {
			consumer.metrics.deleteFailed(len(entries))
			consumer.log.Error("error deleting messages, they will be delivered again",
				"messages", len(entries), "error", err)
			continue
		}

		for _, failed := range output.Failed {
			consumer.log.Warn("message could not be deleted", "entry_id", aws.ToString(failed.Id),
				"code", aws.ToString(failed.Code), "message", aws.ToString(failed.Message))
		}
		consumer.metrics.deleteFailed(len(output.Failed))
		consumer.metrics.deleted(len(output.Successful))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
