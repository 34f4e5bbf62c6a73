package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsSqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "sqs"

type sqsSendMessageAPI interface {
	SendMessage(context.Context, *awsSqs.SendMessageInput, ...func(*awsSqs.Options)) (*awsSqs.SendMessageOutput, error)
}

type Message struct {
	SchemaVersion string    `json:"schema_version"`
	JobID         string    `json:"job_id"`
	Tokens        int       `json:"tokens"`
	FilterLength  int       `json:"filter_length"`
	Reason        string    `json:"reason"`
	FlushedAt     time.Time `json:"flushed_at"`
}

type Config struct {
	awsclient.Config `yaml:",inline"`
	URL              string `yaml:"url"`
}

type Queue struct {
	log      *slog.Logger
	client   sqsSendMessageAPI
	queueURL string
}

func New(l *slog.Logger, c *Config) (*Queue, error) {
	queueURL := c.URL
	if !validURL(queueURL) {
		return nil, errors.New("invalid url for SQS, it cannot be empty")
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), awsclient.StartupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsclient.Load(ctx, c.Config)
	if err != nil {
		return nil, err
	}

	return &Queue{
		log:      l.With(logger.ExternalQueueTypeKey, TYPE),
		client:   awsSqs.NewFromConfig(sdkConfig),
		queueURL: queueURL,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing SQS config: %w", err)
	}

	return conf, nil
}

func (internalSqs *Queue) Enqueue(ctx context.Context, event *domain.FlushEvent) error {
	message := Message{
		SchemaVersion: domain.MsgSchemaVersion,
		JobID:         event.JobID,
		Tokens:        event.Tokens,
		FilterLength:  len(event.FilterPattern),
		Reason:        event.Reason,
		FlushedAt:     event.FlushedAt.UTC(),
	}

	bodyAsBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	body := string(bodyAsBytes)

	messageInput := &awsSqs.SendMessageInput{
		MessageBody: &body,
		QueueUrl:    &internalSqs.queueURL,
	}

	internalSqs.log.Debug("sending SQS message", "queue_url", internalSqs.queueURL)
	enqueueOutput, err := internalSqs.client.SendMessage(ctx, messageInput)
	if err == nil {
		internalSqs.log.Debug("enqueued message on SQS", "message_id", enqueueOutput.MessageId)
	}

	return err
}

func validURL(url string) bool {
	return len(url) > 0
}

func (internalSqs *Queue) Type() string {
	return TYPE
}
