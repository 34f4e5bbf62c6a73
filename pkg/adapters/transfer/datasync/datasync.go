package datasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsDatasync "github.com/aws/aws-sdk-go-v2/service/datasync"
	"github.com/aws/aws-sdk-go-v2/service/datasync/types"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "datasync"

var ErrEmptyFilter = errors.New("refusing to start a DataSync task without include filters")

type startTaskExecutionAPI interface {
	StartTaskExecution(
		context.Context, *awsDatasync.StartTaskExecutionInput, ...func(*awsDatasync.Options),
	) (*awsDatasync.StartTaskExecutionOutput, error)
}

type Config struct {
	awsclient.Config `yaml:",inline"`
	TaskARN          string `yaml:"task_arn"`
	TimeoutInMillis  int64  `yaml:"timeout_milliseconds"`
}

type Trigger struct {
	log        *slog.Logger
	client     startTaskExecutionAPI
	taskARN    string
	verifyMode types.VerifyMode
	timeout    time.Duration
}

func New(l *slog.Logger, c *Config, verifyMode string) (*Trigger, error) {
	if c.TaskARN == "" {
		return nil, errors.New("datasync trigger needs a task_arn")
	}

	mode, err := toVerifyMode(verifyMode)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), awsclient.StartupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsclient.Load(ctx, c.Config)
	if err != nil {
		return nil, err
	}

	return &Trigger{
		log:        l.With(logger.TriggerTypeKey, TYPE),
		client:     awsDatasync.NewFromConfig(sdkConfig),
		taskARN:    c.TaskARN,
		verifyMode: mode,
		timeout:    time.Duration(c.TimeoutInMillis) * time.Millisecond,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing DataSync config: %w", err)
	}

	return conf, nil
}

// Start runs the task once, restricted to filterPattern. An empty pattern is
// refused: without include filters the task would transfer its whole source.
func (trigger *Trigger) Start(ctx context.Context, filterPattern string) (domain.JobHandle, error) {
	if filterPattern == "" {
		return domain.JobHandle{}, ErrEmptyFilter
	}

	if trigger.timeout > 0 {
		var cancelFunc context.CancelFunc
		ctx, cancelFunc = context.WithTimeout(ctx, trigger.timeout)
		defer cancelFunc()
	}

	input := &awsDatasync.StartTaskExecutionInput{
		TaskArn: aws.String(trigger.taskARN),
		OverrideOptions: &types.Options{
			VerifyMode: trigger.verifyMode,
		},
		Includes: []types.FilterRule{
			{
				FilterType: types.FilterTypeSimplePattern,
				Value:      aws.String(filterPattern),
			},
		},
	}

	trigger.log.Debug("starting DataSync task execution", "task_arn", trigger.taskARN,
		"filter_length", len(filterPattern))
	output, err := trigger.client.StartTaskExecution(ctx, input)
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("error starting DataSync task execution: %w", err)
	}

	return domain.JobHandle{ID: aws.ToString(output.TaskExecutionArn)}, nil
}

func (trigger *Trigger) Type() string {
	return TYPE
}

func toVerifyMode(verifyMode string) (types.VerifyMode, error) {
	switch verifyMode {
	case "", config.VerifyModeOnlyFilesTransferred:
		return types.VerifyModeOnlyFilesTransferred, nil
	case config.VerifyModeFull:
		return types.VerifyModePointInTimeConsistent, nil
	default:
		return "", fmt.Errorf("unknown verify mode %q", verifyMode)
	}
}
