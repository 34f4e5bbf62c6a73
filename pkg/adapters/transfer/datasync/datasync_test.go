package datasync

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsDatasync "github.com/aws/aws-sdk-go-v2/service/datasync"
	"github.com/aws/aws-sdk-go-v2/service/datasync/types"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYaml = `
task_arn: arn:aws:datasync:us-east-1:111122223333:task/task-0123
region: us-east-1
endpoint: http://localhost:4566
access_key: "access datasync!"
secret_key: "secret datasync!"
timeout_milliseconds: 5000
`

const taskARN = "arn:aws:datasync:us-east-1:111122223333:task/task-0123"

type mockedStartTask struct {
	inputs []*awsDatasync.StartTaskExecutionInput
	err    error
}

func (mock *mockedStartTask) StartTaskExecution(
	_ context.Context, input *awsDatasync.StartTaskExecutionInput, _ ...func(*awsDatasync.Options),
) (*awsDatasync.StartTaskExecutionOutput, error) {
	mock.inputs = append(mock.inputs, input)
	if mock.err != nil {
		return nil, mock.err
	}
	return &awsDatasync.StartTaskExecutionOutput{
		TaskExecutionArn: aws.String(taskARN + "/execution/exec-1"),
	}, nil
}

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(configYaml))
	require.NoError(t, err)

	assert.Equal(t, taskARN, conf.TaskARN)
	assert.Equal(t, "us-east-1", conf.Region)
	assert.Equal(t, "http://localhost:4566", conf.Endpoint)
	assert.Equal(t, "access datasync!", conf.AccessKey)
	assert.Equal(t, "secret datasync!", conf.SecretKey)
	assert.Equal(t, int64(5000), conf.TimeoutInMillis)
}

func TestNewValidations(t *testing.T) {
	_, err := New(logger.NewDummy(), &Config{}, "ONLY_FILES_TRANSFERRED")
	assert.Error(t, err, "task arn is required")

	_, err = New(logger.NewDummy(), &Config{TaskARN: taskARN}, "SOMETIMES")
	assert.Error(t, err, "unknown verify modes should be rejected")
}

func TestStartSendsFilterAndVerifyMode(t *testing.T) {
	testCases := []struct {
		verifyMode string
		expected   types.VerifyMode
	}{
		{verifyMode: "ONLY_FILES_TRANSFERRED", expected: types.VerifyModeOnlyFilesTransferred},
		{verifyMode: "", expected: types.VerifyModeOnlyFilesTransferred},
		{verifyMode: "FULL", expected: types.VerifyModePointInTimeConsistent},
	}

	for _, tc := range testCases {
		sut, err := New(logger.NewDummy(), &Config{TaskARN: taskARN}, tc.verifyMode)
		require.NoError(t, err)
		mock := &mockedStartTask{}
		sut.client = mock

		job, err := sut.Start(context.Background(), "/a.txt|/b/c.txt")
		require.NoError(t, err)
		assert.Equal(t, taskARN+"/execution/exec-1", job.ID)

		require.Len(t, mock.inputs, 1)
		input := mock.inputs[0]
		assert.Equal(t, taskARN, *input.TaskArn)
		assert.Equal(t, tc.expected, input.OverrideOptions.VerifyMode)
		require.Len(t, input.Includes, 1)
		assert.Equal(t, types.FilterTypeSimplePattern, input.Includes[0].FilterType)
		assert.Equal(t, "/a.txt|/b/c.txt", *input.Includes[0].Value)
	}
}

func TestStartRefusesAnEmptyFilter(t *testing.T) {
	sut, err := New(logger.NewDummy(), &Config{TaskARN: taskARN}, "")
	require.NoError(t, err)
	mock := &mockedStartTask{}
	sut.client = mock

	_, err = sut.Start(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyFilter)
	assert.Empty(t, mock.inputs, "the task should not run without include filters")
}

func TestStartReturnsTheError(t *testing.T) {
	sut, err := New(logger.NewDummy(), &Config{TaskARN: taskARN}, "")
	require.NoError(t, err)
	mockErr := errors.New("task is already running")
	sut.client = &mockedStartTask{err: mockErr}

	_, err = sut.Start(context.Background(), "/x")
	assert.ErrorIs(t, err, mockErr)
}
