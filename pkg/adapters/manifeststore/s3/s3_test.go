package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYaml = `
bucket: the-bucket
key: path/to/manifest
region: us-west-2
endpoint: http://localhost:4566
access_key: "access s3!"
secret_key: "secret s3!"
timeout_milliseconds: 1500
force_path_style: true
`

type mockS3 struct {
	objects map[string][]byte
	gets    []*awsS3.GetObjectInput
	puts    []*awsS3.PutObjectInput
	getErr  error
	putErr  error
}

func (mock *mockS3) GetObject(
	_ context.Context, input *awsS3.GetObjectInput, _ ...func(*awsS3.Options),
) (*awsS3.GetObjectOutput, error) {
	mock.gets = append(mock.gets, input)
	if mock.getErr != nil {
		return nil, mock.getErr
	}

	data, ok := mock.objects[*input.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awsS3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (mock *mockS3) PutObject(
	_ context.Context, input *awsS3.PutObjectInput, _ ...func(*awsS3.Options),
) (*awsS3.PutObjectOutput, error) {
	mock.puts = append(mock.puts, input)
	if mock.putErr != nil {
		return nil, mock.putErr
	}

	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	mock.objects[*input.Key] = data
	return &awsS3.PutObjectOutput{}, nil
}

func newTestStore(t *testing.T, mock *mockS3) *Store {
	sut, err := New(logger.NewDummy(), &Config{Bucket: "bucket-a"})
	require.NoError(t, err, "should not error on New")
	sut.client = mock
	return sut
}

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(configYaml))
	require.NoError(t, err)

	assert.Equal(t, "the-bucket", conf.Bucket)
	assert.Equal(t, "path/to/manifest", conf.Key)
	assert.Equal(t, "us-west-2", conf.Region)
	assert.Equal(t, "http://localhost:4566", conf.Endpoint)
	assert.Equal(t, "access s3!", conf.AccessKey)
	assert.Equal(t, "secret s3!", conf.SecretKey)
	assert.Equal(t, int64(1500), conf.TimeoutInMillis)
	assert.True(t, conf.ForcePathStyle)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(logger.NewDummy(), &Config{})
	assert.Error(t, err)
}

func TestReadAbsentManifest(t *testing.T) {
	mock := &mockS3{objects: map[string][]byte{}}
	sut := newTestStore(t, mock)

	content, found, err := sut.Read(context.Background())
	require.NoError(t, err, "a missing object is not an error")
	assert.False(t, found)
	assert.Equal(t, "", content)
	require.Len(t, mock.gets, 1)
	assert.Equal(t, "bucket-a", *mock.gets[0].Bucket)
	assert.Equal(t, DefaultKey, *mock.gets[0].Key)
}

func TestReadAbsentManifestByErrorCode(t *testing.T) {
	mock := &mockS3{getErr: &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not here"}}
	sut := newTestStore(t, mock)

	_, found, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriteThenRead(t *testing.T) {
	mock := &mockS3{objects: map[string][]byte{}}
	sut := newTestStore(t, mock)

	err := sut.Write(context.Background(), "|/a.txt|/b.txt")
	require.NoError(t, err)
	require.Len(t, mock.puts, 1)
	assert.Equal(t, int64(len("|/a.txt|/b.txt")), *mock.puts[0].ContentLength)

	content, found, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "|/a.txt|/b.txt", content)

	err = sut.Write(context.Background(), "")
	require.NoError(t, err)

	content, found, err = sut.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, found, "an empty manifest is still present")
	assert.Equal(t, "", content)
}

func TestErrorsAreReturned(t *testing.T) {
	getErr := errors.New("access denied")
	putErr := errors.New("slow down")
	mock := &mockS3{objects: map[string][]byte{}, getErr: getErr, putErr: putErr}
	sut := newTestStore(t, mock)

	_, _, err := sut.Read(context.Background())
	assert.ErrorIs(t, err, getErr)

	err = sut.Write(context.Background(), "|/x")
	assert.ErrorIs(t, err, putErr)
}
