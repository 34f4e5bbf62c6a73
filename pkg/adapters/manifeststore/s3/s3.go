package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const (
	TYPE       string = "s3"
	DefaultKey string = "manifest"
)

type s3ObjectAPI interface {
	GetObject(context.Context, *awsS3.GetObjectInput, ...func(*awsS3.Options)) (*awsS3.GetObjectOutput, error)
	PutObject(context.Context, *awsS3.PutObjectInput, ...func(*awsS3.Options)) (*awsS3.PutObjectOutput, error)
}

type Config struct {
	awsclient.Config `yaml:",inline"`
	TimeoutInMillis  int64  `yaml:"timeout_milliseconds"`
	Bucket           string `yaml:"bucket"`
	Key              string `yaml:"key"`
	ForcePathStyle   bool   `yaml:"force_path_style"`
}

type Store struct {
	log     *slog.Logger
	client  s3ObjectAPI
	bucket  string
	key     string
	timeout time.Duration
}

func New(l *slog.Logger, c *Config) (*Store, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3 manifest store needs a bucket")
	}

	key := c.Key
	if key == "" {
		key = DefaultKey
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), awsclient.StartupTimeout)
	defer cancelFunc()

	sdkConfig, err := awsclient.Load(ctx, c.Config)
	if err != nil {
		return nil, err
	}

	client := awsS3.NewFromConfig(sdkConfig, func(o *awsS3.Options) {
		o.UsePathStyle = c.ForcePathStyle
	})

	return &Store{
		log:     l.With(logger.ManifestStoreTypeKey, TYPE),
		client:  client,
		bucket:  c.Bucket,
		key:     key,
		timeout: time.Duration(c.TimeoutInMillis) * time.Millisecond,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing S3 manifest store config: %w", err)
	}

	return conf, nil
}

func (store *Store) Read(ctx context.Context) (string, bool, error) {
	ctx, cancelFunc := store.withTimeout(ctx)
	defer cancelFunc()

	output, err := store.client.GetObject(ctx, &awsS3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key),
	})
	if err != nil {
		if isNotFound(err) {
			store.log.Debug("manifest object not found", "bucket", store.bucket, "key", store.key)
			return "", false, nil
		}
		return "", false, fmt.Errorf("error getting manifest from S3: %w", err)
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return "", false, fmt.Errorf("error reading manifest body: %w", err)
	}

	return string(content), true, nil
}

func (store *Store) Write(ctx context.Context, content string) error {
	ctx, cancelFunc := store.withTimeout(ctx)
	defer cancelFunc()

	_, err := store.client.PutObject(ctx, &awsS3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(store.key),
		Body:          strings.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("error putting manifest on S3: %w", err)
	}

	return nil
}

func (store *Store) Type() string {
	return TYPE
}

func (store *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if store.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, store.timeout)
}

// S3-compatible servers do not always send a typed NoSuchKey, so the error
// code is checked too.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey"
	}

	return false
}
