package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jademcosta/syncbatcher/pkg/adapters"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const TYPE string = "s3"

type uploaderAPI interface {
	Upload(context.Context, *awsS3.PutObjectInput, ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Config struct {
	awsclient.Config `yaml:",inline"`
	TimeoutInMillis  int64  `yaml:"timeout_milliseconds"`
	Bucket           string `yaml:"bucket"`
	Prefix           string `yaml:"prefix"`
	ForcePathStyle   bool   `yaml:"force_path_style"`
}

type S3Bucket struct {
	name        string
	region      string
	fixedPrefix string
	timeout     time.Duration
	uploader    uploaderAPI
	log         *slog.Logger
}

func New(l *slog.Logger, c *Config) (*S3Bucket, error) {
	if c.Bucket == "" {
		return nil, errors.New("s3 archive storage needs a bucket")
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

	return &S3Bucket{
		uploader:    manager.NewUploader(client),
		log:         l.With(logger.ObjStorageTypeKey, TYPE),
		name:        c.Bucket,
		region:      c.Region,
		fixedPrefix: c.Prefix,
		timeout:     time.Duration(c.TimeoutInMillis) * time.Millisecond,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing S3 config: %w", err)
	}

	return conf, nil
}

func (bucket *S3Bucket) Upload(ctx context.Context, workU *domain.WorkUnit) (*domain.UploadResult, error) {
	key := mergeParts(bucket.fixedPrefix, workU.Prefix, workU.Filename)

	input := &awsS3.PutObjectInput{
		Bucket: aws.String(bucket.name),
		Key:    aws.String(key),
		Body:   bytes.NewReader(workU.Data),
	}

	if encoding := adapters.ContentEncodingFromFileName(workU.Filename); encoding != "" {
		input.ContentEncoding = aws.String(encoding)
	}

	if bucket.timeout > 0 {
		var cancelFunc context.CancelFunc
		ctx, cancelFunc = context.WithTimeout(ctx, bucket.timeout)
		defer cancelFunc()
	}

	uploadInfo, err := bucket.uploader.Upload(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error when uploading to S3: %w", err)
	}
	bucket.log.Debug("archived object", "key", key, "size_in_bytes", len(workU.Data))

	return &domain.UploadResult{
		Bucket:      bucket.name,
		Region:      bucket.region,
		Path:        key,
		URL:         uploadInfo.Location,
		SizeInBytes: len(workU.Data),
	}, nil
}

func (bucket *S3Bucket) Type() string {
	return TYPE
}

func (bucket *S3Bucket) Name() string {
	return bucket.name
}

func mergeParts(fixedPrefix string, dynamicPrefix string, key string) string {
	result := strings.Trim(fixedPrefix, "/") + "/" + strings.Trim(dynamicPrefix, "/")
	result = strings.Trim(result, "/")

	result = "/" + result + "/" + strings.Trim(key, "/")

	return strings.Trim(result, "/")
}
