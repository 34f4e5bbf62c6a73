// Package awsclient builds the aws.Config shared by every AWS backed adapter.
// Credentials come from the default chain unless both keys are set.
package awsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const StartupTimeout = 20 * time.Second

type Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

func Load(ctx context.Context, c Config) (aws.Config, error) {
	opts := make([]func(*config.LoadOptions) error, 0, 3)

	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}

	if c.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(c.Endpoint))
	}

	if c.AccessKey != "" && c.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("couldn't load default AWS configuration: %w", err)
	}

	return sdkConfig, nil
}
