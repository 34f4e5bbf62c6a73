package httpstorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/domain"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"gopkg.in/yaml.v2"
)

const (
	TYPE           string = "httpstorage"
	defaultTimeout        = 60 * time.Second
)

type Config struct {
	URL             string `yaml:"url"`
	TimeoutInMillis int64  `yaml:"timeout_milliseconds"`
}

type HTTPStorage struct {
	url    string
	log    *slog.Logger
	client *http.Client
}

func NewHTTPStorage(l *slog.Logger, c *Config) (*HTTPStorage, error) {
	url, err := validateAndFormatURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("error creating httpstorage: %w", err)
	}

	timeout := defaultTimeout
	if c.TimeoutInMillis > 0 {
		timeout = time.Duration(c.TimeoutInMillis) * time.Millisecond
	}

	// Archive uploads come from a single invocation goroutine.
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxConnsPerHost: 2,
			IdleConnTimeout: 30 * time.Second,
		},
	}

	return &HTTPStorage{url: url, log: l.With(logger.ObjStorageTypeKey, TYPE), client: client}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing httpstorage config: %w", err)
	}

	return conf, nil
}

func (storage *HTTPStorage) Upload(ctx context.Context, workU *domain.WorkUnit) (*domain.UploadResult, error) {
	url, path := assembleURL(storage.url, workU.Prefix, workU.Filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(workU.Data))
	if err != nil {
		return nil, fmt.Errorf("error creating http request: %w", err)
	}

	resp, err := storage.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing http request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return &domain.UploadResult{
		Bucket:      TYPE,
		Path:        path,
		URL:         url,
		SizeInBytes: len(workU.Data),
	}, nil
}

func (storage *HTTPStorage) Type() string {
	return TYPE
}

func (storage *HTTPStorage) Name() string {
	return TYPE
}

func validateAndFormatURL(url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", errors.New("the url should start with http:// or https://")
	}

	if strings.Count(url, "%s") > 1 {
		return "", errors.New("multiple %s detected on URL, only 1 is allowed")
	}

	if strings.Contains(url, "%s") && !strings.Contains(url, "/%s") {
		return "", errors.New("the %s should be preceded by a / on URL")
	}

	return url, nil
}

// assembleURL replaces the %s placeholder, when present, with prefix/filename.
func assembleURL(url string, prefix string, filename string) (string, string) {
	if !strings.Contains(url, "%s") {
		return url, ""
	}

	prefix = strings.Trim(prefix, "/")
	filename = strings.Trim(filename, "/")

	path := filename
	if prefix != "" {
		path = prefix + "/" + filename
	}

	return strings.Replace(url, "%s", path, 1), path
}
