// nolint: forbidigo
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
	externalsqs "github.com/jademcosta/syncbatcher/pkg/adapters/externalqueue/sqs"
	"github.com/jademcosta/syncbatcher/pkg/compressor"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/domain"
)

var characters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = characters[rand.IntN(len(characters))]
	}
	return string(b)
}

func fail(msg string, args ...interface{}) {
	fmt.Println(append([]interface{}{msg}, args...)...)
	os.Exit(1)
}

func main() {
	queueURL := flag.String("q", "", "The URL of the flush notifications queue")
	archiveBucket := flag.String("a", "syncbatcher-archive", "The bucket receiving archived filters")
	apiURL := flag.String("api", "http://localhost:9099", "The syncbatcher API address")
	endpoint := flag.String("e", "http://localhost:4566", "The AWS endpoint")
	flag.Parse()

	if *queueURL == "" {
		fail("You must supply the URL of a queue (-q QUEUE)")
	}

	keys := []string{"e2e/" + randSeq(20), "e2e/" + randSeq(25)}
	expectedFilter := "|/" + strings.Join(keys, "|/")

	fmt.Println("Sending notifications...")
	outcome := invoke(*apiURL, notification(keys...))
	if outcome.Kind != domain.OutcomeAppended || outcome.KeysAppended != len(keys) {
		fail("Expected the keys to be appended, got: ", outcome)
	}

	fmt.Println("Sending scheduled event...")
	outcome = invoke(*apiURL, `{"triggeredBy":"eventbridge"}`)
	if outcome.Kind != domain.OutcomeFlushed {
		fail("Expected a flush, got: ", outcome)
	}

	fmt.Println("Starting validator...")
	fmt.Println("Important: This test does not work well if running in parallel with other instance of itself. It expects a single message on SQS!")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sdkConfig, err := awsclient.Load(ctx, awsclient.Config{
		Region:    "us-east-1",
		Endpoint:  *endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		fail("Failed to load AWS config: ", err)
	}

	validateNotification(ctx, sqs.NewFromConfig(sdkConfig), *queueURL, outcome)

	s3Svc := s3.NewFromConfig(sdkConfig, func(o *s3.Options) { o.UsePathStyle = true })
	validateArchive(ctx, s3Svc, *archiveBucket, expectedFilter)

	fmt.Println("Expected content is correct!")
}

func notification(keys ...string) string {
	records := make([]string, 0, len(keys))
	for idx, key := range keys {
		body := fmt.Sprintf(`{\"detail\":{\"object\":{\"key\":\"%s\"}}}`, key)
		records = append(records, fmt.Sprintf(`{"messageId":"e2e-%d","body":"%s"}`, idx, body))
	}
	return `{"Records":[` + strings.Join(records, ",") + `]}`
}

func invoke(apiURL string, payload string) domain.Outcome {
	response, err := http.Post(apiURL+"/v1/invocations", "application/json", strings.NewReader(payload))
	if err != nil {
		fail("Failed to call the API: ", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		fail("Unexpected status from the API: ", response.StatusCode, string(body))
	}

	var outcome domain.Outcome
	err = json.NewDecoder(response.Body).Decode(&outcome)
	if err != nil {
		fail("Failed to decode the outcome: ", err)
	}
	return outcome
}

func validateNotification(ctx context.Context, svc *sqs.Client, queueURL string, outcome domain.Outcome) {
	msgResult, err := svc.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		fail("Error getting message from SQS: ", err)
	}

	if len(msgResult.Messages) < 1 {
		fail("No message returned from SQS")
	}

	message := msgResult.Messages[0]
	_, err = svc.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		fail("Error deleting the message from queue. This might generate future runs of this test to fail. Err: ", err)
	}

	content := &externalsqs.Message{}
	err = json.Unmarshal([]byte(aws.ToString(message.Body)), content)
	if err != nil {
		fail("Failed to parse the SQS body JSON: ", err)
	}

	if content.JobID != outcome.JobID {
		fail("Expected job id to be ", outcome.JobID, " but was ", content.JobID)
	}
	if content.Tokens != outcome.TokensFlushed {
		fail("Expected tokens to be ", outcome.TokensFlushed, " but was ", content.Tokens)
	}
}

func validateArchive(ctx context.Context, svc *s3.Client, bucket string, expectedFilter string) {
	listed, err := svc.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	if err != nil {
		fail("Failed to list the archive bucket: ", err)
	}

	downloader := manager.NewDownloader(svc)
	for _, obj := range listed.Contents {
		buf := manager.NewWriteAtBuffer([]byte{})
		_, err = downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    obj.Key,
		})
		if err != nil {
			fail("Failed to download the S3 file, err: ", err)
		}

		content, err := decompress(aws.ToString(obj.Key), buf.Bytes())
		if err != nil {
			fail("Failed to decompress the S3 file, err: ", err)
		}

		if content == expectedFilter {
			fmt.Println("Found archived filter at ", aws.ToString(obj.Key))
			return
		}
	}

	fail("No archived object holds the expected filter: ", expectedFilter)
}

func decompress(key string, data []byte) (string, error) {
	compressionType := compressor.TypeFromExtension(strings.TrimPrefix(filepath.Ext(key), "."))

	reader, err := compressor.NewReader(&config.CompressionConfig{Type: compressionType}, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	content, err := io.ReadAll(reader)
	return string(content), err
}
