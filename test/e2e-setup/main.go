// nolint: forbidigo
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jademcosta/syncbatcher/pkg/adapters/awsclient"
)

func main() {
	queues := []*string{
		flag.String("q", "", "The name of the queue that receives flush notifications"),
		flag.String("n", "", "The name of the queue that receives object notifications"),
	}
	manifestBucket := flag.String("m", "syncbatcher-manifest", "The bucket holding the manifest")
	archiveBucket := flag.String("a", "syncbatcher-archive", "The bucket receiving archived filters")
	endpoint := flag.String("e", "http://localhost:4566", "The AWS endpoint")
	flag.Parse()

	if *queues[0] == "" {
		fmt.Println("You must supply a queue name (-q QUEUE)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), awsclient.StartupTimeout)
	defer cancel()

	sdkConfig, err := awsclient.Load(ctx, awsclient.Config{
		Region:    "us-east-1",
		Endpoint:  *endpoint,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		fmt.Println("Failed to load AWS config: ", err)
		os.Exit(1)
	}

	sqsSvc := sqs.NewFromConfig(sdkConfig)
	for _, queue := range queues {
		if *queue == "" {
			continue
		}

		fmt.Printf("Creating queue %s\n", *queue)
		_, err = sqsSvc.CreateQueue(ctx, &sqs.CreateQueueInput{
			QueueName: queue,
			Attributes: map[string]string{
				"MessageRetentionPeriod": "300",
			},
		})
		if err != nil {
			fmt.Println("Failed to create queue: ", err)
			os.Exit(1)
		}
	}

	s3Svc := s3.NewFromConfig(sdkConfig, func(o *s3.Options) { o.UsePathStyle = true })
	for _, bucket := range []string{*manifestBucket, *archiveBucket} {
		fmt.Printf("Creating bucket %s\n", bucket)
		_, err = s3Svc.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(bucket),
		})
		if err != nil {
			fmt.Println("Failed to create bucket: ", err)
			os.Exit(1)
		}
	}

	fmt.Println("Setup finished")
}
