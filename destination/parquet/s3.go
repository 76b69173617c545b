package parquet

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// uploader copies finished parquet files into the configured bucket
type uploader struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
}

func newUploader(cfg *Config) (*uploader, error) {
	awsCfg := aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}

	// Credentials - Prioritize explicit keys
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		logger.Debug("explicit S3 credentials not provided, using default AWS credential chain")
	}

	// Custom Endpoint (for S3-compatible storage like MinIO)
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := s3.New(sess)
	return &uploader{
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
	}, nil
}

// check verifies the bucket is reachable with the resolved credentials
func (u *uploader) check(ctx context.Context) error {
	_, err := u.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket[%s]: %w", u.bucket, err)
	}

	return nil
}

func (u *uploader) key(relativePath string) string {
	return path.Join(u.prefix, relativePath)
}

// upload sends every file concurrently; files is keyed by local path with the relative path as value
func (u *uploader) upload(ctx context.Context, files map[string]string, concurrency int) error {
	localPaths := make([]string, 0, len(files))
	for localPath := range files {
		localPaths = append(localPaths, localPath)
	}

	return utils.Concurrent(ctx, localPaths, concurrency, func(ctx context.Context, localPath string) error {
		file, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("failed to open file[%s] for upload: %s", localPath, err)
		}
		defer file.Close()

		key := u.key(files[localPath])
		_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
			Body:   file,
		})
		if err != nil {
			return fmt.Errorf("failed to upload file[%s] to s3://%s/%s: %s", localPath, u.bucket, key, err)
		}

		logger.Infof("uploaded %s to s3://%s/%s", localPath, u.bucket, key)
		return nil
	})
}
