package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"buylog/internal/config"
	"buylog/internal/feed"
)

// ObjectUploader is the part of manager.Uploader S3Target uses.
type ObjectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Target stores media objects in a bucket under <prefix>/<mediaId>/<fileName>.
type S3Target struct {
	uploader ObjectUploader
	bucket   string
	prefix   string
}

var _ feed.MediaTarget = (*S3Target)(nil)

// NewS3Target builds an S3 client from the [media] config. Static keys are
// used when configured, otherwise the default AWS credential chain.
func NewS3Target(ctx context.Context, cfg config.MediaConfig) (*S3Target, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3_bucket required for s3 media")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3TargetWithUploader(manager.NewUploader(client), cfg.S3Bucket, cfg.S3Prefix), nil
}

func NewS3TargetWithUploader(u ObjectUploader, bucket, prefix string) *S3Target {
	return &S3Target{uploader: u, bucket: bucket, prefix: prefix}
}

// Key returns the object key for target.
func (t *S3Target) Key(target feed.UploadTarget) string {
	return path.Join(t.prefix, target.MediaID, path.Base("/"+target.FileName))
}

func (t *S3Target) Put(ctx context.Context, target feed.UploadTarget, body io.Reader, size int64, contentType string, progress func(int)) error {
	if target.MediaID == "" || target.FileName == "" {
		return fmt.Errorf("s3 upload needs a media id and file name")
	}

	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(t.Key(target)),
		Body:          newProgressReader(body, size, progress),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3://%s: %w", t.bucket, err)
	}
	return nil
}
