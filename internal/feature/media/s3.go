package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI s3.Client 里用到的子集，测试时可替换
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Options struct {
	Region       string
	Endpoint     string // MinIO 等兼容服务
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
	UsePathStyle bool
}

// S3Backend 对象 key 为 <Prefix>/<area>/<name>
type S3Backend struct {
	client ObjectAPI
	bucket string
	prefix string
}

func NewS3Backend(ctx context.Context, o S3Options) (*S3Backend, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	})
	return NewS3BackendWithClient(client, o.Bucket, o.Prefix), nil
}

func NewS3BackendWithClient(c ObjectAPI, bucket, prefix string) *S3Backend {
	return &S3Backend{client: c, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) key(area Area, name string) string {
	return path.Join(b.prefix, string(area), path.Base(name))
}

func (b *S3Backend) Put(ctx context.Context, area Area, name, contentType string, r io.Reader) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(area, name)),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	return err
}

func (b *S3Backend) Remove(ctx context.Context, area Area, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(area, name)),
	})
	return err
}
