package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/threadflow/configs"
)

// ObjectStore keeps uploaded media and serves it from a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(key string) string
}

// R2Store is an ObjectStore on Cloudflare R2 through its S3 API.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

var ErrStoreNotConfigured = errors.New("R2 storage is not configured")

func NewR2Store(ctx context.Context, r2 cfg.R2) (*R2Store, error) {
	if r2.AccountID == "" || r2.BucketName == "" || r2.PublicURL == "" {
		return nil, ErrStoreNotConfigured
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})

	return &R2Store{
		client:    client,
		bucket:    r2.BucketName,
		publicURL: r2.PublicURL,
	}, nil
}

func (r *R2Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *R2Store) URL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(r.publicURL, "/"), key)
}
