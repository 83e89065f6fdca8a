package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// AudioStore turns synthesized audio into a URL a player can open.
type AudioStore interface {
	Put(ctx context.Context, r *SynthResult) (string, error)
}

// DataURLStore inlines audio as a base64 data: URL.
type DataURLStore struct{}

func (DataURLStore) Put(_ context.Context, r *SynthResult) (string, error) {
	return "data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Audio), nil
}

// S3Config configures bucket storage for audio.
type S3Config struct {
	Bucket          string
	Prefix          string // default "speech/"
	Region          string
	Endpoint        string // for S3-compatible stores (MinIO, R2)
	AccessKeyID     string
	SecretAccessKey string
	URLExpiry       time.Duration // default 1h
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads audio and hands out presigned GET URLs.
type S3Store struct {
	bucket   string
	prefix   string
	expiry   time.Duration
	uploader objectUploader
	presign  func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// NewS3Store builds an S3Store from the default AWS credential chain,
// overridden by static keys when both are set.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	presigner := s3.NewPresignClient(client)

	s := newS3Store(cfg, manager.NewUploader(client))
	s.presign = func(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
		req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}
	return s, nil
}

func newS3Store(cfg S3Config, up objectUploader) *S3Store {
	s := &S3Store{bucket: cfg.Bucket, prefix: cfg.Prefix, expiry: cfg.URLExpiry, uploader: up}
	if s.prefix == "" {
		s.prefix = "speech/"
	}
	if s.expiry <= 0 {
		s.expiry = time.Hour
	}
	return s
}

func (s *S3Store) Put(ctx context.Context, r *SynthResult) (string, error) {
	key := path.Join(s.prefix, uuid.NewString()+"."+r.Extension)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(r.Audio),
		ContentType: aws.String(r.MimeType),
	})
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	url, err := s.presign(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return "", fmt.Errorf("presign audio url: %w", err)
	}
	return url, nil
}
