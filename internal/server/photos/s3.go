package photos

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
	"github.com/google/uuid"
)

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures the bucket connection. BaseEndpoint points at MinIO
// or another S3-compatible service; path-style addressing is always used.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store uploads photos as photos/<uuid>.png objects and keeps the key in
// the row.
type S3Store struct {
	api    objectAPI
	bucket string
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = config.LoadDefaultConfig

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opts.UsePathStyle = true
	})
	return newS3Store(client, o.Bucket), nil
}

func newS3Store(api objectAPI, bucket string) *S3Store {
	return &S3Store{api: api, bucket: bucket}
}

func newObjectKey() string {
	return fmt.Sprintf("photos/%s.png", uuid.New())
}

// Attach uploads payload under a fresh key. The previous object, if any, is
// left for Remove so a failed row update does not lose the old photo.
func (s *S3Store) Attach(ctx context.Context, u *models.User, payload string) error {
	data, err := decode(StripDataURI(payload))
	if err != nil {
		return err
	}

	key := newObjectKey()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("image/png"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put photo: %w", err)
	}

	u.PhotoKey = key
	u.Photo = ""
	return nil
}

func (s *S3Store) Load(ctx context.Context, u *models.User) error {
	if u.PhotoKey == "" {
		return nil
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(u.PhotoKey),
	})
	if err != nil {
		return fmt.Errorf("get photo: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	u.Photo = base64.StdEncoding.EncodeToString(data)
	return nil
}

func (s *S3Store) Remove(ctx context.Context, u *models.User) error {
	if u.PhotoKey == "" {
		return nil
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(u.PhotoKey),
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
