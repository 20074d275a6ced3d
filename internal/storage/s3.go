package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"managerconsole/common_library/logging"
	"managerconsole/internal/errdefs"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const DefaultURLTTL = 15 * time.Minute

type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	URLTTL          time.Duration
}

// Link points at a stored object through a presigned download URL.
type Link struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Archive keeps exported files in an S3 compatible bucket.
type Archive struct {
	objects   objectAPI
	presigner presignAPI
	bucket    string
	ttl       time.Duration
	now       func() time.Time
}

func NewClient(ctx context.Context, opts Options) (*s3.Client, error) {
	cfg, err := s3Config.LoadDefaultConfig(ctx,
		s3Config.WithRegion(opts.Region),
		s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// New connects to the bucket named in opts, creating it when missing.
func New(ctx context.Context, opts Options) (*Archive, error) {
	client, err := NewClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}
	a := newArchive(client, s3.NewPresignClient(client), opts.Bucket, opts.URLTTL)
	if err := a.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
	}
	return a, nil
}

func newArchive(objects objectAPI, presigner presignAPI, bucket string, ttl time.Duration) *Archive {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Archive{objects: objects, presigner: presigner, bucket: bucket, ttl: ttl, now: time.Now}
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	_, err := a.objects.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var opErr *awshttp.ResponseError
		if errors.As(err, &opErr) && opErr.HTTPStatusCode() == http.StatusConflict {
			if logger, ok := logging.GetFromContext(ctx); ok {
				logger.Info(ctx, "Bucket already exists", zap.String("bucket", a.bucket))
			}
			return nil
		}
	}
	return err
}

// Store uploads body under key and returns a download link valid for the
// configured TTL.
func (a *Archive) Store(ctx context.Context, key, contentType string, body []byte) (Link, error) {
	_, err := a.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return Link{}, fmt.Errorf("put object %s: %w", key, err)
	}

	issued := a.now()
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	},
		s3.WithPresignExpires(a.ttl),
	)
	if err != nil {
		return Link{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return Link{Key: key, URL: req.URL, ExpiresAt: issued.Add(a.ttl)}, nil
}

// Disabled is used when no bucket is configured.
type Disabled struct{}

func (Disabled) Store(context.Context, string, string, []byte) (Link, error) {
	return Link{}, fmt.Errorf("export archive: %w", errdefs.ErrUnavailable)
}
