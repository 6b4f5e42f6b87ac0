package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Store keeps attachments in an S3-compatible bucket.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2, etc.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	thumbBase string
	logger    *zap.SugaredLogger
}

// S3Config holds configuration for S3 storage
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional: for S3-compatible services
	PublicURL string // Optional: CDN or bucket website in front of the objects
	ThumbBase string // Optional: image service that renders video stills
}

// NewS3Store creates the client and makes sure the bucket exists
func NewS3Store(ctx context.Context, cfg S3Config, logger *zap.SugaredLogger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // MinIO and friends
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	publicURL := cfg.PublicURL
	switch {
	case publicURL != "":
	case cfg.Endpoint != "":
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	publicURL = strings.TrimSuffix(publicURL, "/")

	thumbBase := cfg.ThumbBase
	if thumbBase == "" {
		thumbBase = publicURL
	}

	store := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		thumbBase: thumbBase,
		logger:    logger,
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Infow("S3 media store ready", "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return store, nil
}

// ensureBucket creates the bucket when HeadBucket fails
func (s *S3Store) ensureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}
	s.logger.Infow("Created S3 bucket", "bucket", s.bucket)
	return nil
}

func (s *S3Store) Put(ctx context.Context, u Upload) (*Stored, error) {
	body, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	key := newKey(u.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if u.ContentType != "" {
		input.ContentType = aws.String(u.ContentType)
	}
	if u.Size > 0 {
		input.ContentLength = aws.Int64(u.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	return &Stored{Key: key, URL: s.publicURL + "/" + key, Kind: Classify(u.ContentType)}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string, _ models.MediaType) error {
	if !validKey(key) {
		return fmt.Errorf("invalid media key %q", key)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

func (s *S3Store) ThumbnailURL(key string, width, height int) string {
	return thumbnailURL(s.thumbBase, key, width, height)
}
