package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/glamlens/stylist/internal/httpclient"
)

const (
	keyPrefix      = "outfits/"
	presignExpires = time.Hour
)

// ObjectAPI is the subset of the S3 client used for uploads.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner signs temporary GET URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// StoredImage locates an uploaded image.
type StoredImage struct {
	Key string
	URL string
}

// Client stores original outfit photos in S3 under a content-hash key, so
// re-uploading the same photo never creates a second object.
type Client struct {
	api       ObjectAPI
	presigner Presigner
	bucket    string
}

// NewClient loads the default AWS credential chain for region.
func NewClient(ctx context.Context, region, bucket string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(httpclient.NewInstrumentedClient(30*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg)
	return NewClientWithAPI(s3Client, s3.NewPresignClient(s3Client), bucket), nil
}

// NewClientWithAPI builds a Client over explicit S3 handles.
func NewClientWithAPI(api ObjectAPI, presigner Presigner, bucket string) *Client {
	return &Client{api: api, presigner: presigner, bucket: bucket}
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ObjectKey returns the content-addressed key for an image.
func ObjectKey(data []byte, contentType string) string {
	ext := "jpg"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" && sub != "jpeg" {
		ext = sub
	}
	return keyPrefix + HashContent(data) + "." + ext
}

// UploadImageWithHash uploads data unless an object with the same content
// hash already exists, then returns a presigned URL for it.
func (c *Client) UploadImageWithHash(ctx context.Context, data []byte, contentType string) (*StoredImage, error) {
	ctx = httpclient.WithProvider(ctx, "S3")
	key := ObjectKey(data, contentType)

	exists, err := c.exists(ctx, key)
	if err != nil {
		return nil, err
	}

	if exists {
		slog.DebugContext(ctx, "Image already stored, skipping upload", "key", key)
	} else {
		_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
			Metadata:    map[string]string{"content-hash": HashContent(data)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image to S3: %w", err)
		}
	}

	url, err := c.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &StoredImage{Key: key, URL: url}, nil
}

// PresignedURL returns a temporary GET URL for key.
func (c *Client) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return req.URL, nil
}

func (c *Client) exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if stderrors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check S3 object: %w", err)
}
