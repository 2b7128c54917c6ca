// Package documents archives generated letters to S3 so a sent offer can be
// pulled up later without regenerating it.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/omegatable/outreach/internal/config"
)

// s3PutAPI is the slice of the S3 client the archive uses.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores rendered PDFs under a campaign/job prefix.
type S3Archive struct {
	client s3PutAPI
	bucket string
}

// NewS3Archive creates an archive backed by the configured bucket.
func NewS3Archive(ctx context.Context, cfg config.DocumentsConfig) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for document archive: %w", err)
	}

	return &S3Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
	}, nil
}

// Archive writes the PDF to the bucket under the given key.
func (a *S3Archive) Archive(ctx context.Context, key string, pdf []byte) error {
	contentType := "application/pdf"
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", a.bucket, key, err)
	}

	log.Printf("[Documents] archived %s/%s (%d bytes)", a.bucket, key, len(pdf))
	return nil
}
