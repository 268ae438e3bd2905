package pdfgen

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"billing-backend/internal/config"
)

// Uploader stores rendered invoice PDFs in S3-compatible object storage
// and returns their public locations.
type Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewUploader(cfg *config.Config) (*Uploader, error) {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
	})

	return &Uploader{
		client:        client,
		bucket:        cfg.Storage.Bucket,
		publicBaseURL: cfg.Storage.PublicBaseURL,
	}, nil
}

// Upload writes the PDF under invoices/<organization>/<invoice>.pdf and
// returns its public URL.
func (u *Uploader) Upload(ctx context.Context, organizationID, invoiceID string, pdf []byte) (string, error) {
	key := fmt.Sprintf("invoices/%s/%s.pdf", organizationID, invoiceID)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("upload invoice pdf: %w", err)
	}

	log.Printf("[Storage] uploaded invoice pdf %s (%d bytes)", key, len(pdf))
	return fmt.Sprintf("%s/%s", u.publicBaseURL, key), nil
}
