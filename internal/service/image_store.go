package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"brandguard/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const presignTTL = 15 * time.Minute

var errImageMissing = errors.New("image missing from storage")

// ImageStore keeps design, logo and asset images in object storage.
type ImageStore interface {
	Put(ctx context.Context, key string, img model.Image) error
	Get(ctx context.Context, key string) (model.Image, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

type s3ImageStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	logger        zerolog.Logger
}

func NewS3ImageStore(client *s3.Client, bucket string, logger zerolog.Logger) ImageStore {
	return &s3ImageStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		logger:        logger.With().Str("service", "ImageStore").Logger(),
	}
}

func designImageKey(projectID, designID string, img model.Image) string {
	return fmt.Sprintf("projects/%s/designs/%s/original%s", projectID, designID, img.Extension())
}

func logoImageKey(projectID string, img model.Image) string {
	return fmt.Sprintf("projects/%s/logo%s", projectID, img.Extension())
}

func assetImageKey(projectID, assetID string, img model.Image) string {
	return fmt.Sprintf("projects/%s/assets/%s%s", projectID, assetID, img.Extension())
}

func projectPrefix(projectID string) string {
	return fmt.Sprintf("projects/%s/", projectID)
}

func (s *s3ImageStore) Put(ctx context.Context, key string, img model.Image) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.MIMEType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (s *s3ImageStore) Get(ctx context.Context, key string) (model.Image, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return model.Image{}, fmt.Errorf("image %s: %w", key, errImageMissing)
		}
		return model.Image{}, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return model.Image{}, fmt.Errorf("reading %s: %w", key, err)
	}
	img, err := model.NewImage(data)
	if err != nil {
		return model.Image{}, fmt.Errorf("stored image %s: %w", key, err)
	}
	return img, nil
}

func (s *s3ImageStore) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presigning %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *s3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *s3ImageStore) DeletePrefix(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("deleting objects under %s: %w", prefix, err)
		}
		for _, e := range out.Errors {
			s.logger.Error().Str("key", aws.ToString(e.Key)).Str("code", aws.ToString(e.Code)).Msg("Failed to delete object")
		}
	}
	return nil
}
