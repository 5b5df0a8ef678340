package service

import (
	"context"
	"fmt"

	"brandguard/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
)

// NewS3Client builds a path-style client for any S3-compatible endpoint.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}

// NewModelGatewayFromConfig resolves the model API key, from Secret Manager
// when no key is set directly, and builds the Gemini gateway.
func NewModelGatewayFromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ModelGateway, error) {
	var secrets SecretManagerService
	if cfg.ModelAPIKey == "" && cfg.ModelAPIKeySecret != "" {
		sm, err := NewSecretManagerService(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = sm.Close()
		}()
		secrets = sm
	}
	apiKey, err := ResolveModelAPIKey(ctx, cfg.ModelAPIKey, cfg.ModelAPIKeySecret, secrets)
	if err != nil {
		return nil, err
	}
	return NewGeminiGateway(GeminiConfig{
		BaseURL:        cfg.ModelAPIBaseURL,
		APIKey:         apiKey,
		AnalysisModel:  cfg.ModelAnalysisModel,
		ImageModel:     cfg.ModelImageModel,
		MaxConcurrency: cfg.ModelMaxConcurrency,
	}, logger), nil
}
