package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config はS3互換オブジェクトストレージの接続設定。
type S3Config struct {
	Bucket        string
	Endpoint      string // 空の場合はAWS標準エンドポイント
	Region        string
	AccessKey     string // 空の場合はSDKのデフォルト資格情報チェーン
	SecretKey     string
	PublicBaseURL string // 公開URLのベース。空の場合はエンドポイントから組み立てる
}

// S3Store はS3互換オブジェクトストレージを使用するObjectStore実装。
// MinIOやセルフホストのS3互換ストアに接続するためパススタイルを使用する。
type S3Store struct {
	client        *s3.Client
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Store はS3Storeを生成する。
// AccessKeyが指定された場合は静的資格情報を使用し、
// 未指定の場合はSDKのデフォルト資格情報チェーンに委譲する。
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		uploader:      manager.NewUploader(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(resolvePublicBaseURL(cfg), "/"),
	}, nil
}

// Upload はキーで指定されるオブジェクトをアップロードする。
func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// PublicURL はキーに対応する公開URLを返す。
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}

// Remove はキーで指定されるオブジェクトを削除する。
func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// resolvePublicBaseURL は公開URLのベースを決定する。
// 明示設定 > パススタイルのカスタムエンドポイント > AWS標準形式の順。
func resolvePublicBaseURL(cfg S3Config) string {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// compile-time interface check
var _ ObjectStore = (*S3Store)(nil)
