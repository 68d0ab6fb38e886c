// Package profile はユーザープロフィールの参照・更新とアバター画像の管理を提供する。
package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/repository"
	"github.com/hitoshi/fleamart/internal/security"
	"github.com/hitoshi/fleamart/internal/storage"
)

// Input はプロフィール更新の入力。
type Input struct {
	Username  string
	FullName  string
	Bio       string
	Location  string
	AvatarURL string
}

// ServiceConfig はプロフィールサービスの設定。
type ServiceConfig struct {
	AvatarFetchTimeout time.Duration // URLインポート時のHTTPタイムアウト
	AvatarMaxSize      int64         // アバター画像の最大サイズ（バイト）
}

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	store       storage.ObjectStore
	sanitizer   security.ContentSanitizerService
	ssrfGuard   security.SSRFGuardService
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	store storage.ObjectStore,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
	config ServiceConfig,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		store:       store,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
		config:      config,
	}
}

// CreateOrUpdate はプロフィールを作成または更新する。
// プロフィール行はここで遅延作成される（サインアップ時には存在しない）。
// bioとlocationは保存前にサニタイズされる。
func (s *Service) CreateOrUpdate(ctx context.Context, userID string, input Input) (*model.Profile, error) {
	profile := &model.Profile{
		ID:        userID,
		Username:  s.sanitizer.Sanitize(input.Username),
		FullName:  s.sanitizer.Sanitize(input.FullName),
		Bio:       s.sanitizer.Sanitize(input.Bio),
		Location:  s.sanitizer.Sanitize(input.Location),
		AvatarURL: input.AvatarURL,
		UpdatedAt: time.Now(),
	}

	stored, err := s.profileRepo.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}

	slog.Info("profile updated", slog.String("user_id", userID))
	return stored, nil
}

// Get は指定ユーザーのプロフィールを取得する。
// 存在しない場合はPROFILE_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewProfileNotFoundError(userID)
	}
	return profile, nil
}

// GetCurrent は現在のユーザー自身のプロフィールを取得する。
// 未作成の場合はエラーではなくnilを返す（初回ログイン直後は未作成が正常）。
func (s *Service) GetCurrent(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return profile, nil
}

// UploadAvatar はアバター画像をストレージへアップロードし公開URLを返す。
// プロフィール行の更新は行わない。返されたURLをCreateOrUpdateの
// AvatarURLに渡すのは呼び出し側の責務。
// 以前のアバターファイルは削除しない。
func (s *Service) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if size > s.config.AvatarMaxSize {
		return "", model.NewUploadFailedError(
			fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています", s.config.AvatarMaxSize))
	}

	key := storage.AvatarKey(userID, time.Now(), filename)
	if err := s.store.Upload(ctx, key, r, size, contentType); err != nil {
		slog.Error("failed to upload avatar",
			slog.String("user_id", userID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", model.NewUploadFailedError(err.Error())
	}

	url := s.store.PublicURL(key)
	slog.Info("avatar uploaded",
		slog.String("user_id", userID),
		slog.String("key", key),
	)
	return url, nil
}

// ImportAvatarFromURL は外部URLの画像を取得してアバターとして保存し公開URLを返す。
// SSRF防止のためURLの事前検証とsafeurlクライアントによる取得を行う。
func (s *Service) ImportAvatarFromURL(ctx context.Context, userID, rawURL string) (string, error) {
	if err := s.ssrfGuard.ValidateURL(rawURL); err != nil {
		return "", model.NewUploadFailedError(fmt.Sprintf("URLが不正です: %v", err))
	}

	client := s.ssrfGuard.NewSafeClient(s.config.AvatarFetchTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", model.NewUploadFailedError(fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", model.NewUploadFailedError(fmt.Sprintf("画像の取得に失敗しました: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", model.NewUploadFailedError(
			fmt.Sprintf("画像の取得に失敗しました: status %d", resp.StatusCode))
	}

	// Content-Lengthは信頼できないため、サイズ上限はLimitReaderで強制する
	limited := io.LimitReader(resp.Body, s.config.AvatarMaxSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", model.NewUploadFailedError(fmt.Sprintf("画像の読み取りに失敗しました: %v", err))
	}
	if int64(len(data)) > s.config.AvatarMaxSize {
		return "", model.NewUploadFailedError(
			fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています", s.config.AvatarMaxSize))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return s.UploadAvatar(ctx, userID, rawURL, bytes.NewReader(data), int64(len(data)), contentType)
}
