// Package listing はマーケットプレイス出品の作成・照会・削除を提供する。
//
// 出品作成は複数の書き込み（親行の挿入、画像ファイルのアップロード、
// 画像メタデータ行の挿入、カバー画像のパッチ）からなる多段階処理で、
// トランザクションではなく手動の補償で整合性を保つ。
// 補償は完全ではない: 途中失敗時にアップロード済みの先行画像ファイルは
// ストレージに残る（孤児ファイル）。
package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fleamart/internal/metrics"
	"github.com/hitoshi/fleamart/internal/model"
	"github.com/hitoshi/fleamart/internal/repository"
	"github.com/hitoshi/fleamart/internal/security"
	"github.com/hitoshi/fleamart/internal/storage"
)

// 出品作成の失敗ステップ名。メトリクスのラベルに使用する。
const (
	stepInsertListing = "insert_listing"
	stepUploadImage   = "upload_image"
	stepInsertMeta    = "insert_image_meta"
)

// Input は出品作成の入力。
type Input struct {
	Title       string
	Description string
	Price       float64
	Currency    string
	Category    string
	Condition   string
}

// ImageFile はアップロード対象の画像ファイル。
type ImageFile struct {
	Filename    string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Service は出品に関するビジネスロジックを提供する。
type Service struct {
	listingRepo repository.ListingRepository
	imageRepo   repository.ListingImageRepository
	store       storage.ObjectStore
	sanitizer   security.ContentSanitizerService
	collector   metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	listingRepo repository.ListingRepository,
	imageRepo repository.ListingImageRepository,
	store storage.ObjectStore,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		store:       store,
		sanitizer:   sanitizer,
		collector:   collector,
	}
}

// Create は出品を作成する。処理は次の順で進む:
//
//  1. 親の出品行を挿入する（カバー画像は未設定）。
//  2. 画像を添付順に1枚ずつアップロードし、成功するたびにメタデータ行を挿入する。
//  3. 1枚以上の画像があれば、先頭画像のURLをカバーとしてパッチする（失敗は致命的でない）。
//  4. 完成した出品を所有者プロフィール・子画像付きで再取得して返す。
//
// 途中失敗時の補償:
//   - 画像アップロード失敗: 親の出品行を削除する。アップロード済みの
//     先行画像ファイルはストレージに残る。
//   - メタデータ挿入失敗: 当該ファイルをストレージから削除したうえで
//     親の出品行を削除する。先行画像ファイルは同様に残る。
//
// 再取得に失敗した場合は挿入済みの値から組み立てた結果を返す。
func (s *Service) Create(ctx context.Context, userID string, input Input, images []ImageFile) (*model.ListingDetail, error) {
	now := time.Now()
	listing := &model.Listing{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       s.sanitizer.Sanitize(input.Title),
		Description: s.sanitizer.Sanitize(input.Description),
		Price:       input.Price,
		Currency:    input.Currency,
		Category:    input.Category,
		Condition:   input.Condition,
		CreatedAt:   now,
	}

	// ステップ1: 親の出品行を挿入
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		s.collector.RecordListingCreateFailure(stepInsertListing)
		return nil, model.NewUpstreamFailureError(fmt.Sprintf("出品の作成に失敗しました: %v", err))
	}

	// ステップ2: 画像を添付順に処理
	imageRows := make([]model.ListingImage, 0, len(images))
	for i, img := range images {
		key := storage.ListingImageKey(listing.ID, userID, time.Now(), i, img.Filename)

		if err := s.store.Upload(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
			slog.Error("failed to upload listing image",
				slog.String("listing_id", listing.ID),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			s.collector.RecordListingCreateFailure(stepUploadImage)
			s.compensateListing(ctx, listing.ID)
			return nil, model.NewUploadFailedError(err.Error())
		}

		row := model.ListingImage{
			ID:        uuid.New().String(),
			ListingID: listing.ID,
			UserID:    userID,
			URL:       s.store.PublicURL(key),
			CreatedAt: time.Now(),
		}
		if err := s.imageRepo.Create(ctx, &row); err != nil {
			slog.Error("failed to insert listing image metadata",
				slog.String("listing_id", listing.ID),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			s.collector.RecordListingCreateFailure(stepInsertMeta)
			// 当該ファイルのみストレージから取り除く。先行画像のファイルは残る。
			if rmErr := s.store.Remove(ctx, key); rmErr != nil {
				slog.Warn("failed to remove uploaded file during compensation",
					slog.String("key", key),
					slog.String("error", rmErr.Error()),
				)
			}
			s.compensateListing(ctx, listing.ID)
			return nil, model.NewImageMetaFailedError(err.Error())
		}

		imageRows = append(imageRows, row)
	}

	// ステップ3: 先頭画像をカバーとしてパッチ（ベストエフォート）
	if len(imageRows) > 0 {
		coverURL := imageRows[0].URL
		if err := s.listingRepo.UpdateImageURL(ctx, listing.ID, coverURL); err != nil {
			slog.Warn("failed to patch cover image",
				slog.String("listing_id", listing.ID),
				slog.String("error", err.Error()),
			)
		} else {
			listing.ImageURL = coverURL
		}
	}

	s.collector.RecordListingCreated()
	s.collector.RecordImagesUploaded(len(imageRows))
	slog.Info("listing created",
		slog.String("listing_id", listing.ID),
		slog.String("user_id", userID),
		slog.Int("images", len(imageRows)),
	)

	// ステップ4: 完成形を再取得。失敗時は挿入済みの値にフォールバックする。
	detail, err := s.listingRepo.FindDetailByID(ctx, listing.ID)
	if err != nil || detail == nil {
		if err != nil {
			slog.Warn("failed to re-fetch created listing",
				slog.String("listing_id", listing.ID),
				slog.String("error", err.Error()),
			)
		}
		return &model.ListingDetail{Listing: *listing, Images: imageRows}, nil
	}
	return detail, nil
}

// compensateListing は途中失敗時に親の出品行を削除する。
// 削除自体の失敗はログのみ記録する（出品行とメタデータ行が残留する）。
func (s *Service) compensateListing(ctx context.Context, listingID string) {
	if err := s.listingRepo.DeleteByID(ctx, listingID); err != nil {
		slog.Error("failed to delete listing during compensation",
			slog.String("listing_id", listingID),
			slog.String("error", err.Error()),
		)
	}
}

// GetAll はフィルタ条件に合う出品を新着順で返す。
func (s *Service) GetAll(ctx context.Context, filter model.ListingFilter) ([]*model.ListingDetail, error) {
	details, err := s.listingRepo.List(ctx, filter)
	if err != nil {
		return nil, model.NewUpstreamFailureError(fmt.Sprintf("出品一覧の取得に失敗しました: %v", err))
	}
	return details, nil
}

// GetByUser は指定ユーザーの出品を新着順で返す。
func (s *Service) GetByUser(ctx context.Context, userID string) ([]*model.ListingDetail, error) {
	return s.GetAll(ctx, model.ListingFilter{UserID: userID})
}

// Get は指定IDの出品を所有者プロフィール・子画像付きで取得する。
// 存在しない場合はLISTING_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ListingDetail, error) {
	detail, err := s.listingRepo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, model.NewUpstreamFailureError(fmt.Sprintf("出品の取得に失敗しました: %v", err))
	}
	if detail == nil {
		return nil, model.NewListingNotFoundError(id)
	}
	return detail, nil
}

// Delete は指定IDの出品を削除する。所有者のみが削除できる。
// 画像メタデータ行を削除してから親の出品行を削除する。
// ストレージ上の画像ファイルは削除しない（孤児ファイルとして残る）。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return model.NewUpstreamFailureError(fmt.Sprintf("出品の取得に失敗しました: %v", err))
	}
	if listing == nil {
		return model.NewListingNotFoundError(id)
	}
	if listing.UserID != userID {
		return model.NewPermissionDeniedError()
	}

	if err := s.imageRepo.DeleteByListingID(ctx, id); err != nil {
		return model.NewUpstreamFailureError(fmt.Sprintf("画像メタデータの削除に失敗しました: %v", err))
	}
	if err := s.listingRepo.DeleteByID(ctx, id); err != nil {
		return model.NewUpstreamFailureError(fmt.Sprintf("出品の削除に失敗しました: %v", err))
	}

	slog.Info("listing deleted",
		slog.String("listing_id", id),
		slog.String("user_id", userID),
	)
	return nil
}
